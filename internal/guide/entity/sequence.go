package entity

import "time"

// Stage 装配阶段（如 Sub Assembly 1 / Final Assembly），按SortOrder排序
type Stage struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ProductID string    `json:"product_id" gorm:"size:32;not null;index"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Processes []Process `json:"processes,omitempty" gorm:"foreignKey:StageID"`
}

func (Stage) TableName() string {
	return "stages"
}

// Process 阶段内的单个工序，可选归属循环组
type Process struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	StageID         string    `json:"stage_id" gorm:"size:32;not null;index"`
	Name            string    `json:"name" gorm:"size:128;not null"`
	SortOrder       int       `json:"sort_order" gorm:"not null;default:0"`
	LoopGroup       *string   `json:"loop_group,omitempty" gorm:"size:64"`
	IsLooped        bool      `json:"is_looped" gorm:"default:false"`
	VideoFileID     *string   `json:"video_file_id,omitempty" gorm:"size:32"`
	DocumentFileID  *string   `json:"document_file_id,omitempty" gorm:"size:32"`
	DurationSeconds int       `json:"duration_seconds" gorm:"default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Process) TableName() string {
	return "processes"
}

// InLoopGroup 是否属于循环组
func (p *Process) InLoopGroup() bool {
	return p.LoopGroup != nil && *p.LoopGroup != ""
}
