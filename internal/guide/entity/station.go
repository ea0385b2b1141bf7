package entity

import "time"

// Station 工位显示屏。DisplayIndex为该屏在工位3屏布局中的位置(1-3)。
// 同一产品下的所有Station共享当前阶段/工序指针，切换时整批更新。
type Station struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	DisplayIndex int       `json:"display_index" gorm:"not null;default:1"` // 1|2|3
	ProductID    *string   `json:"product_id,omitempty" gorm:"size:32;index"`
	StageID      *string   `json:"stage_id,omitempty" gorm:"size:32"`
	ProcessID    *string   `json:"process_id,omitempty" gorm:"size:32"`
	Quantity     int       `json:"quantity" gorm:"not null;default:1"` // 生产数量
	LoopMode     bool      `json:"loop_mode" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Stage   *Stage   `json:"stage,omitempty" gorm:"foreignKey:StageID"`
	Process *Process `json:"process,omitempty" gorm:"foreignKey:ProcessID"`
}

func (Station) TableName() string {
	return "stations"
}
