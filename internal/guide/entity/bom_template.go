package entity

import (
	"strconv"
	"strings"
	"time"
)

// BOMKind BOM类型。SINGLE_UNIT/BATCH按数量缩放并跨3屏拆分；
// STAGE_*与FINAL整表显示在1号屏，不缩放不拆分。
type BOMKind string

const (
	BOMKindSingleUnit BOMKind = "SINGLE_UNIT"
	BOMKindBatch      BOMKind = "BATCH"
	BOMKindStage1     BOMKind = "STAGE_1"
	BOMKindStage2     BOMKind = "STAGE_2"
	BOMKindStage3     BOMKind = "STAGE_3"
	BOMKindStage4     BOMKind = "STAGE_4"
	BOMKindFinal      BOMKind = "FINAL"
)

// AllBOMKinds 全部BOM类型（分页重置时按此遍历清理缓存键）
var AllBOMKinds = []BOMKind{
	BOMKindSingleUnit,
	BOMKindBatch,
	BOMKindStage1,
	BOMKindStage2,
	BOMKindStage3,
	BOMKindStage4,
	BOMKindFinal,
}

// Valid 是否合法的BOM类型
func (k BOMKind) Valid() bool {
	for _, v := range AllBOMKinds {
		if k == v {
			return true
		}
	}
	return false
}

// ShouldSplit 是否跨3屏拆分显示
func (k BOMKind) ShouldSplit() bool {
	return k == BOMKindSingleUnit || k == BOMKindBatch
}

// 计量单位
const (
	UnitCount  = "COUNT"
	UnitWeight = "WEIGHT"
	UnitVolume = "VOLUME"
)

// BOMTemplate BOM模板。同一(product_id, bom_kind)最多一个active模板。
type BOMTemplate struct {
	ID              string    `json:"id" gorm:"primaryKey;size:32"`
	ProductID       string    `json:"product_id" gorm:"size:32;not null;index:idx_bom_templates_product_kind"`
	BOMKind         BOMKind   `json:"bom_kind" gorm:"size:16;not null;index:idx_bom_templates_product_kind"`
	Name            string    `json:"name" gorm:"size:128;not null"`
	DurationSeconds int       `json:"duration_seconds" gorm:"default:0"`
	DurationActive  bool      `json:"duration_active" gorm:"default:false"`
	TargetScreens   string    `json:"target_screens" gorm:"size:16;default:1"` // 逗号分隔，如 "1,2,3"
	Active          bool      `json:"active" gorm:"default:true"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relations
	Items []BOMLineItem `json:"items,omitempty" gorm:"foreignKey:TemplateID"`
}

func (BOMTemplate) TableName() string {
	return "bom_templates"
}

// ScreenList 解析TargetScreens为屏号列表
func (t *BOMTemplate) ScreenList() []int {
	var screens []int
	for _, part := range strings.Split(t.TargetScreens, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n >= 1 && n <= 3 {
			screens = append(screens, n)
		}
	}
	return screens
}

// BOMLineItem BOM行项。SerialNumber模板内唯一但允许留空洞，
// 软删除通过Active标记。
type BOMLineItem struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	TemplateID   string    `json:"template_id" gorm:"size:32;not null;index"`
	SerialNumber int       `json:"serial_number" gorm:"not null"`
	ItemRef      string    `json:"item_ref" gorm:"size:128;not null"`
	BaseQuantity float64   `json:"base_quantity" gorm:"type:numeric(15,4);not null;default:1"`
	Unit         string    `json:"unit" gorm:"size:16;not null;default:COUNT"` // COUNT/WEIGHT/VOLUME
	Notes        string    `json:"notes,omitempty"`
	Active       bool      `json:"active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (BOMLineItem) TableName() string {
	return "bom_line_items"
}
