package repository

import (
	"context"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create 创建BOM模板
func (r *TemplateRepository) Create(ctx context.Context, tpl *entity.BOMTemplate) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

// FindByID 根据ID查找模板（含active行项，按serial_number升序）
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.BOMTemplate, error) {
	var tpl entity.BOMTemplate
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("serial_number ASC")
		}).
		First(&tpl, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &tpl, nil
}

// FindActive 查找(product, bom_kind)的active模板（含active行项，按serial_number升序）
func (r *TemplateRepository) FindActive(ctx context.Context, productID string, kind entity.BOMKind) (*entity.BOMTemplate, error) {
	var tpl entity.BOMTemplate
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("serial_number ASC")
		}).
		Where("product_id = ? AND bom_kind = ? AND active = ?", productID, kind, true).
		First(&tpl).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &tpl, nil
}

// ListByProduct 获取产品的模板列表
func (r *TemplateRepository) ListByProduct(ctx context.Context, productID string, kind entity.BOMKind) ([]entity.BOMTemplate, error) {
	var tpls []entity.BOMTemplate
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if kind != "" {
		query = query.Where("bom_kind = ?", kind)
	}
	err := query.Order("created_at DESC").Find(&tpls).Error
	return tpls, err
}

// Update 更新模板
func (r *TemplateRepository) Update(ctx context.Context, tpl *entity.BOMTemplate) error {
	return r.db.WithContext(ctx).Save(tpl).Error
}

// Delete 删除模板及其行项
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.BOMLineItem{}, "template_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.BOMTemplate{}, "id = ?", id).Error
	})
}

// DeactivateOthers 保证(product, bom_kind)单active模板：停用除exceptID外的全部模板
func (r *TemplateRepository) DeactivateOthers(ctx context.Context, productID string, kind entity.BOMKind, exceptID string) error {
	return r.db.WithContext(ctx).Model(&entity.BOMTemplate{}).
		Where("product_id = ? AND bom_kind = ? AND id <> ?", productID, kind, exceptID).
		Update("active", false).Error
}

// CreateItem 创建行项
func (r *TemplateRepository) CreateItem(ctx context.Context, item *entity.BOMLineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// BatchCreateItems 批量创建行项
func (r *TemplateRepository) BatchCreateItems(ctx context.Context, items []entity.BOMLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// FindItemByID 根据ID查找行项
func (r *TemplateRepository) FindItemByID(ctx context.Context, id string) (*entity.BOMLineItem, error) {
	var item entity.BOMLineItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &item, nil
}

// UpdateItem 更新行项
func (r *TemplateRepository) UpdateItem(ctx context.Context, item *entity.BOMLineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeactivateItem 软删除行项（active=false）
func (r *TemplateRepository) DeactivateItem(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entity.BOMLineItem{}).
		Where("id = ?", id).
		Update("active", false).Error
}

// CountActiveItems 统计模板的active行项数
func (r *TemplateRepository) CountActiveItems(ctx context.Context, templateID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.BOMLineItem{}).
		Where("template_id = ? AND active = ?", templateID, true).
		Count(&count).Error
	return count, err
}

// MaxSerialNumber 获取模板当前最大序号（导入追加时续号用）
func (r *TemplateRepository) MaxSerialNumber(ctx context.Context, templateID string) (int, error) {
	var maxNum *int
	err := r.db.WithContext(ctx).Model(&entity.BOMLineItem{}).
		Where("template_id = ?", templateID).
		Select("MAX(serial_number)").Scan(&maxNum).Error
	if err != nil {
		return 0, err
	}
	if maxNum == nil {
		return 0, nil
	}
	return *maxNum, nil
}
