package repository

import (
	"context"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create 创建产品
func (r *ProductRepository) Create(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID 根据ID查找产品
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var product entity.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &product, nil
}

// List 获取产品列表
func (r *ProductRepository) List(ctx context.Context, status string) ([]entity.Product, error) {
	var products []entity.Product
	query := r.db.WithContext(ctx)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("code ASC").Find(&products).Error
	return products, err
}

// Update 更新产品
func (r *ProductRepository) Update(ctx context.Context, product *entity.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}
