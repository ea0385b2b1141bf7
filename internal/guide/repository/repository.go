package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Product  *ProductRepository
	Sequence *SequenceRepository
	Station  *StationRepository
	Template *TemplateRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:  NewProductRepository(db),
		Sequence: NewSequenceRepository(db),
		Station:  NewStationRepository(db),
		Template: NewTemplateRepository(db),
	}
}

// wrapNotFound 将gorm的未找到错误统一为ErrNotFound
func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
