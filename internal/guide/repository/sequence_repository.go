package repository

import (
	"context"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"gorm.io/gorm"
)

type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// ListStages 获取产品的阶段列表（含工序，均按sort_order升序）
func (r *SequenceRepository) ListStages(ctx context.Context, productID string) ([]entity.Stage, error) {
	var stages []entity.Stage
	err := r.db.WithContext(ctx).
		Preload("Processes", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("product_id = ?", productID).
		Order("sort_order ASC").
		Find(&stages).Error
	return stages, err
}

// FindStageByID 根据ID查找阶段
func (r *SequenceRepository) FindStageByID(ctx context.Context, id string) (*entity.Stage, error) {
	var stage entity.Stage
	err := r.db.WithContext(ctx).First(&stage, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &stage, nil
}

// FindProcessByID 根据ID查找工序
func (r *SequenceRepository) FindProcessByID(ctx context.Context, id string) (*entity.Process, error) {
	var process entity.Process
	err := r.db.WithContext(ctx).First(&process, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &process, nil
}

// CreateStage 创建阶段
func (r *SequenceRepository) CreateStage(ctx context.Context, stage *entity.Stage) error {
	return r.db.WithContext(ctx).Create(stage).Error
}

// CreateProcess 创建工序
func (r *SequenceRepository) CreateProcess(ctx context.Context, process *entity.Process) error {
	return r.db.WithContext(ctx).Create(process).Error
}

// UpdateStage 更新阶段
func (r *SequenceRepository) UpdateStage(ctx context.Context, stage *entity.Stage) error {
	return r.db.WithContext(ctx).Save(stage).Error
}

// UpdateProcess 更新工序
func (r *SequenceRepository) UpdateProcess(ctx context.Context, process *entity.Process) error {
	return r.db.WithContext(ctx).Save(process).Error
}

// DeleteProcess 删除工序
func (r *SequenceRepository) DeleteProcess(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&entity.Process{}, "id = ?", id).Error
}
