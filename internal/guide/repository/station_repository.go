package repository

import (
	"context"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"gorm.io/gorm"
)

type StationRepository struct {
	db *gorm.DB
}

func NewStationRepository(db *gorm.DB) *StationRepository {
	return &StationRepository{db: db}
}

// Create 创建工位
func (r *StationRepository) Create(ctx context.Context, station *entity.Station) error {
	return r.db.WithContext(ctx).Create(station).Error
}

// FindByID 根据ID查找工位（含产品/阶段/工序）
func (r *StationRepository) FindByID(ctx context.Context, id string) (*entity.Station, error) {
	var station entity.Station
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Stage").
		Preload("Process").
		First(&station, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &station, nil
}

// List 获取所有工位
func (r *StationRepository) List(ctx context.Context) ([]entity.Station, error) {
	var stations []entity.Station
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Stage").
		Preload("Process").
		Order("name ASC, display_index ASC").
		Find(&stations).Error
	return stations, err
}

// ListByProduct 获取共享同一产品的所有工位
func (r *StationRepository) ListByProduct(ctx context.Context, productID string) ([]entity.Station, error) {
	var stations []entity.Station
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("name ASC, display_index ASC").
		Find(&stations).Error
	return stations, err
}

// Update 更新工位
func (r *StationRepository) Update(ctx context.Context, station *entity.Station) error {
	return r.db.WithContext(ctx).Save(station).Error
}

// BatchSetProcess 将产品下所有工位的当前阶段/工序/循环模式整批切换。
// 单条UPDATE语句执行，不存在部分工位已切换而其余未切换的中间可见状态。
func (r *StationRepository) BatchSetProcess(ctx context.Context, productID string, stageID, processID *string, loopMode bool) error {
	return r.db.WithContext(ctx).Model(&entity.Station{}).
		Where("product_id = ?", productID).
		Updates(map[string]interface{}{
			"stage_id":   stageID,
			"process_id": processID,
			"loop_mode":  loopMode,
		}).Error
}

// BatchSetLoopMode 整批切换产品下所有工位的循环模式
func (r *StationRepository) BatchSetLoopMode(ctx context.Context, productID string, loopMode bool) error {
	return r.db.WithContext(ctx).Model(&entity.Station{}).
		Where("product_id = ?", productID).
		Update("loop_mode", loopMode).Error
}
