package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bitfantasy/lineguide/internal/guide/cache"
	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/bitfantasy/lineguide/internal/guide/sse"
	"go.uber.org/zap"
)

// 缓存键。所有屏轮询同一组键，过期等价于回到第1页。
const (
	defaultStateTTL = time.Hour

	keyPaginationFmt     = "pagination:%s:%s"  // productID, bomKind
	keyStationStageFmt   = "station_stage:%s"   // stationID
	keyStationProcessFmt = "station_process:%s" // stationID
)

// PaginationService 分页状态管理器。以共享缓存为唯一事实来源，
// 缓存不可用时降级为第1页而不是让整个取数失败。
// 每次写页都通过hub广播page_change，各屏无需等下一次轮询。
type PaginationService struct {
	store  cache.Store
	hub    *sse.Hub
	ttl    time.Duration
	logger *zap.Logger
}

// NewPaginationService 创建分页状态管理器。stateTTL非正时取1小时。
func NewPaginationService(store cache.Store, hub *sse.Hub, stateTTL time.Duration, logger *zap.Logger) *PaginationService {
	if stateTTL <= 0 {
		stateTTL = defaultStateTTL
	}
	return &PaginationService{store: store, hub: hub, ttl: stateTTL, logger: logger}
}

func paginationKey(productID string, kind entity.BOMKind) string {
	return fmt.Sprintf(keyPaginationFmt, productID, kind)
}

// GetCurrentPage 读当前页，miss或缓存故障均返回1
func (s *PaginationService) GetCurrentPage(ctx context.Context, productID string, kind entity.BOMKind) int {
	val, err := s.store.Get(ctx, paginationKey(productID, kind))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("pagination cache unavailable, assuming page 1",
				zap.String("product_id", productID),
				zap.String("bom_kind", string(kind)),
				zap.Error(err),
			)
		}
		return 1
	}
	page, err := strconv.Atoi(val)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// SetCurrentPage 写当前页并广播page_change，下限钳到1
// （上限由调用方按total_pages钳制）
func (s *PaginationService) SetCurrentPage(ctx context.Context, productID string, kind entity.BOMKind, page int) error {
	if page < 1 {
		page = 1
	}
	if err := s.store.Set(ctx, paginationKey(productID, kind), strconv.Itoa(page), s.ttl); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.PublishPageChange(productID, string(kind), page)
	}
	return nil
}

// NextPage 翻下一页，钳在[1, totalPages]
func (s *PaginationService) NextPage(ctx context.Context, productID string, kind entity.BOMKind, totalPages int) (int, error) {
	page := s.GetCurrentPage(ctx, productID, kind) + 1
	if totalPages >= 1 && page > totalPages {
		page = totalPages
	}
	if err := s.SetCurrentPage(ctx, productID, kind, page); err != nil {
		return page, err
	}
	s.logger.Debug("page computed",
		zap.String("product_id", productID), zap.String("bom_kind", string(kind)), zap.Int("page", page))
	return page, nil
}

// PreviousPage 翻上一页，钳在[1, totalPages]
func (s *PaginationService) PreviousPage(ctx context.Context, productID string, kind entity.BOMKind, totalPages int) (int, error) {
	page := s.GetCurrentPage(ctx, productID, kind) - 1
	if page < 1 {
		page = 1
	}
	if totalPages >= 1 && page > totalPages {
		page = totalPages
	}
	if err := s.SetCurrentPage(ctx, productID, kind, page); err != nil {
		return page, err
	}
	return page, nil
}

// ResetProduct 清掉产品下所有BOM类型的分页键，各屏回到第1页
func (s *PaginationService) ResetProduct(ctx context.Context, productID string) error {
	keys := make([]string, 0, len(entity.AllBOMKinds))
	for _, kind := range entity.AllBOMKinds {
		keys = append(keys, paginationKey(productID, kind))
	}
	if err := s.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("reset pagination: %w", err)
	}
	s.logger.Info("pagination reset", zap.String("product_id", productID))
	return nil
}

// RecordObserved 记录工位当前观察到的(阶段, 工序)名对。
// 工序切换后由Sequencer对产品下每个工位调用，保证后续轮询不会二次触发重置。
func (s *PaginationService) RecordObserved(ctx context.Context, stationID, stageName, processName string) {
	if err := s.store.Set(ctx, fmt.Sprintf(keyStationStageFmt, stationID), stageName, s.ttl); err != nil {
		s.logger.Warn("record observed stage failed", zap.String("station_id", stationID), zap.Error(err))
	}
	if err := s.store.Set(ctx, fmt.Sprintf(keyStationProcessFmt, stationID), processName, s.ttl); err != nil {
		s.logger.Warn("record observed process failed", zap.String("station_id", stationID), zap.Error(err))
	}
}

// CheckAndResetOnStageChange 比对工位当前(阶段, 工序)名对与上次观察值，
// 变了就清产品全部分页键并更新观察值，返回是否发生了重置。
// 首次观察只记录不重置。缓存故障按未变化处理。
func (s *PaginationService) CheckAndResetOnStageChange(ctx context.Context, station *entity.Station) (bool, error) {
	if station.ProductID == nil {
		return false, nil
	}

	stageName := ""
	if station.Stage != nil {
		stageName = station.Stage.Name
	}
	processName := ""
	if station.Process != nil {
		processName = station.Process.Name
	}

	stageKey := fmt.Sprintf(keyStationStageFmt, station.ID)
	processKey := fmt.Sprintf(keyStationProcessFmt, station.ID)

	lastStage, stageErr := s.store.Get(ctx, stageKey)
	lastProcess, processErr := s.store.Get(ctx, processKey)

	// 任一观察键缺失视为首次观察：只记录，不重置
	if errors.Is(stageErr, cache.ErrCacheMiss) || errors.Is(processErr, cache.ErrCacheMiss) {
		s.RecordObserved(ctx, station.ID, stageName, processName)
		return false, nil
	}
	if stageErr != nil || processErr != nil {
		s.logger.Warn("observed pair cache unavailable", zap.String("station_id", station.ID))
		return false, nil
	}

	if lastStage == stageName && lastProcess == processName {
		return false, nil
	}

	s.logger.Info("stage change detected, resetting pagination",
		zap.String("station_id", station.ID),
		zap.String("from", lastStage+"/"+lastProcess),
		zap.String("to", stageName+"/"+processName),
	)
	if err := s.ResetProduct(ctx, *station.ProductID); err != nil {
		return false, err
	}
	s.RecordObserved(ctx, station.ID, stageName, processName)
	return true, nil
}
