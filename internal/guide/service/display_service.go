package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/bitfantasy/lineguide/internal/guide/repository"
	"go.uber.org/zap"
)

// DisplayService 组装单屏轮询载荷：当前工序、分页信息与该屏行项切片
type DisplayService struct {
	stationRepo *repository.StationRepository
	templateSvc *TemplateService
	pagination  *PaginationService
	logger      *zap.Logger
}

// NewDisplayService 创建显示服务
func NewDisplayService(stationRepo *repository.StationRepository, templateSvc *TemplateService, pagination *PaginationService, logger *zap.Logger) *DisplayService {
	return &DisplayService{
		stationRepo: stationRepo,
		templateSvc: templateSvc,
		pagination:  pagination,
		logger:      logger,
	}
}

// DisplaySnapshot 单屏一次轮询的完整载荷
type DisplaySnapshot struct {
	StationID       string          `json:"station_id"`
	DisplayIndex    int             `json:"display_index"`
	Product         *entity.Product `json:"product,omitempty"`
	Stage           *entity.Stage   `json:"stage,omitempty"`
	Process         *entity.Process `json:"process,omitempty"`
	Quantity        int             `json:"quantity"`
	LoopMode        bool            `json:"loop_mode"`
	BOMKind         entity.BOMKind  `json:"bom_kind,omitempty"`
	HasBOM          bool            `json:"has_bom"`
	Screens         []int           `json:"screens,omitempty"`
	PageInfo        *PageInfo       `json:"page_info,omitempty"`
	CurrentPage     int             `json:"current_page"`
	Items           []ScaledItem    `json:"items"`
	PaginationReset bool            `json:"pagination_reset"`
}

// GetSnapshot 取某屏的当前显示载荷。kind为空时按当前阶段推导。
// 工位未绑定产品或没有对应BOM模板都是合法的空载荷，不报错。
func (s *DisplayService) GetSnapshot(ctx context.Context, stationID string, kind entity.BOMKind) (*DisplaySnapshot, error) {
	station, err := s.stationRepo.FindByID(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("station not found: %w", err)
	}

	snapshot := &DisplaySnapshot{
		StationID:    station.ID,
		DisplayIndex: station.DisplayIndex,
		Product:      station.Product,
		Stage:        station.Stage,
		Process:      station.Process,
		Quantity:     station.Quantity,
		LoopMode:     station.LoopMode,
		CurrentPage:  1,
		Items:        []ScaledItem{},
	}
	if station.ProductID == nil {
		return snapshot, nil
	}

	// 轮询侧兜底检测工序切换；Sequencer正常路径已清过，这里抓漏
	reset, err := s.pagination.CheckAndResetOnStageChange(ctx, station)
	if err != nil {
		s.logger.Warn("stage change check failed", zap.String("station_id", stationID), zap.Error(err))
	}
	snapshot.PaginationReset = reset

	if kind == "" {
		kind = DefaultKindForStage(station.Stage)
	}
	snapshot.BOMKind = kind

	items, tpl, err := s.templateSvc.GetScaledBOM(ctx, *station.ProductID, kind, station.Quantity)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			// 该屏无BOM
			return snapshot, nil
		}
		return nil, err
	}
	snapshot.HasBOM = true
	snapshot.Screens = tpl.ScreenList()

	info := PaginationInfo(kind, len(items))
	snapshot.PageInfo = &info

	page := s.pagination.GetCurrentPage(ctx, *station.ProductID, kind)
	snapshot.CurrentPage = page
	snapshot.Items = ItemsForDisplay(items, kind, station.DisplayIndex, page, ItemsPerScreen)
	if snapshot.Items == nil {
		snapshot.Items = []ScaledItem{}
	}
	return snapshot, nil
}

// GetScaledItems 全量缩放视图，不做屏切片
func (s *DisplayService) GetScaledItems(ctx context.Context, productID string, kind entity.BOMKind, quantity int) ([]ScaledItem, *PageInfo, error) {
	items, _, err := s.templateSvc.GetScaledBOM(ctx, productID, kind, quantity)
	if err != nil {
		return nil, nil, err
	}
	info := PaginationInfo(kind, len(items))
	return items, &info, nil
}

// GetPageForDisplay 按(product, bom_kind, display, page)直接取某屏某页的切片
func (s *DisplayService) GetPageForDisplay(ctx context.Context, productID string, kind entity.BOMKind, display, page, perScreen, quantity int) ([]ScaledItem, *PageInfo, error) {
	items, _, err := s.templateSvc.GetScaledBOM(ctx, productID, kind, quantity)
	if err != nil {
		return nil, nil, err
	}
	info := PaginationInfo(kind, len(items))
	slice := ItemsForDisplay(items, kind, display, page, perScreen)
	if slice == nil {
		slice = []ScaledItem{}
	}
	return slice, &info, nil
}

// DefaultKindForStage 未显式指定BOM类型时的推导：
// 阶段序1..4映射STAGE_1..4，再往后FINAL；无阶段指针退到SINGLE_UNIT。
func DefaultKindForStage(stage *entity.Stage) entity.BOMKind {
	if stage == nil {
		return entity.BOMKindSingleUnit
	}
	switch stage.SortOrder {
	case 1:
		return entity.BOMKindStage1
	case 2:
		return entity.BOMKindStage2
	case 3:
		return entity.BOMKindStage3
	case 4:
		return entity.BOMKindStage4
	}
	return entity.BOMKindFinal
}
