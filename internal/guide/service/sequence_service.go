package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/bitfantasy/lineguide/internal/guide/repository"
	"github.com/bitfantasy/lineguide/internal/guide/sse"
	"go.uber.org/zap"
)

// SequenceService 工序推进状态机。同一产品下所有工位共享当前
// (阶段, 工序)指针，每次切换整批落库并清分页状态。
type SequenceService struct {
	stationRepo *repository.StationRepository
	seqRepo     *repository.SequenceRepository
	pagination  *PaginationService
	hub         *sse.Hub
	logger      *zap.Logger
}

// NewSequenceService 创建工序推进服务
func NewSequenceService(stationRepo *repository.StationRepository, seqRepo *repository.SequenceRepository, pagination *PaginationService, hub *sse.Hub, logger *zap.Logger) *SequenceService {
	return &SequenceService{
		stationRepo: stationRepo,
		seqRepo:     seqRepo,
		pagination:  pagination,
		hub:         hub,
		logger:      logger,
	}
}

// TransitionResult 一次推进/回退的结果。
// Moved=false表示已到头（正常终态）或工位未绑定产品，不是错误。
type TransitionResult struct {
	Station         *entity.Station `json:"station"`
	Stage           *entity.Stage   `json:"stage,omitempty"`
	Process         *entity.Process `json:"process,omitempty"`
	Moved           bool            `json:"moved"`
	PaginationReset bool            `json:"pagination_reset"`
}

// position 当前指针在阶段/工序有序序列中的落点
type position struct {
	stages   []entity.Stage
	stageIdx int
	procIdx  int
}

func (p *position) stage() *entity.Stage {
	return &p.stages[p.stageIdx]
}

func (p *position) process() *entity.Process {
	return &p.stage().Processes[p.procIdx]
}

// locate 按station当前指针定位；未定位到时返回nil
func (s *SequenceService) locate(ctx context.Context, station *entity.Station) (*position, error) {
	if station.ProductID == nil {
		return nil, nil
	}
	stages, err := s.seqRepo.ListStages(ctx, *station.ProductID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	if len(stages) == 0 {
		return nil, nil
	}

	pos := &position{stages: stages}
	if station.StageID == nil || station.ProcessID == nil {
		return nil, nil
	}
	for i := range stages {
		if stages[i].ID != *station.StageID {
			continue
		}
		for j := range stages[i].Processes {
			if stages[i].Processes[j].ID == *station.ProcessID {
				pos.stageIdx = i
				pos.procIdx = j
				return pos, nil
			}
		}
	}
	return nil, nil
}

// loopSiblings 当前阶段内与proc同循环组的工序下标列表（含自身，按序）
func loopSiblings(stage *entity.Stage, proc *entity.Process) []int {
	if !proc.InLoopGroup() {
		return nil
	}
	var idxs []int
	for i := range stage.Processes {
		p := &stage.Processes[i]
		if p.InLoopGroup() && *p.LoopGroup == *proc.LoopGroup {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// Advance 推进到下一工序。循环模式下在循环组内环形前进；
// 否则阶段内顺序前进，阶段走完进入下一阶段首工序；终点返回Moved=false。
func (s *SequenceService) Advance(ctx context.Context, stationID string) (*TransitionResult, error) {
	return s.transition(ctx, stationID, true)
}

// Retreat 回退到上一工序，Advance的镜像
func (s *SequenceService) Retreat(ctx context.Context, stationID string) (*TransitionResult, error) {
	return s.transition(ctx, stationID, false)
}

func (s *SequenceService) transition(ctx context.Context, stationID string, forward bool) (*TransitionResult, error) {
	station, err := s.stationRepo.FindByID(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("station not found: %w", err)
	}

	pos, err := s.locate(ctx, station)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		// 未绑定产品或指针失效：定义为空结果而非错误
		return &TransitionResult{Station: station}, nil
	}

	cur := pos.process()
	nextStageIdx, nextProcIdx, ok := s.step(pos, forward, station.LoopMode)
	if !ok {
		return &TransitionResult{
			Station: station,
			Stage:   pos.stage(),
			Process: cur,
		}, nil
	}

	stageChanged := nextStageIdx != pos.stageIdx
	nextStage := &pos.stages[nextStageIdx]
	nextProc := &nextStage.Processes[nextProcIdx]

	// 进入带循环组的is_looped工序自动开循环；换阶段且新工序无组自动关循环
	loopMode := station.LoopMode
	if nextProc.IsLooped && nextProc.InLoopGroup() {
		loopMode = true
	} else if stageChanged && !nextProc.InLoopGroup() {
		loopMode = false
	}

	// 同产品所有工位一次批量切换，避免部分工位可见旧工序
	if err := s.stationRepo.BatchSetProcess(ctx, *station.ProductID, &nextStage.ID, &nextProc.ID, loopMode); err != nil {
		return nil, fmt.Errorf("batch set process: %w", err)
	}

	reset := false
	if nextStage.ID != *station.StageID || nextProc.ID != *station.ProcessID {
		// 工序指针变了：清产品分页并同步每个工位的观察值
		if err := s.pagination.ResetProduct(ctx, *station.ProductID); err != nil {
			s.logger.Warn("pagination reset failed after transition", zap.Error(err))
		} else {
			reset = true
		}
		siblings, err := s.stationRepo.ListByProduct(ctx, *station.ProductID)
		if err == nil {
			for _, sib := range siblings {
				s.pagination.RecordObserved(ctx, sib.ID, nextStage.Name, nextProc.Name)
			}
		}
		s.hub.PublishProcessChange(*station.ProductID, nextStage.Name, nextProc.Name)
	}

	s.logger.Info("process transition",
		zap.String("station_id", stationID),
		zap.String("product_id", *station.ProductID),
		zap.Bool("forward", forward),
		zap.String("stage", nextStage.Name),
		zap.String("process", nextProc.Name),
		zap.Bool("loop_mode", loopMode),
	)

	station.StageID = &nextStage.ID
	station.ProcessID = &nextProc.ID
	station.Stage = nextStage
	station.Process = nextProc
	station.LoopMode = loopMode

	return &TransitionResult{
		Station:         station,
		Stage:           nextStage,
		Process:         nextProc,
		Moved:           true,
		PaginationReset: reset,
	}, nil
}

// step 计算下一个落点，ok=false表示到头
func (s *SequenceService) step(pos *position, forward, loopMode bool) (stageIdx, procIdx int, ok bool) {
	cur := pos.process()

	if loopMode && cur.InLoopGroup() {
		group := loopSiblings(pos.stage(), cur)
		for i, idx := range group {
			if idx == pos.procIdx {
				if forward {
					return pos.stageIdx, group[(i+1)%len(group)], true
				}
				return pos.stageIdx, group[(i-1+len(group))%len(group)], true
			}
		}
	}

	if forward {
		if pos.procIdx+1 < len(pos.stage().Processes) {
			return pos.stageIdx, pos.procIdx + 1, true
		}
		for i := pos.stageIdx + 1; i < len(pos.stages); i++ {
			if len(pos.stages[i].Processes) > 0 {
				return i, 0, true
			}
		}
		return 0, 0, false
	}

	if pos.procIdx > 0 {
		return pos.stageIdx, pos.procIdx - 1, true
	}
	for i := pos.stageIdx - 1; i >= 0; i-- {
		if len(pos.stages[i].Processes) > 0 {
			return i, len(pos.stages[i].Processes) - 1, true
		}
	}
	return 0, 0, false
}

// ToggleLoop 翻转循环模式。仅当前工序is_looped且有循环组才允许，
// 不触发分页重置。
func (s *SequenceService) ToggleLoop(ctx context.Context, stationID string) (*entity.Station, error) {
	station, err := s.stationRepo.FindByID(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("station not found: %w", err)
	}
	if station.ProductID == nil || station.Process == nil {
		return nil, fmt.Errorf("工位未绑定产品或工序")
	}
	if !station.Process.IsLooped || !station.Process.InLoopGroup() {
		return nil, fmt.Errorf("当前工序不支持循环模式")
	}

	loopMode := !station.LoopMode
	if err := s.stationRepo.BatchSetLoopMode(ctx, *station.ProductID, loopMode); err != nil {
		return nil, fmt.Errorf("batch set loop mode: %w", err)
	}
	station.LoopMode = loopMode
	return station, nil
}

// AssignInput 工位绑定请求
type AssignInput struct {
	ProductID    string `json:"product_id" binding:"required"`
	Quantity     int    `json:"quantity"`
	DisplayIndex int    `json:"display_index"`
}

// AssignProduct 给工位绑定产品并把指针重置到首阶段首工序。
// 同产品其余工位的指针一并重置，分页清零。
func (s *SequenceService) AssignProduct(ctx context.Context, stationID string, input *AssignInput) (*entity.Station, error) {
	station, err := s.stationRepo.FindByID(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("station not found: %w", err)
	}

	stages, err := s.seqRepo.ListStages(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}

	var stageID, processID *string
	var stageName, processName string
	for i := range stages {
		if len(stages[i].Processes) > 0 {
			stageID = &stages[i].ID
			processID = &stages[i].Processes[0].ID
			stageName = stages[i].Name
			processName = stages[i].Processes[0].Name
			break
		}
	}

	station.ProductID = &input.ProductID
	station.StageID = stageID
	station.ProcessID = processID
	station.LoopMode = false
	if input.Quantity > 0 {
		station.Quantity = input.Quantity
	}
	if input.DisplayIndex >= 1 && input.DisplayIndex <= ScreensPerPage {
		station.DisplayIndex = input.DisplayIndex
	}
	station.UpdatedAt = time.Now()

	if err := s.stationRepo.Update(ctx, station); err != nil {
		return nil, fmt.Errorf("update station: %w", err)
	}
	// 同产品其余工位一并对齐到首工序
	if err := s.stationRepo.BatchSetProcess(ctx, input.ProductID, stageID, processID, false); err != nil {
		return nil, fmt.Errorf("batch set process: %w", err)
	}
	if err := s.pagination.ResetProduct(ctx, input.ProductID); err != nil {
		s.logger.Warn("pagination reset failed after assign", zap.Error(err))
	}
	siblings, err := s.stationRepo.ListByProduct(ctx, input.ProductID)
	if err == nil {
		for _, sib := range siblings {
			s.pagination.RecordObserved(ctx, sib.ID, stageName, processName)
		}
	}
	// 只通知本工位的屏：换绑不影响其它工位的连接
	s.hub.SendToStation(stationID, sse.Event{
		EventType: "station_assigned",
		Data:      fmt.Sprintf(`{"product_id":"%s","stage":"%s","process":"%s"}`, input.ProductID, stageName, processName),
	})

	return s.stationRepo.FindByID(ctx, stationID)
}
