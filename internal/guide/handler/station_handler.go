package handler

import (
	"errors"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/bitfantasy/lineguide/internal/guide/repository"
	"github.com/bitfantasy/lineguide/internal/guide/service"
	"github.com/gin-gonic/gin"
)

// StationHandler 工位操作：工序推进/回退、循环切换、翻页、绑定产品
type StationHandler struct {
	sequenceSvc   *service.SequenceService
	paginationSvc *service.PaginationService
	displaySvc    *service.DisplayService
	stationRepo   *repository.StationRepository
}

func NewStationHandler(sequenceSvc *service.SequenceService, paginationSvc *service.PaginationService, displaySvc *service.DisplayService, stationRepo *repository.StationRepository) *StationHandler {
	return &StationHandler{
		sequenceSvc:   sequenceSvc,
		paginationSvc: paginationSvc,
		displaySvc:    displaySvc,
		stationRepo:   stationRepo,
	}
}

// List 工位列表
// GET /api/v1/stations
func (h *StationHandler) List(c *gin.Context) {
	stations, err := h.stationRepo.List(c.Request.Context())
	if err != nil {
		InternalError(c, "获取工位列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": stations})
}

// Get 工位详情
// GET /api/v1/stations/:id
func (h *StationHandler) Get(c *gin.Context) {
	station, err := h.stationRepo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		NotFound(c, "工位不存在")
		return
	}
	Success(c, station)
}

// Create 创建工位
// POST /api/v1/stations
func (h *StationHandler) Create(c *gin.Context) {
	var input struct {
		ID           string `json:"id"`
		Name         string `json:"name" binding:"required"`
		DisplayIndex int    `json:"display_index"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if input.DisplayIndex < 1 || input.DisplayIndex > 3 {
		input.DisplayIndex = 1
	}
	station := &entity.Station{
		ID:           input.ID,
		Name:         input.Name,
		DisplayIndex: input.DisplayIndex,
		Quantity:     1,
	}
	if station.ID == "" {
		station.ID = newID()
	}
	if err := h.stationRepo.Create(c.Request.Context(), station); err != nil {
		InternalError(c, "创建工位失败: "+err.Error())
		return
	}
	Created(c, station)
}

// Advance 推进到下一工序
// POST /api/v1/stations/:id/advance
func (h *StationHandler) Advance(c *gin.Context) {
	result, err := h.sequenceSvc.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderSequenceError(c, err)
		return
	}
	Success(c, result)
}

// Retreat 回退到上一工序
// POST /api/v1/stations/:id/retreat
func (h *StationHandler) Retreat(c *gin.Context) {
	result, err := h.sequenceSvc.Retreat(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderSequenceError(c, err)
		return
	}
	Success(c, result)
}

// ToggleLoop 切换循环模式
// POST /api/v1/stations/:id/loop
func (h *StationHandler) ToggleLoop(c *gin.Context) {
	station, err := h.sequenceSvc.ToggleLoop(c.Request.Context(), c.Param("id"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Success(c, station)
}

// Assign 绑定产品/数量
// POST /api/v1/stations/:id/assign
func (h *StationHandler) Assign(c *gin.Context) {
	var input service.AssignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	station, err := h.sequenceSvc.AssignProduct(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		h.renderSequenceError(c, err)
		return
	}
	Success(c, station)
}

// pageContext 解析翻页请求的(product, kind, total_pages)
func (h *StationHandler) pageContext(c *gin.Context) (string, entity.BOMKind, int, bool) {
	station, err := h.stationRepo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		NotFound(c, "工位不存在")
		return "", "", 0, false
	}
	if station.ProductID == nil {
		BadRequest(c, "工位未绑定产品")
		return "", "", 0, false
	}
	// 未指定类型时按工位当前阶段推导，与轮询侧同一套规则，
	// 否则翻页和轮询会落在不同的分页键上
	kind := entity.BOMKind(c.Query("kind"))
	if kind == "" {
		kind = service.DefaultKindForStage(station.Stage)
	}
	if !kind.Valid() {
		BadRequest(c, "未知的BOM类型: "+string(kind))
		return "", "", 0, false
	}

	totalPages := 1
	items, _, err := h.displaySvc.GetScaledItems(c.Request.Context(), *station.ProductID, kind, station.Quantity)
	if err == nil {
		totalPages = service.PaginationInfo(kind, len(items)).TotalPages
	} else if !errors.Is(err, service.ErrTemplateNotFound) {
		InternalError(c, "获取BOM失败: "+err.Error())
		return "", "", 0, false
	}
	return *station.ProductID, kind, totalPages, true
}

// NextPage 翻下一页
// POST /api/v1/stations/:id/page/next?kind=BATCH
func (h *StationHandler) NextPage(c *gin.Context) {
	productID, kind, totalPages, ok := h.pageContext(c)
	if !ok {
		return
	}
	page, err := h.paginationSvc.NextPage(c.Request.Context(), productID, kind, totalPages)
	if err != nil {
		InternalError(c, "翻页失败: "+err.Error())
		return
	}
	Success(c, gin.H{"page": page, "total_pages": totalPages})
}

// PreviousPage 翻上一页
// POST /api/v1/stations/:id/page/previous?kind=BATCH
func (h *StationHandler) PreviousPage(c *gin.Context) {
	productID, kind, totalPages, ok := h.pageContext(c)
	if !ok {
		return
	}
	page, err := h.paginationSvc.PreviousPage(c.Request.Context(), productID, kind, totalPages)
	if err != nil {
		InternalError(c, "翻页失败: "+err.Error())
		return
	}
	Success(c, gin.H{"page": page, "total_pages": totalPages})
}

// SetPage 直接设页
// PUT /api/v1/stations/:id/page?kind=BATCH  body: {"page": 2}
func (h *StationHandler) SetPage(c *gin.Context) {
	var input struct {
		Page int `json:"page" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	productID, kind, totalPages, ok := h.pageContext(c)
	if !ok {
		return
	}
	page := input.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if err := h.paginationSvc.SetCurrentPage(c.Request.Context(), productID, kind, page); err != nil {
		InternalError(c, "翻页失败: "+err.Error())
		return
	}
	Success(c, gin.H{"page": page, "total_pages": totalPages})
}

func (h *StationHandler) renderSequenceError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		NotFound(c, "工位不存在")
		return
	}
	InternalError(c, err.Error())
}
