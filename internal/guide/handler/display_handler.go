package handler

import (
	"errors"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/bitfantasy/lineguide/internal/guide/service"
	"github.com/gin-gonic/gin"
)

// DisplayHandler 显示屏取数接口
type DisplayHandler struct {
	displaySvc    *service.DisplayService
	paginationSvc *service.PaginationService
}

func NewDisplayHandler(displaySvc *service.DisplayService, paginationSvc *service.PaginationService) *DisplayHandler {
	return &DisplayHandler{displaySvc: displaySvc, paginationSvc: paginationSvc}
}

// Snapshot 单屏轮询载荷
// GET /api/v1/stations/:id/display?kind=BATCH
func (h *DisplayHandler) Snapshot(c *gin.Context) {
	kind := entity.BOMKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		BadRequest(c, "未知的BOM类型: "+string(kind))
		return
	}

	snapshot, err := h.displaySvc.GetSnapshot(c.Request.Context(), c.Param("id"), kind)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuantity) {
			BadRequest(c, "生产数量必须大于0")
			return
		}
		NotFound(c, "工位不存在: "+err.Error())
		return
	}
	Success(c, snapshot)
}

// ScaledBOM 按数量缩放后的完整BOM
// GET /api/v1/products/:id/bom/:kind?quantity=5
func (h *DisplayHandler) ScaledBOM(c *gin.Context) {
	kind := entity.BOMKind(c.Param("kind"))
	if !kind.Valid() {
		BadRequest(c, "未知的BOM类型: "+string(kind))
		return
	}
	quantity := QueryInt(c, "quantity", 1)

	items, info, err := h.displaySvc.GetScaledItems(c.Request.Context(), c.Param("id"), kind, quantity)
	if err != nil {
		h.renderBOMError(c, err)
		return
	}
	Success(c, gin.H{"items": items, "page_info": info})
}

// PageForDisplay 某屏某页的行项切片
// GET /api/v1/products/:id/bom/:kind/page?display=2&page=1&quantity=5
func (h *DisplayHandler) PageForDisplay(c *gin.Context) {
	kind := entity.BOMKind(c.Param("kind"))
	if !kind.Valid() {
		BadRequest(c, "未知的BOM类型: "+string(kind))
		return
	}
	display := QueryInt(c, "display", 1)
	page := QueryInt(c, "page", 0)
	if page == 0 {
		page = h.paginationSvc.GetCurrentPage(c.Request.Context(), c.Param("id"), kind)
	}
	quantity := QueryInt(c, "quantity", 1)

	items, info, err := h.displaySvc.GetPageForDisplay(c.Request.Context(), c.Param("id"), kind, display, page, 0, quantity)
	if err != nil {
		h.renderBOMError(c, err)
		return
	}
	Success(c, gin.H{
		"items":     items,
		"page":      page,
		"display":   display,
		"page_info": info,
	})
}

func (h *DisplayHandler) renderBOMError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		NotFound(c, "该产品没有此类型的BOM模板")
	case errors.Is(err, service.ErrInvalidQuantity):
		BadRequest(c, "生产数量必须大于0")
	default:
		InternalError(c, "获取BOM失败: "+err.Error())
	}
}
