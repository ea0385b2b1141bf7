package handler

import (
	"errors"
	"time"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/bitfantasy/lineguide/internal/guide/repository"
	"github.com/gin-gonic/gin"
)

// ProductHandler 产品与工序序列维护接口
type ProductHandler struct {
	productRepo  *repository.ProductRepository
	sequenceRepo *repository.SequenceRepository
}

// NewProductHandler 创建产品处理器
func NewProductHandler(productRepo *repository.ProductRepository, sequenceRepo *repository.SequenceRepository) *ProductHandler {
	return &ProductHandler{productRepo: productRepo, sequenceRepo: sequenceRepo}
}

// List GET /products
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.productRepo.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, products)
}

// Get GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.productRepo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "产品不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, product)
}

// CreateProductInput 创建产品请求
type CreateProductInput struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// Create POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	product := &entity.Product{
		ID:          newID(),
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
		Status:      "active",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := h.productRepo.Create(c.Request.Context(), product); err != nil {
		InternalError(c, err.Error())
		return
	}

	Created(c, product)
}

// ListStages GET /products/:id/stages
func (h *ProductHandler) ListStages(c *gin.Context) {
	stages, err := h.sequenceRepo.ListStages(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, stages)
}

// CreateStageInput 创建阶段请求
type CreateStageInput struct {
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

// CreateStage POST /products/:id/stages
func (h *ProductHandler) CreateStage(c *gin.Context) {
	var input CreateStageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	if _, err := h.productRepo.FindByID(c.Request.Context(), c.Param("id")); err != nil {
		NotFound(c, "产品不存在")
		return
	}

	stage := &entity.Stage{
		ID:        newID(),
		ProductID: c.Param("id"),
		Name:      input.Name,
		SortOrder: input.SortOrder,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := h.sequenceRepo.CreateStage(c.Request.Context(), stage); err != nil {
		InternalError(c, err.Error())
		return
	}

	Created(c, stage)
}

// CreateProcessInput 创建工序请求
type CreateProcessInput struct {
	Name            string  `json:"name" binding:"required"`
	SortOrder       int     `json:"sort_order"`
	LoopGroup       *string `json:"loop_group"`
	IsLooped        bool    `json:"is_looped"`
	VideoFileID     *string `json:"video_file_id"`
	DocumentFileID  *string `json:"document_file_id"`
	DurationSeconds int     `json:"duration_seconds"`
}

// CreateProcess POST /stages/:id/processes
func (h *ProductHandler) CreateProcess(c *gin.Context) {
	var input CreateProcessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	stage, err := h.sequenceRepo.FindStageByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		NotFound(c, "阶段不存在")
		return
	}

	process := &entity.Process{
		ID:              newID(),
		StageID:         stage.ID,
		Name:            input.Name,
		SortOrder:       input.SortOrder,
		LoopGroup:       input.LoopGroup,
		IsLooped:        input.IsLooped,
		VideoFileID:     input.VideoFileID,
		DocumentFileID:  input.DocumentFileID,
		DurationSeconds: input.DurationSeconds,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := h.sequenceRepo.CreateProcess(c.Request.Context(), process); err != nil {
		InternalError(c, err.Error())
		return
	}

	Created(c, process)
}

// DeleteProcess DELETE /processes/:id
func (h *ProductHandler) DeleteProcess(c *gin.Context) {
	if err := h.sequenceRepo.DeleteProcess(c.Request.Context(), c.Param("id")); err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"deleted": true})
}
