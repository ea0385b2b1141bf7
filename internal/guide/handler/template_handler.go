package handler

import (
	"errors"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/bitfantasy/lineguide/internal/guide/service"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// TemplateHandler BOM模板接口
type TemplateHandler struct {
	svc *service.TemplateService
}

// NewTemplateHandler 创建BOM模板处理器
func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// List GET /products/:id/templates
func (h *TemplateHandler) List(c *gin.Context) {
	productID := c.Param("id")
	kind := entity.BOMKind(c.Query("kind"))

	templates, err := h.svc.ListTemplates(c.Request.Context(), productID, kind)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, templates)
}

// Create POST /templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var input service.CreateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	tpl, err := h.svc.CreateTemplate(c.Request.Context(), &input)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	Created(c, tpl)
}

// Get GET /templates/:id
func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.svc.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			NotFound(c, "模板不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, tpl)
}

// AddItem POST /templates/:id/items
func (h *TemplateHandler) AddItem(c *gin.Context) {
	templateID := c.Param("id")

	var input service.LineItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	item, err := h.svc.AddItem(c.Request.Context(), templateID, &input)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			NotFound(c, "模板不存在")
			return
		}
		BadRequest(c, err.Error())
		return
	}

	Created(c, item)
}

// UpdateItem PUT /templates/:id/items/:itemId
func (h *TemplateHandler) UpdateItem(c *gin.Context) {
	templateID := c.Param("id")
	itemID := c.Param("itemId")

	var input service.LineItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	item, err := h.svc.UpdateItem(c.Request.Context(), templateID, itemID, &input)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	Success(c, item)
}

// RemoveItem DELETE /templates/:id/items/:itemId
func (h *TemplateHandler) RemoveItem(c *gin.Context) {
	templateID := c.Param("id")
	itemID := c.Param("itemId")

	if err := h.svc.RemoveItem(c.Request.Context(), templateID, itemID); err != nil {
		BadRequest(c, err.Error())
		return
	}

	Success(c, gin.H{"removed": true})
}

// Export GET /templates/:id/export
func (h *TemplateHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.ExportTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			NotFound(c, "模板不存在")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}

// Import POST /templates/:id/import
func (h *TemplateHandler) Import(c *gin.Context) {
	templateID := c.Param("id")

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传Excel文件")
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		BadRequest(c, "无法解析Excel文件: "+err.Error())
		return
	}
	defer f.Close()

	result, err := h.svc.ImportTemplate(c.Request.Context(), templateID, f)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			NotFound(c, "模板不存在")
			return
		}
		BadRequest(c, err.Error())
		return
	}

	Success(c, result)
}

// DownloadImportTemplate GET /templates/import-template
func (h *TemplateHandler) DownloadImportTemplate(c *gin.Context) {
	f, err := h.svc.GenerateImportTemplate()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\"BOM_Import_Template.xlsx\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write template: "+err.Error())
	}
}
