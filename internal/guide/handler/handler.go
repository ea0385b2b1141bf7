package handler

import (
	"strconv"

	"github.com/bitfantasy/lineguide/internal/guide/repository"
	"github.com/bitfantasy/lineguide/internal/guide/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handlers 处理器集合
type Handlers struct {
	Display  *DisplayHandler
	Station  *StationHandler
	Template *TemplateHandler
	Product  *ProductHandler
	SSE      *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, repos *repository.Repositories) *Handlers {
	return &Handlers{
		Display:  NewDisplayHandler(svc.Display, svc.Pagination),
		Station:  NewStationHandler(svc.Sequence, svc.Pagination, svc.Display, repos.Station),
		Template: NewTemplateHandler(svc.Template),
		Product:  NewProductHandler(repos.Product, repos.Sequence),
		SSE:      NewSSEHandler(),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// newID 生成32位实体ID
func newID() string {
	return uuid.New().String()[:32]
}

// QueryInt 读取整型query参数
func QueryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
