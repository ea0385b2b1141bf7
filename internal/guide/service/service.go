package service

import (
	"time"

	"github.com/bitfantasy/lineguide/internal/guide/cache"
	"github.com/bitfantasy/lineguide/internal/guide/repository"
	"github.com/bitfantasy/lineguide/internal/guide/sse"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Template   *TemplateService
	Pagination *PaginationService
	Sequence   *SequenceService
	Display    *DisplayService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, store cache.Store, hub *sse.Hub, stateTTL time.Duration, logger *zap.Logger) *Services {
	templateSvc := NewTemplateService(repos.Template, repos.Product, logger)
	paginationSvc := NewPaginationService(store, hub, stateTTL, logger)

	return &Services{
		Template:   templateSvc,
		Pagination: paginationSvc,
		Sequence:   NewSequenceService(repos.Station, repos.Sequence, paginationSvc, hub, logger),
		Display:    NewDisplayService(repos.Station, templateSvc, paginationSvc, logger),
	}
}
