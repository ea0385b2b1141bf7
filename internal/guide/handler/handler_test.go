package handler

import (
	"testing"
	"time"

	"github.com/bitfantasy/lineguide/internal/guide/cache"
	"github.com/bitfantasy/lineguide/internal/guide/repository"
	"github.com/bitfantasy/lineguide/internal/guide/service"
	"github.com/bitfantasy/lineguide/internal/guide/sse"
	"github.com/bitfantasy/lineguide/internal/guide/testutil"
	"go.uber.org/zap"
)

// setupTestEnv 组装sqlite+内存缓存的完整HTTP栈
func setupTestEnv(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, cache.NewMemoryStore(), sse.NewHub(), time.Hour, zap.NewNop())
	handlers := NewHandlers(services, repos)

	api := router.Group("/api/v1")

	products := api.Group("/products")
	products.GET("", handlers.Product.List)
	products.POST("", handlers.Product.Create)
	products.GET("/:id", handlers.Product.Get)
	products.GET("/:id/stages", handlers.Product.ListStages)
	products.POST("/:id/stages", handlers.Product.CreateStage)
	products.GET("/:id/templates", handlers.Template.List)
	products.GET("/:id/bom/:kind", handlers.Display.ScaledBOM)
	products.GET("/:id/bom/:kind/page", handlers.Display.PageForDisplay)
	api.POST("/stages/:id/processes", handlers.Product.CreateProcess)

	stations := api.Group("/stations")
	stations.GET("", handlers.Station.List)
	stations.POST("", handlers.Station.Create)
	stations.GET("/:id", handlers.Station.Get)
	stations.GET("/:id/display", handlers.Display.Snapshot)
	stations.POST("/:id/assign", handlers.Station.Assign)
	stations.POST("/:id/advance", handlers.Station.Advance)
	stations.POST("/:id/retreat", handlers.Station.Retreat)
	stations.POST("/:id/loop", handlers.Station.ToggleLoop)
	stations.POST("/:id/page/next", handlers.Station.NextPage)
	stations.POST("/:id/page/previous", handlers.Station.PreviousPage)
	stations.PUT("/:id/page", handlers.Station.SetPage)

	templates := api.Group("/templates")
	templates.POST("", handlers.Template.Create)
	templates.GET("/:id", handlers.Template.Get)
	templates.POST("/:id/items", handlers.Template.AddItem)
	templates.PUT("/:id/items/:itemId", handlers.Template.UpdateItem)
	templates.DELETE("/:id/items/:itemId", handlers.Template.RemoveItem)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}
