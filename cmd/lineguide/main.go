package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitfantasy/lineguide/internal/config"
	"github.com/bitfantasy/lineguide/internal/guide/cache"
	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/bitfantasy/lineguide/internal/guide/handler"
	"github.com/bitfantasy/lineguide/internal/guide/repository"
	"github.com/bitfantasy/lineguide/internal/guide/service"
	"github.com/bitfantasy/lineguide/internal/guide/sse"
	"github.com/bitfantasy/lineguide/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting lineguide service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Product{},
		&entity.Stage{},
		&entity.Process{},
		&entity.Station{},
		&entity.BOMTemplate{},
		&entity.BOMLineItem{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}

	// 分页状态缓存：redis不可用时退化为进程内存，单实例部署仍可同步翻页
	store := initCacheStore(cfg.Redis, zapLogger)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, store, sse.GlobalHub, cfg.Pagination.StateTTL, zapLogger)
	handlers := handler.NewHandlers(services, repos)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.StationContext())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initCacheStore(cfg config.RedisConfig, zapLogger *zap.Logger) cache.Store {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, falling back to in-memory pagination state",
			zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
			zap.Error(err),
		)
		return cache.NewMemoryStore()
	}

	zapLogger.Info("Redis connected", zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)))
	return cache.NewRedisStore(client)
}

func registerRoutes(r *gin.Engine, h *handler.Handlers) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// SSE 实时推送（展示屏长连接）
		v1.GET("/sse/events", h.SSE.Stream)

		// 产品与工序序列
		products := v1.Group("/products")
		{
			products.GET("", h.Product.List)
			products.POST("", h.Product.Create)
			products.GET("/:id", h.Product.Get)
			products.GET("/:id/stages", h.Product.ListStages)
			products.POST("/:id/stages", h.Product.CreateStage)
			products.GET("/:id/templates", h.Template.List)
			products.GET("/:id/bom/:kind", h.Display.ScaledBOM)
			products.GET("/:id/bom/:kind/page", h.Display.PageForDisplay)
		}
		v1.POST("/stages/:id/processes", h.Product.CreateProcess)
		v1.DELETE("/processes/:id", h.Product.DeleteProcess)

		// 工位
		stations := v1.Group("/stations")
		{
			stations.GET("", h.Station.List)
			stations.POST("", h.Station.Create)
			stations.GET("/:id", h.Station.Get)
			stations.GET("/:id/display", h.Display.Snapshot)
			stations.POST("/:id/assign", h.Station.Assign)
			stations.POST("/:id/advance", h.Station.Advance)
			stations.POST("/:id/retreat", h.Station.Retreat)
			stations.POST("/:id/loop", h.Station.ToggleLoop)
			stations.POST("/:id/page/next", h.Station.NextPage)
			stations.POST("/:id/page/previous", h.Station.PreviousPage)
			stations.PUT("/:id/page", h.Station.SetPage)
		}

		// BOM模板
		templates := v1.Group("/templates")
		{
			templates.GET("/import-template", h.Template.DownloadImportTemplate)
			templates.POST("", h.Template.Create)
			templates.GET("/:id", h.Template.Get)
			templates.GET("/:id/export", h.Template.Export)
			templates.POST("/:id/import", h.Template.Import)
			templates.POST("/:id/items", h.Template.AddItem)
			templates.PUT("/:id/items/:itemId", h.Template.UpdateItem)
			templates.DELETE("/:id/items/:itemId", h.Template.RemoveItem)
		}
	}
}
