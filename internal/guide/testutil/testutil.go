package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// SetupTestDB creates an isolated in-memory database per test
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&entity.Product{},
		&entity.Stage{},
		&entity.Process{},
		&entity.Station{},
		&entity.BOMTemplate{},
		&entity.BOMLineItem{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedProduct creates a product for tests
func SeedProduct(t *testing.T, db *gorm.DB, id, code, name string) *entity.Product {
	t.Helper()
	product := &entity.Product{
		ID:        id,
		Code:      code,
		Name:      name,
		Status:    "active",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
	return product
}

// SeedStage creates a stage under a product
func SeedStage(t *testing.T, db *gorm.DB, id, productID, name string, sortOrder int) *entity.Stage {
	t.Helper()
	stage := &entity.Stage{
		ID:        id,
		ProductID: productID,
		Name:      name,
		SortOrder: sortOrder,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(stage).Error; err != nil {
		t.Fatalf("Failed to seed stage: %v", err)
	}
	return stage
}

// SeedProcess creates a process under a stage; loopGroup为空表示不在循环组
func SeedProcess(t *testing.T, db *gorm.DB, id, stageID, name string, sortOrder int, loopGroup string, isLooped bool) *entity.Process {
	t.Helper()
	process := &entity.Process{
		ID:        id,
		StageID:   stageID,
		Name:      name,
		SortOrder: sortOrder,
		IsLooped:  isLooped,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if loopGroup != "" {
		process.LoopGroup = &loopGroup
	}
	if err := db.Create(process).Error; err != nil {
		t.Fatalf("Failed to seed process: %v", err)
	}
	return process
}

// SeedStation creates a station bound to a product at the given pointer
func SeedStation(t *testing.T, db *gorm.DB, id, name string, displayIndex int, productID, stageID, processID *string, quantity int) *entity.Station {
	t.Helper()
	station := &entity.Station{
		ID:           id,
		Name:         name,
		DisplayIndex: displayIndex,
		ProductID:    productID,
		StageID:      stageID,
		ProcessID:    processID,
		Quantity:     quantity,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(station).Error; err != nil {
		t.Fatalf("Failed to seed station: %v", err)
	}
	return station
}

// SeedTemplate creates an active BOM template with n sequential line items
func SeedTemplate(t *testing.T, db *gorm.DB, id, productID string, kind entity.BOMKind, itemCount int) *entity.BOMTemplate {
	t.Helper()
	screens := "1"
	if kind.ShouldSplit() {
		screens = "1,2,3"
	}
	tpl := &entity.BOMTemplate{
		ID:            id,
		ProductID:     productID,
		BOMKind:       kind,
		Name:          string(kind) + " BOM",
		TargetScreens: screens,
		Active:        true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := db.Create(tpl).Error; err != nil {
		t.Fatalf("Failed to seed template: %v", err)
	}
	for i := 1; i <= itemCount; i++ {
		item := &entity.BOMLineItem{
			ID:           fmt.Sprintf("%s-item-%03d", id, i),
			TemplateID:   id,
			SerialNumber: i,
			ItemRef:      fmt.Sprintf("物料-%03d", i),
			BaseQuantity: 2,
			Unit:         entity.UnitCount,
			Active:       true,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("Failed to seed line item: %v", err)
		}
	}
	return tpl
}
