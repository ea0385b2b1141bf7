package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/lineguide/internal/guide/testutil"
)

func TestTemplateCreateAndItems(t *testing.T) {
	env := setupTestEnv(t)
	testutil.SeedProduct(t, env.DB, "prod-001", "P001", "产品")

	// 创建模板
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/templates", map[string]interface{}{
		"product_id": "prod-001",
		"bom_kind":   "BATCH",
		"name":       "批量BOM v1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	tplID := data["id"].(string)
	if data["target_screens"] != "1,2,3" {
		t.Errorf("split kind should default to 3 screens, got %v", data["target_screens"])
	}

	// 添加行项
	w2 := testutil.DoRequest(env.Router, "POST", "/api/v1/templates/"+tplID+"/items", map[string]interface{}{
		"item_ref":      "M3×8 螺钉",
		"base_quantity": 4,
		"unit":          "COUNT",
	})
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
	resp2 := testutil.ParseResponse(w2)
	item := resp2["data"].(map[string]interface{})
	itemID := item["id"].(string)
	if item["serial_number"] != float64(1) {
		t.Errorf("serial_number = %v, want 1", item["serial_number"])
	}

	// 更新行项
	w3 := testutil.DoRequest(env.Router, "PUT", "/api/v1/templates/"+tplID+"/items/"+itemID, map[string]interface{}{
		"base_quantity": 6,
		"notes":         "加固",
	})
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	resp3 := testutil.ParseResponse(w3)
	updated := resp3["data"].(map[string]interface{})
	if updated["base_quantity"] != float64(6) {
		t.Errorf("base_quantity = %v, want 6", updated["base_quantity"])
	}

	// 软删除后模板详情不再含该行项
	w4 := testutil.DoRequest(env.Router, "DELETE", "/api/v1/templates/"+tplID+"/items/"+itemID, nil)
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	w5 := testutil.DoRequest(env.Router, "GET", "/api/v1/templates/"+tplID, nil)
	resp5 := testutil.ParseResponse(w5)
	tpl := resp5["data"].(map[string]interface{})
	if items, ok := tpl["items"].([]interface{}); ok && len(items) != 0 {
		t.Errorf("expected no active items, got %d", len(items))
	}
}

func TestTemplateCreateUnknownProduct(t *testing.T) {
	env := setupTestEnv(t)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/templates", map[string]interface{}{
		"product_id": "missing",
		"bom_kind":   "BATCH",
		"name":       "BOM",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestTemplateGetNotFound(t *testing.T) {
	env := setupTestEnv(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/templates/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}
