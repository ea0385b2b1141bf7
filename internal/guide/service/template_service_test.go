package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/bitfantasy/lineguide/internal/guide/repository"
	"github.com/bitfantasy/lineguide/internal/guide/testutil"
	"go.uber.org/zap"
)

func newTemplateService(t *testing.T) (*TemplateService, *repository.Repositories) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewTemplateService(repos.Template, repos.Product, zap.NewNop()), repos
}

func TestListTemplatesItemCount(t *testing.T) {
	svc, repos := newTemplateService(t)
	ctx := context.Background()

	product := &entity.Product{ID: "prod-001", Code: "P001", Name: "测试产品", Status: "active"}
	if err := repos.Product.Create(ctx, product); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	tpl := &entity.BOMTemplate{
		ID: "tpl-001", ProductID: "prod-001", BOMKind: entity.BOMKindBatch,
		Name: "批量BOM", TargetScreens: "1,2,3", Active: true,
	}
	if err := repos.Template.Create(ctx, tpl); err != nil {
		t.Fatalf("seed template: %v", err)
	}
	for i, active := range []bool{true, true, false} {
		item := &entity.BOMLineItem{
			ID: fmt.Sprintf("item-%03d", i+1), TemplateID: "tpl-001", SerialNumber: i + 1,
			ItemRef: "物料", BaseQuantity: 1, Unit: entity.UnitCount, Active: active,
		}
		if err := repos.Template.CreateItem(ctx, item); err != nil {
			t.Fatalf("seed item: %v", err)
		}
	}

	summaries, err := svc.ListTemplates(ctx, "prod-001", "")
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	// 软删除的行项不计数
	if summaries[0].ItemCount != 2 {
		t.Errorf("item_count = %d, want 2", summaries[0].ItemCount)
	}
}

func TestScaleSplitKind(t *testing.T) {
	svc, _ := newTemplateService(t)

	tpl := &entity.BOMTemplate{
		BOMKind: entity.BOMKindBatch,
		Items: []entity.BOMLineItem{
			{SerialNumber: 1, ItemRef: "螺钉", BaseQuantity: 4, Unit: entity.UnitCount, Active: true},
			{SerialNumber: 2, ItemRef: "胶水", BaseQuantity: 0.5, Unit: entity.UnitWeight, Active: true},
			{SerialNumber: 3, ItemRef: "停用件", BaseQuantity: 1, Unit: entity.UnitCount, Active: false},
		},
	}

	items, err := svc.Scale(tpl, 5)
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 active items, got %d", len(items))
	}
	if items[0].ScaledQuantity != 20 || items[0].Quantity != "20" {
		t.Errorf("COUNT item: scaled=%v display=%q", items[0].ScaledQuantity, items[0].Quantity)
	}
	if items[1].ScaledQuantity != 2.5 || items[1].Quantity != "2.500" {
		t.Errorf("WEIGHT item: scaled=%v display=%q", items[1].ScaledQuantity, items[1].Quantity)
	}
}

func TestScaleStageKindIgnoresQuantity(t *testing.T) {
	svc, _ := newTemplateService(t)

	tpl := &entity.BOMTemplate{
		BOMKind: entity.BOMKindStage2,
		Items: []entity.BOMLineItem{
			{SerialNumber: 1, ItemRef: "夹具", BaseQuantity: 3, Unit: entity.UnitCount, Active: true},
		},
	}

	items, err := svc.Scale(tpl, 50)
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if items[0].ScaledQuantity != 3 {
		t.Errorf("stage BOM must not scale: got %v", items[0].ScaledQuantity)
	}
}

func TestScaleInvalidQuantity(t *testing.T) {
	svc, _ := newTemplateService(t)

	tpl := &entity.BOMTemplate{BOMKind: entity.BOMKindBatch}
	for _, quantity := range []int{0, -3} {
		if _, err := svc.Scale(tpl, quantity); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("quantity %d: expected ErrInvalidQuantity, got %v", quantity, err)
		}
	}
}

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		unit string
		v    float64
		want string
	}{
		{entity.UnitCount, 12, "12"},
		{entity.UnitCount, 12.9, "12"}, // 计数截断
		{entity.UnitWeight, 2.5, "2.500"},
		{entity.UnitVolume, 0.3333, "0.333"},
	}
	for _, tt := range tests {
		if got := formatQuantity(tt.unit, tt.v); got != tt.want {
			t.Errorf("formatQuantity(%s, %v) = %q, want %q", tt.unit, tt.v, got, tt.want)
		}
	}
}

func TestGetScaledBOM(t *testing.T) {
	svc, repos := newTemplateService(t)
	ctx := context.Background()

	product := &entity.Product{ID: "prod-001", Code: "P001", Name: "测试产品", Status: "active"}
	if err := repos.Product.Create(ctx, product); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	tpl := &entity.BOMTemplate{
		ID: "tpl-001", ProductID: "prod-001", BOMKind: entity.BOMKindBatch,
		Name: "批量BOM", TargetScreens: "1,2,3", Active: true,
	}
	if err := repos.Template.Create(ctx, tpl); err != nil {
		t.Fatalf("seed template: %v", err)
	}
	item := &entity.BOMLineItem{
		ID: "item-001", TemplateID: "tpl-001", SerialNumber: 1,
		ItemRef: "外壳", BaseQuantity: 2, Unit: entity.UnitCount, Active: true,
	}
	if err := repos.Template.CreateItem(ctx, item); err != nil {
		t.Fatalf("seed item: %v", err)
	}

	items, gotTpl, err := svc.GetScaledBOM(ctx, "prod-001", entity.BOMKindBatch, 3)
	if err != nil {
		t.Fatalf("GetScaledBOM: %v", err)
	}
	if gotTpl.ID != "tpl-001" {
		t.Errorf("template ID = %s", gotTpl.ID)
	}
	if len(items) != 1 || items[0].ScaledQuantity != 6 {
		t.Errorf("items = %+v", items)
	}

	// 没有对应类型的模板
	if _, _, err := svc.GetScaledBOM(ctx, "prod-001", entity.BOMKindFinal, 1); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestCreateTemplateDeactivatesOthers(t *testing.T) {
	svc, repos := newTemplateService(t)
	ctx := context.Background()

	product := &entity.Product{ID: "prod-002", Code: "P002", Name: "产品", Status: "active"}
	if err := repos.Product.Create(ctx, product); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	first, err := svc.CreateTemplate(ctx, &CreateTemplateInput{
		ProductID: "prod-002", BOMKind: entity.BOMKindSingleUnit, Name: "V1",
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.CreateTemplate(ctx, &CreateTemplateInput{
		ProductID: "prod-002", BOMKind: entity.BOMKindSingleUnit, Name: "V2",
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	active, err := repos.Template.FindActive(ctx, "prod-002", entity.BOMKindSingleUnit)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("active template = %s, want %s", active.ID, second.ID)
	}

	old, err := repos.Template.FindByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("find first: %v", err)
	}
	if old.Active {
		t.Error("first template should be deactivated")
	}
}

func TestAddItemContinuesSerial(t *testing.T) {
	svc, repos := newTemplateService(t)
	ctx := context.Background()

	product := &entity.Product{ID: "prod-003", Code: "P003", Name: "产品", Status: "active"}
	if err := repos.Product.Create(ctx, product); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	tpl, err := svc.CreateTemplate(ctx, &CreateTemplateInput{
		ProductID: "prod-003", BOMKind: entity.BOMKindBatch, Name: "BOM",
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	// 显式序号
	if _, err := svc.AddItem(ctx, tpl.ID, &LineItemInput{SerialNumber: 5, ItemRef: "A"}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	// 缺省序号续最大值
	item, err := svc.AddItem(ctx, tpl.ID, &LineItemInput{ItemRef: "B"})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if item.SerialNumber != 6 {
		t.Errorf("SerialNumber = %d, want 6", item.SerialNumber)
	}
	if item.Unit != entity.UnitCount || item.BaseQuantity != 1 {
		t.Errorf("defaults: unit=%s qty=%v", item.Unit, item.BaseQuantity)
	}
}
