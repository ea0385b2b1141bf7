package service

import (
	"testing"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
)

func makeItems(n int) []ScaledItem {
	items := make([]ScaledItem, n)
	for i := range items {
		items[i] = ScaledItem{SerialNumber: i + 1}
	}
	return items
}

func serials(items []ScaledItem) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.SerialNumber
	}
	return out
}

func TestPaginationInfo(t *testing.T) {
	tests := []struct {
		name         string
		kind         entity.BOMKind
		totalItems   int
		wantPages    int
		wantPerPage  int
	}{
		{"拆分类型30项两页", entity.BOMKindBatch, 30, 2, 24},
		{"拆分类型刚好一页", entity.BOMKindSingleUnit, 24, 1, 24},
		{"拆分类型25项两页", entity.BOMKindBatch, 25, 2, 24},
		{"非拆分类型每页8项", entity.BOMKindStage1, 20, 3, 8},
		{"非拆分类型刚好整页", entity.BOMKindFinal, 16, 2, 8},
		{"空BOM至少一页", entity.BOMKindBatch, 0, 1, 24},
		{"单项一页", entity.BOMKindStage2, 1, 1, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := PaginationInfo(tt.kind, tt.totalItems)
			if info.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", info.TotalPages, tt.wantPages)
			}
			if info.ItemsPerPage != tt.wantPerPage {
				t.Errorf("ItemsPerPage = %d, want %d", info.ItemsPerPage, tt.wantPerPage)
			}
			if info.ItemsPerScreen != ItemsPerScreen {
				t.Errorf("ItemsPerScreen = %d, want %d", info.ItemsPerScreen, ItemsPerScreen)
			}
			if info.TotalItems != tt.totalItems {
				t.Errorf("TotalItems = %d, want %d", info.TotalItems, tt.totalItems)
			}
		})
	}
}

func TestItemsForDisplaySplitKind(t *testing.T) {
	items := makeItems(30)

	// 第1页：三屏各8项
	got := ItemsForDisplay(items, entity.BOMKindBatch, 1, 1, ItemsPerScreen)
	if len(got) != 8 || got[0].SerialNumber != 1 || got[7].SerialNumber != 8 {
		t.Errorf("page1 display1 = %v", serials(got))
	}
	got = ItemsForDisplay(items, entity.BOMKindBatch, 2, 1, ItemsPerScreen)
	if len(got) != 8 || got[0].SerialNumber != 9 || got[7].SerialNumber != 16 {
		t.Errorf("page1 display2 = %v", serials(got))
	}
	got = ItemsForDisplay(items, entity.BOMKindBatch, 3, 1, ItemsPerScreen)
	if len(got) != 8 || got[0].SerialNumber != 17 || got[7].SerialNumber != 24 {
		t.Errorf("page1 display3 = %v", serials(got))
	}

	// 第2页：剩6项全在1号屏，2/3号屏为空
	got = ItemsForDisplay(items, entity.BOMKindBatch, 1, 2, ItemsPerScreen)
	if len(got) != 6 || got[0].SerialNumber != 25 || got[5].SerialNumber != 30 {
		t.Errorf("page2 display1 = %v", serials(got))
	}
	if got := ItemsForDisplay(items, entity.BOMKindBatch, 2, 2, ItemsPerScreen); got != nil {
		t.Errorf("page2 display2 should be empty, got %v", serials(got))
	}
	if got := ItemsForDisplay(items, entity.BOMKindBatch, 3, 2, ItemsPerScreen); got != nil {
		t.Errorf("page2 display3 should be empty, got %v", serials(got))
	}
}

func TestItemsForDisplayNonSplitKind(t *testing.T) {
	items := makeItems(20)

	// 阶段BOM只走1号屏，每页8项
	got := ItemsForDisplay(items, entity.BOMKindStage1, 1, 1, ItemsPerScreen)
	if len(got) != 8 || got[0].SerialNumber != 1 {
		t.Errorf("page1 = %v", serials(got))
	}
	got = ItemsForDisplay(items, entity.BOMKindStage1, 1, 3, ItemsPerScreen)
	if len(got) != 4 || got[0].SerialNumber != 17 || got[3].SerialNumber != 20 {
		t.Errorf("page3 = %v", serials(got))
	}

	// 2/3号屏恒空
	for display := 2; display <= 3; display++ {
		if got := ItemsForDisplay(items, entity.BOMKindFinal, display, 1, ItemsPerScreen); got != nil {
			t.Errorf("display %d should be empty for non-split kind, got %v", display, serials(got))
		}
	}
}

func TestItemsForDisplayOutOfRange(t *testing.T) {
	items := makeItems(10)

	cases := []struct {
		name    string
		display int
		page    int
	}{
		{"页号0", 1, 0},
		{"页号越界", 1, 5},
		{"屏号0", 0, 1},
		{"屏号越界", 4, 1},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := ItemsForDisplay(items, entity.BOMKindBatch, tt.display, tt.page, ItemsPerScreen); got != nil {
				t.Errorf("want empty, got %v", serials(got))
			}
		})
	}

	if got := ItemsForDisplay(nil, entity.BOMKindBatch, 1, 1, ItemsPerScreen); got != nil {
		t.Errorf("empty input should yield empty slice, got %v", serials(got))
	}
}

func TestItemsForDisplayTwentyFiveItems(t *testing.T) {
	items := makeItems(25)

	got := ItemsForDisplay(items, entity.BOMKindBatch, 1, 2, ItemsPerScreen)
	if len(got) != 1 || got[0].SerialNumber != 25 {
		t.Errorf("page2 display1 = %v, want [25]", serials(got))
	}
	for display := 2; display <= 3; display++ {
		if got := ItemsForDisplay(items, entity.BOMKindBatch, display, 2, ItemsPerScreen); got != nil {
			t.Errorf("page2 display%d should be empty, got %v", display, serials(got))
		}
	}
}

// 按(页, 屏)顺序拼回全部切片必须无重复无遗漏地还原原序列
func TestItemsForDisplayCoverage(t *testing.T) {
	for _, tt := range []struct {
		kind entity.BOMKind
		n    int
	}{
		{entity.BOMKindBatch, 25},
		{entity.BOMKindSingleUnit, 48},
		{entity.BOMKindStage1, 13},
		{entity.BOMKindFinal, 8},
	} {
		items := makeItems(tt.n)
		info := PaginationInfo(tt.kind, tt.n)

		var rebuilt []int
		for page := 1; page <= info.TotalPages; page++ {
			for display := 1; display <= ScreensPerPage; display++ {
				rebuilt = append(rebuilt, serials(ItemsForDisplay(items, tt.kind, display, page, ItemsPerScreen))...)
			}
		}

		if len(rebuilt) != tt.n {
			t.Errorf("%s/%d: rebuilt %d items, want %d", tt.kind, tt.n, len(rebuilt), tt.n)
			continue
		}
		for i, serial := range rebuilt {
			if serial != i+1 {
				t.Errorf("%s/%d: position %d has serial %d", tt.kind, tt.n, i, serial)
				break
			}
		}
	}
}

// 纯函数：同参数两次调用结果一致
func TestItemsForDisplayIdempotent(t *testing.T) {
	items := makeItems(30)
	a := ItemsForDisplay(items, entity.BOMKindBatch, 2, 1, ItemsPerScreen)
	b := ItemsForDisplay(items, entity.BOMKindBatch, 2, 1, ItemsPerScreen)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("item %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestItemsForDisplayScreenPositions(t *testing.T) {
	items := makeItems(30)

	got := ItemsForDisplay(items, entity.BOMKindBatch, 2, 1, ItemsPerScreen)
	for i, item := range got {
		if item.ScreenPosition != i+1 {
			t.Errorf("item %d ScreenPosition = %d, want %d", i, item.ScreenPosition, i+1)
		}
	}

	// 原始切片不受影响
	if items[8].ScreenPosition != 0 {
		t.Errorf("source slice mutated: ScreenPosition = %d", items[8].ScreenPosition)
	}
}
