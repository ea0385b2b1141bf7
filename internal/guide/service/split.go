package service

import (
	"github.com/bitfantasy/lineguide/internal/guide/entity"
)

// 固定3屏布局常量。所有下游切片必须使用同一组常量，
// 否则各屏之间的行项对位会错乱。
const (
	ItemsPerScreen = 8
	ScreensPerPage = 3
	ItemsPerPage   = ItemsPerScreen * ScreensPerPage
)

// ScaledItem 按生产数量缩放后的BOM行项。SerialNumber保留模板原始序号，
// ScreenPosition为该行在当前屏切片内的位置（1起）。
type ScaledItem struct {
	SerialNumber   int     `json:"serial_number"`
	ItemRef        string  `json:"item_ref"`
	BaseQuantity   float64 `json:"base_quantity"`
	ScaledQuantity float64 `json:"scaled_quantity"`
	Quantity       string  `json:"quantity"` // 按单位格式化后的显示值
	Unit           string  `json:"unit"`
	Notes          string  `json:"notes,omitempty"`
	ScreenPosition int     `json:"screen_position"`
}

// PageInfo 分页信息
type PageInfo struct {
	TotalPages     int `json:"total_pages"`
	ItemsPerPage   int `json:"items_per_page"`
	ItemsPerScreen int `json:"items_per_screen"`
	TotalItems     int `json:"total_items"`
}

// PaginationInfo 计算BOM类型对应的分页信息。
// 拆分类型按每页24项（8项×3屏），非拆分类型按每页8项仅1号屏显示。
// 总页数最少为1，空BOM也显示一页空页。
func PaginationInfo(kind entity.BOMKind, totalItems int) PageInfo {
	info := PageInfo{
		ItemsPerScreen: ItemsPerScreen,
		TotalItems:     totalItems,
	}
	if kind.ShouldSplit() {
		info.ItemsPerPage = ItemsPerPage
	} else {
		info.ItemsPerPage = ItemsPerScreen
	}
	info.TotalPages = (totalItems + info.ItemsPerPage - 1) / info.ItemsPerPage
	if info.TotalPages < 1 {
		info.TotalPages = 1
	}
	return info
}

// ItemsForDisplay 计算某一屏在某页应显示的行项切片。纯函数。
// 越界的页号或屏号返回空切片而非错误：空屏是合法状态，
// 与获取失败是两回事。
func ItemsForDisplay(items []ScaledItem, kind entity.BOMKind, display, page, perScreen int) []ScaledItem {
	if perScreen <= 0 {
		perScreen = ItemsPerScreen
	}
	if page < 1 || display < 1 || display > ScreensPerPage {
		return nil
	}

	if !kind.ShouldSplit() {
		// 非拆分类型整表只走1号屏
		if display != 1 {
			return nil
		}
		return withScreenPositions(clip(items, (page-1)*perScreen, page*perScreen))
	}

	perPage := perScreen * ScreensPerPage
	pageItems := clip(items, (page-1)*perPage, page*perPage)
	if len(pageItems) == 0 {
		return nil
	}

	start := (display - 1) * perScreen
	if start >= len(pageItems) {
		return nil
	}
	return withScreenPositions(clip(pageItems, start, start+perScreen))
}

// clip 边界截断切片，越界返回空
func clip(items []ScaledItem, start, end int) []ScaledItem {
	if start < 0 {
		start = 0
	}
	if end > len(items) {
		end = len(items)
	}
	if start >= end {
		return nil
	}
	return items[start:end]
}

// withScreenPositions 拷贝切片并标注屏内位置（1起）
func withScreenPositions(items []ScaledItem) []ScaledItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]ScaledItem, len(items))
	for i, item := range items {
		item.ScreenPosition = i + 1
		out[i] = item
	}
	return out
}
