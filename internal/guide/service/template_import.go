package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

var templateExportHeaders = []string{
	"序号", "物料", "基础用量", "单位", "备注",
}

// ImportResult Excel导入结果
type ImportResult struct {
	Success int `json:"created"`
	Failed  int `json:"errors"`
}

// ExportTemplate 导出模板行项为xlsx
func (s *TemplateService) ExportTemplate(ctx context.Context, templateID string) (*excelize.File, string, error) {
	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "BOM"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range templateExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, item := range tpl.Items {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.SerialNumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.ItemRef)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.BaseQuantity)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Unit)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Notes)
	}

	colWidths := []float64{6, 24, 10, 10, 24}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("BOM_%s_%s.xlsx", tpl.Name, tpl.BOMKind)
	return f, filename, nil
}

// ImportTemplate 从Excel追加行项。列序: 序号/物料/基础用量/单位/备注，
// 序号留空时续当前最大序号。
func (s *TemplateService) ImportTemplate(ctx context.Context, templateID string, f *excelize.File) (*ImportResult, error) {
	tpl, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read excel: %w", err)
	}

	result := &ImportResult{}
	if len(rows) < 2 {
		return result, nil
	}

	maxSerial, err := s.repo.MaxSerialNumber(ctx, tpl.ID)
	if err != nil {
		return nil, fmt.Errorf("max serial: %w", err)
	}

	var items []entity.BOMLineItem
	for _, row := range rows[1:] { // 跳过表头
		if len(row) < 2 || strings.TrimSpace(row[1]) == "" { // 至少需要物料
			result.Failed++
			continue
		}

		serial := 0
		if len(row) > 0 {
			if n, convErr := strconv.Atoi(strings.TrimSpace(row[0])); convErr == nil && n > 0 {
				serial = n
			}
		}
		if serial == 0 {
			maxSerial++
			serial = maxSerial
		} else if serial > maxSerial {
			maxSerial = serial
		}

		item := entity.BOMLineItem{
			ID:           uuid.New().String()[:32],
			TemplateID:   tpl.ID,
			SerialNumber: serial,
			ItemRef:      strings.TrimSpace(row[1]),
			BaseQuantity: 1,
			Unit:         entity.UnitCount,
			Active:       true,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if len(row) > 2 {
			if q, convErr := strconv.ParseFloat(strings.TrimSpace(row[2]), 64); convErr == nil && q > 0 {
				item.BaseQuantity = q
			}
		}
		if len(row) > 3 {
			item.Unit = normalizeUnit(row[3])
		}
		if len(row) > 4 {
			item.Notes = row[4]
		}

		items = append(items, item)
		result.Success++
	}

	if len(items) > 0 {
		if err := s.repo.BatchCreateItems(ctx, items); err != nil {
			return nil, fmt.Errorf("batch create items: %w", err)
		}
	}
	return result, nil
}

// normalizeUnit 宽松识别单位列，默认计数
func normalizeUnit(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case entity.UnitWeight, "KG", "G", "克", "千克":
		return entity.UnitWeight
	case entity.UnitVolume, "L", "ML", "升", "毫升":
		return entity.UnitVolume
	default:
		return entity.UnitCount
	}
}

// GenerateImportTemplate 生成导入模板xlsx
func (s *TemplateService) GenerateImportTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "BOM模板"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})

	for i, h := range templateExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	sampleData := []string{"1", "M3×8 十字盘头螺钉", "4", "COUNT", "预装配"}
	for j, val := range sampleData {
		col, _ := excelize.ColumnNumberToName(j + 1)
		f.SetCellValue(sheet, fmt.Sprintf("%s2", col), val)
	}

	colWidths := []float64{6, 24, 10, 10, 24}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	return f, nil
}
