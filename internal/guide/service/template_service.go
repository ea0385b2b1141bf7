package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bitfantasy/lineguide/internal/guide/entity"
	"github.com/bitfantasy/lineguide/internal/guide/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 错误定义
var (
	// ErrTemplateNotFound 没有匹配的active模板，调用方按"该屏无BOM"处理
	ErrTemplateNotFound = errors.New("bom template not found")
	// ErrInvalidQuantity 生产数量必须≥1，缩放前在边界拒绝
	ErrInvalidQuantity = errors.New("invalid production quantity")
)

// TemplateService BOM模板服务：模板/行项维护与数量缩放
type TemplateService struct {
	repo        *repository.TemplateRepository
	productRepo *repository.ProductRepository
	logger      *zap.Logger
}

// NewTemplateService 创建BOM模板服务
func NewTemplateService(repo *repository.TemplateRepository, productRepo *repository.ProductRepository, logger *zap.Logger) *TemplateService {
	return &TemplateService{repo: repo, productRepo: productRepo, logger: logger}
}

// GetScaledBOM 取(product, bom_kind)的active模板并按数量缩放
func (s *TemplateService) GetScaledBOM(ctx context.Context, productID string, kind entity.BOMKind, quantity int) ([]ScaledItem, *entity.BOMTemplate, error) {
	if !kind.Valid() {
		return nil, nil, fmt.Errorf("未知的BOM类型: %s", kind)
	}
	tpl, err := s.repo.FindActive(ctx, productID, kind)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTemplateNotFound
		}
		return nil, nil, fmt.Errorf("find template: %w", err)
	}

	items, err := s.Scale(tpl, quantity)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Debug("template resolved",
		zap.String("product_id", productID),
		zap.String("bom_kind", string(kind)),
		zap.String("template_id", tpl.ID),
		zap.Int("items", len(items)),
	)
	return items, tpl, nil
}

// Scale 按生产数量缩放模板行项。
// 阶段BOM（STAGE_*/FINAL）有效数量恒为1；拆分BOM按请求数量缩放。
// 仅active行项参与，序号允许空洞并原样保留。
func (s *TemplateService) Scale(tpl *entity.BOMTemplate, quantity int) ([]ScaledItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	effective := 1
	if tpl.BOMKind.ShouldSplit() {
		effective = quantity
	}

	items := make([]ScaledItem, 0, len(tpl.Items))
	for _, line := range tpl.Items {
		if !line.Active {
			continue
		}
		scaled := line.BaseQuantity * float64(effective)
		items = append(items, ScaledItem{
			SerialNumber:   line.SerialNumber,
			ItemRef:        line.ItemRef,
			BaseQuantity:   line.BaseQuantity,
			ScaledQuantity: scaled,
			Quantity:       formatQuantity(line.Unit, scaled),
			Unit:           line.Unit,
			Notes:          line.Notes,
		})
	}
	return items, nil
}

// formatQuantity 数量显示格式：重量/体积保留3位小数，计数取整截断
func formatQuantity(unit string, v float64) string {
	switch unit {
	case entity.UnitWeight, entity.UnitVolume:
		return strconv.FormatFloat(v, 'f', 3, 64)
	default:
		return strconv.Itoa(int(v))
	}
}

// ---- 模板维护 ----

// CreateTemplateInput 创建模板请求
type CreateTemplateInput struct {
	ProductID       string         `json:"product_id" binding:"required"`
	BOMKind         entity.BOMKind `json:"bom_kind" binding:"required"`
	Name            string         `json:"name" binding:"required"`
	DurationSeconds int            `json:"duration_seconds"`
	DurationActive  bool           `json:"duration_active"`
	TargetScreens   string         `json:"target_screens"`
}

// CreateTemplate 创建模板并停用同(product, bom_kind)的其余模板
func (s *TemplateService) CreateTemplate(ctx context.Context, input *CreateTemplateInput) (*entity.BOMTemplate, error) {
	if !input.BOMKind.Valid() {
		return nil, fmt.Errorf("未知的BOM类型: %s", input.BOMKind)
	}
	if _, err := s.productRepo.FindByID(ctx, input.ProductID); err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}

	screens := input.TargetScreens
	if screens == "" {
		if input.BOMKind.ShouldSplit() {
			screens = "1,2,3"
		} else {
			screens = "1"
		}
	}

	tpl := &entity.BOMTemplate{
		ID:              uuid.New().String()[:32],
		ProductID:       input.ProductID,
		BOMKind:         input.BOMKind,
		Name:            input.Name,
		DurationSeconds: input.DurationSeconds,
		DurationActive:  input.DurationActive,
		TargetScreens:   screens,
		Active:          true,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := s.repo.Create(ctx, tpl); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	// 同一(product, bom_kind)只允许一个active模板
	if err := s.repo.DeactivateOthers(ctx, tpl.ProductID, tpl.BOMKind, tpl.ID); err != nil {
		return nil, fmt.Errorf("deactivate others: %w", err)
	}
	return tpl, nil
}

// GetTemplate 获取模板详情（含active行项）
func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*entity.BOMTemplate, error) {
	tpl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return tpl, nil
}

// TemplateSummary 模板列表项，带active行项数
type TemplateSummary struct {
	entity.BOMTemplate
	ItemCount int64 `json:"item_count"`
}

// ListTemplates 获取产品的模板列表
func (s *TemplateService) ListTemplates(ctx context.Context, productID string, kind entity.BOMKind) ([]TemplateSummary, error) {
	tpls, err := s.repo.ListByProduct(ctx, productID, kind)
	if err != nil {
		return nil, err
	}
	summaries := make([]TemplateSummary, 0, len(tpls))
	for i := range tpls {
		count, err := s.repo.CountActiveItems(ctx, tpls[i].ID)
		if err != nil {
			return nil, fmt.Errorf("count items: %w", err)
		}
		summaries = append(summaries, TemplateSummary{BOMTemplate: tpls[i], ItemCount: count})
	}
	return summaries, nil
}

// LineItemInput 行项请求
type LineItemInput struct {
	SerialNumber int     `json:"serial_number"`
	ItemRef      string  `json:"item_ref" binding:"required"`
	BaseQuantity float64 `json:"base_quantity"`
	Unit         string  `json:"unit"`
	Notes        string  `json:"notes"`
}

// AddItem 添加行项，序号缺省时续最大序号
func (s *TemplateService) AddItem(ctx context.Context, templateID string, input *LineItemInput) (*entity.BOMLineItem, error) {
	if _, err := s.GetTemplate(ctx, templateID); err != nil {
		return nil, err
	}

	serial := input.SerialNumber
	if serial <= 0 {
		maxNum, err := s.repo.MaxSerialNumber(ctx, templateID)
		if err != nil {
			return nil, fmt.Errorf("max serial: %w", err)
		}
		serial = maxNum + 1
	}

	item := &entity.BOMLineItem{
		ID:           uuid.New().String()[:32],
		TemplateID:   templateID,
		SerialNumber: serial,
		ItemRef:      input.ItemRef,
		BaseQuantity: input.BaseQuantity,
		Unit:         input.Unit,
		Notes:        input.Notes,
		Active:       true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if item.BaseQuantity <= 0 {
		item.BaseQuantity = 1
	}
	if item.Unit == "" {
		item.Unit = entity.UnitCount
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

// UpdateItem 更新行项
func (s *TemplateService) UpdateItem(ctx context.Context, templateID, itemID string, input *LineItemInput) (*entity.BOMLineItem, error) {
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("item not found: %w", err)
	}
	if item.TemplateID != templateID {
		return nil, fmt.Errorf("行项不属于该模板")
	}

	if input.SerialNumber > 0 {
		item.SerialNumber = input.SerialNumber
	}
	if input.ItemRef != "" {
		item.ItemRef = input.ItemRef
	}
	if input.BaseQuantity > 0 {
		item.BaseQuantity = input.BaseQuantity
	}
	if input.Unit != "" {
		item.Unit = input.Unit
	}
	item.Notes = input.Notes
	item.UpdatedAt = time.Now()

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

// RemoveItem 软删除行项
func (s *TemplateService) RemoveItem(ctx context.Context, templateID, itemID string) error {
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("item not found: %w", err)
	}
	if item.TemplateID != templateID {
		return fmt.Errorf("行项不属于该模板")
	}
	return s.repo.DeactivateItem(ctx, itemID)
}
