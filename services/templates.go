package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gst-invoicing-backend/calc"
	"gst-invoicing-backend/logger"
	"gst-invoicing-backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaxTemplateRequest creates or patches a tax template. Nil fields are left untouched on patch.
type TaxTemplateRequest struct {
	Name      *string        `json:"name" validate:"omitempty,min=1,max=64"`
	Rate      *float64       `json:"rate" validate:"omitempty,gte=0"`
	RateType  *calc.RateType `json:"rate_type" validate:"omitempty,oneof=PERCENT AMOUNT"`
	TaxType   *calc.TaxType  `json:"tax_type" validate:"omitempty,oneof=GST CESS CUSTOM"`
	IsDefault *bool          `json:"is_default"`
}

// DiscountTemplateRequest creates or patches a discount template.
type DiscountTemplateRequest struct {
	Name      *string        `json:"name" validate:"omitempty,min=1,max=64"`
	Type      *calc.RateType `json:"type" validate:"omitempty,oneof=PERCENT AMOUNT"`
	Value     *float64       `json:"value" validate:"omitempty,gte=0"`
	IsDefault *bool          `json:"is_default"`
}

// TemplateService manages tax and discount templates. Invoices copy what they use, so changing or
// archiving a template never alters an issued invoice.
type TemplateService struct {
	log *zap.Logger
}

func NewTemplateService() *TemplateService {
	return &TemplateService{log: logger.Named("templates")}
}

func (s *TemplateService) CreateTax(ctx context.Context, tx *gorm.DB, req TaxTemplateRequest) (models.TaxTemplate, error) {
	tx = tx.WithContext(ctx)
	t := models.TaxTemplate{RateType: calc.RateTypePercent, IsActive: true}
	applyTaxPatch(&t, req)
	if err := validateTaxTemplate(t); err != nil {
		return t, err
	}
	if t.IsDefault {
		if err := clearDefaultTax(tx, t.TaxType); err != nil {
			return t, err
		}
	}
	if err := tx.Create(&t).Error; err != nil {
		return t, fmt.Errorf("create tax template: %w", err)
	}
	s.log.Info("tax template created", zap.String("template_id", t.Id), zap.String("tax_type", string(t.TaxType)))
	return t, nil
}

func (s *TemplateService) UpdateTax(ctx context.Context, tx *gorm.DB, id string, req TaxTemplateRequest) (models.TaxTemplate, error) {
	tx = tx.WithContext(ctx)
	var t models.TaxTemplate
	if err := tx.Where("id = ?", id).First(&t).Error; err != nil {
		return t, notFound(err, ErrTemplateNotFound)
	}
	applyTaxPatch(&t, req)
	if err := validateTaxTemplate(t); err != nil {
		return t, err
	}
	if t.IsDefault && !t.IsActive {
		return t, ErrTemplateInactive
	}
	if t.IsDefault {
		if err := clearDefaultTax(tx.Where("id <> ?", t.Id), t.TaxType); err != nil {
			return t, err
		}
	}
	if err := tx.Save(&t).Error; err != nil {
		return t, fmt.Errorf("update tax template: %w", err)
	}
	return t, nil
}

// ListTax returns active templates, optionally filtered by tax type.
func (s *TemplateService) ListTax(ctx context.Context, tx *gorm.DB, taxType calc.TaxType, includeArchived bool) ([]models.TaxTemplate, error) {
	q := tx.WithContext(ctx).Model(&models.TaxTemplate{})
	if taxType != "" {
		q = q.Where("tax_type = ?", taxType)
	}
	if !includeArchived {
		q = q.Where("is_active = ?", true)
	}
	var out []models.TaxTemplate
	err := q.Order("tax_type, rate, name").Find(&out).Error
	return out, err
}

// ArchiveTax hides a template from new invoices. Issued invoices keep their snapshot.
func (s *TemplateService) ArchiveTax(ctx context.Context, tx *gorm.DB, id string) error {
	res := tx.WithContext(ctx).Model(&models.TaxTemplate{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "is_default": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (s *TemplateService) CreateDiscount(ctx context.Context, tx *gorm.DB, req DiscountTemplateRequest) (models.DiscountTemplate, error) {
	tx = tx.WithContext(ctx)
	d := models.DiscountTemplate{IsActive: true}
	applyDiscountPatch(&d, req)
	if err := validateDiscountTemplate(d); err != nil {
		return d, err
	}
	if d.IsDefault {
		if err := clearDefaultDiscount(tx); err != nil {
			return d, err
		}
	}
	if err := tx.Create(&d).Error; err != nil {
		return d, fmt.Errorf("create discount template: %w", err)
	}
	s.log.Info("discount template created", zap.String("template_id", d.Id))
	return d, nil
}

func (s *TemplateService) UpdateDiscount(ctx context.Context, tx *gorm.DB, id string, req DiscountTemplateRequest) (models.DiscountTemplate, error) {
	tx = tx.WithContext(ctx)
	var d models.DiscountTemplate
	if err := tx.Where("id = ?", id).First(&d).Error; err != nil {
		return d, notFound(err, ErrTemplateNotFound)
	}
	applyDiscountPatch(&d, req)
	if err := validateDiscountTemplate(d); err != nil {
		return d, err
	}
	if d.IsDefault && !d.IsActive {
		return d, ErrTemplateInactive
	}
	if d.IsDefault {
		if err := clearDefaultDiscount(tx.Where("id <> ?", d.Id)); err != nil {
			return d, err
		}
	}
	if err := tx.Save(&d).Error; err != nil {
		return d, fmt.Errorf("update discount template: %w", err)
	}
	return d, nil
}

func (s *TemplateService) ListDiscount(ctx context.Context, tx *gorm.DB, includeArchived bool) ([]models.DiscountTemplate, error) {
	q := tx.WithContext(ctx).Model(&models.DiscountTemplate{})
	if !includeArchived {
		q = q.Where("is_active = ?", true)
	}
	var out []models.DiscountTemplate
	err := q.Order("name").Find(&out).Error
	return out, err
}

func (s *TemplateService) ArchiveDiscount(ctx context.Context, tx *gorm.DB, id string) error {
	res := tx.WithContext(ctx).Model(&models.DiscountTemplate{}).Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "is_default": false})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func applyTaxPatch(t *models.TaxTemplate, req TaxTemplateRequest) {
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Rate != nil {
		t.Rate = *req.Rate
	}
	if req.RateType != nil {
		t.RateType = *req.RateType
	}
	if req.TaxType != nil {
		t.TaxType = *req.TaxType
	}
	if req.IsDefault != nil {
		t.IsDefault = *req.IsDefault
	}
}

func applyDiscountPatch(d *models.DiscountTemplate, req DiscountTemplateRequest) {
	if req.Name != nil {
		d.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		d.Type = *req.Type
	}
	if req.Value != nil {
		d.Value = *req.Value
	}
	if req.IsDefault != nil {
		d.IsDefault = *req.IsDefault
	}
}

// A GST or cess template is always a percentage; only CUSTOM taxes may be a flat amount.
func validateTaxTemplate(t models.TaxTemplate) error {
	switch {
	case t.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	case !t.TaxType.Valid():
		return fmt.Errorf("%w: tax_type %q", ErrInvalidTemplate, t.TaxType)
	case !t.RateType.Valid():
		return fmt.Errorf("%w: rate_type %q", ErrInvalidTemplate, t.RateType)
	case t.RateType == calc.RateTypeAmount && t.TaxType != calc.TaxTypeCustom:
		return fmt.Errorf("%w: %s templates must be PERCENT", ErrInvalidTemplate, t.TaxType)
	case math.IsNaN(t.Rate) || t.Rate < 0:
		return fmt.Errorf("%w: rate must not be negative", ErrInvalidTemplate)
	case t.RateType == calc.RateTypePercent && t.Rate > 100:
		return fmt.Errorf("%w: percentage above 100", ErrInvalidTemplate)
	}
	return nil
}

func validateDiscountTemplate(d models.DiscountTemplate) error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	case !d.Type.Valid():
		return fmt.Errorf("%w: type %q", ErrInvalidTemplate, d.Type)
	case math.IsNaN(d.Value) || d.Value < 0:
		return fmt.Errorf("%w: value must not be negative", ErrInvalidTemplate)
	case d.Type == calc.RateTypePercent && d.Value > 100:
		return fmt.Errorf("%w: percentage above 100", ErrInvalidTemplate)
	}
	return nil
}

func clearDefaultTax(tx *gorm.DB, taxType calc.TaxType) error {
	return tx.Model(&models.TaxTemplate{}).
		Where("tax_type = ? AND is_default = ?", taxType, true).
		Update("is_default", false).Error
}

func clearDefaultDiscount(tx *gorm.DB) error {
	return tx.Model(&models.DiscountTemplate{}).
		Where("is_default = ?", true).
		Update("is_default", false).Error
}
