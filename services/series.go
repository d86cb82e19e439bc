package services

import (
	"context"
	"fmt"
	"strings"

	"gst-invoicing-backend/logger"
	"gst-invoicing-backend/models"
	"gst-invoicing-backend/numbering"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeriesRequest creates an invoice number series.
type SeriesRequest struct {
	Name      string `json:"name" validate:"required,max=64"`
	Prefix    string `json:"prefix" validate:"max=32"`
	Suffix    string `json:"suffix" validate:"max=32"`
	StartWith int64  `json:"start_with" validate:"gte=0"` // 0 starts at 1
	Padding   *int   `json:"padding" validate:"omitempty,gte=0,lte=12"`
	IsDefault bool   `json:"is_default"`
}

type SeriesService struct {
	log            *zap.Logger
	defaultPadding int
}

func NewSeriesService(defaultPadding int) *SeriesService {
	if defaultPadding < 0 {
		defaultPadding = numbering.DefaultPadding
	}
	return &SeriesService{log: logger.Named("series"), defaultPadding: defaultPadding}
}

// Create adds a series. The first series of a tenant always becomes the default.
func (s *SeriesService) Create(ctx context.Context, tx *gorm.DB, req SeriesRequest) (models.InvoiceSeries, error) {
	tx = tx.WithContext(ctx)
	req.Name = strings.TrimSpace(req.Name)
	if req.StartWith == 0 {
		req.StartWith = 1
	}
	if req.Name == "" || req.StartWith < 0 {
		return models.InvoiceSeries{}, ErrInvalidSeries
	}

	padding := s.defaultPadding
	if req.Padding != nil {
		padding = *req.Padding
	}
	series := models.InvoiceSeries{
		Name:       req.Name,
		Prefix:     req.Prefix,
		Suffix:     req.Suffix,
		StartWith:  req.StartWith,
		NextNumber: req.StartWith,
		Padding:    padding,
		IsDefault:  req.IsDefault,
		IsActive:   true,
	}

	var existing int64
	if err := tx.Model(&models.InvoiceSeries{}).Where("is_active = ?", true).Count(&existing).Error; err != nil {
		return models.InvoiceSeries{}, err
	}
	if existing == 0 {
		series.IsDefault = true
	}
	if series.IsDefault {
		if err := clearDefaultSeries(tx); err != nil {
			return models.InvoiceSeries{}, err
		}
	}
	if err := tx.Create(&series).Error; err != nil {
		return models.InvoiceSeries{}, fmt.Errorf("create series: %w", err)
	}
	s.log.Info("series created", zap.String("series_id", series.Id), zap.String("name", series.Name))
	return series, nil
}

func (s *SeriesService) List(ctx context.Context, tx *gorm.DB) ([]models.InvoiceSeries, error) {
	var out []models.InvoiceSeries
	err := tx.WithContext(ctx).Order("is_default DESC, name").Find(&out).Error
	return out, err
}

// SetDefault makes id the tenant's default series.
func (s *SeriesService) SetDefault(ctx context.Context, tx *gorm.DB, id string) (models.InvoiceSeries, error) {
	tx = tx.WithContext(ctx)
	series, err := s.get(tx, id)
	if err != nil {
		return series, err
	}
	if !series.IsActive {
		return series, ErrSeriesInactive
	}
	if err := clearDefaultSeries(tx); err != nil {
		return series, err
	}
	if err := tx.Model(&series).Update("is_default", true).Error; err != nil {
		return series, err
	}
	series.IsDefault = true
	return series, nil
}

// Preview formats the number the next invoice of the series would get without consuming it.
func (s *SeriesService) Preview(ctx context.Context, tx *gorm.DB, id string) (string, error) {
	series, err := s.get(tx.WithContext(ctx), id)
	if err != nil {
		return "", err
	}
	return series.Sequence().Preview()
}

// Allocate consumes the next number of the given series, or of the default series when id is nil.
// The counter is advanced with a compare-and-set on next_number inside tx, so the number is only
// burned if tx commits; a concurrent allocation of the same number fails with ErrSeriesConflict.
func (s *SeriesService) Allocate(ctx context.Context, tx *gorm.DB, id *string) (string, models.InvoiceSeries, error) {
	tx = tx.WithContext(ctx)

	var series models.InvoiceSeries
	var err error
	if id != nil && *id != "" {
		series, err = s.get(forUpdate(tx), *id)
	} else {
		err = forUpdate(tx).Where("is_default = ? AND is_active = ?", true, true).First(&series).Error
		err = notFound(err, ErrNoDefaultSeries)
	}
	if err != nil {
		return "", series, err
	}
	if !series.IsActive {
		return "", series, ErrSeriesInactive
	}

	number, next, err := series.Sequence().Next()
	if err != nil {
		return "", series, err
	}

	res := tx.Model(&models.InvoiceSeries{}).
		Where("id = ? AND next_number = ?", series.Id, series.NextNumber).
		Update("next_number", next.NextNumber)
	if res.Error != nil {
		return "", series, fmt.Errorf("advance series: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		s.log.Warn("series allocation lost a race", zap.String("series_id", series.Id))
		return "", series, ErrSeriesConflict
	}
	series.NextNumber = next.NextNumber
	return number, series, nil
}

// EnsureDefault seeds a "Default" series (INV-0001, INV-0002, ...) for a fresh tenant.
func (s *SeriesService) EnsureDefault(ctx context.Context, tx *gorm.DB) error {
	var n int64
	if err := tx.WithContext(ctx).Model(&models.InvoiceSeries{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := s.Create(ctx, tx, SeriesRequest{Name: "Default", Prefix: "INV-", StartWith: 1, IsDefault: true})
	return err
}

func (s *SeriesService) get(tx *gorm.DB, id string) (models.InvoiceSeries, error) {
	var series models.InvoiceSeries
	err := tx.Where("id = ?", id).First(&series).Error
	return series, notFound(err, ErrSeriesNotFound)
}

func clearDefaultSeries(tx *gorm.DB) error {
	return tx.Model(&models.InvoiceSeries{}).
		Where("is_default = ?", true).
		Update("is_default", false).Error
}
