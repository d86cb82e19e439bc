package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gst-invoicing-backend/calc"
	"gst-invoicing-backend/lifecycle"
	"gst-invoicing-backend/logger"
	"gst-invoicing-backend/models"
	"gst-invoicing-backend/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceRequest creates or fully replaces an invoice.
type InvoiceRequest struct {
	CustomerID  uint           `json:"customer_id" validate:"required"`
	SeriesID    *string        `json:"series_id"`
	InvoiceDate *time.Time     `json:"invoice_date"`
	DueDate     *time.Time     `json:"due_date"`
	Notes       string         `json:"notes" validate:"max=2000"`
	Items       []ItemRequest  `json:"items" validate:"required,min=1,dive"`
	Entries     []EntryRequest `json:"entries" validate:"dive"`

	// AcknowledgeOverpayment lets an edit go through although the money already received exceeds
	// the new grand total. Payments are kept and the excess is recorded as overpayment.
	AcknowledgeOverpayment bool `json:"acknowledge_overpayment"`
}

type PaymentRequest struct {
	Amount    float64    `json:"amount" validate:"gt=0"`
	Method    string     `json:"method" validate:"max=32"`
	Reference string     `json:"reference" validate:"max=128"`
	Note      string     `json:"note" validate:"max=500"`
	PaidAt    *time.Time `json:"paid_at"`
}

type ListFilter struct {
	Status     lifecycle.Status
	CustomerID uint
	Limit      int
	Offset     int
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type InvoiceService struct {
	series *SeriesService
	log    *zap.Logger
	now    func() time.Time
}

func NewInvoiceService(series *SeriesService) *InvoiceService {
	return &InvoiceService{
		series: series,
		log:    logger.Named("invoices"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CompanyBySchema loads the company owning a tenant schema.
func CompanyBySchema(ctx context.Context, tx *gorm.DB, schema string) (models.Company, error) {
	var company models.Company
	err := tx.WithContext(ctx).Where("schema_name = ?", schema).First(&company).Error
	return company, notFound(err, ErrCompanyNotFound)
}

// Calculate prices a request without persisting anything or consuming a number.
func (s *InvoiceService) Calculate(ctx context.Context, tx *gorm.DB, company models.Company, req InvoiceRequest) (calc.CalculatedInvoice, error) {
	tx = tx.WithContext(ctx)
	customer, err := s.customer(tx, req.CustomerID)
	if err != nil {
		return calc.CalculatedInvoice{}, err
	}
	_, out, err := s.compute(tx, company.StateCode, customer.StateCode, req, false)
	return out, err
}

// Create prices the request, allocates the next number of the chosen series and stores the
// invoice with its snapshots and a first version. Everything happens inside tx.
func (s *InvoiceService) Create(ctx context.Context, tx *gorm.DB, company models.Company, req InvoiceRequest) (models.Invoice, error) {
	tx = tx.WithContext(ctx)
	customer, err := s.customer(tx, req.CustomerID)
	if err != nil {
		return models.Invoice{}, err
	}
	resolved, out, err := s.compute(tx, company.StateCode, customer.StateCode, req, false)
	if err != nil {
		return models.Invoice{}, err
	}

	number, series, err := s.series.Allocate(ctx, tx, req.SeriesID)
	if err != nil {
		return models.Invoice{}, err
	}

	now := s.now()
	seriesID := series.Id
	inv := models.Invoice{
		InvoiceNumber:     number,
		SeriesID:          &seriesID,
		CId:               customer.Id,
		InvoiceDate:       timeOr(req.InvoiceDate, now),
		DueDate:           req.DueDate,
		Notes:             strings.TrimSpace(req.Notes),
		CompanyStateCode:  company.StateCode,
		CustomerStateCode: customer.StateCode,
		GstType:           out.GstType,
		Items:             buildItems(resolved, out.Items),
		Entries:           buildEntries(out.Entries),
	}
	inv.ApplyTotals(out.Totals)
	inv.ApplyPaymentState(lifecycle.Reconcile(lifecycle.StatusUnpaid, inv.GrandTotal, 0))

	if err := tx.Omit("Customer").Create(&inv).Error; err != nil {
		return models.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	inv.Customer = customer
	if err := writeVersion(tx, &inv, models.VersionCreated); err != nil {
		return models.Invoice{}, err
	}

	s.log.Info("invoice created",
		zap.Uint("invoice_id", inv.ID),
		zap.String("number", inv.InvoiceNumber),
		zap.String("gst_type", string(inv.GstType)),
		zap.Float64("grand_total", inv.GrandTotal))
	return s.get(tx, inv.ID)
}

// Update recomputes the invoice from scratch and replaces its items and entries. The number,
// series and company state code stay as issued.
func (s *InvoiceService) Update(ctx context.Context, tx *gorm.DB, id uint, req InvoiceRequest) (models.Invoice, error) {
	tx = tx.WithContext(ctx)
	inv, err := s.lock(tx, id)
	if err != nil {
		return inv, err
	}
	if !lifecycle.CanEditInvoice(inv.Status) {
		return inv, lifecycle.ErrInvoiceCancelled
	}

	customer, err := s.customer(tx, req.CustomerID)
	if err != nil {
		return inv, err
	}
	resolved, out, err := s.compute(tx, inv.CompanyStateCode, customer.StateCode, req, true)
	if err != nil {
		return inv, err
	}

	received := utils.SumMoney(inv.PaidAmount, inv.Overpayment)
	check, err := lifecycle.CheckEdit(inv.Status, received, out.Totals.GrandTotal)
	if err != nil {
		return inv, err
	}
	if check.Overpaid && !req.AcknowledgeOverpayment {
		return inv, &OverpaymentError{Check: check}
	}

	if err := deleteChildren(tx, inv.ID); err != nil {
		return inv, err
	}

	inv.CId = customer.Id
	if req.InvoiceDate != nil {
		inv.InvoiceDate = *req.InvoiceDate
	}
	inv.DueDate = req.DueDate
	inv.Notes = strings.TrimSpace(req.Notes)
	inv.CustomerStateCode = customer.StateCode
	inv.GstType = out.GstType
	inv.ApplyTotals(out.Totals)
	inv.ApplyPaymentState(lifecycle.Reconcile(inv.Status, inv.GrandTotal, received))
	if err := tx.Omit(clause.Associations).Save(&inv).Error; err != nil {
		return inv, fmt.Errorf("update invoice: %w", err)
	}

	items := buildItems(resolved, out.Items)
	for i := range items {
		items[i].InvoiceID = inv.ID
	}
	if err := tx.Create(&items).Error; err != nil {
		return inv, fmt.Errorf("replace invoice items: %w", err)
	}
	entries := buildEntries(out.Entries)
	if len(entries) > 0 {
		for i := range entries {
			entries[i].InvoiceID = inv.ID
		}
		if err := tx.Create(&entries).Error; err != nil {
			return inv, fmt.Errorf("replace invoice entries: %w", err)
		}
	}

	inv.Items, inv.Entries, inv.Customer = items, entries, customer
	if err := writeVersion(tx, &inv, models.VersionUpdated); err != nil {
		return inv, err
	}

	fields := []zap.Field{
		zap.Uint("invoice_id", inv.ID),
		zap.Float64("grand_total", inv.GrandTotal),
		zap.String("status", string(inv.Status)),
	}
	if check.Overpaid {
		fields = append(fields, zap.Float64("overpayment", check.OverpaymentAmount))
	}
	s.log.Info("invoice updated", fields...)
	return s.get(tx, inv.ID)
}

// Cancel freezes the invoice. Amounts and payments are kept as they are.
func (s *InvoiceService) Cancel(ctx context.Context, tx *gorm.DB, id uint, reason string) (models.Invoice, error) {
	tx = tx.WithContext(ctx)
	inv, err := s.lock(tx, id)
	if err != nil {
		return inv, err
	}
	status, reason, err := lifecycle.Cancel(inv.Status, reason)
	if err != nil {
		return inv, err
	}

	now := s.now()
	if err := tx.Model(&inv).Updates(map[string]any{
		"status":              status,
		"cancellation_reason": reason,
		"cancelled_at":        now,
	}).Error; err != nil {
		return inv, fmt.Errorf("cancel invoice: %w", err)
	}

	full, err := s.get(tx, id)
	if err != nil {
		return full, err
	}
	if err := writeVersion(tx, &full, models.VersionCancelled); err != nil {
		return full, err
	}
	s.log.Info("invoice cancelled", zap.Uint("invoice_id", id), zap.String("reason", reason))
	return full, nil
}

// RecordPayment stores a payment and moves the invoice to PARTIALLY_PAID or PAID.
func (s *InvoiceService) RecordPayment(ctx context.Context, tx *gorm.DB, id uint, req PaymentRequest) (models.Payment, models.Invoice, error) {
	tx = tx.WithContext(ctx)
	inv, err := s.lock(tx, id)
	if err != nil {
		return models.Payment{}, inv, err
	}

	amount := calc.RoundToTwo(req.Amount)
	st, err := lifecycle.ApplyPayment(inv.PaymentState(), amount)
	if err != nil {
		return models.Payment{}, inv, err
	}

	p := models.Payment{
		InvoiceID: inv.ID,
		Amount:    amount,
		Method:    strings.TrimSpace(req.Method),
		Reference: strings.TrimSpace(req.Reference),
		Note:      strings.TrimSpace(req.Note),
		PaidAt:    timeOr(req.PaidAt, s.now()),
	}
	if err := tx.Create(&p).Error; err != nil {
		return p, inv, fmt.Errorf("create payment: %w", err)
	}
	if err := tx.Model(&inv).Updates(map[string]any{
		"status":      st.Status,
		"paid_amount": st.PaidAmount,
		"due_amount":  st.DueAmount,
		"overpayment": st.Overpayment,
	}).Error; err != nil {
		return p, inv, fmt.Errorf("update invoice after payment: %w", err)
	}
	inv.ApplyPaymentState(st)

	if st.Overpayment > 0 {
		s.log.Warn("payment exceeds amount due",
			zap.Uint("invoice_id", inv.ID),
			zap.Float64("overpayment", st.Overpayment))
	}
	s.log.Info("payment recorded",
		zap.Uint("invoice_id", inv.ID),
		zap.Float64("amount", amount),
		zap.String("status", string(st.Status)))
	return p, inv, nil
}

func (s *InvoiceService) Get(ctx context.Context, tx *gorm.DB, id uint) (models.Invoice, error) {
	return s.get(tx.WithContext(ctx), id)
}

// List returns invoices newest first with the total count for the filter.
func (s *InvoiceService) List(ctx context.Context, tx *gorm.DB, f ListFilter) ([]models.Invoice, int64, error) {
	q := tx.WithContext(ctx).Model(&models.Invoice{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != 0 {
		q = q.Where("c_id = ?", f.CustomerID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var out []models.Invoice
	err := q.Preload("Customer").Order("id DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

// TaxSummary regroups the stored line snapshots. Templates are not consulted.
func (s *InvoiceService) TaxSummary(ctx context.Context, tx *gorm.DB, id uint) ([]calc.TaxSummaryRow, error) {
	inv, err := s.get(tx.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return calc.GenerateTaxSummary(inv.CalculatedItems()), nil
}

func (s *InvoiceService) Versions(ctx context.Context, tx *gorm.DB, id uint) ([]models.InvoiceVersion, error) {
	tx = tx.WithContext(ctx)
	if err := s.exists(tx, id); err != nil {
		return nil, err
	}
	var out []models.InvoiceVersion
	err := tx.Where("invoice_id = ?", id).Order("version_no").Find(&out).Error
	return out, err
}

func (s *InvoiceService) Payments(ctx context.Context, tx *gorm.DB, id uint) ([]models.Payment, error) {
	tx = tx.WithContext(ctx)
	if err := s.exists(tx, id); err != nil {
		return nil, err
	}
	var out []models.Payment
	err := tx.Where("invoice_id = ?", id).Order("paid_at, id").Find(&out).Error
	return out, err
}

func (s *InvoiceService) compute(tx *gorm.DB, companyState, customerState string, req InvoiceRequest, allowArchived bool) ([]resolvedItem, calc.CalculatedInvoice, error) {
	resolved, err := newResolver(tx, allowArchived).items(req.Items)
	if err != nil {
		return nil, calc.CalculatedInvoice{}, err
	}
	entries, err := entryInputs(req.Entries)
	if err != nil {
		return nil, calc.CalculatedInvoice{}, err
	}

	inputs := make([]calc.LineItemInput, 0, len(resolved))
	for _, r := range resolved {
		inputs = append(inputs, r.input)
	}
	out, err := calc.CalculateInvoice(calc.InvoiceInput{
		CompanyStateCode:  companyState,
		CustomerStateCode: customerState,
		Items:             inputs,
		Entries:           entries,
	})
	return resolved, out, err
}

func (s *InvoiceService) customer(tx *gorm.DB, id uint) (models.Customer, error) {
	var c models.Customer
	err := tx.Where("id = ?", id).First(&c).Error
	return c, notFound(err, ErrCustomerNotFound)
}

func (s *InvoiceService) lock(tx *gorm.DB, id uint) (models.Invoice, error) {
	var inv models.Invoice
	err := forUpdate(tx).Where("id = ?", id).First(&inv).Error
	return inv, notFound(err, ErrInvoiceNotFound)
}

func (s *InvoiceService) exists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Invoice{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (s *InvoiceService) get(tx *gorm.DB, id uint) (models.Invoice, error) {
	var inv models.Invoice
	err := tx.
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Items.TaxDiscounts", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Where("id = ?", id).
		First(&inv).Error
	return inv, notFound(err, ErrInvoiceNotFound)
}

func buildItems(resolved []resolvedItem, calculated []calc.CalculatedLineItem) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(calculated))
	for i, c := range calculated {
		lines := make([]models.InvoiceItemTaxDiscount, 0, len(c.Lines))
		for _, l := range c.Lines {
			lines = append(lines, models.InvoiceItemTaxDiscount{
				Type:          l.Type,
				TemplateID:    l.TemplateID,
				Name:          l.Name,
				Rate:          l.Rate,
				RateType:      l.RateType,
				TaxableAmount: l.TaxableAmount,
				Amount:        l.Amount,
				SortOrder:     l.SortOrder,
			})
		}
		items = append(items, models.InvoiceItem{
			Position:      i,
			ArticleID:     resolved[i].articleID,
			Description:   resolved[i].description,
			SacCode:       resolved[i].sacCode,
			Quantity:      c.Quantity,
			Rate:          c.Rate,
			Amount:        c.Amount,
			TaxableAmount: c.TaxableAmount,
			TotalDiscount: c.TotalDiscount,
			TotalTax:      c.TotalTax,
			Total:         c.Total,
			TaxDiscounts:  lines,
		})
	}
	return items
}

func buildEntries(entries []calc.InvoiceTaxDiscountEntry) []models.InvoiceTaxDiscountEntry {
	out := make([]models.InvoiceTaxDiscountEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.InvoiceTaxDiscountEntry{
			EntryType:       e.EntryType,
			Name:            e.Name,
			RateType:        e.RateType,
			Rate:            e.Rate,
			ApplicationMode: e.ApplicationMode,
			SortOrder:       e.SortOrder,
			BaseAmount:      e.BaseAmount,
			Amount:          e.Amount,
		})
	}
	return out
}

func deleteChildren(tx *gorm.DB, invoiceID uint) error {
	itemIDs := tx.Model(&models.InvoiceItem{}).Select("id").Where("invoice_id = ?", invoiceID)
	if err := tx.Where("invoice_item_id IN (?)", itemIDs).Delete(&models.InvoiceItemTaxDiscount{}).Error; err != nil {
		return fmt.Errorf("delete item lines: %w", err)
	}
	if err := tx.Where("invoice_id = ?", invoiceID).Delete(&models.InvoiceItem{}).Error; err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	if err := tx.Where("invoice_id = ?", invoiceID).Delete(&models.InvoiceTaxDiscountEntry{}).Error; err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	return nil
}

// writeVersion appends an immutable JSON snapshot of inv.
func writeVersion(tx *gorm.DB, inv *models.Invoice, event string) error {
	var last int
	if err := tx.Model(&models.InvoiceVersion{}).
		Where("invoice_id = ?", inv.ID).
		Select("COALESCE(MAX(version_no), 0)").
		Scan(&last).Error; err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	snap, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encode version: %w", err)
	}
	v := models.InvoiceVersion{
		InvoiceID: inv.ID,
		VersionNo: last + 1,
		Event:     event,
		Snapshot:  datatypes.JSON(snap),
	}
	if err := tx.Create(&v).Error; err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	return nil
}

func timeOr(t *time.Time, fallback time.Time) time.Time {
	if t == nil || t.IsZero() {
		return fallback
	}
	return *t
}
