package models

import (
	"time"

	"gst-invoicing-backend/calc"
	"gst-invoicing-backend/lifecycle"

	"gorm.io/datatypes"
)

// Invoice is the current state of an issued invoice. Amounts are snapshots from the last full
// recompute; status and payments are the only changes made after that.
type Invoice struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	InvoiceNumber string     `json:"invoice_number" gorm:"unique;not null"`
	SeriesID      *string    `json:"series_id" gorm:"index"`
	CId           uint       `json:"customer_id" gorm:"index"`
	Customer      Customer   `json:"customer" gorm:"foreignKey:CId;references:Id"`
	InvoiceDate   time.Time  `json:"invoice_date"`
	DueDate       *time.Time `json:"due_date"`
	Notes         string     `json:"notes"`

	// Supply snapshot
	CompanyStateCode  string       `json:"company_state_code" gorm:"size:2"`
	CustomerStateCode string       `json:"customer_state_code" gorm:"size:2"`
	GstType           calc.GstType `json:"gst_type" gorm:"type:varchar(5)"`

	Items   []InvoiceItem             `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Entries []InvoiceTaxDiscountEntry `json:"entries" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`

	SubTotal             float64 `json:"sub_total" gorm:"type:numeric(12,2)"`
	TotalItemDiscount    float64 `json:"total_item_discount" gorm:"type:numeric(12,2)"`
	TaxableTotal         float64 `json:"taxable_total" gorm:"type:numeric(12,2)"`
	TotalCgst            float64 `json:"total_cgst" gorm:"type:numeric(12,2)"`
	TotalSgst            float64 `json:"total_sgst" gorm:"type:numeric(12,2)"`
	TotalIgst            float64 `json:"total_igst" gorm:"type:numeric(12,2)"`
	TotalCess            float64 `json:"total_cess" gorm:"type:numeric(12,2)"`
	TotalCustomTax       float64 `json:"total_custom_tax" gorm:"type:numeric(12,2)"`
	TotalTax             float64 `json:"total_tax" gorm:"type:numeric(12,2)"`
	TotalAdditionalTax   float64 `json:"total_additional_tax" gorm:"type:numeric(12,2)"`
	TotalInvoiceDiscount float64 `json:"total_invoice_discount" gorm:"type:numeric(12,2)"`
	GrandTotal           float64 `json:"grand_total" gorm:"type:numeric(12,2)"`

	// Payments rollup
	Status      lifecycle.Status `json:"status" gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	PaidAmount  float64          `json:"paid_amount" gorm:"type:numeric(12,2)"`
	DueAmount   float64          `json:"due_amount" gorm:"type:numeric(12,2)"`
	Overpayment float64          `json:"overpayment" gorm:"type:numeric(12,2)"`

	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyTotals copies computed totals onto the invoice.
func (inv *Invoice) ApplyTotals(t calc.InvoiceTotals) {
	inv.SubTotal = t.SubTotal
	inv.TotalItemDiscount = t.TotalItemDiscount
	inv.TaxableTotal = t.TaxableTotal
	inv.TotalCgst = t.TotalCgst
	inv.TotalSgst = t.TotalSgst
	inv.TotalIgst = t.TotalIgst
	inv.TotalCess = t.TotalCess
	inv.TotalCustomTax = t.TotalCustomTax
	inv.TotalTax = t.TotalTax
	inv.TotalAdditionalTax = t.TotalAdditionalTax
	inv.TotalInvoiceDiscount = t.TotalInvoiceDiscount
	inv.GrandTotal = t.GrandTotal
}

// ApplyPaymentState copies the reconciled payment position onto the invoice.
func (inv *Invoice) ApplyPaymentState(st lifecycle.PaymentState) {
	inv.Status = st.Status
	inv.PaidAmount = st.PaidAmount
	inv.DueAmount = st.DueAmount
	inv.Overpayment = st.Overpayment
}

// PaymentState reads the payment position back from the invoice.
func (inv Invoice) PaymentState() lifecycle.PaymentState {
	return lifecycle.PaymentState{
		Status:      inv.Status,
		GrandTotal:  inv.GrandTotal,
		PaidAmount:  inv.PaidAmount,
		DueAmount:   inv.DueAmount,
		Overpayment: inv.Overpayment,
	}
}

// CalculatedItems rebuilds calculator items from the stored snapshots.
func (inv Invoice) CalculatedItems() []calc.CalculatedLineItem {
	out := make([]calc.CalculatedLineItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		out = append(out, it.Calculated())
	}
	return out
}

type InvoiceItem struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	InvoiceID     uint    `json:"-" gorm:"index"`
	Position      int     `json:"position"`
	ArticleID     *string `json:"article_id" gorm:"index"`
	Description   string  `json:"description"`
	SacCode       string  `json:"sac_code" gorm:"size:8"`
	Quantity      float64 `json:"quantity" gorm:"type:numeric(12,3)"`
	Rate          float64 `json:"rate" gorm:"type:numeric(12,2)"`
	Amount        float64 `json:"amount" gorm:"type:numeric(12,2)"`
	TaxableAmount float64 `json:"taxable_amount" gorm:"type:numeric(12,2)"`
	TotalDiscount float64 `json:"total_discount" gorm:"type:numeric(12,2)"`
	TotalTax      float64 `json:"total_tax" gorm:"type:numeric(12,2)"`
	Total         float64 `json:"total" gorm:"type:numeric(12,2)"`

	TaxDiscounts []InvoiceItemTaxDiscount `json:"tax_discounts" gorm:"foreignKey:InvoiceItemID;constraint:OnDelete:CASCADE"`
}

func (it InvoiceItem) Calculated() calc.CalculatedLineItem {
	lines := make([]calc.TaxDiscountLine, 0, len(it.TaxDiscounts))
	for _, l := range it.TaxDiscounts {
		lines = append(lines, l.Line())
	}
	return calc.CalculatedLineItem{
		Quantity:      it.Quantity,
		Rate:          it.Rate,
		Amount:        it.Amount,
		TaxableAmount: it.TaxableAmount,
		Lines:         lines,
		TotalDiscount: it.TotalDiscount,
		TotalTax:      it.TotalTax,
		Total:         it.Total,
	}
}

// InvoiceItemTaxDiscount is the stored TaxDiscountLine. Name and rate are copies; TemplateID is a
// grouping hint only and is never dereferenced for amounts.
type InvoiceItemTaxDiscount struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	InvoiceItemID uint          `json:"-" gorm:"index"`
	Type          calc.LineType `json:"type" gorm:"type:varchar(10);not null"`
	TemplateID    *string       `json:"template_id"`
	Name          string        `json:"name"`
	Rate          float64       `json:"rate" gorm:"type:numeric(9,3)"`
	RateType      calc.RateType `json:"rate_type" gorm:"type:varchar(10)"`
	TaxableAmount float64       `json:"taxable_amount" gorm:"type:numeric(12,2)"`
	Amount        float64       `json:"amount" gorm:"type:numeric(12,2)"`
	SortOrder     int           `json:"sort_order"`
}

func (l InvoiceItemTaxDiscount) Line() calc.TaxDiscountLine {
	return calc.TaxDiscountLine{
		Type:          l.Type,
		TemplateID:    l.TemplateID,
		Name:          l.Name,
		Rate:          l.Rate,
		RateType:      l.RateType,
		TaxableAmount: l.TaxableAmount,
		Amount:        l.Amount,
		SortOrder:     l.SortOrder,
	}
}

type InvoiceTaxDiscountEntry struct {
	ID              uint                 `json:"id" gorm:"primaryKey"`
	InvoiceID       uint                 `json:"-" gorm:"index"`
	EntryType       calc.EntryType       `json:"entry_type" gorm:"type:varchar(10);not null"`
	Name            string               `json:"name"`
	RateType        calc.RateType        `json:"rate_type" gorm:"type:varchar(10);not null"`
	Rate            float64              `json:"rate" gorm:"type:numeric(12,3)"`
	ApplicationMode calc.ApplicationMode `json:"application_mode" gorm:"type:varchar(12);not null"`
	SortOrder       int                  `json:"sort_order"`
	BaseAmount      float64              `json:"base_amount" gorm:"type:numeric(12,2)"`
	Amount          float64              `json:"amount" gorm:"type:numeric(12,2)"`
}

const (
	VersionCreated   = "created"
	VersionUpdated   = "updated"
	VersionCancelled = "cancelled"
)

// Immutable snapshot of the whole invoice, written on create, edit and cancel.
type InvoiceVersion struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	InvoiceID uint           `json:"invoice_id" gorm:"index:idx_invoice_versions_invoice_id_version_no,unique,priority:1"`
	VersionNo int            `json:"version_no" gorm:"not null;index:idx_invoice_versions_invoice_id_version_no,unique,priority:2"`
	Event     string         `json:"event" gorm:"type:VARCHAR(20)"`
	Snapshot  datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
}

// Payment feeds PaidAmount/DueAmount/Status recomputation.
type Payment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	InvoiceID uint      `json:"invoice_id" gorm:"index:idx_payments_invoice_paid_at,priority:1"`
	Amount    float64   `json:"amount" gorm:"type:numeric(12,2)"`
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
	Note      string    `json:"note"`
	PaidAt    time.Time `json:"paid_at" gorm:"index:idx_payments_invoice_paid_at,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}
