// Package calc is the invoice financial calculation engine: discount and GST math, line items,
// invoice-level tax/discount entries, invoice totals and the grouped tax summary.
//
// Every function in this package is pure. Callers resolve tax and discount templates before calling
// in; the engine only ever sees the name/rate snapshot it is handed.
package calc

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be a finite, non-negative number")
	ErrInvalidRate     = errors.New("rate must be a finite, non-negative number")
)

// RateType says whether a rate is a percentage or a literal amount.
type RateType string

const (
	RateTypePercent RateType = "PERCENT"
	RateTypeAmount  RateType = "AMOUNT"
)

func (t RateType) Valid() bool {
	return t == RateTypePercent || t == RateTypeAmount
}

// TaxType classifies a tax template. GST always splits by state, CESS and CUSTOM never do.
type TaxType string

const (
	TaxTypeGST    TaxType = "GST"
	TaxTypeCess   TaxType = "CESS"
	TaxTypeCustom TaxType = "CUSTOM"
)

func (t TaxType) Valid() bool {
	switch t {
	case TaxTypeGST, TaxTypeCess, TaxTypeCustom:
		return true
	}
	return false
}

// GstType is INTRA when supplier and recipient are in the same state, INTER otherwise.
type GstType string

const (
	GstTypeIntra GstType = "INTRA"
	GstTypeInter GstType = "INTER"
)

func (t GstType) Valid() bool {
	return t == GstTypeIntra || t == GstTypeInter
}

// LineType is the kind of a per-item tax or discount snapshot.
type LineType string

const (
	LineTypeCGST     LineType = "CGST"
	LineTypeSGST     LineType = "SGST"
	LineTypeIGST     LineType = "IGST"
	LineTypeCess     LineType = "CESS"
	LineTypeCustom   LineType = "CUSTOM"
	LineTypeDiscount LineType = "DISCOUNT"
)

// IsTax reports whether the line contributes to tax (everything but DISCOUNT).
func (t LineType) IsTax() bool {
	switch t {
	case LineTypeCGST, LineTypeSGST, LineTypeIGST, LineTypeCess, LineTypeCustom:
		return true
	}
	return false
}

// displayRank orders tax summary rows.
func (t LineType) displayRank() int {
	switch t {
	case LineTypeCGST:
		return 0
	case LineTypeSGST:
		return 1
	case LineTypeIGST:
		return 2
	case LineTypeCess:
		return 3
	case LineTypeCustom:
		return 4
	}
	return 5
}

// EntryType is the kind of an invoice-level entry.
type EntryType string

const (
	EntryTypeTax      EntryType = "TAX"
	EntryTypeDiscount EntryType = "DISCOUNT"
)

func (t EntryType) Valid() bool {
	return t == EntryTypeTax || t == EntryTypeDiscount
}

// ApplicationMode selects the base of an invoice-level entry.
type ApplicationMode string

const (
	// ApplyBeforeTax uses the taxable total as base.
	ApplyBeforeTax ApplicationMode = "BEFORE_TAX"
	// ApplyAfterTax uses taxable total plus item-level tax as base.
	ApplyAfterTax ApplicationMode = "AFTER_TAX"
)

func (m ApplicationMode) Valid() bool {
	return m == ApplyBeforeTax || m == ApplyAfterTax
}

// Discount is a resolved discount selection. An empty Type means no discount.
type Discount struct {
	TemplateID *string  `json:"template_id,omitempty"`
	Name       string   `json:"name"`
	Type       RateType `json:"type"`
	Value      float64  `json:"value"`
}

// TaxRate is a resolved tax or cess selection. A zero Rate means the item is exempt.
type TaxRate struct {
	TemplateID *string  `json:"template_id,omitempty"`
	Name       string   `json:"name"`
	TaxType    TaxType  `json:"tax_type"`
	RateType   RateType `json:"rate_type"`
	Rate       float64  `json:"rate"`
}

// LineItemInput carries one invoice line before calculation.
type LineItemInput struct {
	Quantity float64   `json:"quantity"`
	Rate     float64   `json:"rate"`
	Discount *Discount `json:"discount,omitempty"`
	Tax      *TaxRate  `json:"tax,omitempty"`
	Cess     *TaxRate  `json:"cess,omitempty"`
}

// TaxDiscountLine is an immutable snapshot of one tax, cess or discount component of a line item.
type TaxDiscountLine struct {
	Type          LineType `json:"type"`
	TemplateID    *string  `json:"template_id,omitempty"`
	Name          string   `json:"name"`
	Rate          float64  `json:"rate"`
	RateType      RateType `json:"rate_type"`
	TaxableAmount float64  `json:"taxable_amount"`
	Amount        float64  `json:"amount"`
	SortOrder     int      `json:"sort_order"`
}

// CalculatedLineItem is the computed form of a LineItemInput.
type CalculatedLineItem struct {
	Quantity      float64           `json:"quantity"`
	Rate          float64           `json:"rate"`
	Amount        float64           `json:"amount"`
	TaxableAmount float64           `json:"taxable_amount"`
	Lines         []TaxDiscountLine `json:"lines"`
	TotalDiscount float64           `json:"total_discount"`
	TotalTax      float64           `json:"total_tax"`
	Total         float64           `json:"total"`
}

// InvoiceTaxDiscountEntry is an invoice-wide tax/charge or discount. BaseAmount and Amount are
// filled in by CalculateEntries.
type InvoiceTaxDiscountEntry struct {
	EntryType       EntryType       `json:"entry_type"`
	Name            string          `json:"name"`
	RateType        RateType        `json:"rate_type"`
	Rate            float64         `json:"rate"`
	ApplicationMode ApplicationMode `json:"application_mode"`
	SortOrder       int             `json:"sort_order"`
	BaseAmount      float64         `json:"base_amount"`
	Amount          float64         `json:"amount"`
}

// InvoiceTotals are the aggregated amounts of an invoice.
type InvoiceTotals struct {
	SubTotal             float64 `json:"sub_total"`
	TotalItemDiscount    float64 `json:"total_item_discount"`
	TaxableTotal         float64 `json:"taxable_total"`
	TotalCgst            float64 `json:"total_cgst"`
	TotalSgst            float64 `json:"total_sgst"`
	TotalIgst            float64 `json:"total_igst"`
	TotalCess            float64 `json:"total_cess"`
	TotalCustomTax       float64 `json:"total_custom_tax"`
	TotalTax             float64 `json:"total_tax"`
	TotalAdditionalTax   float64 `json:"total_additional_tax"`
	TotalInvoiceDiscount float64 `json:"total_invoice_discount"`
	GrandTotal           float64 `json:"grand_total"`
	PaidAmount           float64 `json:"paid_amount"`
	DueAmount            float64 `json:"due_amount"`
}

// TaxSummaryRow aggregates the tax lines of every item sharing a grouping key.
type TaxSummaryRow struct {
	Type          LineType `json:"type"`
	TemplateID    *string  `json:"template_id,omitempty"`
	Name          string   `json:"name"`
	Rate          float64  `json:"rate"`
	TaxableAmount float64  `json:"taxable_amount"`
	Amount        float64  `json:"amount"`
}
