package calc

import "fmt"

// InvoiceInput is everything needed to price a whole invoice.
type InvoiceInput struct {
	CompanyStateCode  string                    `json:"company_state_code"`
	CustomerStateCode string                    `json:"customer_state_code"`
	Items             []LineItemInput           `json:"items"`
	Entries           []InvoiceTaxDiscountEntry `json:"entries"`
}

// CalculatedInvoice is the full set of snapshots produced for an invoice.
type CalculatedInvoice struct {
	GstType    GstType                   `json:"gst_type"`
	Items      []CalculatedLineItem      `json:"items"`
	Entries    []InvoiceTaxDiscountEntry `json:"entries"`
	Totals     InvoiceTotals             `json:"totals"`
	TaxSummary []TaxSummaryRow           `json:"tax_summary"`
}

// CalculateInvoice runs the pipeline: supply type, line items, invoice-level entries, totals and
// tax summary. Nothing is patched in place; every call recomputes from the inputs.
func CalculateInvoice(in InvoiceInput) (CalculatedInvoice, error) {
	gstType := DetermineGstType(in.CompanyStateCode, in.CustomerStateCode)

	items := make([]CalculatedLineItem, 0, len(in.Items))
	for i, li := range in.Items {
		item, err := CalculateLineItem(li, gstType)
		if err != nil {
			return CalculatedInvoice{}, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}

	totals, entries := CalculateInvoiceTotalsWithEntries(items, in.Entries)
	return CalculatedInvoice{
		GstType:    gstType,
		Items:      items,
		Entries:    entries,
		Totals:     totals,
		TaxSummary: GenerateTaxSummary(items),
	}, nil
}
