package calc

import (
	"math"

	"gst-invoicing-backend/utils"
)

// EntriesResult is the outcome of CalculateEntries.
type EntriesResult struct {
	Entries              []InvoiceTaxDiscountEntry `json:"entries"`
	TotalAdditionalTax   float64                   `json:"total_additional_tax"`
	TotalInvoiceDiscount float64                   `json:"total_invoice_discount"`
}

// CalculateEntries computes invoice-level taxes/charges and discounts.
//
// BEFORE_TAX entries are based on taxableTotal, AFTER_TAX entries on intermediateTotal. Entries never
// chain: each base is one of the two fixed totals, so the result does not depend on list order.
func CalculateEntries(entries []InvoiceTaxDiscountEntry, taxableTotal, intermediateTotal float64) EntriesResult {
	out := EntriesResult{Entries: make([]InvoiceTaxDiscountEntry, 0, len(entries))}
	taxes := make([]float64, 0, len(entries))
	discounts := make([]float64, 0, len(entries))

	for _, e := range entries {
		base := nonNegative(taxableTotal)
		if e.ApplicationMode == ApplyAfterTax {
			base = nonNegative(intermediateTotal)
		}
		e.BaseAmount = base
		e.Amount = entryAmount(e, base)
		out.Entries = append(out.Entries, e)

		switch e.EntryType {
		case EntryTypeTax:
			taxes = append(taxes, e.Amount)
		case EntryTypeDiscount:
			discounts = append(discounts, e.Amount)
		}
	}

	out.TotalAdditionalTax = utils.SumMoney(taxes...)
	out.TotalInvoiceDiscount = utils.SumMoney(discounts...)
	return out
}

func entryAmount(e InvoiceTaxDiscountEntry, base float64) float64 {
	rate := nonNegative(e.Rate)
	switch e.RateType {
	case RateTypePercent:
		if e.EntryType == EntryTypeDiscount {
			rate = math.Min(rate, 100)
		}
		return RoundToTwo(base * rate / 100)
	case RateTypeAmount:
		if e.EntryType == EntryTypeDiscount {
			rate = math.Min(rate, base)
		}
		return RoundToTwo(rate)
	}
	return 0
}
