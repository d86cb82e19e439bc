package calc

import (
	"math"

	"gst-invoicing-backend/utils"
)

// RoundToTwo rounds a monetary amount to paise. Every final amount goes through it exactly once.
func RoundToTwo(x float64) float64 {
	return utils.Round2(x)
}

// DiscountResult is the outcome of applying a discount to an amount.
type DiscountResult struct {
	DiscountAmount      float64 `json:"discount_amount"`
	AmountAfterDiscount float64 `json:"amount_after_discount"`
}

// CalculateDiscount applies d to amount. The discount never exceeds the amount and the remainder
// is never negative.
func CalculateDiscount(amount float64, d Discount) DiscountResult {
	amount = nonNegative(amount)
	value := nonNegative(d.Value)
	if d.Type == "" || value <= 0 {
		return DiscountResult{DiscountAmount: 0, AmountAfterDiscount: RoundToTwo(amount)}
	}

	var discount float64
	switch d.Type {
	case RateTypePercent:
		discount = amount * math.Min(value, 100) / 100
	case RateTypeAmount:
		discount = math.Min(value, amount)
	default:
		return DiscountResult{DiscountAmount: 0, AmountAfterDiscount: RoundToTwo(amount)}
	}

	return DiscountResult{
		DiscountAmount:      RoundToTwo(discount),
		AmountAfterDiscount: math.Max(0, RoundToTwo(amount-discount)),
	}
}

// GstBreakdown is the GST billed on a taxable amount.
type GstBreakdown struct {
	CgstRate   float64 `json:"cgst_rate"`
	SgstRate   float64 `json:"sgst_rate"`
	IgstRate   float64 `json:"igst_rate"`
	CgstAmount float64 `json:"cgst_amount"`
	SgstAmount float64 `json:"sgst_amount"`
	IgstAmount float64 `json:"igst_amount"`
	TotalTax   float64 `json:"total_tax"`
}

// CalculateGstBreakdown splits GST by supply type.
//
// For INTRA supply the two halves are rounded independently, so CGST+SGST can differ by one paisa
// from rounding the combined rate once. Invoices already issued carry that per-component rounding.
func CalculateGstBreakdown(taxableAmount, rate float64, gstType GstType) GstBreakdown {
	taxableAmount = nonNegative(taxableAmount)
	rate = nonNegative(rate)
	if rate == 0 {
		return GstBreakdown{}
	}

	if gstType == GstTypeIntra {
		half := rate / 2
		cgst := RoundToTwo(taxableAmount * half / 100)
		sgst := RoundToTwo(taxableAmount * half / 100)
		return GstBreakdown{
			CgstRate:   half,
			SgstRate:   half,
			CgstAmount: cgst,
			SgstAmount: sgst,
			TotalTax:   utils.SumMoney(cgst, sgst),
		}
	}

	igst := RoundToTwo(taxableAmount * rate / 100)
	return GstBreakdown{
		IgstRate:   rate,
		IgstAmount: igst,
		TotalTax:   igst,
	}
}

// CalculateCess is a flat percentage of the taxable amount, never of the GST on it.
func CalculateCess(taxableAmount, rate float64) float64 {
	return CalculatePercentTax(taxableAmount, rate)
}

// CalculatePercentTax applies an unsplit percentage tax.
func CalculatePercentTax(taxableAmount, rate float64) float64 {
	taxableAmount = nonNegative(taxableAmount)
	rate = nonNegative(rate)
	if rate == 0 {
		return 0
	}
	return RoundToTwo(taxableAmount * rate / 100)
}

// DetermineGstType compares state codes verbatim.
func DetermineGstType(companyStateCode, customerStateCode string) GstType {
	if companyStateCode == customerStateCode {
		return GstTypeIntra
	}
	return GstTypeInter
}

func nonNegative(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0
	}
	return x
}

func finiteNonNegative(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0
}
