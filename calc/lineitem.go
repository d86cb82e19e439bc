package calc

import (
	"fmt"

	"gst-invoicing-backend/utils"
)

const (
	defaultDiscountName = "Discount"
	defaultCessName     = "Cess"
	defaultCustomName   = "Tax"
)

// CalculateLineItem computes one invoice line. Zero quantity or rate gives a valid all-zero line;
// negative or non-finite quantity and rate are rejected.
func CalculateLineItem(in LineItemInput, gstType GstType) (CalculatedLineItem, error) {
	if !finiteNonNegative(in.Quantity) {
		return CalculatedLineItem{}, fmt.Errorf("%w: %v", ErrInvalidQuantity, in.Quantity)
	}
	if !finiteNonNegative(in.Rate) {
		return CalculatedLineItem{}, fmt.Errorf("%w: %v", ErrInvalidRate, in.Rate)
	}

	item := CalculatedLineItem{
		Quantity: in.Quantity,
		Rate:     in.Rate,
		Amount:   RoundToTwo(in.Quantity * in.Rate),
		Lines:    []TaxDiscountLine{},
	}
	item.TaxableAmount = item.Amount

	if d := in.Discount; d != nil && d.Type.Valid() && d.Value > 0 {
		res := CalculateDiscount(item.Amount, *d)
		item.TaxableAmount = res.AmountAfterDiscount
		item.TotalDiscount = res.DiscountAmount
		item.Lines = append(item.Lines, TaxDiscountLine{
			Type:          LineTypeDiscount,
			TemplateID:    copyID(d.TemplateID),
			Name:          nameOr(d.Name, defaultDiscountName),
			Rate:          d.Value,
			RateType:      d.Type,
			TaxableAmount: item.Amount,
			Amount:        res.DiscountAmount,
		})
	}

	taxAmounts := make([]float64, 0, 3)

	if t := in.Tax; t != nil && t.Rate > 0 {
		lines := taxLines(item.TaxableAmount, *t, gstType)
		for _, l := range lines {
			taxAmounts = append(taxAmounts, l.Amount)
		}
		item.Lines = append(item.Lines, lines...)
	}

	if c := in.Cess; c != nil && c.Rate > 0 {
		cess := CalculateCess(item.TaxableAmount, c.Rate)
		taxAmounts = append(taxAmounts, cess)
		item.Lines = append(item.Lines, TaxDiscountLine{
			Type:          LineTypeCess,
			TemplateID:    copyID(c.TemplateID),
			Name:          nameOr(c.Name, defaultCessName),
			Rate:          c.Rate,
			RateType:      RateTypePercent,
			TaxableAmount: item.TaxableAmount,
			Amount:        cess,
		})
	}

	for i := range item.Lines {
		item.Lines[i].SortOrder = i
	}

	item.TotalTax = utils.SumMoney(taxAmounts...)
	item.Total = RoundToTwo(item.TaxableAmount + item.TotalTax)
	return item, nil
}

// taxLines builds the tax components of one item. A tax without a type is a custom percentage
// typed in on the invoice and is billed as GST.
func taxLines(taxable float64, t TaxRate, gstType GstType) []TaxDiscountLine {
	switch t.TaxType {
	case TaxTypeCustom:
		amount := CalculatePercentTax(taxable, t.Rate)
		rateType := RateTypePercent
		if t.RateType == RateTypeAmount {
			amount = RoundToTwo(nonNegative(t.Rate))
			rateType = RateTypeAmount
		}
		if amount == 0 {
			return nil
		}
		return []TaxDiscountLine{{
			Type:          LineTypeCustom,
			TemplateID:    copyID(t.TemplateID),
			Name:          nameOr(t.Name, defaultCustomName),
			Rate:          t.Rate,
			RateType:      rateType,
			TaxableAmount: taxable,
			Amount:        amount,
		}}
	case TaxTypeCess:
		amount := CalculateCess(taxable, t.Rate)
		return []TaxDiscountLine{{
			Type:          LineTypeCess,
			TemplateID:    copyID(t.TemplateID),
			Name:          nameOr(t.Name, defaultCessName),
			Rate:          t.Rate,
			RateType:      RateTypePercent,
			TaxableAmount: taxable,
			Amount:        amount,
		}}
	}

	gst := CalculateGstBreakdown(taxable, t.Rate, gstType)
	if gstType == GstTypeIntra {
		lines := make([]TaxDiscountLine, 0, 2)
		if gst.CgstAmount > 0 {
			lines = append(lines, gstLine(LineTypeCGST, t, gst.CgstRate, taxable, gst.CgstAmount))
		}
		if gst.SgstAmount > 0 {
			lines = append(lines, gstLine(LineTypeSGST, t, gst.SgstRate, taxable, gst.SgstAmount))
		}
		return lines
	}
	if gst.IgstAmount > 0 {
		return []TaxDiscountLine{gstLine(LineTypeIGST, t, gst.IgstRate, taxable, gst.IgstAmount)}
	}
	return nil
}

func gstLine(typ LineType, t TaxRate, rate, taxable, amount float64) TaxDiscountLine {
	return TaxDiscountLine{
		Type:          typ,
		TemplateID:    copyID(t.TemplateID),
		Name:          string(typ),
		Rate:          rate,
		RateType:      RateTypePercent,
		TaxableAmount: taxable,
		Amount:        amount,
	}
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// copyID detaches the snapshot from the caller's template reference.
func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
