package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustItem(t *testing.T, in LineItemInput, gstType GstType) CalculatedLineItem {
	t.Helper()
	item, err := CalculateLineItem(in, gstType)
	require.NoError(t, err)
	return item
}

func TestCalculateInvoiceTotalsWithEntries(t *testing.T) {
	gst18 := &TaxRate{TemplateID: strPtr("gst-18"), Name: "GST 18%", TaxType: TaxTypeGST, Rate: 18}
	items := []CalculatedLineItem{
		mustItem(t, LineItemInput{Quantity: 2, Rate: 500, Tax: gst18}, GstTypeIntra),
		mustItem(t, LineItemInput{
			Quantity: 1,
			Rate:     1000,
			Discount: &Discount{Type: RateTypePercent, Value: 10},
			Tax:      gst18,
		}, GstTypeIntra),
	}
	entries := []InvoiceTaxDiscountEntry{
		{EntryType: EntryTypeTax, Name: "TCS", RateType: RateTypePercent, Rate: 2, ApplicationMode: ApplyAfterTax},
		{EntryType: EntryTypeDiscount, Name: "Round-off", RateType: RateTypeAmount, Rate: 100, ApplicationMode: ApplyBeforeTax},
	}

	totals, computed := CalculateInvoiceTotalsWithEntries(items, entries)

	assert.Equal(t, 2000.0, totals.SubTotal)
	assert.Equal(t, 100.0, totals.TotalItemDiscount)
	assert.Equal(t, 1900.0, totals.TaxableTotal)
	assert.Equal(t, 171.0, totals.TotalCgst)
	assert.Equal(t, 171.0, totals.TotalSgst)
	assert.Equal(t, 0.0, totals.TotalIgst)
	assert.Equal(t, 0.0, totals.TotalCess)
	assert.Equal(t, 342.0, totals.TotalTax)
	assert.Equal(t, 44.84, totals.TotalAdditionalTax)
	assert.Equal(t, 100.0, totals.TotalInvoiceDiscount)
	assert.Equal(t, 2186.84, totals.GrandTotal)
	assert.Equal(t, 0.0, totals.PaidAmount)
	assert.Equal(t, 2186.84, totals.DueAmount)

	require.Len(t, computed, 2)
	assert.Equal(t, 2242.0, computed[0].BaseAmount)
	assert.Equal(t, 1900.0, computed[1].BaseAmount)
}

func TestCalculateInvoiceTotals_SumsAreExact(t *testing.T) {
	items := []CalculatedLineItem{
		mustItem(t, LineItemInput{Quantity: 1, Rate: 0.1}, GstTypeIntra),
		mustItem(t, LineItemInput{Quantity: 1, Rate: 0.2}, GstTypeIntra),
	}
	totals, _ := CalculateInvoiceTotalsWithEntries(items, nil)
	assert.Equal(t, 0.3, totals.SubTotal)
	assert.Equal(t, 0.3, totals.TaxableTotal)
	assert.Equal(t, 0.3, totals.GrandTotal)
}

func TestCalculateInvoiceTotals_GrandTotalNeverNegative(t *testing.T) {
	items := []CalculatedLineItem{mustItem(t, LineItemInput{Quantity: 1, Rate: 100}, GstTypeIntra)}
	entries := []InvoiceTaxDiscountEntry{
		{EntryType: EntryTypeDiscount, RateType: RateTypeAmount, Rate: 100, ApplicationMode: ApplyBeforeTax},
		{EntryType: EntryTypeDiscount, RateType: RateTypeAmount, Rate: 100, ApplicationMode: ApplyBeforeTax},
	}
	totals, _ := CalculateInvoiceTotalsWithEntries(items, entries)
	assert.Equal(t, 200.0, totals.TotalInvoiceDiscount)
	assert.Equal(t, 0.0, totals.GrandTotal)
	assert.Equal(t, 0.0, totals.DueAmount)
}

func TestCalculateInvoiceTotals_CustomAndCess(t *testing.T) {
	items := []CalculatedLineItem{
		mustItem(t, LineItemInput{
			Quantity: 1,
			Rate:     1000,
			Tax:      &TaxRate{Name: "Service charge", TaxType: TaxTypeCustom, RateType: RateTypePercent, Rate: 5},
			Cess:     &TaxRate{Name: "Cess", TaxType: TaxTypeCess, Rate: 1},
		}, GstTypeInter),
	}
	totals, _ := CalculateInvoiceTotalsWithEntries(items, nil)
	assert.Equal(t, 50.0, totals.TotalCustomTax)
	assert.Equal(t, 10.0, totals.TotalCess)
	assert.Equal(t, 60.0, totals.TotalTax)
	assert.Equal(t, 1060.0, totals.GrandTotal)
}

func TestCalculateInvoiceTotals_Empty(t *testing.T) {
	totals, entries := CalculateInvoiceTotalsWithEntries(nil, nil)
	assert.Equal(t, InvoiceTotals{}, totals)
	assert.Empty(t, entries)
}

func TestGenerateTaxSummary_GroupsByTemplate(t *testing.T) {
	gst18 := &TaxRate{TemplateID: strPtr("gst-18"), Name: "GST 18%", TaxType: TaxTypeGST, Rate: 18}
	a := mustItem(t, LineItemInput{Quantity: 1, Rate: 1000, Tax: gst18}, GstTypeIntra)
	b := mustItem(t, LineItemInput{Quantity: 1, Rate: 500, Tax: gst18}, GstTypeIntra)

	forward := GenerateTaxSummary([]CalculatedLineItem{a, b})
	backward := GenerateTaxSummary([]CalculatedLineItem{b, a})
	assert.Equal(t, forward, backward)

	require.Len(t, forward, 2)
	cgst := forward[0]
	assert.Equal(t, LineTypeCGST, cgst.Type)
	assert.Equal(t, "gst-18", *cgst.TemplateID)
	assert.Equal(t, 9.0, cgst.Rate)
	assert.Equal(t, 1500.0, cgst.TaxableAmount)
	assert.Equal(t, 135.0, cgst.Amount)

	sgst := forward[1]
	assert.Equal(t, LineTypeSGST, sgst.Type)
	assert.Equal(t, 135.0, sgst.Amount)
}

func TestGenerateTaxSummary_GroupsWithoutTemplate(t *testing.T) {
	items := []CalculatedLineItem{
		mustItem(t, LineItemInput{Quantity: 1, Rate: 100, Tax: &TaxRate{Rate: 12}}, GstTypeInter),
		mustItem(t, LineItemInput{Quantity: 1, Rate: 200, Tax: &TaxRate{Rate: 12}}, GstTypeInter),
		mustItem(t, LineItemInput{Quantity: 1, Rate: 300, Tax: &TaxRate{Rate: 5}}, GstTypeInter),
		mustItem(t, LineItemInput{
			Quantity: 1,
			Rate:     100,
			Discount: &Discount{Type: RateTypeAmount, Value: 10},
			Cess:     &TaxRate{Name: "Cess", TaxType: TaxTypeCess, Rate: 1},
		}, GstTypeInter),
	}
	rows := GenerateTaxSummary(items)
	require.Len(t, rows, 3)

	assert.Equal(t, LineTypeIGST, rows[0].Type)
	assert.Equal(t, 5.0, rows[0].Rate)
	assert.Equal(t, 15.0, rows[0].Amount)

	assert.Equal(t, LineTypeIGST, rows[1].Type)
	assert.Equal(t, 12.0, rows[1].Rate)
	assert.Equal(t, 300.0, rows[1].TaxableAmount)
	assert.Equal(t, 36.0, rows[1].Amount)
	assert.Nil(t, rows[1].TemplateID)

	assert.Equal(t, LineTypeCess, rows[2].Type)
	assert.Equal(t, 90.0, rows[2].TaxableAmount)
	assert.Equal(t, 0.9, rows[2].Amount)
}

func TestCalculateInvoice(t *testing.T) {
	in := InvoiceInput{
		CompanyStateCode:  "29",
		CustomerStateCode: "27",
		Items: []LineItemInput{
			{Quantity: 2, Rate: 500, Tax: &TaxRate{Name: "GST 18%", TaxType: TaxTypeGST, Rate: 18}},
		},
		Entries: []InvoiceTaxDiscountEntry{
			{EntryType: EntryTypeDiscount, RateType: RateTypePercent, Rate: 10, ApplicationMode: ApplyBeforeTax},
		},
	}
	out, err := CalculateInvoice(in)
	require.NoError(t, err)
	assert.Equal(t, GstTypeInter, out.GstType)
	assert.Equal(t, 180.0, out.Totals.TotalIgst)
	assert.Equal(t, 100.0, out.Totals.TotalInvoiceDiscount)
	assert.Equal(t, 1080.0, out.Totals.GrandTotal)
	require.Len(t, out.TaxSummary, 1)

	in.Items = append(in.Items, LineItemInput{Quantity: -2, Rate: 1})
	_, err = CalculateInvoice(in)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Contains(t, err.Error(), "item 1")
}
