package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCalculateLineItem_IntraRoundTrip(t *testing.T) {
	item, err := CalculateLineItem(LineItemInput{
		Quantity: 2,
		Rate:     500,
		Tax:      &TaxRate{TemplateID: strPtr("gst-18"), Name: "GST 18%", TaxType: TaxTypeGST, Rate: 18},
	}, GstTypeIntra)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, item.Amount)
	assert.Equal(t, 1000.0, item.TaxableAmount)
	assert.Equal(t, 0.0, item.TotalDiscount)
	assert.Equal(t, 180.0, item.TotalTax)
	assert.Equal(t, 1180.0, item.Total)

	require.Len(t, item.Lines, 2)
	assert.Equal(t, LineTypeCGST, item.Lines[0].Type)
	assert.Equal(t, 9.0, item.Lines[0].Rate)
	assert.Equal(t, 90.0, item.Lines[0].Amount)
	assert.Equal(t, 1000.0, item.Lines[0].TaxableAmount)
	assert.Equal(t, "gst-18", *item.Lines[0].TemplateID)
	assert.Equal(t, LineTypeSGST, item.Lines[1].Type)
	assert.Equal(t, 90.0, item.Lines[1].Amount)
	assert.Equal(t, 0, item.Lines[0].SortOrder)
	assert.Equal(t, 1, item.Lines[1].SortOrder)
}

func TestCalculateLineItem_DiscountInterCess(t *testing.T) {
	item, err := CalculateLineItem(LineItemInput{
		Quantity: 4,
		Rate:     250,
		Discount: &Discount{Name: "Festive", Type: RateTypePercent, Value: 10},
		Tax:      &TaxRate{Name: "GST 18%", TaxType: TaxTypeGST, Rate: 18},
		Cess:     &TaxRate{Name: "Comp cess", TaxType: TaxTypeCess, Rate: 12},
	}, GstTypeInter)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, item.Amount)
	assert.Equal(t, 100.0, item.TotalDiscount)
	assert.Equal(t, 900.0, item.TaxableAmount)
	assert.Equal(t, 270.0, item.TotalTax)
	assert.Equal(t, 1170.0, item.Total)

	require.Len(t, item.Lines, 3)
	disc := item.Lines[0]
	assert.Equal(t, LineTypeDiscount, disc.Type)
	assert.Equal(t, "Festive", disc.Name)
	assert.Equal(t, RateTypePercent, disc.RateType)
	assert.Equal(t, 1000.0, disc.TaxableAmount)
	assert.Equal(t, 100.0, disc.Amount)

	igst := item.Lines[1]
	assert.Equal(t, LineTypeIGST, igst.Type)
	assert.Equal(t, 18.0, igst.Rate)
	assert.Equal(t, 162.0, igst.Amount)
	assert.Equal(t, 900.0, igst.TaxableAmount)

	cess := item.Lines[2]
	assert.Equal(t, LineTypeCess, cess.Type)
	assert.Equal(t, "Comp cess", cess.Name)
	assert.Equal(t, 108.0, cess.Amount)
	assert.Equal(t, 2, cess.SortOrder)
}

func TestCalculateLineItem_ZeroValues(t *testing.T) {
	t.Run("zero_quantity_is_a_valid_placeholder", func(t *testing.T) {
		item, err := CalculateLineItem(LineItemInput{
			Quantity: 0,
			Rate:     500,
			Tax:      &TaxRate{TaxType: TaxTypeGST, Rate: 18},
		}, GstTypeIntra)
		require.NoError(t, err)
		assert.Equal(t, 0.0, item.Amount)
		assert.Equal(t, 0.0, item.Total)
		assert.Empty(t, item.Lines)
	})

	t.Run("zero_tax_rate_emits_no_line", func(t *testing.T) {
		item, err := CalculateLineItem(LineItemInput{
			Quantity: 1,
			Rate:     100,
			Tax:      &TaxRate{Name: "Exempt", TaxType: TaxTypeGST, Rate: 0},
			Cess:     &TaxRate{Name: "Cess", TaxType: TaxTypeCess, Rate: 0},
		}, GstTypeIntra)
		require.NoError(t, err)
		assert.Empty(t, item.Lines)
		assert.Equal(t, 100.0, item.Total)
	})

	t.Run("tax_exempt_item", func(t *testing.T) {
		item, err := CalculateLineItem(LineItemInput{Quantity: 3, Rate: 33.33}, GstTypeInter)
		require.NoError(t, err)
		assert.Equal(t, 99.99, item.Amount)
		assert.Equal(t, 99.99, item.Total)
		assert.Equal(t, 0.0, item.TotalTax)
	})
}

func TestCalculateLineItem_UnknownDiscountTypeIsIgnored(t *testing.T) {
	item, err := CalculateLineItem(LineItemInput{
		Quantity: 1,
		Rate:     1000,
		Discount: &Discount{Type: "percent", Value: 10},
	}, GstTypeIntra)
	require.NoError(t, err)
	assert.Equal(t, 0.0, item.TotalDiscount)
	assert.Equal(t, 1000.0, item.TaxableAmount)
	assert.Empty(t, item.Lines)
}

func TestCalculateLineItem_InvalidInput(t *testing.T) {
	_, err := CalculateLineItem(LineItemInput{Quantity: -1, Rate: 10}, GstTypeIntra)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = CalculateLineItem(LineItemInput{Quantity: 1, Rate: -10}, GstTypeIntra)
	assert.ErrorIs(t, err, ErrInvalidRate)

	_, err = CalculateLineItem(LineItemInput{Quantity: math.NaN(), Rate: 10}, GstTypeIntra)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCalculateLineItem_CustomTax(t *testing.T) {
	t.Run("percent_never_splits", func(t *testing.T) {
		item, err := CalculateLineItem(LineItemInput{
			Quantity: 1,
			Rate:     1000,
			Tax:      &TaxRate{TemplateID: strPtr("svc"), Name: "Service charge", TaxType: TaxTypeCustom, RateType: RateTypePercent, Rate: 5},
		}, GstTypeIntra)
		require.NoError(t, err)
		require.Len(t, item.Lines, 1)
		assert.Equal(t, LineTypeCustom, item.Lines[0].Type)
		assert.Equal(t, 50.0, item.Lines[0].Amount)
		assert.Equal(t, 1050.0, item.Total)
	})

	t.Run("amount", func(t *testing.T) {
		item, err := CalculateLineItem(LineItemInput{
			Quantity: 2,
			Rate:     100,
			Tax:      &TaxRate{Name: "Handling", TaxType: TaxTypeCustom, RateType: RateTypeAmount, Rate: 25},
		}, GstTypeInter)
		require.NoError(t, err)
		require.Len(t, item.Lines, 1)
		assert.Equal(t, RateTypeAmount, item.Lines[0].RateType)
		assert.Equal(t, 25.0, item.Lines[0].Amount)
		assert.Equal(t, 225.0, item.Total)
	})

	t.Run("untyped_custom_percentage_is_gst", func(t *testing.T) {
		item, err := CalculateLineItem(LineItemInput{
			Quantity: 1,
			Rate:     1000,
			Tax:      &TaxRate{Rate: 12},
		}, GstTypeIntra)
		require.NoError(t, err)
		require.Len(t, item.Lines, 2)
		assert.Equal(t, 60.0, item.Lines[0].Amount)
		assert.Equal(t, 60.0, item.Lines[1].Amount)
		assert.Nil(t, item.Lines[0].TemplateID)
	})
}

func TestCalculateLineItem_SnapshotIsDetached(t *testing.T) {
	id := "tmpl-1"
	tax := &TaxRate{TemplateID: &id, Name: "GST 5%", TaxType: TaxTypeGST, Rate: 5}
	item, err := CalculateLineItem(LineItemInput{Quantity: 1, Rate: 100, Tax: tax}, GstTypeInter)
	require.NoError(t, err)

	id = "tmpl-2"
	tax.Rate = 28
	tax.Name = "GST 28%"

	require.Len(t, item.Lines, 1)
	assert.Equal(t, "tmpl-1", *item.Lines[0].TemplateID)
	assert.Equal(t, 5.0, item.Lines[0].Rate)
	assert.Equal(t, 5.0, item.Lines[0].Amount)
}
