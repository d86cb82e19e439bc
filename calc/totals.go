package calc

import (
	"math"
	"sort"

	"gst-invoicing-backend/utils"
)

// CalculateInvoiceTotalsWithEntries aggregates calculated items and runs the invoice-level entries
// against them. The returned entries carry their computed base and amount.
func CalculateInvoiceTotalsWithEntries(items []CalculatedLineItem, entries []InvoiceTaxDiscountEntry) (InvoiceTotals, []InvoiceTaxDiscountEntry) {
	var (
		amounts, discounts, taxables []float64
		cgst, sgst, igst, cess, cust []float64
	)
	for _, item := range items {
		amounts = append(amounts, item.Amount)
		discounts = append(discounts, item.TotalDiscount)
		taxables = append(taxables, item.TaxableAmount)
		for _, l := range item.Lines {
			switch l.Type {
			case LineTypeCGST:
				cgst = append(cgst, l.Amount)
			case LineTypeSGST:
				sgst = append(sgst, l.Amount)
			case LineTypeIGST:
				igst = append(igst, l.Amount)
			case LineTypeCess:
				cess = append(cess, l.Amount)
			case LineTypeCustom:
				cust = append(cust, l.Amount)
			}
		}
	}

	t := InvoiceTotals{
		SubTotal:          utils.SumMoney(amounts...),
		TotalItemDiscount: utils.SumMoney(discounts...),
		TaxableTotal:      utils.SumMoney(taxables...),
		TotalCgst:         utils.SumMoney(cgst...),
		TotalSgst:         utils.SumMoney(sgst...),
		TotalIgst:         utils.SumMoney(igst...),
		TotalCess:         utils.SumMoney(cess...),
		TotalCustomTax:    utils.SumMoney(cust...),
	}
	t.TotalTax = utils.SumMoney(t.TotalCgst, t.TotalSgst, t.TotalIgst, t.TotalCess, t.TotalCustomTax)

	res := CalculateEntries(entries, t.TaxableTotal, utils.SumMoney(t.TaxableTotal, t.TotalTax))
	t.TotalAdditionalTax = res.TotalAdditionalTax
	t.TotalInvoiceDiscount = res.TotalInvoiceDiscount

	// A grand total below zero only comes from malformed input; clamp instead of failing.
	t.GrandTotal = math.Max(0, RoundToTwo(t.TaxableTotal+t.TotalTax+t.TotalAdditionalTax-t.TotalInvoiceDiscount))
	t.DueAmount = t.GrandTotal
	return t, res.Entries
}

type summaryKey struct {
	typ        LineType
	templateID string
	name       string
	rate       float64
}

// GenerateTaxSummary groups the tax lines of all items. Lines referencing a template group by
// (type, template); the rest by (type, name, rate). Rows come back in a fixed order that does not
// depend on item order.
func GenerateTaxSummary(items []CalculatedLineItem) []TaxSummaryRow {
	type group struct {
		row      TaxSummaryRow
		taxables []float64
		amounts  []float64
	}
	groups := map[summaryKey]*group{}

	for _, item := range items {
		for _, l := range item.Lines {
			if !l.Type.IsTax() {
				continue
			}
			key := summaryKey{typ: l.Type, name: l.Name, rate: l.Rate}
			if l.TemplateID != nil {
				key = summaryKey{typ: l.Type, templateID: *l.TemplateID}
			}
			g, ok := groups[key]
			if !ok {
				g = &group{row: TaxSummaryRow{
					Type:       l.Type,
					TemplateID: copyID(l.TemplateID),
					Name:       l.Name,
					Rate:       l.Rate,
				}}
				groups[key] = g
			}
			g.taxables = append(g.taxables, l.TaxableAmount)
			g.amounts = append(g.amounts, l.Amount)
		}
	}

	rows := make([]TaxSummaryRow, 0, len(groups))
	for _, g := range groups {
		g.row.TaxableAmount = utils.SumMoney(g.taxables...)
		g.row.Amount = utils.SumMoney(g.amounts...)
		rows = append(rows, g.row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Type.displayRank() != b.Type.displayRank() {
			return a.Type.displayRank() < b.Type.displayRank()
		}
		if a.Rate != b.Rate {
			return a.Rate < b.Rate
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return idOf(a.TemplateID) < idOf(b.TemplateID)
	})
	return rows
}

func idOf(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
