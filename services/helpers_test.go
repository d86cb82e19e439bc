package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gst-invoicing-backend/calc"
	"gst-invoicing-backend/database"
	"gst-invoicing-backend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PublicModels()...))
	require.NoError(t, database.MigrateTenantModels(db))
	return db
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func boolPtr(b bool) *bool { return &b }

func taxTypePtr(t calc.TaxType) *calc.TaxType { return &t }

func rateTypePtr(t calc.RateType) *calc.RateType { return &t }

// fixture is a tenant with one default series, GST 18% and 10% discount templates, an article and
// an intra-state and an inter-state customer.
type fixture struct {
	db       *gorm.DB
	company  models.Company
	invoices *InvoiceService
	series   *SeriesService
	gst18    models.TaxTemplate
	disc10   models.DiscountTemplate
	article  models.Article
	local    models.Customer
	remote   models.Customer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)

	series := NewSeriesService(4)
	require.NoError(t, series.EnsureDefault(ctx, db))

	templates := NewTemplateService()
	gst18, err := templates.CreateTax(ctx, db, TaxTemplateRequest{
		Name:    strPtr("GST 18%"),
		Rate:    floatPtr(18),
		TaxType: taxTypePtr(calc.TaxTypeGST),
	})
	require.NoError(t, err)
	disc10, err := templates.CreateDiscount(ctx, db, DiscountTemplateRequest{
		Name:  strPtr("Loyalty 10%"),
		Type:  rateTypePtr(calc.RateTypePercent),
		Value: floatPtr(10),
	})
	require.NoError(t, err)

	article := models.Article{
		Name:                 "Consulting hour",
		SacCode:              "998311",
		Rate:                 500,
		DefaultTaxTemplateID: strPtr(gst18.Id),
		Active:               true,
	}
	require.NoError(t, db.Create(&article).Error)

	local := models.Customer{Name: "Bengaluru Traders", StateCode: "29", Active: true}
	remote := models.Customer{Name: "Mumbai Retail", StateCode: "27", Active: true}
	require.NoError(t, db.Create(&local).Error)
	require.NoError(t, db.Create(&remote).Error)

	return fixture{
		db:       db,
		company:  models.Company{CompanyName: "Acme", StateCode: "29", SchemaName: "acme"},
		invoices: NewInvoiceService(series),
		series:   series,
		gst18:    gst18,
		disc10:   disc10,
		article:  article,
		local:    local,
		remote:   remote,
	}
}

// standardRequest totals 2186.84 for an intra-state customer: 2000 sub total, 100 item discount,
// 342 GST, 2% TCS on 2242 and a flat 100 invoice discount.
func (f fixture) standardRequest(customerID uint) InvoiceRequest {
	return InvoiceRequest{
		CustomerID: customerID,
		Items: []ItemRequest{
			{ArticleID: strPtr(f.article.Id), Quantity: 2},
			{
				Description:        "Implementation",
				Quantity:           1,
				Rate:               floatPtr(1000),
				TaxTemplateID:      strPtr(f.gst18.Id),
				DiscountTemplateID: strPtr(f.disc10.Id),
			},
		},
		Entries: []EntryRequest{
			{EntryType: calc.EntryTypeTax, Name: "TCS", RateType: calc.RateTypePercent, Rate: 2, ApplicationMode: calc.ApplyAfterTax},
			{EntryType: calc.EntryTypeDiscount, Name: "Round-off", RateType: calc.RateTypeAmount, Rate: 100, ApplicationMode: calc.ApplyBeforeTax},
		},
	}
}
