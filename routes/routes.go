package routes

import (
	"github.com/gofiber/fiber/v2"

	"gst-invoicing-backend/controllers"
	"gst-invoicing-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request tenant transaction (pins search_path and commits/rolls back)
	protected.Use(middlewares.TenantTx())

	// Customers
	protected.Post("/customers", controllers.CreateCustomer)
	protected.Get("/customers", controllers.GetCustomers)
	protected.Get("/customers/:id", controllers.GetCustomer)
	protected.Put("/customers/:id", controllers.UpdateCustomer)

	// Articles
	protected.Post("/articles", controllers.CreateArticles) // batch create
	protected.Get("/articles", controllers.GetArticles)
	protected.Put("/articles/:id", controllers.UpdateArticle)

	// Tax and discount templates
	protected.Post("/tax-templates", controllers.CreateTaxTemplate)
	protected.Get("/tax-templates", controllers.GetTaxTemplates)
	protected.Put("/tax-templates/:id", controllers.UpdateTaxTemplate)
	protected.Put("/tax-templates/:id/archive", controllers.ArchiveTaxTemplate)
	protected.Post("/discount-templates", controllers.CreateDiscountTemplate)
	protected.Get("/discount-templates", controllers.GetDiscountTemplates)
	protected.Put("/discount-templates/:id", controllers.UpdateDiscountTemplate)
	protected.Put("/discount-templates/:id/archive", controllers.ArchiveDiscountTemplate)

	// Invoice number series
	protected.Post("/series", controllers.CreateSeries)
	protected.Get("/series", controllers.GetSeries)
	protected.Get("/series/:id/preview", controllers.PreviewSeriesNumber)
	protected.Put("/series/:id/default", controllers.SetDefaultSeries)

	// Invoices (versioned, with payments)
	protected.Post("/invoices/calculate", controllers.CalculateInvoice)
	protected.Post("/invoices", controllers.CreateInvoice)
	protected.Get("/invoices", controllers.GetInvoices)
	protected.Get("/invoices/:id", controllers.GetInvoice)
	protected.Put("/invoices/:id", controllers.UpdateInvoice)
	protected.Put("/invoices/:id/cancel", controllers.CancelInvoice)
	protected.Get("/invoices/:id/tax-summary", controllers.GetInvoiceTaxSummary)
	protected.Get("/invoices/:id/versions", controllers.GetInvoiceVersions)
	protected.Post("/invoices/:id/payments", controllers.CreatePayment)
	protected.Get("/invoices/:id/payments", controllers.ListPayments)
}
