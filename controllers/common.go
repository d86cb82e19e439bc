package controllers

import (
	"strconv"

	"gst-invoicing-backend/config"
	"gst-invoicing-backend/database"
	"gst-invoicing-backend/numbering"
	"gst-invoicing-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	seriesService   = services.NewSeriesService(numbering.DefaultPadding)
	templateService = services.NewTemplateService()
	invoiceService  = services.NewInvoiceService(seriesService)
)

// Configure rebuilds the services with runtime settings. Call once after the logger is set.
func Configure(cfg config.Config) {
	seriesService = services.NewSeriesService(cfg.InvoiceNumberPadding)
	templateService = services.NewTemplateService()
	invoiceService = services.NewInvoiceService(seriesService)
}

// tenantDB returns the request's tenant transaction.
func tenantDB(c *fiber.Ctx) (*gorm.DB, error) {
	tx, err := database.GetTenantDB(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not retrieve tenant schema")
	}
	return tx, nil
}

func paramUint(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}
