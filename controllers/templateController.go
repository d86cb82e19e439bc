package controllers

import (
	"gst-invoicing-backend/calc"
	"gst-invoicing-backend/middlewares"
	"gst-invoicing-backend/services"

	"github.com/gofiber/fiber/v2"
)

func CreateTaxTemplate(c *fiber.Ctx) error {
	var in services.TaxTemplateRequest
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	t, err := templateService.CreateTax(c.UserContext(), tx, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// GetTaxTemplates lists templates; ?tax_type=GST|CESS|CUSTOM filters, ?all=true includes archived.
func GetTaxTemplates(c *fiber.Ctx) error {
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	taxType := calc.TaxType(c.Query("tax_type"))
	if taxType != "" && !taxType.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid tax_type")
	}
	list, err := templateService.ListTax(c.UserContext(), tx, taxType, c.Query("all") == "true")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"templates": list, "message": "success"})
}

func UpdateTaxTemplate(c *fiber.Ctx) error {
	var in services.TaxTemplateRequest
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	t, err := templateService.UpdateTax(c.UserContext(), tx, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func ArchiveTaxTemplate(c *fiber.Ctx) error {
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	if err := templateService.ArchiveTax(c.UserContext(), tx, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}

func CreateDiscountTemplate(c *fiber.Ctx) error {
	var in services.DiscountTemplateRequest
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	d, err := templateService.CreateDiscount(c.UserContext(), tx, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

func GetDiscountTemplates(c *fiber.Ctx) error {
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	list, err := templateService.ListDiscount(c.UserContext(), tx, c.Query("all") == "true")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"templates": list, "message": "success"})
}

func UpdateDiscountTemplate(c *fiber.Ctx) error {
	var in services.DiscountTemplateRequest
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	d, err := templateService.UpdateDiscount(c.UserContext(), tx, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func ArchiveDiscountTemplate(c *fiber.Ctx) error {
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	if err := templateService.ArchiveDiscount(c.UserContext(), tx, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}
