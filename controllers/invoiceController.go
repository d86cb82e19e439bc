package controllers

import (
	"gst-invoicing-backend/lifecycle"
	"gst-invoicing-backend/middlewares"
	"gst-invoicing-backend/models"
	"gst-invoicing-backend/services"
	"gst-invoicing-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CancelInput struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func bindInvoiceRequest(c *fiber.Ctx) (services.InvoiceRequest, error) {
	var in services.InvoiceRequest
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return in, err
	}
	utils.NormalizeDTO(&in)
	return in, nil
}

func currentCompany(c *fiber.Ctx, tx *gorm.DB) (models.Company, error) {
	schema, _ := c.Locals("schema").(string)
	return services.CompanyBySchema(c.UserContext(), tx, schema)
}

func CreateInvoice(c *fiber.Ctx) error {
	in, err := bindInvoiceRequest(c)
	if err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	company, err := currentCompany(c, tx)
	if err != nil {
		return err
	}

	inv, err := invoiceService.Create(c.UserContext(), tx, company, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// CalculateInvoice prices a draft without storing it or consuming an invoice number.
func CalculateInvoice(c *fiber.Ctx) error {
	in, err := bindInvoiceRequest(c)
	if err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	company, err := currentCompany(c, tx)
	if err != nil {
		return err
	}

	out, err := invoiceService.Calculate(c.UserContext(), tx, company, in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GetInvoices lists invoices; ?status=, ?customer_id=, ?limit=, ?offset=.
func GetInvoices(c *fiber.Ctx) error {
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}

	f := services.ListFilter{
		Status:     lifecycle.Status(c.Query("status")),
		CustomerID: uint(utils.ParseIntDefault(c.Query("customer_id"), 0)),
		Limit:      utils.ParseIntDefault(c.Query("limit"), 0),
		Offset:     utils.ParseIntDefault(c.Query("offset"), 0),
	}
	if f.Status != "" && !f.Status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid status")
	}

	list, total, err := invoiceService.List(c.UserContext(), tx, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"invoices": list,
		"total":    total,
		"message":  "success",
	})
}

func GetInvoice(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	inv, err := invoiceService.Get(c.UserContext(), tx, id)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

// UpdateInvoice replaces the invoice content and recomputes every amount. If money already
// received would exceed the new total the answer is 409 unless acknowledge_overpayment is set.
func UpdateInvoice(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	in, err := bindInvoiceRequest(c)
	if err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	inv, err := invoiceService.Update(c.UserContext(), tx, id, in)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func CancelInvoice(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	var in CancelInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	inv, err := invoiceService.Cancel(c.UserContext(), tx, id, in.Reason)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func GetInvoiceTaxSummary(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	rows, err := invoiceService.TaxSummary(c.UserContext(), tx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tax_summary": rows})
}

func GetInvoiceVersions(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	versions, err := invoiceService.Versions(c.UserContext(), tx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"versions": versions})
}

func CreatePayment(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	var in services.PaymentRequest
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)

	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	p, inv, err := invoiceService.RecordPayment(c.UserContext(), tx, id, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment": p,
		"invoice": inv.PaymentState(),
	})
}

func ListPayments(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	tx, err := tenantDB(c)
	if err != nil {
		return err
	}
	payments, err := invoiceService.Payments(c.UserContext(), tx, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payments": payments})
}
