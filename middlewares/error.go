package middlewares

import (
	"errors"
	"strings"

	"gst-invoicing-backend/calc"
	"gst-invoicing-backend/database"
	"gst-invoicing-backend/lifecycle"
	"gst-invoicing-backend/logger"
	"gst-invoicing-backend/numbering"
	"gst-invoicing-backend/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	notFoundErrors = []error{
		services.ErrInvoiceNotFound,
		services.ErrCustomerNotFound,
		services.ErrArticleNotFound,
		services.ErrTemplateNotFound,
		services.ErrSeriesNotFound,
		services.ErrCompanyNotFound,
	}
	conflictErrors = []error{
		lifecycle.ErrInvoiceCancelled,
		lifecycle.ErrCannotCancel,
		lifecycle.ErrPaymentNotAllowed,
		services.ErrSeriesConflict,
		services.ErrNoDefaultSeries,
		services.ErrSeriesInactive,
	}
	badRequestErrors = []error{
		calc.ErrInvalidQuantity,
		calc.ErrInvalidRate,
		lifecycle.ErrCancellationReasonRequired,
		lifecycle.ErrInvalidPaymentAmount,
		numbering.ErrInvalidNumber,
		services.ErrNoItems,
		services.ErrInvalidEntry,
		services.ErrInvalidTemplate,
		services.ErrTemplateInactive,
		services.ErrTemplateKind,
		services.ErrInvalidSeries,
		database.ErrInvalidSchema,
	}
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Validation errors (422 + per-field info)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fieldPath(fe)] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 3) An edit that leaves more money received than the new total needs a client decision.
	var oe *services.OverpaymentError
	if errors.As(err, &oe) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":            "payments exceed the new grand total",
			"code":               "OVERPAYMENT",
			"paid_amount":        oe.Check.PaidAmount,
			"new_grand_total":    oe.Check.NewGrandTotal,
			"overpayment_amount": oe.Check.OverpaymentAmount,
		})
	}

	// 4) Domain errors carry safe messages.
	if status, ok := domainStatus(err); ok {
		return c.Status(status).JSON(fiber.Map{"message": err.Error()})
	}

	// 5) Unknown errors (500)
	logger.Named("http").Error("internal error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}

func domainStatus(err error) (int, bool) {
	for _, group := range []struct {
		status int
		errs   []error
	}{
		{fiber.StatusNotFound, notFoundErrors},
		{fiber.StatusConflict, conflictErrors},
		{fiber.StatusBadRequest, badRequestErrors},
	} {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status, true
			}
		}
	}
	return 0, false
}

// fieldPath is the json path of a failed field without the root struct name, e.g. items[0].quantity.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
