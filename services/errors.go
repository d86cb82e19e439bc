// Package services runs the invoice workflows inside a tenant transaction: template resolution,
// calculation, number allocation, persistence of the snapshots, payments and cancellation.
package services

import (
	"errors"
	"fmt"

	"gst-invoicing-backend/lifecycle"
)

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrArticleNotFound  = errors.New("article not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrSeriesNotFound   = errors.New("invoice series not found")
	ErrCompanyNotFound  = errors.New("company not found")

	ErrNoItems          = errors.New("invoice needs at least one item")
	ErrInvalidEntry     = errors.New("invalid invoice tax/discount entry")
	ErrInvalidTemplate  = errors.New("invalid template")
	ErrTemplateInactive = errors.New("template is archived")
	ErrTemplateKind     = errors.New("template cannot be used here")
	ErrInvalidSeries    = errors.New("invalid invoice series")
	ErrSeriesInactive   = errors.New("invoice series is archived")
	ErrNoDefaultSeries  = errors.New("no default invoice series configured")

	// ErrSeriesConflict means another transaction consumed the same number first. Retrying the
	// request allocates the next one.
	ErrSeriesConflict = errors.New("invoice series was advanced concurrently")
)

// OverpaymentError is returned by an edit that would leave the invoice with more money received
// than its new grand total. The caller decides: adjust the payments, or repeat the edit with
// AcknowledgeOverpayment set.
type OverpaymentError struct {
	Check lifecycle.EditCheck
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("received %.2f exceeds new grand total %.2f by %.2f",
		e.Check.PaidAmount, e.Check.NewGrandTotal, e.Check.OverpaymentAmount)
}
