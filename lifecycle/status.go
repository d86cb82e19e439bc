// Package lifecycle holds the invoice payment/status state machine.
package lifecycle

import (
	"errors"
	"math"
	"strings"

	"gst-invoicing-backend/utils"
)

// Status is the payment state of an invoice.
type Status string

const (
	StatusUnpaid        Status = "UNPAID"
	StatusPartiallyPaid Status = "PARTIALLY_PAID"
	StatusPaid          Status = "PAID"
	StatusCancelled     Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPartiallyPaid, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

var (
	ErrInvoiceCancelled           = errors.New("invoice is cancelled")
	ErrCannotCancel               = errors.New("invoice cannot be cancelled in its current status")
	ErrCancellationReasonRequired = errors.New("cancellation reason is required")
	ErrInvalidPaymentAmount       = errors.New("payment amount must be greater than zero")
	ErrPaymentNotAllowed          = errors.New("invoice does not accept payments in its current status")
)

// PaymentState is the paid/due position of an invoice.
type PaymentState struct {
	Status     Status  `json:"status"`
	GrandTotal float64 `json:"grand_total"`
	PaidAmount float64 `json:"paid_amount"`
	DueAmount  float64 `json:"due_amount"`
	// Overpayment is what was paid beyond the grand total. It is reported, never carried as negative due.
	Overpayment float64 `json:"overpayment"`
}

// DueAmount is what is still owed; never negative.
func DueAmount(grandTotal, paidAmount float64) float64 {
	return math.Max(0, utils.SubMoney(grandTotal, paidAmount))
}

// DeriveStatus maps paid vs. grand total to a status for a non-cancelled invoice.
func DeriveStatus(grandTotal, paidAmount float64) Status {
	switch {
	case paidAmount <= 0:
		return StatusUnpaid
	case paidAmount < grandTotal:
		return StatusPartiallyPaid
	default:
		return StatusPaid
	}
}

// Reconcile recomputes the payment state after the grand total or paid amount changed.
// A cancelled invoice keeps its frozen amounts.
func Reconcile(current Status, grandTotal, paidAmount float64) PaymentState {
	if current == StatusCancelled {
		return PaymentState{
			Status:     StatusCancelled,
			GrandTotal: grandTotal,
			PaidAmount: paidAmount,
			DueAmount:  DueAmount(grandTotal, paidAmount),
		}
	}

	paidAmount = math.Max(0, paidAmount)
	st := PaymentState{
		Status:     DeriveStatus(grandTotal, paidAmount),
		GrandTotal: grandTotal,
		PaidAmount: paidAmount,
	}
	if st.Status == StatusPaid && paidAmount > grandTotal {
		st.Overpayment = utils.SubMoney(paidAmount, grandTotal)
		st.PaidAmount = grandTotal
	}
	st.DueAmount = DueAmount(grandTotal, st.PaidAmount)
	return st
}

// EditCheck is the outcome of CheckEdit. Overpaid is a distinguished result that needs a caller
// decision (adjust the payments or abort the edit); it is not an error.
type EditCheck struct {
	Overpaid          bool    `json:"overpaid"`
	PaidAmount        float64 `json:"paid_amount"`
	NewGrandTotal     float64 `json:"new_grand_total"`
	OverpaymentAmount float64 `json:"overpayment_amount"`
}

// CheckEdit guards an edit that would change the grand total to newGrandTotal.
func CheckEdit(status Status, paidAmount, newGrandTotal float64) (EditCheck, error) {
	if !CanEditInvoice(status) {
		return EditCheck{}, ErrInvoiceCancelled
	}
	check := EditCheck{PaidAmount: paidAmount, NewGrandTotal: newGrandTotal}
	if paidAmount > newGrandTotal {
		check.Overpaid = true
		check.OverpaymentAmount = utils.SubMoney(paidAmount, newGrandTotal)
	}
	return check, nil
}

func CanEditInvoice(status Status) bool {
	return status != StatusCancelled
}

func CanCancelInvoice(status Status) bool {
	return status != StatusPaid && status != StatusCancelled
}

func CanRecordPayment(status Status, dueAmount float64) bool {
	return status != StatusPaid && status != StatusCancelled && dueAmount > 0
}

// Cancel moves an invoice to CANCELLED. The trimmed reason is returned for storage.
func Cancel(status Status, reason string) (Status, string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return status, "", ErrCancellationReasonRequired
	}
	if status == StatusCancelled {
		return status, "", ErrInvoiceCancelled
	}
	if !CanCancelInvoice(status) {
		return status, "", ErrCannotCancel
	}
	return StatusCancelled, reason, nil
}

// ApplyPayment records amount against st. Paying more than is due settles the invoice and reports
// the excess as Overpayment.
func ApplyPayment(st PaymentState, amount float64) (PaymentState, error) {
	if math.IsNaN(amount) || amount <= 0 {
		return st, ErrInvalidPaymentAmount
	}
	if st.Status == StatusCancelled {
		return st, ErrInvoiceCancelled
	}
	if !CanRecordPayment(st.Status, st.DueAmount) {
		return st, ErrPaymentNotAllowed
	}
	return Reconcile(st.Status, st.GrandTotal, utils.SumMoney(st.PaidAmount, amount)), nil
}
