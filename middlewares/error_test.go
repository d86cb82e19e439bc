package middlewares

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gst-invoicing-backend/calc"
	"gst-invoicing-backend/lifecycle"
	"gst-invoicing-backend/services"
)

type lineInput struct {
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

type orderInput struct {
	CustomerID uint        `json:"customer_id" validate:"required"`
	Items      []lineInput `json:"items" validate:"required,min=1,dive"`
}

func errorResponse(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", func(c *fiber.Ctx) error { return err })

	resp, e := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, e)
	raw, e := io.ReadAll(resp.Body)
	require.NoError(t, e)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestErrorHandler_Status(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"fiber_error", fiber.NewError(fiber.StatusTeapot, "short and stout"), fiber.StatusTeapot},
		{"not_found_wrapped", fmt.Errorf("item 2: %w", services.ErrArticleNotFound), fiber.StatusNotFound},
		{"cancelled", lifecycle.ErrInvoiceCancelled, fiber.StatusConflict},
		{"series_race", services.ErrSeriesConflict, fiber.StatusConflict},
		{"bad_quantity", fmt.Errorf("item 0: %w", calc.ErrInvalidQuantity), fiber.StatusBadRequest},
		{"no_reason", lifecycle.ErrCancellationReasonRequired, fiber.StatusBadRequest},
		{"unknown", fmt.Errorf("pq: connection reset"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponse(t, tt.err)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestErrorHandler_HidesInternalMessages(t *testing.T) {
	_, body := errorResponse(t, fmt.Errorf("pq: password authentication failed"))
	assert.Equal(t, "internal server error", body["message"])
}

func TestErrorHandler_Validation(t *testing.T) {
	err := ValidateStruct(orderInput{Items: []lineInput{{Quantity: 1}, {Quantity: -1}}})
	require.Error(t, err)

	status, body := errorResponse(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "required", errs["customer_id"])
	assert.Equal(t, "gte", errs["items[1].quantity"])
}

func TestErrorHandler_Overpayment(t *testing.T) {
	check, err := lifecycle.CheckEdit(lifecycle.StatusPaid, 1180, 900)
	require.NoError(t, err)

	status, body := errorResponse(t, &services.OverpaymentError{Check: check})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "OVERPAYMENT", body["code"])
	assert.Equal(t, 1180.0, body["paid_amount"])
	assert.Equal(t, 900.0, body["new_grand_total"])
	assert.Equal(t, 280.0, body["overpayment_amount"])
}
