package middlewares

import (
	"strings"

	"gst-invoicing-backend/database"
	"gst-invoicing-backend/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TenantTx runs the handler inside one transaction pinned to the caller's tenant schema and stores
// it in c.Locals("tx") for database.GetTenantDB. It must run after IsAuthenticatedHeader and after
// Idempotency, whose records live outside the handler transaction.
//
// The transaction commits only when the handler returns nil with a status below 400. An invoice
// number allocated by a failed request is therefore never burned.
func TenantTx() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		schema, _ := c.Locals("schema").(string)
		if strings.TrimSpace(schema) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "tenant schema missing")
		}
		if database.DB == nil {
			return fiber.NewError(fiber.StatusInternalServerError, "database not initialized")
		}

		tx := database.DB.WithContext(c.UserContext()).Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r)
			}
			err = finishTx(c, tx, schema, err)
		}()

		if e := database.SetSearchPath(tx, schema); e != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to set tenant schema")
		}
		c.Locals("tx", tx)
		return c.Next()
	}
}

// finishTx commits or rolls back tx for the handler result err and returns the request error.
func finishTx(c *fiber.Ctx, tx *gorm.DB, schema string, err error) error {
	if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
		_ = tx.Rollback()
		return err
	}
	if e := tx.Commit().Error; e != nil {
		logger.Named("http").Error("tenant tx commit failed", zap.String("schema", schema), zap.Error(e))
		return fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
	}
	return nil
}
