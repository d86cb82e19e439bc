package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"gst-invoicing-backend/database"
	"gst-invoicing-backend/logger"
	"gst-invoicing-backend/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	idempotencyHeader = "Idempotency-Key"
	maxIdempotencyKey = 128
)

// Idempotency processes Idempotency-Key for mutating HTTP methods in a schema-safe way.
// A retried invoice creation replays the stored response instead of allocating a second number;
// a retried payment is not recorded twice.
// It uses its own short transactions and SET LOCAL search_path to avoid leaking search_path
// on pooled connections.
func Idempotency() fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(idempotencyHeader))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKey {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Idempotency-Key too long"})
		}

		schema, _ := c.Locals("schema").(string)
		userID, _ := c.Locals("userID").(string)
		if schema == "" || userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "auth context missing"})
		}
		if database.DB == nil {
			return fiber.NewError(fiber.StatusInternalServerError, "database not initialized")
		}

		path := c.OriginalURL() // includes query string
		reqHash := requestHash(method, path, c.Body(), schema, userID)
		log := logger.Named("idempotency")

		// ---- Phase 1: read/create "pending" under a short TX
		var existing models.IdempotencyKey
		replay, created := false, false
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := database.SetSearchPath(tx, schema); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency schema pin failed")
			}

			if err := tx.Where("key = ?", key).First(&existing).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
				}
				rec := models.IdempotencyKey{
					Key:          key,
					RequestHash:  reqHash,
					Method:       method,
					Path:         path,
					TenantSchema: schema,
					UserID:       userID,
				}
				res := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "key"}},
					DoNothing: true,
				}).Create(&rec)
				if res.Error != nil {
					return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
				}
				if res.RowsAffected == 0 {
					// A concurrent request inserted the key first.
					if e := tx.Where("key = ?", key).First(&existing).Error; e != nil {
						return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
					}
				} else {
					existing = rec
					created = true
				}
			}

			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			replay = existing.ResponseStatus != 0 && existing.ResponseBody != nil
			if !created && !replay {
				// The first request with this key has not finished yet.
				return fiber.NewError(fiber.StatusConflict, "request with this Idempotency-Key is still in progress")
			}
			return nil
		})
		if err != nil {
			return err
		}
		if replay {
			log.Debug("replaying stored response", zap.String("key", key), zap.String("path", path))
			if existing.ContentType != "" {
				c.Set(fiber.HeaderContentType, existing.ContentType)
			}
			c.Set("Idempotent-Replayed", "true")
			return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
		}

		if err := c.Next(); err != nil {
			// Failed requests are not replayed; a retry with the same key runs the handler again.
			if derr := releaseKey(schema, key); derr != nil {
				log.Warn("releasing idempotency key failed", zap.String("key", key), zap.Error(derr))
			}
			return err
		}

		// ---- Phase 2: store the response under another short TX
		status := c.Response().StatusCode()
		storeErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := database.SetSearchPath(tx, schema); err != nil {
				return err
			}
			if status >= fiber.StatusInternalServerError {
				// Server failures are not replayed.
				return tx.Where("key = ?", key).Delete(&models.IdempotencyKey{}).Error
			}

			now := time.Now().UTC()
			resp := c.Response().Body()
			blob := make([]byte, len(resp))
			copy(blob, resp)

			return tx.Model(&models.IdempotencyKey{}).
				Where("key = ?", key).
				Updates(map[string]any{
					"response_status": status,
					"content_type":    string(c.Response().Header.ContentType()),
					"response_body":   blob,
					"completed_at":    &now,
				}).Error
		})
		if storeErr != nil {
			// best-effort: don't break the successful response
			log.Warn("storing idempotent response failed", zap.String("key", key), zap.Error(storeErr))
		}
		return nil
	}
}

func releaseKey(schema, key string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := database.SetSearchPath(tx, schema); err != nil {
			return err
		}
		return tx.Where("key = ?", key).Delete(&models.IdempotencyKey{}).Error
	})
}

// requestHash is sha256 of method|path|body|schema|user.
func requestHash(method, path string, body []byte, schema, userID string) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(body)
	h.Write([]byte{'\n'})
	h.Write([]byte(schema))
	h.Write([]byte{'\n'})
	h.Write([]byte(userID))
	return hex.EncodeToString(h.Sum(nil))
}
