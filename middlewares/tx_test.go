package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gst-invoicing-backend/database"
	"gst-invoicing-backend/models"
)

func useTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.MigrateTenantModels(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	return db
}

// tenantApp fakes an authenticated caller of the "acme" tenant.
func tenantApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("schema", "acme")
		c.Locals("userID", "user-1")
		return c.Next()
	})
	for _, m := range handlers {
		app.Use(m)
	}
	return app
}

func post(t *testing.T, app *fiber.App, path, body string, headers ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestTenantTx(t *testing.T) {
	db := useTestDB(t)
	app := tenantApp(TenantTx())

	insert := func(c *fiber.Ctx) error {
		tx, err := database.GetTenantDB(c)
		if err != nil {
			return err
		}
		return tx.Create(&models.Customer{Name: c.Path(), StateCode: "29"}).Error
	}
	app.Post("/ok", func(c *fiber.Ctx) error {
		if err := insert(c); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "success"})
	})
	app.Post("/status", func(c *fiber.Ctx) error {
		if err := insert(c); err != nil {
			return err
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": "rejected"})
	})
	app.Post("/error", func(c *fiber.Ctx) error {
		if err := insert(c); err != nil {
			return err
		}
		return fiber.NewError(fiber.StatusConflict, "conflict")
	})

	assert.Equal(t, fiber.StatusCreated, post(t, app, "/ok", `{}`).StatusCode)
	assert.Equal(t, fiber.StatusUnprocessableEntity, post(t, app, "/status", `{}`).StatusCode)
	assert.Equal(t, fiber.StatusConflict, post(t, app, "/error", `{}`).StatusCode)

	var names []string
	require.NoError(t, db.Model(&models.Customer{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"/ok"}, names)
}

func TestTenantTx_RequiresSchema(t *testing.T) {
	useTestDB(t)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(TenantTx())
	app.Post("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	assert.Equal(t, fiber.StatusUnauthorized, post(t, app, "/ok", `{}`).StatusCode)
}
