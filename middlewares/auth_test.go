package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", IsAuthenticatedHeader(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user":   c.Locals("userID"),
			"schema": c.Locals("schema"),
		})
	})
	return app
}

func authStatus(t *testing.T, app *fiber.App, header string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set(authHeader, header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestSetJWTSecret_Empty(t *testing.T) {
	assert.ErrorIs(t, SetJWTSecret("   "), ErrJWTSecretMissing)
}

func TestIsAuthenticatedHeader(t *testing.T) {
	require.NoError(t, SetJWTSecret("test-secret"))
	app := authApp()

	token, err := GenerateJWT("user-1", "acme_traders")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, authStatus(t, app, "Bearer "+token))

	assert.Equal(t, fiber.StatusUnauthorized, authStatus(t, app, ""))
	assert.Equal(t, fiber.StatusUnauthorized, authStatus(t, app, "Basic abc"))
	assert.Equal(t, fiber.StatusUnauthorized, authStatus(t, app, "Bearer "+token+"x"))
}

func TestIsAuthenticatedHeader_RejectsForeignTokens(t *testing.T) {
	require.NoError(t, SetJWTSecret("test-secret"))
	app := authApp()

	now := time.Now()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Schema: "acme_traders",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		},
	})
	raw, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, authStatus(t, app, "Bearer "+raw))

	otherKey := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Schema:           "acme_traders",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	raw, err = otherKey.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, authStatus(t, app, "Bearer "+raw))

	noSchema := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	raw, err = noSchema.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, authStatus(t, app, "Bearer "+raw))
}

func TestRequestHash(t *testing.T) {
	a := requestHash("POST", "/api/invoices", []byte(`{"a":1}`), "acme", "u1")
	assert.Equal(t, a, requestHash("POST", "/api/invoices", []byte(`{"a":1}`), "acme", "u1"))
	assert.NotEqual(t, a, requestHash("POST", "/api/invoices", []byte(`{"a":2}`), "acme", "u1"))
	assert.NotEqual(t, a, requestHash("POST", "/api/invoices", []byte(`{"a":1}`), "globex", "u1"))
	assert.Len(t, a, 64)
}
