package middlewares

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "bearer "
	tokenTTL     = 24 * time.Hour
)

var ErrJWTSecretMissing = errors.New("JWT secret not configured (set JWT_SECRET_KEY or JWT_SECRET)")

var (
	errNoBearer    = errors.New("missing/invalid Authorization header")
	errBadToken    = errors.New("invalid or expired token")
	errTokenClaims = errors.New("token missing subject/schema")
)

var (
	secretMu  sync.RWMutex
	jwtSecret []byte
)

// Claims carries the user id as subject and the tenant schema the user belongs to.
type Claims struct {
	Schema string `json:"schema"`
	jwt.RegisteredClaims
}

// SetJWTSecret installs the HS256 signing key from config. Call once at startup.
func SetJWTSecret(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return ErrJWTSecretMissing
	}
	secretMu.Lock()
	jwtSecret = []byte(secret)
	secretMu.Unlock()
	return nil
}

func signingKey() ([]byte, error) {
	secretMu.RLock()
	defer secretMu.RUnlock()
	if len(jwtSecret) == 0 {
		return nil, ErrJWTSecretMissing
	}
	return jwtSecret, nil
}

// parseBearer extracts and verifies the HS256 token in an Authorization header value.
func parseBearer(header string, key []byte) (Claims, error) {
	var claims Claims
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return claims, errNoBearer
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])
	if raw == "" {
		return claims, errNoBearer
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil || !token.Valid {
		return claims, errBadToken
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.Schema) == "" {
		return claims, errTokenClaims
	}
	return claims, nil
}

// IsAuthenticatedHeader requires a valid bearer token and stores its user id and tenant schema in
// c.Locals("userID") and c.Locals("schema") for the tenant middlewares.
func IsAuthenticatedHeader() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := signingKey()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "server auth not configured",
			})
		}

		claims, err := parseBearer(c.Get(authHeader), key)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}

		c.Locals("userID", claims.Subject)
		c.Locals("schema", claims.Schema)
		return c.Next()
	}
}

// GenerateJWT signs a token for userID in schema, valid for tokenTTL.
func GenerateJWT(userID, schema string) (string, error) {
	key, err := signingKey()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := &Claims{
		Schema: schema,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}
