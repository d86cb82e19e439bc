package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	ErrSchemaMissing = errors.New("tenant schema missing")
	ErrInvalidSchema = errors.New("invalid tenant schema name")

	schemaPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)
)

// SchemaName derives a tenant schema name from a company name.
func SchemaName(companyName string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(companyName))
	name = strings.Join(strings.Fields(name), "_")
	if !schemaPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSchema, name)
	}
	return name, nil
}

// SetSearchPath pins tx to schema for the rest of the transaction. Dialects without schemas
// (SQLite) keep a single namespace and are left alone.
func SetSearchPath(tx *gorm.DB, schema string) error {
	if !schemaPattern.MatchString(schema) {
		return fmt.Errorf("%w: %q", ErrInvalidSchema, schema)
	}
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	if err := tx.Exec(`SET LOCAL search_path = "` + schema + `", public`).Error; err != nil {
		return fmt.Errorf("set search_path failed: %w", err)
	}
	return nil
}

// GetTenantDB returns the request's tenant transaction opened by middlewares.TenantTx.
func GetTenantDB(c *fiber.Ctx) (*gorm.DB, error) {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx, nil
		}
	}

	schema, _ := c.Locals("schema").(string)
	if strings.TrimSpace(schema) == "" {
		return nil, ErrSchemaMissing
	}
	return nil, errors.New("tenant transaction not started")
}
