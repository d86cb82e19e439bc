package database

import (
	"fmt"

	"gst-invoicing-backend/models"

	"gorm.io/gorm"
)

// TenantModels are the tables created inside every tenant schema.
func TenantModels() []any {
	return []any{
		&models.Customer{},
		&models.TaxTemplate{},
		&models.DiscountTemplate{},
		&models.Article{},
		&models.InvoiceSeries{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.InvoiceItemTaxDiscount{},
		&models.InvoiceTaxDiscountEntry{},
		&models.InvoiceVersion{},
		&models.Payment{},
		&models.IdempotencyKey{},
	}
}

// MigrateTenantModels creates or updates the tenant tables on tx's current schema.
func MigrateTenantModels(tx *gorm.DB) error {
	if err := tx.AutoMigrate(TenantModels()...); err != nil {
		return fmt.Errorf("tenant automigrate failed: %w", err)
	}
	return nil
}

// CHECK constraints added on Postgres. Each statement is idempotent.
var tenantChecks = []struct {
	table, name, expr string
}{
	{"invoice_items", "chk_invoice_items_quantity_nonneg", "quantity >= 0"},
	{"invoice_items", "chk_invoice_items_rate_nonneg", "rate >= 0"},
	{"invoices", "chk_invoices_grand_total_nonneg", "grand_total >= 0"},
	{"invoices", "chk_invoices_due_amount_nonneg", "due_amount >= 0"},
	{"invoices", "chk_invoices_status", "status IN ('UNPAID','PARTIALLY_PAID','PAID','CANCELLED')"},
	{"payments", "chk_payments_amount_pos", "amount > 0"},
	{"invoice_series", "chk_invoice_series_next_number_pos", "next_number >= 0"},
	{"articles", "chk_articles_rate_nonneg", "rate >= 0"},
}

// MigrateTenantSchema applies (idempotent) migrations for one tenant schema on Postgres:
// the tenant tables plus CHECK constraints. Other dialects only get the tables.
func MigrateTenantSchema(schema string) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if !schemaPattern.MatchString(schema) {
		return fmt.Errorf("%w: %q", ErrInvalidSchema, schema)
	}
	if DB.Dialector.Name() != "postgres" {
		return MigrateTenantModels(DB)
	}
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error; err != nil {
			return fmt.Errorf("create schema failed: %w", err)
		}
		if err := SetSearchPath(tx, schema); err != nil {
			return err
		}
		if err := MigrateTenantModels(tx); err != nil {
			return err
		}

		for _, chk := range tenantChecks {
			stmt := fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%s'::regclass
		  AND conname  = '%s'
	) THEN
		ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
	END IF;
END $$;`, chk.table, chk.name, chk.table, chk.name, chk.expr)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint %s failed: %w", chk.name, err)
			}
		}
		return nil
	})
}
