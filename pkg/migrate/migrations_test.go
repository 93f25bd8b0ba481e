package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adiwirasena/koperasi-pos-backend/pkg/migrate"
)

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestProductsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_products_table.sql")

	checks := []string{
		"CREATE TYPE product_category AS ENUM",
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE TABLE IF NOT EXISTS product_variants",
		"stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0)",
		"CREATE INDEX IF NOT EXISTS idx_products_account_is_active",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_product_variants_product_name",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestTransactionsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_transactions_table.sql")

	checks := []string{
		"CREATE TYPE payment_method AS ENUM",
		"CREATE TABLE IF NOT EXISTS transactions",
		"CREATE TABLE IF NOT EXISTS transaction_items",
		"product_id UUID REFERENCES products (id) ON DELETE SET NULL",
		"variants JSONB",
		"CREATE INDEX IF NOT EXISTS idx_transactions_account_created",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
