package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	source, err := migrate.Source("migrations")
	if err != nil {
		t.Fatalf("open migrations: %v", err)
	}
	if err := migrate.Validate(source); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestEmbeddedSourceMatchesDisk(t *testing.T) {
	embedded, err := migrate.Source("")
	if err != nil {
		t.Fatalf("embedded source: %v", err)
	}
	names, err := fs.Glob(embedded, "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(names) == 0 || len(names) != len(onDisk) {
		t.Fatalf("embedded %d migrations, disk has %d", len(names), len(onDisk))
	}
}

func TestValidateRejectsBrokenMigrations(t *testing.T) {
	const ok = "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	cases := map[string]fstest.MapFS{
		"empty":          {},
		"bad name":       {"create_users.sql": {Data: []byte(ok)}},
		"missing down":   {"20260101000000_users.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")}},
		"down before up": {"20260101000000_users.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")}},
		"unbalanced statement": {"20260101000000_users.sql": {Data: []byte(
			"-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 1;\n",
		)}},
		"duplicate version": {
			"20260101000000_users.sql":  {Data: []byte(ok)},
			"20260101000000_orders.sql": {Data: []byte(ok)},
		},
	}
	for name, source := range cases {
		t.Run(name, func(t *testing.T) {
			if err := migrate.Validate(source); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSQLMigrationSanitizesAndRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)

	path, err := migrate.CreateSQLMigration(dir, "Add Order Notes!", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20260301083000_add_order_notes.sql" {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}
	source, _ := migrate.Source(dir)
	if err := migrate.Validate(source); err != nil {
		t.Fatalf("generated migration is invalid: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "add order notes", now); err == nil {
		t.Fatal("expected overwrite to fail")
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!", now); err == nil {
		t.Fatal("expected empty sanitized name to fail")
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := migrate.ParseVersion("20260105090400"); err != nil || v != 20260105090400 {
		t.Fatalf("parse version: %d %v", v, err)
	}
	for _, raw := range []string{"", "2026", "2026010509040x"} {
		if _, err := migrate.ParseVersion(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestOrdersMigrationEnforcesInvariants(t *testing.T) {
	content := readMigration(t, "*_create_orders_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number",
		"CONSTRAINT ck_orders_total CHECK (total_cents = subtotal_cents + tax_cents + shipping_cents - discount_cents)",
		"CREATE TABLE IF NOT EXISTS order_items",
		"CREATE TABLE IF NOT EXISTS payments",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCartMigrationEnforcesOwnership(t *testing.T) {
	content := readMigration(t, "*_create_cart_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS guest_sessions",
		"quantity integer NOT NULL CHECK (quantity > 0)",
		"CONSTRAINT ck_cart_items_single_owner CHECK ((user_id IS NULL) <> (guest_session_id IS NULL))",
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
	if len(matches) != 1 {
		t.Fatalf("expected exactly one migration for %s, got %d", pattern, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestCatalogMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_catalog_tables.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS categories",
		"CREATE TABLE IF NOT EXISTS brands",
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE TABLE IF NOT EXISTS product_variants",
		"CREATE TABLE IF NOT EXISTS product_images",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_products_slug",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_products_sku",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
