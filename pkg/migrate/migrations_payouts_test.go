package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tindago/tindago-backend/pkg/migrate"
)

func TestPayoutMigrationContainsIdempotencyIndexes(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_payouts.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no payouts migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payout_invoices",
		"ON payout_invoices (organization_id, period_start)",
		"WHERE status <> 'cancelled'",
		"CHECK (period_start < period_end)",
		"DROP TABLE IF EXISTS payout_invoices",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestVoucherMigrationContainsPendingRequestIndex(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_vouchers.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no vouchers migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS voucher_refund_requests",
		"ON voucher_refund_requests (voucher_id)",
		"WHERE status = 'pending'",
		"DROP TABLE IF EXISTS voucher_refund_requests",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
