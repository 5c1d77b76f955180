package payments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  organization_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'PHP',
  method TEXT NOT NULL DEFAULT 'cash',
  provider_metadata TEXT,
  state TEXT NOT NULL DEFAULT 'pending',
  reference_number TEXT,
  failure_reason TEXT,
  verified_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedPayment(t *testing.T, db *gorm.DB, orderID uuid.UUID, amountCents int, mutate func(payment *models.Payment)) *models.Payment {
	t.Helper()

	payment := &models.Payment{
		ID:             uuid.New(),
		OrderID:        orderID,
		OrganizationID: uuid.New(),
		CustomerID:     uuid.New(),
		AmountCents:    amountCents,
		Currency:       enums.CurrencyPHP,
		Method:         enums.PaymentMethodCash,
		State:          enums.PaymentStatePending,
		CreatedAt:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	if mutate != nil {
		mutate(payment)
	}
	require.NoError(t, db.Create(payment).Error)
	return payment
}

func TestRepository_SumVerifiedByOrder(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	orderID := uuid.New()
	ctx := context.Background()

	seedPayment(t, db, orderID, 3000, func(p *models.Payment) { p.State = enums.PaymentStateVerified })
	seedPayment(t, db, orderID, 2000, func(p *models.Payment) { p.State = enums.PaymentStateVerified })
	seedPayment(t, db, orderID, 9000, nil) // still pending, must not count
	seedPayment(t, db, uuid.New(), 5000, func(p *models.Payment) { p.State = enums.PaymentStateVerified })

	total, err := repo.SumVerifiedByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 5000, total)

	total, err = repo.SumVerifiedByOrder(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestRepository_FindStalePending(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	old := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	stale := seedPayment(t, db, uuid.New(), 1000, func(p *models.Payment) { p.CreatedAt = old })
	seedPayment(t, db, uuid.New(), 1000, func(p *models.Payment) { p.CreatedAt = fresh })
	seedPayment(t, db, uuid.New(), 1000, func(p *models.Payment) {
		p.CreatedAt = old
		p.State = enums.PaymentStateVerified
	})

	found, err := repo.FindStalePending(ctx, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stale.ID, found[0].ID)
}

func TestRepository_ListByOrderAndUpdate(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	orderID := uuid.New()
	ctx := context.Background()

	first := seedPayment(t, db, orderID, 2000, func(p *models.Payment) {
		p.CreatedAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	})
	second := seedPayment(t, db, orderID, 3000, func(p *models.Payment) {
		p.CreatedAt = time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	})

	listed, err := repo.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, second.ID, listed[1].ID)

	require.NoError(t, repo.Update(ctx, first.ID, map[string]any{"state": enums.PaymentStateDeclined}))
	reloaded, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStateDeclined, reloaded.State)
}
