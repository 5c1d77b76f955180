package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tindago/tindago-backend/pkg/db/models"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/logger"
	"github.com/tindago/tindago-backend/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

type fakePayoutGenerator struct {
	orgs     []models.Organization
	failures map[uuid.UUID]error
	calls    []time.Time
}

func (f *fakePayoutGenerator) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	return f.orgs, nil
}

func (f *fakePayoutGenerator) Generate(ctx context.Context, orgID uuid.UUID, periodStart time.Time, actor types.Actor) (*models.PayoutInvoice, error) {
	f.calls = append(f.calls, periodStart)
	if err, ok := f.failures[orgID]; ok {
		return nil, err
	}
	return &models.PayoutInvoice{ID: uuid.New(), OrganizationID: orgID, PeriodStart: periodStart}, nil
}

func TestPayoutGenerateJobSweepsClosedPeriod(t *testing.T) {
	gen := &fakePayoutGenerator{
		orgs: []models.Organization{{ID: uuid.New()}, {ID: uuid.New()}},
	}
	job, err := NewPayoutGenerateJob(PayoutGenerateJobParams{Logger: testLogger(), Payouts: gen})
	require.NoError(t, err)

	// Friday 2026-03-06; the closed period starts Wednesday 2026-02-25.
	job.(*payoutGenerateJob).now = func() time.Time {
		return time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	}

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, gen.calls, 2)
	assert.Equal(t, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC), gen.calls[0])
}

func TestPayoutGenerateJobTreatsConflictAsSkip(t *testing.T) {
	alreadyDone := uuid.New()
	broken := uuid.New()
	gen := &fakePayoutGenerator{
		orgs: []models.Organization{{ID: alreadyDone}, {ID: broken}, {ID: uuid.New()}},
		failures: map[uuid.UUID]error{
			alreadyDone: pkgerrors.New(pkgerrors.CodeConflict, "invoice already generated for period"),
			broken:      errors.New("db down"),
		},
	}
	job, err := NewPayoutGenerateJob(PayoutGenerateJobParams{Logger: testLogger(), Payouts: gen})
	require.NoError(t, err)

	err = job.Run(context.Background())
	// The conflict is silent; the real failure still surfaces.
	require.Error(t, err)
	assert.Contains(t, err.Error(), broken.String())
	assert.NotContains(t, err.Error(), alreadyDone.String())
	assert.Len(t, gen.calls, 3)
}
