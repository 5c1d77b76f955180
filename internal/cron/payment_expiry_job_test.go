package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentExpirer struct {
	cutoff  time.Time
	expired int
	err     error
}

func (f *fakePaymentExpirer) ExpireStalePending(ctx context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return f.expired, f.err
}

func TestPaymentExpiryJobAppliesTTL(t *testing.T) {
	expirer := &fakePaymentExpirer{expired: 3}
	job, err := NewPaymentExpiryJob(PaymentExpiryJobParams{
		Logger:   testLogger(),
		Payments: expirer,
		TTL:      48 * time.Hour,
	})
	require.NoError(t, err)

	now := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	job.(*paymentExpiryJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-48*time.Hour), expirer.cutoff)
}

func TestPaymentExpiryJobSurfacesFailures(t *testing.T) {
	expirer := &fakePaymentExpirer{err: errors.New("disk full")}
	job, err := NewPaymentExpiryJob(PaymentExpiryJobParams{Logger: testLogger(), Payments: expirer})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
