package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/tindago/tindago-backend/pkg/logger"
)

const defaultPendingPaymentTTL = 240 * time.Hour

type paymentExpirer interface {
	ExpireStalePending(ctx context.Context, cutoff time.Time) (int, error)
}

// PaymentExpiryJobParams configure the stale-payment cleanup job.
type PaymentExpiryJobParams struct {
	Logger   *logger.Logger
	Payments paymentExpirer
	TTL      time.Duration
}

// NewPaymentExpiryJob builds the job that cancels payments stuck in
// pending beyond the TTL.
func NewPaymentExpiryJob(params PaymentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingPaymentTTL
	}
	return &paymentExpiryJob{
		logg:     params.Logger,
		payments: params.Payments,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

type paymentExpiryJob struct {
	logg     *logger.Logger
	payments paymentExpirer
	ttl      time.Duration
	now      func() time.Time
}

func (j *paymentExpiryJob) Name() string { return "payment-expiry" }

func (j *paymentExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.payments.ExpireStalePending(ctx, cutoff)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"expired": expired,
	})
	if err != nil {
		j.logg.Warn(logCtx, "payment expiry finished with failures")
		return fmt.Errorf("payment expiry: %w", err)
	}
	j.logg.Info(logCtx, "payment expiry complete")
	return nil
}
