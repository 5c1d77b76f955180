package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/tindago/tindago-backend/internal/payouts"
	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/logger"
	"github.com/tindago/tindago-backend/pkg/metrics"
	"github.com/tindago/tindago-backend/pkg/types"
)

// cronActorID identifies scheduled runs in audit entries and events.
var cronActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type payoutGenerator interface {
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	Generate(ctx context.Context, orgID uuid.UUID, periodStart time.Time, actor types.Actor) (*models.PayoutInvoice, error)
}

// PayoutGenerateJobParams configure the weekly invoice generation job.
type PayoutGenerateJobParams struct {
	Logger  *logger.Logger
	Payouts payoutGenerator
	Metrics *metrics.JobMetrics
}

// NewPayoutGenerateJob builds the job that generates invoices for the most
// recently closed period across all organizations.
func NewPayoutGenerateJob(params PayoutGenerateJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payouts service required")
	}
	return &payoutGenerateJob{
		logg:    params.Logger,
		payouts: params.Payouts,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type payoutGenerateJob struct {
	logg    *logger.Logger
	payouts payoutGenerator
	metrics *metrics.JobMetrics
	now     func() time.Time
}

func (j *payoutGenerateJob) Name() string { return "payout-generate" }

func (j *payoutGenerateJob) Run(ctx context.Context) error {
	period := payouts.PreviousPeriod(j.now())
	actor := types.Actor{UserID: cronActorID, Role: enums.ActorRoleAdmin}

	orgs, err := j.payouts.ListOrganizations(ctx)
	if err != nil {
		return fmt.Errorf("list organizations: %w", err)
	}

	generated := 0
	skipped := 0
	var errs error
	for _, org := range orgs {
		_, err := j.payouts.Generate(ctx, org.ID, period.Start, actor)
		if err != nil {
			// An existing invoice is the idempotency guard doing its
			// job, not a failure.
			if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
				skipped++
				if j.metrics != nil {
					j.metrics.IncSkipped(j.Name())
				}
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("generate for %s: %w", org.ID, err))
			continue
		}
		generated++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"period_start":  period.Start,
		"organizations": len(orgs),
		"generated":     generated,
		"skipped":       skipped,
	})
	j.logg.Info(logCtx, "payout generation sweep complete")
	return errs
}
