package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/types"
)

// Repository reads the order rows the dashboard is computed from.
type Repository interface {
	FindOrdersInWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an analytics repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindOrdersInWindow(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_deleted = ?", orgID, false).
		Where("order_date >= ? AND order_date < ?", from, to).
		Order("order_date ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// DailyBucket is one day of dashboard data. Revenue counts paid orders only.
type DailyBucket struct {
	Date         string `json:"date"`
	OrderCount   int    `json:"order_count"`
	RevenueCents int    `json:"revenue_cents"`
}

// Dashboard is the org-scoped read model for the requested window.
type Dashboard struct {
	From              time.Time      `json:"from"`
	To                time.Time      `json:"to"`
	TotalOrders       int            `json:"total_orders"`
	TotalRevenueCents int            `json:"total_revenue_cents"`
	StatusCounts      map[string]int `json:"status_counts"`
	Buckets           []DailyBucket  `json:"buckets"`
}

// Service computes dashboard read models. Read-only.
type Service interface {
	Dashboard(ctx context.Context, orgID uuid.UUID, from, to time.Time, actor types.Actor) (*Dashboard, error)
}

type service struct {
	repo Repository
}

// NewService builds an analytics service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Dashboard(ctx context.Context, orgID uuid.UUID, from, to time.Time, actor types.Actor) (*Dashboard, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id required")
	}
	if !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window start must be before window end")
	}
	if !actor.IsAdmin() && orgID != actor.OrgID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization mismatch")
	}

	orders, err := s.repo.FindOrdersInWindow(ctx, orgID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}

	dashboard := &Dashboard{
		From:         from,
		To:           to,
		StatusCounts: map[string]int{},
	}
	byDay := map[string]*DailyBucket{}
	for i := range orders {
		order := &orders[i]
		dashboard.TotalOrders++
		dashboard.StatusCounts[order.Status.String()]++

		day := order.OrderDate.UTC().Format("2006-01-02")
		bucket, ok := byDay[day]
		if !ok {
			bucket = &DailyBucket{Date: day}
			byDay[day] = bucket
		}
		bucket.OrderCount++
		if order.PaymentStatus == enums.OrderPaymentStatusPaid {
			bucket.RevenueCents += order.TotalCents
			dashboard.TotalRevenueCents += order.TotalCents
		}
	}

	// Emit a contiguous day series so charts never skip empty days.
	for day := from.UTC().Truncate(24 * time.Hour); day.Before(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if bucket, ok := byDay[key]; ok {
			dashboard.Buckets = append(dashboard.Buckets, *bucket)
		} else {
			dashboard.Buckets = append(dashboard.Buckets, DailyBucket{Date: key})
		}
	}
	return dashboard, nil
}
