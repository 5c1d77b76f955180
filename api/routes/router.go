package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tindago/tindago-backend/api/controllers"
	analyticscontrollers "github.com/tindago/tindago-backend/api/controllers/analytics"
	batchcontrollers "github.com/tindago/tindago-backend/api/controllers/batches"
	ordercontrollers "github.com/tindago/tindago-backend/api/controllers/orders"
	paymentcontrollers "github.com/tindago/tindago-backend/api/controllers/payments"
	payoutcontrollers "github.com/tindago/tindago-backend/api/controllers/payouts"
	vouchercontrollers "github.com/tindago/tindago-backend/api/controllers/vouchers"
	"github.com/tindago/tindago-backend/api/middleware"
	"github.com/tindago/tindago-backend/internal/analytics"
	"github.com/tindago/tindago-backend/internal/batches"
	"github.com/tindago/tindago-backend/internal/orders"
	"github.com/tindago/tindago-backend/internal/payments"
	"github.com/tindago/tindago-backend/internal/payouts"
	"github.com/tindago/tindago-backend/internal/vouchers"
	"github.com/tindago/tindago-backend/pkg/config"
	"github.com/tindago/tindago-backend/pkg/enums"
	"github.com/tindago/tindago-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the wired domain services the router exposes.
type Services struct {
	Orders    orders.Service
	Payments  payments.Service
	Batches   batches.Service
	Payouts   payouts.Service
	Vouchers  vouchers.Service
	Analytics analytics.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	redisP pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	admin := string(enums.ActorRoleAdmin)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(svcs.Orders, logg))
			r.Get("/pages", ordercontrollers.ListPages(svcs.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(svcs.Orders, logg))
			r.Patch("/{orderId}/status", ordercontrollers.UpdateStatus(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(svcs.Orders, logg))
			r.Get("/{orderId}/payments", paymentcontrollers.ListByOrder(svcs.Payments, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", paymentcontrollers.Record(svcs.Payments, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(admin, logg))
				r.Post("/{paymentId}/verify", paymentcontrollers.Verify(svcs.Payments, logg))
				r.Post("/{paymentId}/decline", paymentcontrollers.Decline(svcs.Payments, logg))
				r.Post("/{paymentId}/refund", paymentcontrollers.StartRefund(svcs.Payments, logg))
				r.Post("/{paymentId}/refund/complete", paymentcontrollers.CompleteRefund(svcs.Payments, logg))
			})
		})

		r.Route("/batches", func(r chi.Router) {
			r.Get("/", batchcontrollers.List(svcs.Batches, logg))
			r.Get("/{batchId}", batchcontrollers.Detail(svcs.Batches, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(admin, logg))
				r.Post("/", batchcontrollers.Create(svcs.Batches, logg))
				r.Patch("/{batchId}", batchcontrollers.Update(svcs.Batches, logg))
				r.Delete("/{batchId}", batchcontrollers.Delete(svcs.Batches, logg))
			})
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", payoutcontrollers.List(svcs.Payouts, logg))
			r.Get("/{payoutId}", payoutcontrollers.Detail(svcs.Payouts, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(admin, logg))
				r.Post("/generate", payoutcontrollers.Generate(svcs.Payouts, logg))
				r.Post("/{payoutId}/mark-processing", payoutcontrollers.MarkProcessing(svcs.Payouts, logg))
				r.Post("/{payoutId}/mark-paid", payoutcontrollers.MarkPaid(svcs.Payouts, logg))
				r.Post("/{payoutId}/cancel", payoutcontrollers.Cancel(svcs.Payouts, logg))
				r.Post("/{payoutId}/document", payoutcontrollers.Document(svcs.Payouts, logg))
			})
		})

		r.Put("/organizations/bank-details", payoutcontrollers.UpdateBankDetails(svcs.Payouts, logg))

		r.Route("/voucher-refunds", func(r chi.Router) {
			r.Post("/", vouchercontrollers.Submit(svcs.Vouchers, logg))
			r.Get("/", vouchercontrollers.List(svcs.Vouchers, logg))
			r.Get("/{requestId}", vouchercontrollers.Detail(svcs.Vouchers, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(admin, logg))
				r.Post("/{requestId}/approve", vouchercontrollers.Approve(svcs.Vouchers, logg))
				r.Post("/{requestId}/reject", vouchercontrollers.Reject(svcs.Vouchers, logg))
			})
		})

		r.Get("/analytics/dashboard", analyticscontrollers.Dashboard(svcs.Analytics, logg))
	})

	return r
}
