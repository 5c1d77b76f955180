package vouchers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/api/middleware"
	"github.com/tindago/tindago-backend/api/responses"
	"github.com/tindago/tindago-backend/api/validators"
	internalvouchers "github.com/tindago/tindago-backend/internal/vouchers"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/logger"
)

type submitRequest struct {
	VoucherID            string `json:"voucher_id" validate:"required,uuid4"`
	RequestedAmountCents int    `json:"requested_amount_cents" validate:"required,min=1"`
}

// Submit asks to convert voucher credit into a cash refund.
func Submit(svc internalvouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vouchers service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		voucherID, err := uuid.Parse(payload.VoucherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid voucher id"))
			return
		}

		request, err := svc.Submit(r.Context(), internalvouchers.SubmitInput{
			VoucherID:            voucherID,
			RequestedAmountCents: payload.RequestedAmountCents,
			Actor:                actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

type decisionRequest struct {
	AdminMessage string `json:"admin_message,omitempty" validate:"max=2000"`
}

// Approve grants the refund, consumes the voucher and books the negative
// payout adjustment.
func Approve(svc internalvouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return decide(svc, logg, true)
}

// Reject declines the refund and leaves the voucher usable.
func Reject(svc internalvouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return decide(svc, logg, false)
}

func decide(svc internalvouchers.Service, logg *logger.Logger, approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vouchers service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := validators.ParseURLParamUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload decisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		message := strings.TrimSpace(payload.AdminMessage)

		var request any
		if approve {
			request, err = svc.Approve(r.Context(), requestID, message, actor)
		} else {
			request, err = svc.Reject(r.Context(), requestID, message, actor)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// Detail returns one refund request.
func Detail(svc internalvouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vouchers service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := validators.ParseURLParamUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Get(r.Context(), requestID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// List returns refund requests for the actor's organization. Admins may pass
// organization_id to inspect any tenant.
func List(svc internalvouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vouchers service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orgID := actor.OrgID
		if raw := r.URL.Query().Get("organization_id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization_id"))
				return
			}
			orgID = parsed
		}

		requests, err := svc.ListByOrganization(r.Context(), orgID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, requests)
	}
}
