package payouts

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/api/middleware"
	"github.com/tindago/tindago-backend/api/responses"
	"github.com/tindago/tindago-backend/api/validators"
	internalpayouts "github.com/tindago/tindago-backend/internal/payouts"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/logger"
)

type generateRequest struct {
	OrganizationID string    `json:"organization_id" validate:"required,uuid4"`
	PeriodStart    time.Time `json:"period_start" validate:"required"`
}

// Generate builds the payout invoice for one organization and period. The
// period start must be a Wednesday midnight UTC.
func Generate(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload generateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orgID, err := uuid.Parse(payload.OrganizationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization id"))
			return
		}

		invoice, err := svc.Generate(r.Context(), orgID, payload.PeriodStart, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

// List returns the payout invoices visible to the actor. Admins may pass
// organization_id to inspect any tenant.
func List(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
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

		invoices, err := svc.ListByOrganization(r.Context(), orgID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoices)
	}
}

// Detail returns a single payout invoice.
func Detail(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := validators.ParseURLParamUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Get(r.Context(), invoiceID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

// MarkProcessing moves a generated invoice into processing.
func MarkProcessing(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := validators.ParseURLParamUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.MarkProcessing(r.Context(), invoiceID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

type markPaidRequest struct {
	PaymentReference string `json:"payment_reference" validate:"required,min=1,max=255"`
	PaymentNotes     string `json:"payment_notes,omitempty" validate:"max=2000"`
}

// MarkPaid settles an invoice against an external bank transfer.
func MarkPaid(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := validators.ParseURLParamUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload markPaidRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.MarkPaid(r.Context(), invoiceID, internalpayouts.MarkPaidInput{
			PaymentReference: payload.PaymentReference,
			PaymentNotes:     payload.PaymentNotes,
			Actor:            actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

// Cancel voids an invoice so the period can be regenerated.
func Cancel(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := validators.ParseURLParamUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.MarkCancelled(r.Context(), invoiceID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

type documentRequest struct {
	Upload bool `json:"upload"`
}

// Document renders the invoice statement, optionally uploading it to the
// document bucket. Upload failures are reported without failing the render.
func Document(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := validators.ParseURLParamUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload documentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GenerateDocument(r.Context(), invoiceID, payload.Upload, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body := map[string]any{
			"invoice_id": result.InvoiceID,
			"uploaded":   result.Uploaded,
			"html":       string(result.HTML),
		}
		if result.DocumentURL != "" {
			body["document_url"] = result.DocumentURL
		}
		if result.UploadError != nil {
			body["upload_error"] = result.UploadError.Error()
		}
		responses.WriteSuccess(w, body)
	}
}

type bankDetailsRequest struct {
	OrganizationID    *string `json:"organization_id,omitempty" validate:"omitempty,uuid4"`
	BankName          string  `json:"bank_name" validate:"required,min=1,max=255"`
	BankAccountName   string  `json:"bank_account_name" validate:"required,min=1,max=255"`
	BankAccountNumber string  `json:"bank_account_number" validate:"required,min=1,max=64"`
	BankCode          *string `json:"bank_code,omitempty" validate:"omitempty,max=32"`
	NotificationEmail *string `json:"notification_email,omitempty" validate:"omitempty,email"`
}

// UpdateBankDetails sets the payout destination. Sellers update their own
// organization; admins may name any tenant.
func UpdateBankDetails(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bankDetailsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orgID := actor.OrgID
		if payload.OrganizationID != nil {
			parsed, err := uuid.Parse(*payload.OrganizationID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organization id"))
				return
			}
			orgID = parsed
		}

		org, err := svc.UpdateOrgBankDetails(r.Context(), orgID, internalpayouts.BankDetailsInput{
			BankName:          payload.BankName,
			BankAccountName:   payload.BankAccountName,
			BankAccountNumber: payload.BankAccountNumber,
			BankCode:          payload.BankCode,
			NotificationEmail: payload.NotificationEmail,
			Actor:             actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, org)
	}
}
