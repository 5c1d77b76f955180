package payouts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tindago/tindago-backend/internal/auditlog"
	"github.com/tindago/tindago-backend/pkg/db"
	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/outbox"
	"github.com/tindago/tindago-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input auditlog.RecordInput) (*models.AuditLog, error)
}

// DocumentStore uploads rendered invoice artifacts. Satisfied by
// *gcs.Bucket.
type DocumentStore interface {
	Upload(ctx context.Context, objectName string, contentType string, data []byte) (string, error)
	ObjectURL(objectName string) string
}

// Options tunes the generator.
type Options struct {
	OrderSummaryCap     int
	InvoiceNumberPrefix string
}

// Service generates and manages weekly payout invoices.
type Service interface {
	Generate(ctx context.Context, orgID uuid.UUID, periodStart time.Time, actor types.Actor) (*models.PayoutInvoice, error)
	MarkProcessing(ctx context.Context, invoiceID uuid.UUID, actor types.Actor) (*models.PayoutInvoice, error)
	MarkPaid(ctx context.Context, invoiceID uuid.UUID, input MarkPaidInput) (*models.PayoutInvoice, error)
	MarkCancelled(ctx context.Context, invoiceID uuid.UUID, actor types.Actor) (*models.PayoutInvoice, error)
	GenerateDocument(ctx context.Context, invoiceID uuid.UUID, upload bool, actor types.Actor) (*DocumentResult, error)
	UpdateOrgBankDetails(ctx context.Context, orgID uuid.UUID, input BankDetailsInput) (*models.Organization, error)
	Get(ctx context.Context, invoiceID uuid.UUID, actor types.Actor) (*models.PayoutInvoice, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, actor types.Actor) ([]models.PayoutInvoice, error)
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
}

// MarkPaidInput records the external transfer that settled an invoice.
type MarkPaidInput struct {
	PaymentReference string
	PaymentNotes     string
	Actor            types.Actor
}

// BankDetailsInput carries the payout destination for an organization.
type BankDetailsInput struct {
	BankName          string
	BankAccountName   string
	BankAccountNumber string
	BankCode          *string
	NotificationEmail *string
	Actor             types.Actor
}

// DocumentResult reports a statement render. Uploaded is false when the
// upload was skipped or failed; the render itself is always returned.
type DocumentResult struct {
	InvoiceID   uuid.UUID
	HTML        []byte
	Uploaded    bool
	DocumentURL string
	UploadError error
}

// GeneratedEvent is emitted when an invoice is generated.
type GeneratedEvent struct {
	InvoiceID      uuid.UUID `json:"invoice_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	InvoiceNumber  string    `json:"invoice_number"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	GrossCents     int       `json:"gross_cents"`
	NetCents       int       `json:"net_cents"`
	OrderCount     int       `json:"order_count"`
}

// PaidEvent is emitted when an invoice is settled.
type PaidEvent struct {
	InvoiceID        uuid.UUID `json:"invoice_id"`
	OrganizationID   uuid.UUID `json:"organization_id"`
	InvoiceNumber    string    `json:"invoice_number"`
	NetCents         int       `json:"net_cents"`
	PaymentReference string    `json:"payment_reference"`
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	audit     auditRecorder
	documents DocumentStore
	opts      Options
}

// NewService builds a payouts service. The document store may be nil, in
// which case GenerateDocument renders without uploading.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, audit auditRecorder, documents DocumentStore, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if opts.OrderSummaryCap <= 0 {
		opts.OrderSummaryCap = 20
	}
	if opts.InvoiceNumberPrefix == "" {
		opts.InvoiceNumberPrefix = "INV"
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    outboxSvc,
		audit:     audit,
		documents: documents,
		opts:      opts,
	}, nil
}

func (s *service) Generate(ctx context.Context, orgID uuid.UUID, periodStart time.Time, actor types.Actor) (*models.PayoutInvoice, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id required")
	}
	if !IsPeriodStart(periodStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period start must be a Wednesday midnight UTC")
	}
	periodStart = periodStart.UTC()
	periodEnd := periodStart.AddDate(0, 0, 7)

	org, err := s.repo.FindOrganization(ctx, orgID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}

	// Friendly pre-check; the partial unique index is the real guard.
	if _, err := s.repo.FindLiveInvoiceByPeriod(ctx, orgID, periodStart); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "invoice already generated for period")
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing invoice")
	}

	var invoice *models.PayoutInvoice
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		orders, err := repo.FindPaidOrdersInPeriod(ctx, orgID, periodStart, periodEnd)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "select paid orders")
		}

		// Order totals are already net of voucher discounts. The discount
		// total is carried on the invoice for reporting and never
		// subtracted again.
		gross := 0
		voucherDiscount := 0
		itemCount := 0
		for _, order := range orders {
			gross += order.TotalCents
			voucherDiscount += order.DiscountCents
			itemCount += order.ItemCount
		}

		feeCents := platformFeeCents(gross, org.PlatformFeePercentage)

		adjustments, err := repo.FindUnconsumedAdjustments(ctx, orgID, periodEnd)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "select adjustments")
		}
		adjustmentCents := 0
		adjustmentIDs := make([]uuid.UUID, 0, len(adjustments))
		for _, adjustment := range adjustments {
			adjustmentCents += adjustment.AmountCents
			adjustmentIDs = append(adjustmentIDs, adjustment.ID)
		}

		netCents := gross - feeCents + adjustmentCents

		items, err := s.collectItems(ctx, repo, orders)
		if err != nil {
			return err
		}
		orderSummary, err := json.Marshal(buildOrderSummary(orders, s.opts.OrderSummaryCap))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order summary")
		}
		productSummary, err := json.Marshal(buildProductSummary(items))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal product summary")
		}

		seq, err := repo.CountInvoicesByPeriod(ctx, orgID, periodStart)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count period invoices")
		}

		invoice = &models.PayoutInvoice{
			OrganizationID:        orgID,
			InvoiceNumber:         s.invoiceNumber(org.Slug, periodStart, seq+1),
			PeriodStart:           periodStart,
			PeriodEnd:             periodEnd,
			GrossCents:            gross,
			PlatformFeePercentage: org.PlatformFeePercentage,
			PlatformFeeCents:      feeCents,
			VoucherDiscountCents:  voucherDiscount,
			AdjustmentCents:       adjustmentCents,
			AdjustmentCount:       len(adjustments),
			NetCents:              netCents,
			OrderCount:            len(orders),
			ItemCount:             itemCount,
			OrderSummary:          orderSummary,
			ProductSummary:        productSummary,
			Status:                enums.PayoutInvoiceStatusPending,
		}
		if _, err := repo.CreateInvoice(ctx, invoice); err != nil {
			if db.IsUniqueViolation(err, "ux_payout_invoices_org_period_live") {
				return pkgerrors.New(pkgerrors.CodeConflict, "invoice already generated for period")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert invoice")
		}

		if err := repo.MarkAdjustmentsConsumed(ctx, adjustmentIDs, invoice.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume adjustments")
		}

		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: orgID,
			ActorUserID:    actor.UserID,
			ActorRole:      actor.Role,
			Action:         enums.AuditActionInvoiceGenerated,
			EntityType:     "payout_invoice",
			EntityID:       invoice.ID,
			After:          invoice,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvoiceGenerated,
			AggregateType: enums.AggregatePayoutInvoice,
			AggregateID:   invoice.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: GeneratedEvent{
				InvoiceID:      invoice.ID,
				OrganizationID: orgID,
				InvoiceNumber:  invoice.InvoiceNumber,
				PeriodStart:    periodStart,
				PeriodEnd:      periodEnd,
				GrossCents:     gross,
				NetCents:       netCents,
				OrderCount:     len(orders),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *service) MarkProcessing(ctx context.Context, invoiceID uuid.UUID, actor types.Actor) (*models.PayoutInvoice, error) {
	return s.transition(ctx, invoiceID, actor, enums.PayoutInvoiceStatusProcessing, nil, nil)
}

func (s *service) MarkPaid(ctx context.Context, invoiceID uuid.UUID, input MarkPaidInput) (*models.PayoutInvoice, error) {
	if strings.TrimSpace(input.PaymentReference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	now := time.Now().UTC()
	updates := map[string]any{
		"paid_at":           now,
		"payment_reference": input.PaymentReference,
	}
	if input.PaymentNotes != "" {
		updates["payment_notes"] = input.PaymentNotes
	}
	afterEmit := func(ctx context.Context, tx *gorm.DB, invoice *models.PayoutInvoice) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvoicePaid,
			AggregateType: enums.AggregatePayoutInvoice,
			AggregateID:   invoice.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: PaidEvent{
				InvoiceID:        invoice.ID,
				OrganizationID:   invoice.OrganizationID,
				InvoiceNumber:    invoice.InvoiceNumber,
				NetCents:         invoice.NetCents,
				PaymentReference: input.PaymentReference,
			},
		})
	}
	invoice, err := s.transition(ctx, invoiceID, input.Actor, enums.PayoutInvoiceStatusPaid, updates, afterEmit)
	if err != nil {
		return nil, err
	}
	invoice.PaidAt = &now
	invoice.PaymentReference = &input.PaymentReference
	return invoice, nil
}

func (s *service) MarkCancelled(ctx context.Context, invoiceID uuid.UUID, actor types.Actor) (*models.PayoutInvoice, error) {
	return s.transition(ctx, invoiceID, actor, enums.PayoutInvoiceStatusCancelled, nil, nil)
}

func (s *service) transition(
	ctx context.Context,
	invoiceID uuid.UUID,
	actor types.Actor,
	target enums.PayoutInvoiceStatus,
	extraUpdates map[string]any,
	afterUpdate func(ctx context.Context, tx *gorm.DB, invoice *models.PayoutInvoice) error,
) (*models.PayoutInvoice, error) {
	if invoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}

	var invoice *models.PayoutInvoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindInvoiceByID(ctx, invoiceID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
		}
		if !loaded.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move invoice from %s to %s", loaded.Status, target))
		}

		before := loaded.Status
		updates := map[string]any{"status": target}
		for key, value := range extraUpdates {
			updates[key] = value
		}
		if err := repo.UpdateInvoice(ctx, invoiceID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice")
		}
		loaded.Status = target

		if _, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: loaded.OrganizationID,
			ActorUserID:    actor.UserID,
			ActorRole:      actor.Role,
			Action:         enums.AuditActionInvoiceStatusChanged,
			EntityType:     "payout_invoice",
			EntityID:       loaded.ID,
			Before:         map[string]any{"status": before},
			After:          map[string]any{"status": target},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}

		if afterUpdate != nil {
			if err := afterUpdate(ctx, tx, loaded); err != nil {
				return err
			}
		}
		invoice = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// GenerateDocument renders the invoice statement. Upload failures are
// reported on the result without touching the invoice, so the call can be
// retried.
func (s *service) GenerateDocument(ctx context.Context, invoiceID uuid.UUID, upload bool, actor types.Actor) (*DocumentResult, error) {
	invoice, err := s.Get(ctx, invoiceID, actor)
	if err != nil {
		return nil, err
	}
	org, err := s.repo.FindOrganization(ctx, invoice.OrganizationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}

	html, err := renderInvoiceHTML(invoice, org)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice")
	}

	result := &DocumentResult{InvoiceID: invoice.ID, HTML: html}
	if !upload || s.documents == nil {
		return result, nil
	}

	objectName := fmt.Sprintf("payout-invoices/%s/%s.html", invoice.OrganizationID, invoice.InvoiceNumber)
	url, err := s.documents.Upload(ctx, objectName, "text/html; charset=utf-8", html)
	if err != nil {
		result.UploadError = err
		return result, nil
	}
	result.Uploaded = true
	result.DocumentURL = url

	if err := s.repo.UpdateInvoice(ctx, invoice.ID, map[string]any{"document_url": url}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store document url")
	}
	return result, nil
}

func (s *service) UpdateOrgBankDetails(ctx context.Context, orgID uuid.UUID, input BankDetailsInput) (*models.Organization, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id required")
	}
	if strings.TrimSpace(input.BankName) == "" ||
		strings.TrimSpace(input.BankAccountName) == "" ||
		strings.TrimSpace(input.BankAccountNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bank name, account name and account number required")
	}
	if !input.Actor.IsAdmin() && input.Actor.OrgID != orgID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization mismatch")
	}

	org, err := s.repo.FindOrganization(ctx, orgID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "organization not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load organization")
	}

	before := *org
	updates := map[string]any{
		"bank_name":           input.BankName,
		"bank_account_name":   input.BankAccountName,
		"bank_account_number": input.BankAccountNumber,
	}
	if input.BankCode != nil {
		updates["bank_code"] = *input.BankCode
	}
	if input.NotificationEmail != nil {
		updates["notification_email"] = *input.NotificationEmail
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrganization(ctx, orgID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update organization")
		}
		_, err := s.audit.Record(ctx, tx, auditlog.RecordInput{
			OrganizationID: orgID,
			ActorUserID:    input.Actor.UserID,
			ActorRole:      input.Actor.Role,
			Action:         enums.AuditActionBankDetailsUpdated,
			EntityType:     "organization",
			EntityID:       orgID,
			Before:         bankSnapshot(&before),
			After:          updates,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	org.BankName = &input.BankName
	org.BankAccountName = &input.BankAccountName
	org.BankAccountNumber = &input.BankAccountNumber
	if input.BankCode != nil {
		org.BankCode = input.BankCode
	}
	if input.NotificationEmail != nil {
		org.NotificationEmail = input.NotificationEmail
	}
	return org, nil
}

func (s *service) Get(ctx context.Context, invoiceID uuid.UUID, actor types.Actor) (*models.PayoutInvoice, error) {
	if invoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	invoice, err := s.repo.FindInvoiceByID(ctx, invoiceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	if !actor.IsAdmin() && invoice.OrganizationID != actor.OrgID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invoice does not belong to organization")
	}
	return invoice, nil
}

func (s *service) ListByOrganization(ctx context.Context, orgID uuid.UUID, actor types.Actor) ([]models.PayoutInvoice, error) {
	if orgID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organization id required")
	}
	if !actor.IsAdmin() && orgID != actor.OrgID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "organization mismatch")
	}
	invoices, err := s.repo.ListInvoicesByOrganization(ctx, orgID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return invoices, nil
}

func (s *service) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	orgs, err := s.repo.ListOrganizations(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list organizations")
	}
	return orgs, nil
}

func (s *service) collectItems(ctx context.Context, repo Repository, orders []models.Order) ([]types.OrderItemSnapshot, error) {
	var snapshots []types.OrderItemSnapshot
	var referenced []uuid.UUID
	for i := range orders {
		if len(orders[i].EmbeddedItems) > 0 {
			snapshots = append(snapshots, orders[i].EmbeddedItems...)
			continue
		}
		referenced = append(referenced, orders[i].ID)
	}
	if len(referenced) > 0 {
		items, err := repo.FindOrderItemsByOrders(ctx, referenced)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}
		for _, item := range items {
			snapshots = append(snapshots, itemSnapshot(item))
		}
	}
	return snapshots, nil
}

// platformFeeCents applies the percentage once at invoice level, rounding
// half up.
func platformFeeCents(grossCents int, feePercent decimal.Decimal) int {
	fee := decimal.NewFromInt(int64(grossCents)).
		Mul(feePercent).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return int(fee.IntPart())
}

func (s *service) invoiceNumber(slug string, periodStart time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%s-%03d",
		s.opts.InvoiceNumberPrefix, orgPrefix(slug), periodStart.Format("20060102"), seq)
}

// orgPrefix derives a short uppercase tag from the organization slug.
func orgPrefix(slug string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(slug) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= 4 {
			break
		}
	}
	if b.Len() == 0 {
		return "ORG"
	}
	return b.String()
}

func bankSnapshot(org *models.Organization) map[string]any {
	return map[string]any{
		"bank_name":           org.BankName,
		"bank_account_name":   org.BankAccountName,
		"bank_account_number": org.BankAccountNumber,
		"bank_code":           org.BankCode,
		"notification_email":  org.NotificationEmail,
	}
}

func actorRef(actor types.Actor) *outbox.ActorRef {
	org := actor.OrgID
	ref := &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
	if org != uuid.Nil {
		ref.OrgID = &org
	}
	return ref
}
