package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/api/middleware"
	internalorders "github.com/tindago/tindago-backend/internal/orders"
	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/enums"
	pkgerrors "github.com/tindago/tindago-backend/pkg/errors"
	"github.com/tindago/tindago-backend/pkg/logger"
	"github.com/tindago/tindago-backend/pkg/pagination"
	"github.com/tindago/tindago-backend/pkg/types"
)

type stubControllerOrdersService struct {
	updateStatus func(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error)
	cancel       func(ctx context.Context, input internalorders.CancelInput) (*models.Order, error)
	get          func(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error)
	items        func(ctx context.Context, order *models.Order) ([]types.OrderItemSnapshot, error)
	listCursor   func(ctx context.Context, actor types.Actor, params pagination.Params, filters internalorders.Filters) (*internalorders.OrderList, error)
	listOffset   func(ctx context.Context, actor types.Actor, params pagination.OffsetParams, filters internalorders.Filters) (*internalorders.OrderPage, error)
}

func (s *stubControllerOrdersService) UpdateStatus(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
	if s.updateStatus != nil {
		return s.updateStatus(ctx, input)
	}
	return nil, nil
}

func (s *stubControllerOrdersService) Cancel(ctx context.Context, input internalorders.CancelInput) (*models.Order, error) {
	if s.cancel != nil {
		return s.cancel(ctx, input)
	}
	return nil, nil
}

func (s *stubControllerOrdersService) Get(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	if s.get != nil {
		return s.get(ctx, orderID, actor)
	}
	return nil, nil
}

func (s *stubControllerOrdersService) Items(ctx context.Context, order *models.Order) ([]types.OrderItemSnapshot, error) {
	if s.items != nil {
		return s.items(ctx, order)
	}
	return nil, nil
}

func (s *stubControllerOrdersService) ListCursor(ctx context.Context, actor types.Actor, params pagination.Params, filters internalorders.Filters) (*internalorders.OrderList, error) {
	if s.listCursor != nil {
		return s.listCursor(ctx, actor, params, filters)
	}
	return &internalorders.OrderList{}, nil
}

func (s *stubControllerOrdersService) ListOffset(ctx context.Context, actor types.Actor, params pagination.OffsetParams, filters internalorders.Filters) (*internalorders.OrderPage, error) {
	if s.listOffset != nil {
		return s.listOffset(ctx, actor, params, filters)
	}
	return &internalorders.OrderPage{}, nil
}

func controllerTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "orders-controller-test", Output: io.Discard})
}

func sellerActor() types.Actor {
	return types.Actor{
		UserID: uuid.New(),
		OrgID:  uuid.New(),
		Role:   enums.ActorRoleSeller,
	}
}

func withOrderParam(req *http.Request, orderID uuid.UUID) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderId", orderID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}

func TestListParsesFiltersAndLimit(t *testing.T) {
	actor := sellerActor()
	svc := &stubControllerOrdersService{
		listCursor: func(ctx context.Context, gotActor types.Actor, params pagination.Params, filters internalorders.Filters) (*internalorders.OrderList, error) {
			if gotActor.OrgID != actor.OrgID {
				t.Fatalf("unexpected org id %s", gotActor.OrgID)
			}
			if params.Limit != 5 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			if params.Cursor != "abc" {
				t.Fatalf("unexpected cursor %q", params.Cursor)
			}
			if filters.Status == nil || *filters.Status != enums.OrderStatusProcessing {
				t.Fatalf("status filter not parsed")
			}
			if filters.Query != "maria" {
				t.Fatalf("unexpected query %q", filters.Query)
			}
			return &internalorders.OrderList{
				Orders: []internalorders.Summary{{OrderNumber: 42}},
			}, nil
		},
	}

	handler := List(svc, controllerTestLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5&cursor=abc&status=processing&q=maria", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), actor))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data internalorders.OrderList `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.Orders[0].OrderNumber != 42 {
		t.Fatalf("unexpected orders in response")
	}
}

func TestListRejectsInvalidStatus(t *testing.T) {
	handler := List(&stubControllerOrdersService{}, controllerTestLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=bogus", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), sellerActor()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListMissingActor(t *testing.T) {
	handler := List(&stubControllerOrdersService{}, controllerTestLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestListPagesForwardsOffset(t *testing.T) {
	svc := &stubControllerOrdersService{
		listOffset: func(ctx context.Context, actor types.Actor, params pagination.OffsetParams, filters internalorders.Filters) (*internalorders.OrderPage, error) {
			if params.Limit != 10 || params.Offset != 30 {
				t.Fatalf("unexpected paging %+v", params)
			}
			return &internalorders.OrderPage{Total: 31, Limit: 10, Offset: 30}, nil
		},
	}

	handler := ListPages(svc, controllerTestLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/pages?limit=10&offset=30", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), sellerActor()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data internalorders.OrderPage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Total != 31 {
		t.Fatalf("unexpected total %d", envelope.Data.Total)
	}
}

func TestDetailReturnsOrderWithItems(t *testing.T) {
	actor := sellerActor()
	orderID := uuid.New()
	svc := &stubControllerOrdersService{
		get: func(ctx context.Context, incoming uuid.UUID, gotActor types.Actor) (*models.Order, error) {
			if incoming != orderID {
				t.Fatalf("unexpected order id %s", incoming)
			}
			return &models.Order{ID: orderID, OrganizationID: actor.OrgID}, nil
		},
		items: func(ctx context.Context, order *models.Order) ([]types.OrderItemSnapshot, error) {
			return []types.OrderItemSnapshot{{ProductName: "Ube Cake", Quantity: 2}}, nil
		},
	}

	handler := Detail(svc, controllerTestLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = withOrderParam(req, orderID)
	req = req.WithContext(middleware.WithActor(req.Context(), actor))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Order models.Order              `json:"order"`
			Items []types.OrderItemSnapshot `json:"items"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Order.ID != orderID {
		t.Fatalf("unexpected order id in response")
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].ProductName != "Ube Cake" {
		t.Fatalf("unexpected items in response")
	}
}

func TestDetailNotFoundPassthrough(t *testing.T) {
	orderID := uuid.New()
	svc := &stubControllerOrdersService{
		get: func(ctx context.Context, incoming uuid.UUID, actor types.Actor) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	handler := Detail(svc, controllerTestLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil)
	req = withOrderParam(req, orderID)
	req = req.WithContext(middleware.WithActor(req.Context(), sellerActor()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestUpdateStatusParsesBothDimensions(t *testing.T) {
	actor := sellerActor()
	orderID := uuid.New()
	called := false
	svc := &stubControllerOrdersService{
		updateStatus: func(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.Status == nil || *input.Status != enums.OrderStatusReady {
				t.Fatalf("status not parsed")
			}
			if input.PaymentStatus == nil || *input.PaymentStatus != enums.OrderPaymentStatusPaid {
				t.Fatalf("payment status not parsed")
			}
			called = true
			return &models.Order{ID: orderID}, nil
		},
	}

	handler := UpdateStatus(svc, controllerTestLogger())
	body := `{"status":"ready","payment_status":"paid"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withOrderParam(req, orderID)
	req = req.WithContext(middleware.WithActor(req.Context(), actor))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	orderID := uuid.New()
	handler := UpdateStatus(&stubControllerOrdersService{}, controllerTestLogger())
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"teleported"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withOrderParam(req, orderID)
	req = req.WithContext(middleware.WithActor(req.Context(), sellerActor()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	orderID := uuid.New()
	handler := Cancel(&stubControllerOrdersService{}, controllerTestLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = withOrderParam(req, orderID)
	req = req.WithContext(middleware.WithActor(req.Context(), sellerActor()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelForwardsReason(t *testing.T) {
	actor := sellerActor()
	orderID := uuid.New()
	called := false
	svc := &stubControllerOrdersService{
		cancel: func(ctx context.Context, input internalorders.CancelInput) (*models.Order, error) {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.Reason != "customer request" {
				t.Fatalf("unexpected reason %q", input.Reason)
			}
			called = true
			return &models.Order{ID: orderID, Status: enums.OrderStatusCancelled}, nil
		},
	}

	handler := Cancel(svc, controllerTestLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", strings.NewReader(`{"reason":"customer request"}`))
	req.Header.Set("Content-Type", "application/json")
	req = withOrderParam(req, orderID)
	req = req.WithContext(middleware.WithActor(req.Context(), actor))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatalf("service not invoked")
	}
}
