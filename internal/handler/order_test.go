package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/order"
)

type mockOrderService struct {
	submitOrderFunc     func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time, quantities map[uuid.UUID]int) (*order.Order, error)
	orderForServiceFunc func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error)
	ordersForCycleFunc  func(ctx context.Context, deliveryDate time.Time) ([]order.Order, error)
	validateOrdersFunc  func(ctx context.Context, orderIDs []uuid.UUID) error
	weeklyAveragesFunc  func(ctx context.Context, now time.Time) (map[uuid.UUID]float64, error)
}

func (m *mockOrderService) SubmitOrder(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time, quantities map[uuid.UUID]int) (*order.Order, error) {
	return m.submitOrderFunc(ctx, serviceID, deliveryDate, quantities)
}

func (m *mockOrderService) OrderForService(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error) {
	return m.orderForServiceFunc(ctx, serviceID, deliveryDate)
}

func (m *mockOrderService) OrdersForCycle(ctx context.Context, deliveryDate time.Time) ([]order.Order, error) {
	return m.ordersForCycleFunc(ctx, deliveryDate)
}

func (m *mockOrderService) ValidateOrders(ctx context.Context, orderIDs []uuid.UUID) error {
	return m.validateOrdersFunc(ctx, orderIDs)
}

func (m *mockOrderService) WeeklyAverages(ctx context.Context, now time.Time) (map[uuid.UUID]float64, error) {
	return m.weeklyAveragesFunc(ctx, now)
}

func fixedClock() time.Time {
	return time.Date(2025, 4, 14, 9, 0, 0, 0, time.UTC) // Monday
}

func TestOrderHandler_GetCycle(t *testing.T) {
	handler := NewOrderHandlerWithClock(&mockOrderService{}, fixedClock)
	r := chi.NewRouter()
	r.Get("/cycle", handler.GetCycle)

	req := httptest.NewRequest(http.MethodGet, "/cycle", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"delivery_date":"2025-04-16","previous_delivery_date":"2025-04-09"}`, w.Body.String())
}

func TestOrderHandler_SubmitOrder(t *testing.T) {
	serviceID := "11111111-1111-1111-1111-111111111111"
	itemID := "aaaaaaaa-0000-0000-0000-000000000001"

	tests := []struct {
		name           string
		body           string
		submitOrder    func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time, quantities map[uuid.UUID]int) (*order.Order, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: `{"service_id":"` + serviceID + `","delivery_date":"2025-04-16","items":[{"item_id":"` + itemID + `","quantity":3}]}`,
			submitOrder: func(ctx context.Context, sid uuid.UUID, date time.Time, quantities map[uuid.UUID]int) (*order.Order, error) {
				assert.Equal(t, serviceID, sid.String())
				assert.Equal(t, "2025-04-16", date.Format("2006-01-02"))
				assert.Equal(t, map[uuid.UUID]int{uuid.Must(uuid.FromString(itemID)): 3}, quantities)
				return &order.Order{ServiceID: sid, DeliveryDate: date, Status: order.StatusPending}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "empty_order",
			body: `{"service_id":"` + serviceID + `","delivery_date":"2025-04-16","items":[]}`,
			submitOrder: func(ctx context.Context, sid uuid.UUID, date time.Time, quantities map[uuid.UUID]int) (*order.Order, error) {
				return nil, order.ErrEmptyOrder
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "cycle_closed",
			body: `{"service_id":"` + serviceID + `","delivery_date":"2025-04-16","items":[{"item_id":"` + itemID + `","quantity":3}]}`,
			submitOrder: func(ctx context.Context, sid uuid.UUID, date time.Time, quantities map[uuid.UUID]int) (*order.Order, error) {
				return nil, order.ErrCycleClosed
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid_json",
			body:           `{invalid json}`,
			submitOrder:    nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_date",
			body:           `{"service_id":"` + serviceID + `","delivery_date":"16/04/2025","items":[]}`,
			submitOrder:    nil,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockOrderService{submitOrderFunc: tt.submitOrder}
			handler := NewOrderHandlerWithClock(mockSvc, fixedClock)
			r := chi.NewRouter()
			r.Post("/orders", handler.SubmitOrder)

			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestOrderHandler_SubmitOrder_DefaultsToCurrentCycle(t *testing.T) {
	var gotDate time.Time
	mockSvc := &mockOrderService{
		submitOrderFunc: func(ctx context.Context, sid uuid.UUID, date time.Time, quantities map[uuid.UUID]int) (*order.Order, error) {
			gotDate = date
			return &order.Order{ServiceID: sid, DeliveryDate: date, Status: order.StatusPending}, nil
		},
	}
	handler := NewOrderHandlerWithClock(mockSvc, fixedClock)
	r := chi.NewRouter()
	r.Post("/orders", handler.SubmitOrder)

	body := `{"service_id":"11111111-1111-1111-1111-111111111111","items":[{"item_id":"aaaaaaaa-0000-0000-0000-000000000001","quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-04-16", gotDate.Format("2006-01-02"))
}

func TestOrderHandler_GetServiceOrder_NotFound(t *testing.T) {
	mockSvc := &mockOrderService{
		orderForServiceFunc: func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
	}
	handler := NewOrderHandlerWithClock(mockSvc, fixedClock)
	r := chi.NewRouter()
	r.Get("/services/{id}/order", handler.GetServiceOrder)

	req := httptest.NewRequest(http.MethodGet, "/services/11111111-1111-1111-1111-111111111111/order", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderHandler_ValidateOrders(t *testing.T) {
	orderID := "99999999-9999-9999-9999-999999999999"

	tests := []struct {
		name           string
		body           string
		validateOrders func(ctx context.Context, orderIDs []uuid.UUID) error
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success",
			body: `{"order_ids":["` + orderID + `"]}`,
			validateOrders: func(ctx context.Context, orderIDs []uuid.UUID) error {
				assert.Len(t, orderIDs, 1)
				return nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true}`,
		},
		{
			name: "nothing_to_validate",
			body: `{"order_ids":[]}`,
			validateOrders: func(ctx context.Context, orderIDs []uuid.UUID) error {
				return order.ErrNothingToValidate
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "transaction_failure",
			body: `{"order_ids":["` + orderID + `"]}`,
			validateOrders: func(ctx context.Context, orderIDs []uuid.UUID) error {
				return order.ErrTransactionFailure
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "invalid_json",
			body:           `{invalid}`,
			validateOrders: nil,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockOrderService{validateOrdersFunc: tt.validateOrders}
			handler := NewOrderHandlerWithClock(mockSvc, fixedClock)
			r := chi.NewRouter()
			r.Post("/orders/validate", handler.ValidateOrders)

			req := httptest.NewRequest(http.MethodPost, "/orders/validate", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestOrderHandler_ConsumptionAverages(t *testing.T) {
	itemID := uuid.Must(uuid.FromString("aaaaaaaa-0000-0000-0000-000000000001"))
	mockSvc := &mockOrderService{
		weeklyAveragesFunc: func(ctx context.Context, now time.Time) (map[uuid.UUID]float64, error) {
			return map[uuid.UUID]float64{itemID: 2.5}, nil
		},
	}
	handler := NewOrderHandlerWithClock(mockSvc, fixedClock)
	r := chi.NewRouter()
	r.Get("/consumption/averages", handler.ConsumptionAverages)

	req := httptest.NewRequest(http.MethodGet, "/consumption/averages", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"aaaaaaaa-0000-0000-0000-000000000001":2.5}`, w.Body.String())
}
