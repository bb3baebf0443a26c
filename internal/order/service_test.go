package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/order"
)

type mockOrderRepository struct {
	getByServiceAndDateFunc func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error)
	listByDeliveryDateFunc  func(ctx context.Context, deliveryDate time.Time) ([]order.Order, error)
	cycleValidatedFunc      func(ctx context.Context, deliveryDate time.Time) (bool, error)
	upsertFunc              func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time, items []order.OrderItem) (*order.Order, error)
	validateAndDeductFunc   func(ctx context.Context, orderIDs []uuid.UUID) error
	consumptionSinceFunc    func(ctx context.Context, since time.Time) ([]order.ConsumptionLine, error)
}

func (m *mockOrderRepository) GetByServiceAndDate(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error) {
	return m.getByServiceAndDateFunc(ctx, serviceID, deliveryDate)
}

func (m *mockOrderRepository) ListByDeliveryDate(ctx context.Context, deliveryDate time.Time) ([]order.Order, error) {
	return m.listByDeliveryDateFunc(ctx, deliveryDate)
}

func (m *mockOrderRepository) CycleValidated(ctx context.Context, deliveryDate time.Time) (bool, error) {
	return m.cycleValidatedFunc(ctx, deliveryDate)
}

func (m *mockOrderRepository) Upsert(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time, items []order.OrderItem) (*order.Order, error) {
	return m.upsertFunc(ctx, serviceID, deliveryDate, items)
}

func (m *mockOrderRepository) ValidateAndDeduct(ctx context.Context, orderIDs []uuid.UUID) error {
	return m.validateAndDeductFunc(ctx, orderIDs)
}

func (m *mockOrderRepository) ConsumptionSince(ctx context.Context, since time.Time) ([]order.ConsumptionLine, error) {
	return m.consumptionSinceFunc(ctx, since)
}

var (
	kitchenID    = uuid.Must(uuid.FromString("11111111-1111-1111-1111-111111111111"))
	deliveryDate = time.Date(2025, 4, 16, 12, 0, 0, 0, time.UTC)
)

func echoUpsert(ctx context.Context, serviceID uuid.UUID, date time.Time, items []order.OrderItem) (*order.Order, error) {
	return &order.Order{
		ID:           uuid.Must(uuid.FromString("99999999-9999-9999-9999-999999999999")),
		ServiceID:    serviceID,
		DeliveryDate: date,
		Status:       order.StatusPending,
		Items:        items,
	}, nil
}

func TestService_SubmitOrder(t *testing.T) {
	tests := []struct {
		name           string
		quantities     map[uuid.UUID]int
		getExisting    func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error)
		cycleValidated func(ctx context.Context, deliveryDate time.Time) (bool, error)
		wantErrIs      error
		wantLineCount  int
	}{
		{
			name:       "empty_submission_rejected",
			quantities: map[uuid.UUID]int{},
			getExisting: func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error) {
				t.Fatal("repository must not be queried for an empty order")
				return nil, nil
			},
			wantErrIs: order.ErrEmptyOrder,
		},
		{
			name:       "zero_and_negative_quantities_do_not_count",
			quantities: map[uuid.UUID]int{itemX: 0, itemY: -3},
			getExisting: func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error) {
				t.Fatal("repository must not be queried for an empty order")
				return nil, nil
			},
			wantErrIs: order.ErrEmptyOrder,
		},
		{
			name:       "late_joiner_locked_out_of_closed_cycle",
			quantities: map[uuid.UUID]int{itemX: 2},
			getExisting: func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
			cycleValidated: func(ctx context.Context, deliveryDate time.Time) (bool, error) {
				return true, nil
			},
			wantErrIs: order.ErrCycleClosed,
		},
		{
			name:       "validated_own_order_cannot_be_resubmitted",
			quantities: map[uuid.UUID]int{itemX: 2},
			getExisting: func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error) {
				return &order.Order{ServiceID: serviceID, Status: order.StatusValidated}, nil
			},
			wantErrIs: order.ErrCycleClosed,
		},
		{
			name:       "first_submission_in_open_cycle",
			quantities: map[uuid.UUID]int{itemX: 2, itemY: 0, itemZ: 5},
			getExisting: func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
			cycleValidated: func(ctx context.Context, deliveryDate time.Time) (bool, error) {
				return false, nil
			},
			wantLineCount: 2,
		},
		{
			name:       "resubmission_of_pending_order_in_open_cycle",
			quantities: map[uuid.UUID]int{itemX: 9},
			getExisting: func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error) {
				return &order.Order{ServiceID: serviceID, Status: order.StatusPending}, nil
			},
			cycleValidated: func(ctx context.Context, deliveryDate time.Time) (bool, error) {
				return false, nil
			},
			wantLineCount: 1,
		},
		{
			name:       "pending_order_locked_once_cycle_validated",
			quantities: map[uuid.UUID]int{itemX: 1},
			getExisting: func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error) {
				return &order.Order{ServiceID: serviceID, Status: order.StatusPending}, nil
			},
			cycleValidated: func(ctx context.Context, deliveryDate time.Time) (bool, error) {
				return true, nil
			},
			wantErrIs: order.ErrCycleClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockOrderRepository{
				getByServiceAndDateFunc: tt.getExisting,
				cycleValidatedFunc:      tt.cycleValidated,
				upsertFunc:              echoUpsert,
			}
			svc := order.NewService(mockRepo)

			persisted, err := svc.SubmitOrder(context.Background(), kitchenID, deliveryDate, tt.quantities)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, persisted)
				return
			}

			assert.NoError(t, err)
			assert.Len(t, persisted.Items, tt.wantLineCount)
			for _, line := range persisted.Items {
				assert.Greater(t, line.Quantity, 0)
			}
		})
	}
}

func TestService_SubmitOrder_Idempotent(t *testing.T) {
	// The same quantity map must reach the repository as the same line set
	// both times; the replace semantics make the second call a no-op.
	var captured [][]order.OrderItem
	mockRepo := &mockOrderRepository{
		getByServiceAndDateFunc: func(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
		cycleValidatedFunc: func(ctx context.Context, deliveryDate time.Time) (bool, error) {
			return false, nil
		},
		upsertFunc: func(ctx context.Context, serviceID uuid.UUID, date time.Time, items []order.OrderItem) (*order.Order, error) {
			captured = append(captured, items)
			return echoUpsert(ctx, serviceID, date, items)
		},
	}
	svc := order.NewService(mockRepo)

	quantities := map[uuid.UUID]int{itemX: 3, itemY: 0, itemZ: 7}
	_, err := svc.SubmitOrder(context.Background(), kitchenID, deliveryDate, quantities)
	assert.NoError(t, err)
	_, err = svc.SubmitOrder(context.Background(), kitchenID, deliveryDate, quantities)
	assert.NoError(t, err)

	assert.Len(t, captured, 2)
	assert.ElementsMatch(t, captured[0], captured[1])
}

func TestService_ValidateOrders(t *testing.T) {
	orderA := uuid.Must(uuid.FromString("aaaaaaaa-1111-1111-1111-111111111111"))
	orderB := uuid.Must(uuid.FromString("bbbbbbbb-2222-2222-2222-222222222222"))

	t.Run("empty_set_rejected_without_repository_call", func(t *testing.T) {
		mockRepo := &mockOrderRepository{
			validateAndDeductFunc: func(ctx context.Context, orderIDs []uuid.UUID) error {
				t.Fatal("transaction must not run for an empty set")
				return nil
			},
		}
		svc := order.NewService(mockRepo)

		err := svc.ValidateOrders(context.Background(), nil)
		assert.ErrorIs(t, err, order.ErrNothingToValidate)
	})

	t.Run("passes_order_ids_through", func(t *testing.T) {
		var got []uuid.UUID
		mockRepo := &mockOrderRepository{
			validateAndDeductFunc: func(ctx context.Context, orderIDs []uuid.UUID) error {
				got = orderIDs
				return nil
			},
		}
		svc := order.NewService(mockRepo)

		err := svc.ValidateOrders(context.Background(), []uuid.UUID{orderA, orderB})
		assert.NoError(t, err)
		assert.Equal(t, []uuid.UUID{orderA, orderB}, got)
	})

	t.Run("transaction_failure_surfaces", func(t *testing.T) {
		mockRepo := &mockOrderRepository{
			validateAndDeductFunc: func(ctx context.Context, orderIDs []uuid.UUID) error {
				return order.ErrTransactionFailure
			},
		}
		svc := order.NewService(mockRepo)

		err := svc.ValidateOrders(context.Background(), []uuid.UUID{orderA})
		assert.ErrorIs(t, err, order.ErrTransactionFailure)
	})
}

func TestService_WeeklyAverages(t *testing.T) {
	now := time.Date(2025, 4, 14, 9, 0, 0, 0, time.UTC)

	var gotSince time.Time
	mockRepo := &mockOrderRepository{
		consumptionSinceFunc: func(ctx context.Context, since time.Time) ([]order.ConsumptionLine, error) {
			gotSince = since
			return []order.ConsumptionLine{
				{ItemID: itemX, Quantity: 10},
				{ItemID: itemX, Quantity: 10},
			}, nil
		},
	}
	svc := order.NewService(mockRepo)

	averages, err := svc.WeeklyAverages(context.Background(), now)
	assert.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -56), gotSince)
	assert.Equal(t, map[uuid.UUID]float64{itemX: 2.5}, averages)
}

func TestService_WeeklyAverages_RepositoryError(t *testing.T) {
	mockRepo := &mockOrderRepository{
		consumptionSinceFunc: func(ctx context.Context, since time.Time) ([]order.ConsumptionLine, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := order.NewService(mockRepo)

	_, err := svc.WeeklyAverages(context.Background(), time.Now())
	assert.Error(t, err)
}
