package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	SubmitOrder(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time, quantities map[uuid.UUID]int) (*Order, error)
	OrderForService(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*Order, error)
	OrdersForCycle(ctx context.Context, deliveryDate time.Time) ([]Order, error)
	ValidateOrders(ctx context.Context, orderIDs []uuid.UUID) error
	WeeklyAverages(ctx context.Context, now time.Time) (map[uuid.UUID]float64, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// SubmitOrder persists a service's order for a cycle, replacing any earlier
// submission wholesale. Zero and negative quantities are dropped before the
// empty check. One validated order anywhere in the cycle freezes it for
// every service: holders of a pending order keep it readable but can no
// longer change it. Stock is never touched here.
func (s *service) SubmitOrder(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time, quantities map[uuid.UUID]int) (*Order, error) {
	if serviceID == uuid.Nil {
		return nil, errors.New("service: service id is required")
	}

	items := make([]OrderItem, 0, len(quantities))
	for itemID, quantity := range quantities {
		if quantity <= 0 {
			continue
		}
		items = append(items, OrderItem{ItemID: itemID, Quantity: quantity})
	}
	if len(items) == 0 {
		log.Warn().Stringer("service_id", serviceID).Msg("service: rejected submission with no positive quantities")
		return nil, ErrEmptyOrder
	}

	existing, err := s.repo.GetByServiceAndDate(ctx, serviceID, deliveryDate)
	if err != nil && !errors.Is(err, ErrOrderNotFound) {
		log.Error().Err(err).Stringer("service_id", serviceID).Msg("service: failed to fetch existing order")
		return nil, fmt.Errorf("service: failed to fetch existing order: %w", err)
	}
	if existing != nil && existing.Status == StatusValidated {
		log.Warn().Stringer("service_id", serviceID).Stringer("order_id", existing.ID).Msg("service: rejected resubmission of validated order")
		return nil, ErrCycleClosed
	}

	closed, err := s.repo.CycleValidated(ctx, deliveryDate)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to check cycle status")
		return nil, fmt.Errorf("service: failed to check cycle status: %w", err)
	}
	if closed {
		log.Warn().Stringer("service_id", serviceID).Time("delivery_date", deliveryDate).Msg("service: rejected submission for closed cycle")
		return nil, ErrCycleClosed
	}

	persisted, err := s.repo.Upsert(ctx, serviceID, deliveryDate, items)
	if err != nil {
		log.Error().Err(err).Stringer("service_id", serviceID).Msg("service: failed to persist order")
		return nil, fmt.Errorf("service: failed to persist order: %w", err)
	}

	log.Info().
		Stringer("order_id", persisted.ID).
		Stringer("service_id", serviceID).
		Int("line_count", len(persisted.Items)).
		Msg("service: order submitted")

	return persisted, nil
}

func (s *service) OrderForService(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*Order, error) {
	o, err := s.repo.GetByServiceAndDate(ctx, serviceID, deliveryDate)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("service_id", serviceID).Msg("service: failed to fetch order")
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}

	return o, nil
}

func (s *service) OrdersForCycle(ctx context.Context, deliveryDate time.Time) ([]Order, error) {
	orders, err := s.repo.ListByDeliveryDate(ctx, deliveryDate)
	if err != nil {
		log.Error().Err(err).Time("delivery_date", deliveryDate).Msg("service: failed to fetch cycle orders")
		return nil, fmt.Errorf("service: failed to fetch cycle orders: %w", err)
	}

	return orders, nil
}

// ValidateOrders runs the all-or-nothing validation transaction over the
// given pending orders. Calling it twice with the same ids double-deducts
// by design; well-behaved callers re-select pending orders each time and
// the pending precondition inside the transaction is the only guard.
func (s *service) ValidateOrders(ctx context.Context, orderIDs []uuid.UUID) error {
	if len(orderIDs) == 0 {
		return ErrNothingToValidate
	}

	if err := s.repo.ValidateAndDeduct(ctx, orderIDs); err != nil {
		log.Error().Err(err).Int("order_count", len(orderIDs)).Msg("service: validation failed, stock unchanged")
		return fmt.Errorf("service: failed to validate orders: %w", err)
	}

	log.Info().Int("order_count", len(orderIDs)).Msg("service: orders validated and stock deducted")
	return nil
}

// WeeklyAverages recomputes average weekly consumption per item from the
// validated-order history. Nothing is cached; every call reads fresh.
func (s *service) WeeklyAverages(ctx context.Context, now time.Time) (map[uuid.UUID]float64, error) {
	since := now.AddDate(0, 0, -HistoryWindowWeeks*7)

	lines, err := s.repo.ConsumptionSince(ctx, since)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch consumption history")
		return nil, fmt.Errorf("service: failed to fetch consumption history: %w", err)
	}

	return WeeklyAverages(lines, HistoryWindowWeeks), nil
}
