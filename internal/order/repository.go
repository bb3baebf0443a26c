package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrEmptyOrder         = errors.New("order contains no items")
	ErrCycleClosed        = errors.New("order cycle is closed")
	ErrNothingToValidate  = errors.New("no pending orders to validate")
	ErrTransactionFailure = errors.New("transaction failed, stock unchanged")
)

type Repository interface {
	GetByServiceAndDate(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*Order, error)
	ListByDeliveryDate(ctx context.Context, deliveryDate time.Time) ([]Order, error)
	CycleValidated(ctx context.Context, deliveryDate time.Time) (bool, error)
	Upsert(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time, items []OrderItem) (*Order, error)
	ValidateAndDeduct(ctx context.Context, orderIDs []uuid.UUID) error
	ConsumptionSince(ctx context.Context, since time.Time) ([]ConsumptionLine, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetByServiceAndDate(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time) (*Order, error) {
	query := `
		SELECT id, service_id, delivery_date, status, created_at, updated_at
		FROM orders
		WHERE service_id = $1 AND delivery_date = $2::date
	`

	var o Order
	err := r.db.QueryRow(ctx, query, serviceID, deliveryDate).Scan(
		&o.ID,
		&o.ServiceID,
		&o.DeliveryDate,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order for service %s: %w", serviceID, err)
	}

	items, err := r.loadItems(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	if o.Items == nil {
		o.Items = make([]OrderItem, 0)
	}

	return &o, nil
}

func (r *postgresRepository) ListByDeliveryDate(ctx context.Context, deliveryDate time.Time) ([]Order, error) {
	query := `
		SELECT id, service_id, delivery_date, status, created_at, updated_at
		FROM orders
		WHERE delivery_date = $1::date
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, deliveryDate)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for %s: %w", deliveryDate.Format("2006-01-02"), err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	var orderIDs []uuid.UUID
	for rows.Next() {
		var o Order
		err := rows.Scan(&o.ID, &o.ServiceID, &o.DeliveryDate, &o.Status, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.Items = make([]OrderItem, 0)
		orders = append(orders, o)
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if lines, ok := items[orders[i].ID]; ok {
			orders[i].Items = lines
		}
	}

	return orders, nil
}

// CycleValidated reports whether any order for the given delivery date has
// already been validated. One validated order closes the cycle for
// services that have not ordered yet.
func (r *postgresRepository) CycleValidated(ctx context.Context, deliveryDate time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE delivery_date = $1::date AND status = $2)`,
		deliveryDate, StatusValidated,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check cycle status: %w", err)
	}

	return exists, nil
}

// Upsert persists a service's order for a cycle: it creates the order row
// on first submission, and on resubmission deletes every existing line and
// inserts the new set. The full desired state comes in; nothing is merged.
func (r *postgresRepository) Upsert(ctx context.Context, serviceID uuid.UUID, deliveryDate time.Time, items []OrderItem) (persisted *Order, err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("service_id", serviceID).Msg("repository: failed to rollback order upsert")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			persisted = nil
			err = fmt.Errorf("repository: failed to commit order upsert: %w", commitErr)
		}
	}()

	var o Order
	err = tx.QueryRow(ctx,
		`SELECT id, service_id, delivery_date, status, created_at, updated_at
		 FROM orders
		 WHERE service_id = $1 AND delivery_date = $2::date
		 FOR UPDATE`,
		serviceID, deliveryDate,
	).Scan(&o.ID, &o.ServiceID, &o.DeliveryDate, &o.Status, &o.CreatedAt, &o.UpdatedAt)

	switch {
	case err == nil:
		// Recheck under the row lock: a validation that landed between the
		// caller's pre-check and this transaction already deducted stock for
		// the old lines, so they must not be rewritten.
		if o.Status != StatusPending {
			err = fmt.Errorf("repository: order %s is already %s: %w", o.ID, o.Status, ErrCycleClosed)
			return nil, err
		}

		_, err = tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to delete lines of order %s: %w", o.ID, err)
		}

		o.UpdatedAt = time.Now().UTC()
		_, err = tx.Exec(ctx, `UPDATE orders SET updated_at = $1 WHERE id = $2`, o.UpdatedAt, o.ID)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to touch order %s: %w", o.ID, err)
		}

	case errors.Is(err, pgx.ErrNoRows):
		orderID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order ID: %w", genErr)
			return nil, err
		}

		now := time.Now().UTC()
		o = Order{
			ID:           orderID,
			ServiceID:    serviceID,
			DeliveryDate: deliveryDate,
			Status:       StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO orders (id, service_id, delivery_date, status, created_at, updated_at)
			 VALUES ($1, $2, $3::date, $4, $5, $6)`,
			o.ID, o.ServiceID, o.DeliveryDate, o.Status, o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to insert order: %w", err)
		}

	default:
		return nil, fmt.Errorf("repository: failed to select order for upsert: %w", err)
	}

	o.Items = make([]OrderItem, 0, len(items))
	for _, line := range items {
		lineID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
			return nil, err
		}
		line.ID = lineID
		line.OrderID = o.ID

		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, item_id, quantity) VALUES ($1, $2, $3, $4)`,
			line.ID, line.OrderID, line.ItemID, line.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to insert line for order %s: %w", o.ID, err)
		}
		o.Items = append(o.Items, line)
	}

	return &o, nil
}

// ValidateAndDeduct flips the targeted orders to validated and decrements
// item stock by the aggregated line quantities, all inside one transaction.
// A partial application is never observable: any failure rolls the whole
// attempt back and stock stays as it was. Stock is not floored at zero.
func (r *postgresRepository) ValidateAndDeduct(ctx context.Context, orderIDs []uuid.UUID) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Msg("repository: failed to rollback validation")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			log.Error().Err(commitErr).Msg("repository: failed to commit validation")
			err = fmt.Errorf("%w: %v", ErrTransactionFailure, commitErr)
		}
	}()

	// Lock the targeted orders first so a concurrent submission cannot
	// rewrite their lines between aggregation and deduction.
	rows, err := tx.Query(ctx,
		`SELECT id, status FROM orders WHERE id = ANY($1) FOR UPDATE`,
		orderIDs,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to lock orders for validation: %w", err)
	}

	statuses := make(map[uuid.UUID]Status, len(orderIDs))
	for rows.Next() {
		var (
			id     uuid.UUID
			status Status
		)
		if err = rows.Scan(&id, &status); err != nil {
			rows.Close()
			return fmt.Errorf("repository: failed to scan order status: %w", err)
		}
		statuses[id] = status
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return fmt.Errorf("repository: error iterating order statuses: %w", err)
	}

	for _, id := range orderIDs {
		status, ok := statuses[id]
		if !ok {
			err = fmt.Errorf("repository: order %s: %w", id, ErrOrderNotFound)
			return err
		}
		if status != StatusPending {
			err = fmt.Errorf("repository: order %s is already %s: %w", id, status, ErrNothingToValidate)
			return err
		}
	}

	deductQuery := `
		UPDATE items
		SET stock_quantity = items.stock_quantity - demand.total
		FROM (
			SELECT item_id, SUM(quantity)::int AS total
			FROM order_items
			WHERE order_id = ANY($1)
			GROUP BY item_id
		) AS demand
		WHERE items.id = demand.item_id
	`
	_, err = tx.Exec(ctx, deductQuery, orderIDs)
	if err != nil {
		return fmt.Errorf("repository: failed to deduct stock: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = ANY($3)`,
		StatusValidated, time.Now().UTC(), orderIDs,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to mark orders validated: %w", err)
	}

	return nil
}

// ConsumptionSince returns every line of every validated order delivered on
// or after the given date. Callers aggregate; this stays a flat read.
func (r *postgresRepository) ConsumptionSince(ctx context.Context, since time.Time) ([]ConsumptionLine, error) {
	query := `
		SELECT oi.item_id, oi.quantity
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = $1 AND o.delivery_date >= $2::date
	`

	rows, err := r.db.Query(ctx, query, StatusValidated, since)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query consumption history: %w", err)
	}
	defer rows.Close()

	lines := make([]ConsumptionLine, 0)
	for rows.Next() {
		var line ConsumptionLine
		if err := rows.Scan(&line.ItemID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("repository: failed to scan consumption line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating consumption history: %w", err)
	}

	return lines, nil
}

func (r *postgresRepository) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]OrderItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, order_id, item_id, quantity FROM order_items WHERE order_id = ANY($1)`,
		orderIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]OrderItem)
	for rows.Next() {
		var line OrderItem
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ItemID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		items[line.OrderID] = append(items[line.OrderID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	return items, nil
}
