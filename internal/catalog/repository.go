package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrItemNotFound     = errors.New("item not found")
	ErrServiceNotFound  = errors.New("service not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type Repository interface {
	ListServices(ctx context.Context) ([]Service, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListItems(ctx context.Context) ([]Item, error)
	GetItemByID(ctx context.Context, id uuid.UUID) (*Item, error)
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM services ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query services: %w", err)
	}
	defer rows.Close()

	services := make([]Service, 0)
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("repository: failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating services: %w", err)
	}

	return services, nil
}

func (r *postgresRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	var s Service
	err := r.db.QueryRow(ctx, `SELECT id, name FROM services WHERE id = $1`, id).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("repository: failed to select service %s: %w", id, err)
	}

	return &s, nil
}

func (r *postgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, sub_category FROM categories ORDER BY name, sub_category`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.SubCategory); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating categories: %w", err)
	}

	return categories, nil
}

// ListItems returns all items with their category and assignment rows
// attached. Items and assignments are fetched in two queries and joined in
// memory, keyed by item id.
func (r *postgresRepository) ListItems(ctx context.Context) ([]Item, error) {
	query := `
		SELECT i.id, i.name, i.category_id, i.stock_quantity, i.alert_threshold,
		       c.id, c.name, c.sub_category
		FROM items i
		JOIN categories c ON c.id = i.category_id
		ORDER BY i.name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	itemsByID := make(map[uuid.UUID]*Item)
	for rows.Next() {
		var (
			item Item
			cat  Category
		)
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.CategoryID,
			&item.StockQuantity,
			&item.AlertThreshold,
			&cat.ID,
			&cat.Name,
			&cat.SubCategory,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan item: %w", err)
		}
		item.Category = &cat
		item.AssignedServices = make([]uuid.UUID, 0)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating items: %w", err)
	}

	for i := range items {
		itemsByID[items[i].ID] = &items[i]
	}

	assignRows, err := r.db.Query(ctx, `SELECT item_id, service_id FROM item_service_assignments`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query item assignments: %w", err)
	}
	defer assignRows.Close()

	for assignRows.Next() {
		var itemID, serviceID uuid.UUID
		if err := assignRows.Scan(&itemID, &serviceID); err != nil {
			return nil, fmt.Errorf("repository: failed to scan item assignment: %w", err)
		}
		if item, ok := itemsByID[itemID]; ok {
			item.AssignedServices = append(item.AssignedServices, serviceID)
		}
	}
	if err := assignRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating item assignments: %w", err)
	}

	return items, nil
}

func (r *postgresRepository) GetItemByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := `
		SELECT id, name, category_id, stock_quantity, alert_threshold
		FROM items
		WHERE id = $1
	`

	var item Item
	err := r.db.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.CategoryID,
		&item.StockQuantity,
		&item.AlertThreshold,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("repository: failed to select item %s: %w", id, err)
	}

	item.AssignedServices = make([]uuid.UUID, 0)
	assignRows, err := r.db.Query(ctx, `SELECT service_id FROM item_service_assignments WHERE item_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query assignments for item %s: %w", id, err)
	}
	defer assignRows.Close()

	for assignRows.Next() {
		var serviceID uuid.UUID
		if err := assignRows.Scan(&serviceID); err != nil {
			return nil, fmt.Errorf("repository: failed to scan assignment for item %s: %w", id, err)
		}
		item.AssignedServices = append(item.AssignedServices, serviceID)
	}
	if err := assignRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating assignments for item %s: %w", id, err)
	}

	return &item, nil
}

func (r *postgresRepository) CreateItem(ctx context.Context, item *Item) (err error) {
	if item.ID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate item ID: %w", genErr)
		}
		item.ID = genID
	}

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("item_id", item.ID).Msg("repository: failed to rollback item creation")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit item creation: %w", commitErr)
		}
	}()

	query := `
		INSERT INTO items (id, name, category_id, stock_quantity, alert_threshold)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(ctx, query, item.ID, item.Name, item.CategoryID, item.StockQuantity, item.AlertThreshold)
	if err != nil {
		return fmt.Errorf("repository: failed to insert item: %w", err)
	}

	if err = insertAssignments(ctx, tx, item.ID, item.AssignedServices); err != nil {
		return err
	}

	return nil
}

// UpdateItem overwrites the item row and replaces its assignment rows
// wholesale, mirroring the delete-then-insert contract used for order lines.
func (r *postgresRepository) UpdateItem(ctx context.Context, item *Item) (err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("item_id", item.ID).Msg("repository: failed to rollback item update")
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("repository: failed to commit item update: %w", commitErr)
		}
	}()

	query := `
		UPDATE items
		SET name = $1, category_id = $2, stock_quantity = $3, alert_threshold = $4
		WHERE id = $5
	`
	cmdTag, err := tx.Exec(ctx, query, item.Name, item.CategoryID, item.StockQuantity, item.AlertThreshold, item.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update item %s: %w", item.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		err = ErrItemNotFound
		return err
	}

	_, err = tx.Exec(ctx, `DELETE FROM item_service_assignments WHERE item_id = $1`, item.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete assignments for item %s: %w", item.ID, err)
	}

	if err = insertAssignments(ctx, tx, item.ID, item.AssignedServices); err != nil {
		return err
	}

	return nil
}

func (r *postgresRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete item %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrItemNotFound
	}

	return nil
}

func insertAssignments(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, serviceIDs []uuid.UUID) error {
	for _, serviceID := range serviceIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO item_service_assignments (item_id, service_id) VALUES ($1, $2)`,
			itemID, serviceID,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert assignment (%s, %s): %w", itemID, serviceID, err)
		}
	}
	return nil
}
