package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// Catalog is the business surface over the item catalog: reference reads,
// item administration, and per-service availability resolution.
type Catalog interface {
	Services(ctx context.Context) ([]Service, error)
	Categories(ctx context.Context) ([]Category, error)
	Items(ctx context.Context) ([]Item, error)
	Item(ctx context.Context, id uuid.UUID) (*Item, error)
	OrderableItems(ctx context.Context, serviceID uuid.UUID) ([]Item, error)
	LowStockItems(ctx context.Context) ([]Item, error)
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	repo Repository
}

func NewCatalog(repo Repository) Catalog {
	return &catalogService{repo: repo}
}

func (s *catalogService) Services(ctx context.Context) ([]Service, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch services")
		return nil, fmt.Errorf("service: failed to fetch services: %w", err)
	}

	return services, nil
}

func (s *catalogService) Categories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch categories")
		return nil, fmt.Errorf("service: failed to fetch categories: %w", err)
	}

	return categories, nil
}

func (s *catalogService) Items(ctx context.Context) ([]Item, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch items")
		return nil, fmt.Errorf("service: failed to fetch items: %w", err)
	}

	return items, nil
}

func (s *catalogService) Item(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", id).Msg("service: failed to fetch item")
		return nil, fmt.Errorf("service: failed to fetch item: %w", err)
	}

	return item, nil
}

// OrderableItems returns the subset of the catalog the given service may
// order: items with no assignment rows plus items explicitly assigned to it.
func (s *catalogService) OrderableItems(ctx context.Context, serviceID uuid.UUID) ([]Item, error) {
	if _, err := s.repo.GetServiceByID(ctx, serviceID); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch service %s: %w", serviceID, err)
	}

	items, err := s.repo.ListItems(ctx)
	if err != nil {
		log.Error().Err(err).Stringer("service_id", serviceID).Msg("service: failed to fetch items for availability")
		return nil, fmt.Errorf("service: failed to fetch items: %w", err)
	}

	orderable := make([]Item, 0, len(items))
	for _, item := range items {
		if AvailabilityOf(item).Allows(serviceID) {
			orderable = append(orderable, item)
		}
	}

	return orderable, nil
}

func (s *catalogService) LowStockItems(ctx context.Context) ([]Item, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch items for low stock report")
		return nil, fmt.Errorf("service: failed to fetch items: %w", err)
	}

	low := make([]Item, 0)
	for _, item := range items {
		if item.LowStock() {
			low = append(low, item)
		}
	}

	return low, nil
}

func (s *catalogService) CreateItem(ctx context.Context, item *Item) error {
	if item.Name == "" {
		return errors.New("service: item name is required")
	}
	if item.CategoryID == uuid.Nil {
		return errors.New("service: item category is required")
	}
	if item.StockQuantity < 0 {
		return fmt.Errorf("service: stock quantity must be non-negative, got %d", item.StockQuantity)
	}

	if err := s.repo.CreateItem(ctx, item); err != nil {
		log.Error().Err(err).Str("item_name", item.Name).Msg("service: failed to create item")
		return fmt.Errorf("service: failed to create item: %w", err)
	}

	log.Info().Stringer("item_id", item.ID).Str("item_name", item.Name).Msg("service: item created")
	return nil
}

func (s *catalogService) UpdateItem(ctx context.Context, item *Item) error {
	if item.ID == uuid.Nil {
		return errors.New("service: item id is required")
	}
	if item.Name == "" {
		return errors.New("service: item name is required")
	}
	if item.StockQuantity < 0 {
		return fmt.Errorf("service: stock quantity must be non-negative, got %d", item.StockQuantity)
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", item.ID).Msg("service: failed to update item")
		return fmt.Errorf("service: failed to update item: %w", err)
	}

	log.Info().Stringer("item_id", item.ID).Msg("service: item updated")
	return nil
}

func (s *catalogService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		log.Error().Err(err).Stringer("item_id", id).Msg("service: failed to delete item")
		return fmt.Errorf("service: failed to delete item: %w", err)
	}

	log.Info().Stringer("item_id", id).Msg("service: item deleted")
	return nil
}
