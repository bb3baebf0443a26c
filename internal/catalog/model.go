package catalog

import "github.com/gofrs/uuid"

// Service is an ordering department. Created by an administrator, never
// mutated by the workflow.
type Service struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Name string    `json:"name" db:"name"`
}

// Category groups items for display.
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	SubCategory string    `json:"sub_category" db:"sub_category"`
}

type Item struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	CategoryID     uuid.UUID `json:"category_id" db:"category_id"`
	StockQuantity  int       `json:"stock_quantity" db:"stock_quantity"`
	AlertThreshold *int      `json:"alert_threshold" db:"alert_threshold"`
	Category       *Category `json:"category,omitempty" db:"-"`
	// AssignedServices restricts who may order the item. Empty means
	// orderable by every service, not by none.
	AssignedServices []uuid.UUID `json:"assigned_services" db:"-"`
}

// LowStock reports whether the item sits at or under its alert threshold.
// Items without a threshold are never low.
func (i Item) LowStock() bool {
	return i.AlertThreshold != nil && i.StockQuantity <= *i.AlertThreshold
}
