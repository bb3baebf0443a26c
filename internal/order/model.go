package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
)

func (s Status) String() string {
	return string(s)
}

// OrderItem is one line of an order. Lines are owned by their order and
// replaced wholesale on resubmission, never patched individually.
type OrderItem struct {
	ID       uuid.UUID `json:"id" db:"id"`
	OrderID  uuid.UUID `json:"order_id" db:"order_id"`
	ItemID   uuid.UUID `json:"item_id" db:"item_id"`
	Quantity int       `json:"quantity" db:"quantity"`
}

// Order is one service's order for one delivery cycle. At most one exists
// per (service, delivery date); status only ever moves pending → validated.
type Order struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	ServiceID    uuid.UUID   `json:"service_id" db:"service_id"`
	DeliveryDate time.Time   `json:"delivery_date" db:"delivery_date"`
	Status       Status      `json:"status" db:"status"`
	Items        []OrderItem `json:"order_items" db:"-"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}
