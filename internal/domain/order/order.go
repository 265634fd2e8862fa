package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/trialkart/checkout-api/internal/domain/cart"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the fulfilment state of an order. Only status transitions mutate
// an order after creation; the frozen pricing never changes.
type Status string

const (
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
	StatusReturned   Status = "Returned"
)

// Address is the shipping address snapshot stored on the order.
type Address struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone,omitempty"`
}

// Item is a frozen order line: the price actually charged at placement,
// decoupled from the live product price. Trial items are charged zero.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	MRP       decimal.Decimal `json:"mrp"`
	Quantity  int             `json:"quantity"`
	Mode      cart.Mode       `json:"mode"`
}

// Gross returns MRP * Quantity, the pre-discount line value shown on the
// invoice. Derived from the frozen MRP snapshot, never from live prices.
func (it Item) Gross() decimal.Decimal {
	return it.MRP.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// LineTotal returns the charged line amount.
func (it Item) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Discount returns the per-line discount: the gap between gross and the
// amount charged.
func (it Item) Discount() decimal.Decimal {
	return it.Gross().Sub(it.LineTotal())
}

// DeliveryInfo is optional delivery metadata attached once a courier picks
// up the order.
type DeliveryInfo struct {
	DeliveryPersonName string `json:"delivery_person_name"`
	Phone              string `json:"phone"`
}

// Order is the persisted result of checkout. Total is the composed grand
// total handed over at placement time; the invoice redisplays it without
// recomputation.
type Order struct {
	ID              string
	UserID          string
	Items           []Item
	Total           decimal.Decimal
	Status          Status
	ShippingAddress Address
	IsTrialOrder    bool
	PlacedAt        time.Time
	DeliveryInfo    *DeliveryInfo
}

// TotalDiscount sums the per-line discounts of the frozen items.
func (o *Order) TotalDiscount() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Discount())
	}
	return total
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}
