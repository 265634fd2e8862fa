package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trialkart/checkout-api/internal/domain/cart"
	"github.com/trialkart/checkout-api/internal/domain/pricing"
	"github.com/trialkart/checkout-api/internal/domain/shipping"
	"github.com/trialkart/checkout-api/pkg/retry"
)

// Sentinel errors for order placement.
var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrMissingAddress = errors.New("shipping address required")
)

// CreateFailedError indicates the persistence collaborator kept rejecting
// the order after the bounded retries were exhausted. The cart is left
// intact so the shopper can retry without losing line items.
type CreateFailedError struct {
	OrderID string
	Err     error
}

func (e *CreateFailedError) Error() string {
	return "creating order " + e.OrderID + ": " + e.Err.Error()
}

func (e *CreateFailedError) Unwrap() error { return e.Err }

// PlaceRequest holds the input for placing an order. Totals must be the
// already-composed figures the shopper confirmed on the payment screen;
// Place persists them as-is rather than recomputing from live prices.
type PlaceRequest struct {
	UserID          string
	Cart            *cart.Cart
	Totals          pricing.Totals
	ShippingAddress Address
}

// Service encapsulates order placement and retrieval.
type Service struct {
	orders Repository
	policy retry.Policy
	now    func() time.Time
}

// NewService creates an order Service. The retry policy wraps every write
// to the orders repository.
func NewService(orders Repository, policy retry.Policy) *Service {
	return &Service{
		orders: orders,
		policy: policy,
		now:    time.Now,
	}
}

// Place freezes the cart's line items with the prices actually charged,
// persists the order with the composed grand total, and clears the cart.
// The cart is cleared only after the write succeeds: a failed creation
// leaves every line item in place for a retry.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*Order, error) {
	items := req.Cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	if req.ShippingAddress.Pincode == "" {
		return nil, ErrMissingAddress
	}
	if !shipping.ValidPincode(req.ShippingAddress.Pincode) {
		return nil, errors.Wrap(shipping.ErrInvalidPincode, "shipping address")
	}

	frozen := make([]Item, len(items))
	pureTrial := true
	for i, li := range items {
		price := li.UnitPrice
		if li.Mode == cart.ModeTrial {
			price = decimal.Zero
		} else {
			pureTrial = false
		}
		frozen[i] = Item{
			ProductID: li.ProductID,
			Name:      li.Name,
			Price:     price,
			MRP:       li.MRP,
			Quantity:  li.Quantity,
			Mode:      li.Mode,
		}
	}

	o := &Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		Items:           frozen,
		Total:           req.Totals.GrandTotal.Round(2),
		Status:          StatusProcessing,
		ShippingAddress: req.ShippingAddress,
		IsTrialOrder:    pureTrial,
		PlacedAt:        s.now(),
	}

	err := s.policy.Do(ctx, func(ctx context.Context) error {
		return s.orders.Create(ctx, o)
	})
	if err != nil {
		return nil, &CreateFailedError{OrderID: o.ID, Err: err}
	}

	req.Cart.Clear()
	return o, nil
}

// Get returns one of the user's orders by ID. Orders belonging to other
// users are reported as not found.
func (s *Service) Get(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrNotFound
	}
	return o, nil
}

// History returns the user's orders, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}
