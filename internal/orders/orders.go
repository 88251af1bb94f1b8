// Package orders exposes the order entity owned by the external fulfillment
// workflow. This subsystem only reads orders: the commission-paid flag guards
// crediting, and the caller is responsible for setting it after invoking all
// three credit legs.
package orders

import (
	"context"
	"errors"
)

// ErrOrderNotFound indicates the sale reference matches no order.
var ErrOrderNotFound = errors.New("order not found")

// Order is the externally-owned sale record referenced by a crediting call.
type Order struct {
	ID              string
	SellerID        string
	Quantity        int64
	ProductCategory string
	PickupCategory  string // category of the linked stock pickup, if any
	CommissionPaid  bool
}

// Category returns the device category governing the commission rate. The
// stock-pickup category takes precedence over the direct product reference.
func (o Order) Category() string {
	if o.PickupCategory != "" {
		return o.PickupCategory
	}
	return o.ProductCategory
}

// Reader provides read access to orders.
type Reader interface {
	Get(ctx context.Context, saleRef string) (Order, error)
}
