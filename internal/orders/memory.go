package orders

import (
	"context"
	"sync"
)

// MemoryReader is an in-memory order source for tests.
type MemoryReader struct {
	mu     sync.RWMutex
	orders map[string]Order
}

// NewMemoryReader builds an empty in-memory order reader.
func NewMemoryReader() *MemoryReader {
	return &MemoryReader{orders: make(map[string]Order)}
}

// Get fetches one order by sale reference.
func (r *MemoryReader) Get(_ context.Context, saleRef string) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[saleRef]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

// Put stores an order. Test helper standing in for the external workflow.
func (r *MemoryReader) Put(o Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
}

// MarkPaid flips the commission-paid flag, as the fulfillment caller would
// after invoking all three credit legs.
func (r *MemoryReader) MarkPaid(saleRef string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[saleRef]; ok {
		o.CommissionPaid = true
		r.orders[saleRef] = o
	}
}
