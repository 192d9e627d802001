// Package store keeps pending orders between order creation and payment
// verification. Entries live only in this process, so a client can neither
// read nor forge them, and they expire on their own.
package store

import (
	"fmt"
	"time"

	"checkout/internal/entity"
	"checkout/pkg/cache"
)

type PendingOrderStore struct {
	cache cache.Cache[string, *entity.PendingOrder]
}

func NewPendingOrderStore(c cache.Cache[string, *entity.PendingOrder]) *PendingOrderStore {
	return &PendingOrderStore{cache: c}
}

// Put stores a snapshot of order under receiptID for ttl. Live orders are
// never evicted to make room: when the store is full of unexpired orders
// the new one is refused with entity.ErrTooManyPendingOrders.
func (s *PendingOrderStore) Put(receiptID string, order *entity.PendingOrder, ttl time.Duration) error {
	if !s.cache.TryPut(receiptID, order.Clone(), ttl) {
		return fmt.Errorf("store.PendingOrderStore.Put: %d orders pending: %w",
			s.cache.Capacity(), entity.ErrTooManyPendingOrders)
	}
	return nil
}

// Get returns a copy of the pending order. A false result is the normal
// outcome for expired, consumed or unknown receipts.
func (s *PendingOrderStore) Get(receiptID string) (*entity.PendingOrder, bool) {
	order, ok := s.cache.Get(receiptID)
	if !ok {
		return nil, false
	}
	return order.Clone(), true
}

func (s *PendingOrderStore) Delete(receiptID string) {
	s.cache.Delete(receiptID)
}

// Take removes and returns the pending order atomically. Two concurrent
// verifications for the same receipt cannot both get it.
func (s *PendingOrderStore) Take(receiptID string) (*entity.PendingOrder, bool) {
	return s.cache.Take(receiptID)
}

func (s *PendingOrderStore) Len() int {
	return s.cache.Len()
}
