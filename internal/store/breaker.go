package store

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/marque-app/marque/internal/domain"
)

// BreakerStore wraps a Store with a circuit breaker so a flapping
// backend fails fast instead of stacking up slow calls. An open
// circuit surfaces as a plain StoreError; no retry semantics are
// added - reconciliation ticks remain the only implicit retry.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

// WithBreaker decorates s with a circuit breaker. The breaker opens
// after five consecutive failures and probes again after 30 seconds.
func WithBreaker(s Store) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "bookmark-store",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &BreakerStore{inner: s, cb: cb}
}

func (b *BreakerStore) List(ctx context.Context, owner string) ([]*domain.Bookmark, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.List(ctx, owner)
	})
	if err != nil {
		return nil, asStoreError("list", err)
	}
	return result.([]*domain.Bookmark), nil
}

func (b *BreakerStore) Insert(ctx context.Context, owner string, in domain.CreateInput) (*domain.Bookmark, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Insert(ctx, owner, in)
	})
	if err != nil {
		return nil, asStoreError("insert", err)
	}
	return result.(*domain.Bookmark), nil
}

func (b *BreakerStore) Delete(ctx context.Context, owner, id string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.Delete(ctx, owner, id)
	})
	if err != nil {
		return asStoreError("delete", err)
	}
	return nil
}

// asStoreError keeps errors already typed by the inner store and wraps
// breaker-originated ones (open circuit, too many requests).
func asStoreError(op string, err error) error {
	if _, ok := err.(*domain.StoreError); ok {
		return err
	}
	return domain.NewStoreError(op, err)
}
