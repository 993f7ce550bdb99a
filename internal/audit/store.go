package audit

import (
	"context"
	"errors"
)

// Store persists audit entries. Implementations must be append-only: no
// update or delete operations exist on this interface.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}

// FanoutStore appends to several stores, e.g. postgres for queries plus a
// Kafka sink for downstream consumers. ListRecent reads from the first store.
type FanoutStore struct {
	stores []Store
}

// NewFanoutStore composes stores. At least one is required.
func NewFanoutStore(stores ...Store) (*FanoutStore, error) {
	if len(stores) == 0 {
		return nil, errors.New("at least one store is required")
	}
	return &FanoutStore{stores: stores}, nil
}

func (f *FanoutStore) Append(ctx context.Context, entry Entry) error {
	var errs []error
	for _, s := range f.stores {
		if err := s.Append(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FanoutStore) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	return f.stores[0].ListRecent(ctx, limit)
}
