package engine

import (
	"context"
	"sync/atomic"

	"olympics/internal/models"
)

// Latest keeps the most recent dataset a consumer received from a Store.
// The zero value holds nothing.
type Latest struct {
	p atomic.Pointer[[]models.Country]
}

func (l *Latest) Set(countries []models.Country) {
	l.p.Store(&countries)
}

// Get returns the held dataset, false when nothing has been received.
func (l *Latest) Get() ([]models.Country, bool) {
	p := l.p.Load()
	if p == nil || *p == nil {
		return nil, false
	}
	return *p, true
}

// Follow subscribes to store and keeps l current until ctx is done. The
// subscription is released before Follow returns.
func (l *Latest) Follow(ctx context.Context, store *Store) {
	sub := store.Observe(ctx)
	defer sub.Close()
	for countries := range sub.C() {
		l.Set(countries)
	}
}
