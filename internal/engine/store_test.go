package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"olympics/internal/models"
)

// stubSource returns queued results in order.
type stubSource struct {
	results []stubResult
}

type stubResult struct {
	countries []models.Country
	err       error
}

func (s *stubSource) Fetch(ctx context.Context) ([]models.Country, error) {
	r := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return r.countries, r.err
}

func receive(t *testing.T, sub *Subscription) []models.Country {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dataset")
	}
	return nil
}

func expectNothing(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case v, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected value %+v", v)
		}
		t.Fatal("subscription closed unexpectedly")
	default:
	}
}

func TestObserveBeforeLoadYieldsNothing(t *testing.T) {
	store := NewStore(&stubSource{results: []stubResult{{countries: []models.Country{france()}}}})
	defer store.Close()

	sub := store.Observe(context.Background())
	defer sub.Close()

	expectNothing(t, sub)
	if _, ok := store.Snapshot(); ok {
		t.Fatal("Snapshot should be absent before load")
	}
	if store.Status().State != StateNotLoaded {
		t.Fatalf("State = %v, want not_loaded", store.Status().State)
	}
}

func TestLoadPublishesToExistingAndLateSubscribers(t *testing.T) {
	dataset := []models.Country{france(), {ID: 2, Country: "Italy"}}
	store := NewStore(&stubSource{results: []stubResult{{countries: dataset}}})
	defer store.Close()

	early := store.Observe(context.Background())
	defer early.Close()

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := receive(t, early); len(got) != 2 {
		t.Fatalf("early subscriber: expected 2 records, got %d", len(got))
	}

	late := store.Observe(context.Background())
	defer late.Close()
	if got := receive(t, late); len(got) != 2 || got[0].Country != "France" {
		t.Fatalf("late subscriber: unexpected replay %+v", got)
	}

	status := store.Status()
	if status.State != StateLoaded || status.Records != 2 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestFailedLoadLeavesStoreAbsentThenRecovers(t *testing.T) {
	fetchErr := errors.New("network down")
	store := NewStore(&stubSource{results: []stubResult{
		{countries: []models.Country{france()}},
		{err: fetchErr},
		{countries: []models.Country{france(), {ID: 9, Country: "Kenya"}}},
	}})
	defer store.Close()

	sub := store.Observe(context.Background())
	defer sub.Close()

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	receive(t, sub)

	if err := store.Load(context.Background()); !errors.Is(err, fetchErr) {
		t.Fatalf("second Load() error = %v, want %v", err, fetchErr)
	}
	expectNothing(t, sub)
	if _, ok := store.Snapshot(); ok {
		t.Fatal("Snapshot should be absent after failed load")
	}
	if status := store.Status(); status.State != StateFailed || !errors.Is(status.Err, fetchErr) {
		t.Fatalf("unexpected status %+v", status)
	}

	// A subscriber joining while absent sees nothing either.
	late := store.Observe(context.Background())
	defer late.Close()
	expectNothing(t, late)

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("third Load() error = %v", err)
	}
	if got := receive(t, sub); len(got) != 2 {
		t.Fatalf("expected republished dataset of 2, got %d", len(got))
	}
	if got := receive(t, late); len(got) != 2 {
		t.Fatalf("expected late subscriber to receive 2, got %d", len(got))
	}
}

func TestSubscriberKeepsOnlyLatestValue(t *testing.T) {
	first := []models.Country{france()}
	second := []models.Country{france(), {ID: 2, Country: "Italy"}}
	store := NewStore(&stubSource{results: []stubResult{{countries: first}, {countries: second}}})
	defer store.Close()

	sub := store.Observe(context.Background())
	defer sub.Close()

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}

	if got := receive(t, sub); len(got) != 2 {
		t.Fatalf("expected latest dataset of 2, got %d", len(got))
	}
	expectNothing(t, sub)
}

func TestOverlappingLoadsLastCompletionWins(t *testing.T) {
	// 1. Setup: load A starts first but is released last
	datasetA := []models.Country{france(), {ID: 2, Country: "Italy"}}
	datasetB := []models.Country{{ID: 3, Country: "Kenya"}}
	releaseA := make(chan struct{})
	releaseB := make(chan struct{})
	started := make(chan struct{}, 2)

	var calls atomic.Int32
	store := NewStore(SourceFunc(func(context.Context) ([]models.Country, error) {
		n := calls.Add(1)
		started <- struct{}{}
		if n == 1 {
			<-releaseA
			return datasetA, nil
		}
		<-releaseB
		return datasetB, nil
	}))
	defer store.Close()

	sub := store.Observe(context.Background())
	defer sub.Close()

	// 2. Run both loads concurrently
	errA := make(chan error, 1)
	go func() { errA <- store.Load(context.Background()) }()
	<-started
	errB := make(chan error, 1)
	go func() { errB <- store.Load(context.Background()) }()
	<-started

	close(releaseB)
	if err := <-errB; err != nil {
		t.Fatalf("Load(B) error = %v", err)
	}
	if got := receive(t, sub); len(got) != 1 || got[0].Country != "Kenya" {
		t.Fatalf("expected dataset B first, got %+v", got)
	}

	close(releaseA)
	if err := <-errA; err != nil {
		t.Fatalf("Load(A) error = %v", err)
	}

	// 3. Assertions: A completed last, so A holds the slot
	if got := receive(t, sub); len(got) != 2 || got[0].Country != "France" {
		t.Fatalf("expected dataset A last, got %+v", got)
	}
	countries, ok := store.Snapshot()
	if !ok || len(countries) != 2 {
		t.Fatalf("Snapshot = (%d records, %v), want dataset A", len(countries), ok)
	}
	if status := store.Status(); status.State != StateLoaded || status.Records != 2 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestEmptyDatasetIsLoadedNotAbsent(t *testing.T) {
	store := NewStore(SourceFunc(func(context.Context) ([]models.Country, error) {
		return nil, nil
	}))
	defer store.Close()

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	countries, ok := store.Snapshot()
	if !ok || len(countries) != 0 {
		t.Fatalf("Snapshot = (%v, %v), want empty loaded dataset", countries, ok)
	}
}

func TestNilSourceFails(t *testing.T) {
	store := NewStore(nil)
	defer store.Close()
	if err := store.Load(context.Background()); err == nil {
		t.Fatal("expected error from store without source")
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	store := NewStore(&stubSource{results: []stubResult{{countries: []models.Country{france()}}}})
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := store.Observe(ctx)
	cancel()

	select {
	case _, ok := <-sub.C():
		if ok {
			t.Fatal("expected closed channel, got value")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not released after cancel")
	}

	// Loading after release must not panic on the closed channel.
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	store := NewStore(&stubSource{results: []stubResult{{countries: []models.Country{france()}}}})

	sub := store.Observe(context.Background())
	store.Close()
	store.Close()

	if _, ok := <-sub.C(); ok {
		t.Fatal("expected closed channel after store Close")
	}
	sub.Close()

	after := store.Observe(context.Background())
	if _, ok := <-after.C(); ok {
		t.Fatal("Observe on closed store should return a closed subscription")
	}
}
