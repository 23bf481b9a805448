package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"olympics/internal/models"
)

// State is the load state of a Store.
type State int

const (
	StateNotLoaded State = iota
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "not_loaded"
	}
}

// Status describes the slot without exposing it.
type Status struct {
	State    State
	Records  int
	Err      error
	LoadedAt time.Time
}

// Store holds the single loaded copy of the dataset and broadcasts it to
// subscribers. The published slice is shared by every subscriber and must be
// treated as read-only.
type Store struct {
	source Source
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	slot   []models.Country // nil while absent
	status Status
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool

	tracer          trace.Tracer
	loadCounter     metric.Int64Counter
	subscriberGauge metric.Int64UpDownCounter
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report load failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for Status.LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore constructs an empty store reading from source.
func NewStore(source Source, opts ...Option) *Store {
	s := &Store{
		source: source,
		logger: slog.Default(),
		now:    time.Now,
		subs:   make(map[uint64]*Subscription),
		tracer: otel.Tracer("olympics/engine"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = s.logger.With("component", "dataset_store")

	meter := otel.Meter("olympics/engine")
	s.loadCounter, _ = meter.Int64Counter("dataset.loads",
		metric.WithDescription("Number of dataset loads by result"),
		metric.WithUnit("{load}"))
	s.subscriberGauge, _ = meter.Int64UpDownCounter("dataset.subscribers",
		metric.WithDescription("Number of active dataset subscribers"),
		metric.WithUnit("{subscriber}"))
	return s
}

// Load fetches the dataset and replaces the slot. On failure the slot becomes
// absent, subscribers are not notified and the error is returned for logging.
// When calls overlap, the one that completes last wins.
func (s *Store) Load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "dataset.load")
	defer span.End()

	var (
		countries []models.Country
		err       error
	)
	if s.source == nil {
		err = errors.New("dataset store: no source configured")
	} else {
		countries, err = s.source.Fetch(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.slot = nil
		s.status = Status{State: StateFailed, Err: err}
		s.logger.Error("dataset load failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "dataset fetch failed")
		s.countLoad(ctx, "failure")
		return err
	}

	if countries == nil {
		countries = []models.Country{}
	}
	s.slot = countries
	s.status = Status{State: StateLoaded, Records: len(countries), LoadedAt: s.now()}
	span.SetAttributes(attribute.Int("dataset.records", len(countries)))
	s.countLoad(ctx, "success")

	for _, sub := range s.subs {
		sub.deliver(countries)
	}
	s.logger.Info("dataset loaded", "records", len(countries), "subscribers", len(s.subs))
	return nil
}

// Observe subscribes to the slot. A loaded dataset is replayed immediately;
// the absent state is never delivered. The subscription ends when ctx is
// done or Close is called.
func (s *Store) Observe(ctx context.Context) *Subscription {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		ch:     make(chan []models.Country, 1),
		store:  s,
		cancel: cancel,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		sub.closeChan()
		return sub
	}
	s.nextID++
	sub.id = s.nextID
	s.subs[sub.id] = sub
	if s.slot != nil {
		sub.ch <- s.slot
	}
	s.mu.Unlock()

	if s.subscriberGauge != nil {
		s.subscriberGauge.Add(ctx, 1)
	}

	go func() {
		<-ctx.Done()
		s.remove(sub)
	}()
	return sub
}

// Snapshot returns the current dataset and whether one is loaded.
func (s *Store) Snapshot() ([]models.Country, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot, s.slot != nil
}

func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Close ends every subscription. The slot is kept for Snapshot callers.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = make(map[uint64]*Subscription)
	for _, sub := range subs {
		sub.closeChan()
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
	}
	if s.subscriberGauge != nil && len(subs) > 0 {
		s.subscriberGauge.Add(context.Background(), -int64(len(subs)))
	}
}

func (s *Store) remove(sub *Subscription) {
	s.mu.Lock()
	stored, ok := s.subs[sub.id]
	if ok && stored == sub {
		delete(s.subs, sub.id)
	}
	sub.closeChan()
	s.mu.Unlock()

	if ok && s.subscriberGauge != nil {
		s.subscriberGauge.Add(context.Background(), -1)
	}
}

func (s *Store) countLoad(ctx context.Context, result string) {
	if s.loadCounter != nil {
		s.loadCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

// Subscription is one consumer's view of the store.
type Subscription struct {
	id     uint64
	ch     chan []models.Country
	store  *Store
	cancel context.CancelFunc
	once   sync.Once
}

// C returns the channel of published datasets. It is closed when the
// subscription ends.
func (sub *Subscription) C() <-chan []models.Country {
	return sub.ch
}

// Close releases the subscription. It is safe to call more than once.
func (sub *Subscription) Close() {
	sub.cancel()
	sub.store.remove(sub)
}

// deliver keeps only the latest value pending. Callers hold the store lock,
// so no other sender races the drain.
func (sub *Subscription) deliver(countries []models.Country) {
	select {
	case sub.ch <- countries:
		return
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- countries:
	default:
	}
}

func (sub *Subscription) closeChan() {
	sub.once.Do(func() {
		close(sub.ch)
	})
}
