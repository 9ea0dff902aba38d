package analytics

import (
	"errors"
	"fmt"
	"sync"

	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/pkg/metrics"
)

var (
	// ErrCustomerNotFound is returned when no customer has the given ID.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrDuplicateCustomer is returned by Add for an ID that already exists.
	ErrDuplicateCustomer = errors.New("customer already exists")
)

// Snapshot is a consistent view of the customer population: the collection
// and every figure derived from it are computed together.
type Snapshot struct {
	Customers           []model.Customer     `json:"customers"`
	Stats               model.AggregateStats `json:"stats"`
	RiskDistribution    []model.Bucket       `json:"riskDistribution"`
	SegmentDistribution []model.Bucket       `json:"segmentDistribution"`
}

// View is a filtered read of a Snapshot. Stats and distributions describe
// the whole population; Customers holds only the matches.
type View struct {
	Snapshot
	Search  string        `json:"search,omitempty"`
	Segment model.Segment `json:"segment"`
	Matched int           `json:"matched"`
}

// Store owns an operator's customer collection. Every mutation rebuilds the
// snapshot and swaps it in under the lock, so readers never observe a
// collection and stats that disagree.
type Store struct {
	mu    sync.RWMutex
	index map[string]int
	snap  *Snapshot
}

// NewStore builds a store seeded with customers. Invalid or duplicate
// seeds are rejected.
func NewStore(seed []model.Customer) (*Store, error) {
	s := &Store{index: make(map[string]int, len(seed))}
	customers := make([]model.Customer, 0, len(seed))
	for _, c := range seed {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("seed customer %q: %w", c.ID, err)
		}
		if _, ok := s.index[c.ID]; ok {
			return nil, fmt.Errorf("seed customer %q: %w", c.ID, ErrDuplicateCustomer)
		}
		s.index[c.ID] = len(customers)
		customers = append(customers, c)
	}
	s.snap = build(customers)
	return s, nil
}

// Add inserts a new customer.
func (s *Store) Add(c model.Customer) (model.Customer, error) {
	if err := c.Validate(); err != nil {
		return model.Customer{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[c.ID]; ok {
		return model.Customer{}, ErrDuplicateCustomer
	}
	next := make([]model.Customer, len(s.snap.Customers), len(s.snap.Customers)+1)
	copy(next, s.snap.Customers)
	s.index[c.ID] = len(next)
	next = append(next, c)
	s.snap = build(next)

	metrics.CustomerMutationsTotal.WithLabelValues("add").Inc()
	return c, nil
}

// Update applies a partial update to an existing customer.
func (s *Store) Update(id string, u model.CustomerUpdate) (model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return model.Customer{}, ErrCustomerNotFound
	}
	updated := u.Apply(s.snap.Customers[i])
	if err := updated.Validate(); err != nil {
		return model.Customer{}, err
	}

	next := make([]model.Customer, len(s.snap.Customers))
	copy(next, s.snap.Customers)
	next[i] = updated
	s.snap = build(next)

	metrics.CustomerMutationsTotal.WithLabelValues("update").Inc()
	return updated, nil
}

// Get returns the customer with the given ID.
func (s *Store) Get(id string) (model.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return model.Customer{}, ErrCustomerNotFound
	}
	return s.snap.Customers[i], nil
}

// List returns every customer in insertion order.
func (s *Store) List() []model.Customer {
	return s.Snapshot().Customers
}

// Snapshot returns the current population view.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	return snap.clone()
}

// View filters the current snapshot by search text and segment.
func (s *Store) View(search string, segment model.Segment) View {
	if segment == "" {
		segment = model.SegmentAll
	}
	snap := s.Snapshot()
	snap.Customers = Filter(snap.Customers, search, segment)
	return View{
		Snapshot: snap,
		Search:   search,
		Segment:  segment,
		Matched:  len(snap.Customers),
	}
}

func build(customers []model.Customer) *Snapshot {
	return &Snapshot{
		Customers:           customers,
		Stats:               Aggregate(customers),
		RiskDistribution:    DistributionBy(customers, ByRisk),
		SegmentDistribution: DistributionBy(customers, BySegment),
	}
}

// clone detaches the slices so callers cannot write into the shared snapshot.
func (s *Snapshot) clone() Snapshot {
	return Snapshot{
		Customers:           append([]model.Customer{}, s.Customers...),
		Stats:               s.Stats,
		RiskDistribution:    append([]model.Bucket{}, s.RiskDistribution...),
		SegmentDistribution: append([]model.Bucket{}, s.SegmentDistribution...),
	}
}
