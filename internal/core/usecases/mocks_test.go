package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/geoplan/internal/core/domain"
)

// --- Mock Geocoder ---

type mockGeocoder struct {
	mu            sync.Mutex
	queries       []string
	viewboxes     []*domain.Viewbox
	resolveOneFn  func(ctx context.Context, query string, includeGeometry bool, viewbox *domain.Viewbox) (*domain.GeocodedPlace, error)
	resolveManyFn func(ctx context.Context, query string, limit int, viewbox *domain.Viewbox) ([]domain.GeocodedPlace, error)
}

func (m *mockGeocoder) record(q string, vb *domain.Viewbox) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	m.viewboxes = append(m.viewboxes, vb)
}

func (m *mockGeocoder) ResolveOne(ctx context.Context, query string, includeGeometry bool, viewbox *domain.Viewbox) (*domain.GeocodedPlace, error) {
	m.record(query, viewbox)
	if m.resolveOneFn != nil {
		return m.resolveOneFn(ctx, query, includeGeometry, viewbox)
	}
	return &domain.GeocodedPlace{Query: query, DisplayName: query}, nil
}

func (m *mockGeocoder) ResolveMany(ctx context.Context, query string, limit int, viewbox *domain.Viewbox) ([]domain.GeocodedPlace, error) {
	m.record(query, viewbox)
	if m.resolveManyFn != nil {
		return m.resolveManyFn(ctx, query, limit, viewbox)
	}
	return []domain.GeocodedPlace{{Query: query, DisplayName: query}}, nil
}

// --- Mock Router ---

type mockRouter struct {
	calls   [][2]string
	routeFn func(ctx context.Context, origin, destination string, profile domain.Profile) (*domain.RouteResult, error)
}

func (m *mockRouter) Route(ctx context.Context, origin, destination string, profile domain.Profile) (*domain.RouteResult, error) {
	m.calls = append(m.calls, [2]string{origin, destination})
	if m.routeFn != nil {
		return m.routeFn(ctx, origin, destination, profile)
	}
	return &domain.RouteResult{Profile: profile, Steps: []domain.Step{}}, nil
}

// --- Mock Planner ---

type mockPlanner struct {
	planFn func(ctx context.Context, prompt string, history []domain.Message) (*domain.Plan, error)
}

func (m *mockPlanner) Plan(ctx context.Context, prompt string, history []domain.Message) (*domain.Plan, error) {
	if m.planFn != nil {
		return m.planFn(ctx, prompt, history)
	}
	return &domain.Plan{Reply: "ok"}, nil
}

// --- Mock PlanRepository ---

type mockPlanRepo struct {
	saved        []domain.PlanRecord
	saveErr      error
	listRecentFn func(ctx context.Context, offset, limit int) ([]domain.PlanRecord, error)
	countFn      func(ctx context.Context) (int, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.PlanRecord, error)
}

func (m *mockPlanRepo) Save(ctx context.Context, rec *domain.PlanRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, *rec)
	return nil
}

func (m *mockPlanRepo) GetByID(ctx context.Context, id string) (*domain.PlanRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPlanRepo) ListRecent(ctx context.Context, offset, limit int) ([]domain.PlanRecord, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, offset, limit)
	}
	return nil, nil
}

func (m *mockPlanRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return len(m.saved), nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []domain.PlanExecutedEvent
	err    error
}

func (m *mockPublisher) PublishPlanExecuted(ctx context.Context, ev *domain.PlanExecutedEvent) error {
	m.events = append(m.events, *ev)
	return m.err
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	data   map[string][]byte
	ttls   map[string]int
	getErr error
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// --- Mock PlanEventRepository ---

type mockEventRepo struct {
	inserted []domain.PlanExecutedEvent
	err      error
}

func (m *mockEventRepo) Insert(ctx context.Context, ev *domain.PlanExecutedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.inserted = append(m.inserted, *ev)
	return nil
}
