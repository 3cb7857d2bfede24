package ports

import (
	"context"

	"github.com/samirrijal/geoplan/internal/core/domain"
)

// Geocoder resolves free-text queries to places.
type Geocoder interface {
	// ResolveOne returns the best candidate. With includeGeometry it prefers a
	// candidate carrying a line or area shape.
	ResolveOne(ctx context.Context, query string, includeGeometry bool, viewbox *domain.Viewbox) (*domain.GeocodedPlace, error)
	// ResolveMany returns up to limit candidates in provider order.
	ResolveMany(ctx context.Context, query string, limit int, viewbox *domain.Viewbox) ([]domain.GeocodedPlace, error)
}

// Router computes a path between two free-text endpoints.
type Router interface {
	Route(ctx context.Context, origin, destination string, profile domain.Profile) (*domain.RouteResult, error)
}

// Planner turns an utterance plus history into a plan.
type Planner interface {
	Plan(ctx context.Context, prompt string, history []domain.Message) (*domain.Plan, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPlanExecuted(ctx context.Context, event *domain.PlanExecutedEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePlanExecuted(ctx context.Context, handler func(ctx context.Context, event *domain.PlanExecutedEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
