package usecases

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/ports"
	"github.com/samirrijal/geoplan/internal/pkg/geospatial"
	"github.com/samirrijal/geoplan/internal/pkg/logging"
	"github.com/samirrijal/geoplan/internal/pkg/metrics"
	"github.com/samirrijal/geoplan/internal/pkg/telemetry"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 20
)

var tracer = telemetry.Tracer("usecases")

// ActionExecutor runs a single plan action against the geocoder or router.
type ActionExecutor struct {
	geocoder ports.Geocoder
	router   ports.Router
}

// NewActionExecutor creates a new ActionExecutor.
func NewActionExecutor(geocoder ports.Geocoder, router ports.Router) *ActionExecutor {
	return &ActionExecutor{geocoder: geocoder, router: router}
}

// Execute dispatches action by type. Query text is normalized first; when the
// normalized text finds nothing and differs from the original, the original is
// tried once more.
func (e *ActionExecutor) Execute(ctx context.Context, action domain.Action, mapCtx *domain.MapContext) (*domain.ExecutedAction, error) {
	kind, err := domain.ParseActionType(action.Type)
	if err != nil {
		metrics.ActionsExecuted.WithLabelValues("unknown", "unknown_action").Inc()
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "action."+string(kind),
		trace.WithAttributes(telemetry.AttrActionType.String(string(kind))))
	defer span.End()

	var result *domain.ExecutedAction
	switch kind {
	case domain.ActionPlace:
		result, err = e.place(ctx, action, viewboxFor(mapCtx))
	case domain.ActionSearch:
		result, err = e.search(ctx, action, viewboxFor(mapCtx))
	case domain.ActionArea:
		result, err = e.area(ctx, action, viewboxFor(mapCtx))
	case domain.ActionRoute:
		result, err = e.route(ctx, action)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ActionsExecuted.WithLabelValues(string(kind), domain.Kind(err)).Inc()
		return nil, err
	}
	metrics.ActionsExecuted.WithLabelValues(string(kind), "ok").Inc()
	return result, nil
}

func (e *ActionExecutor) place(ctx context.Context, action domain.Action, viewbox *domain.Viewbox) (*domain.ExecutedAction, error) {
	query, err := requireParam(action, domain.ActionPlace, "query")
	if err != nil {
		return nil, err
	}
	withGeometry := action.Bool("include_polygon")

	place, err := withRawFallback(ctx, domain.ActionPlace, query, func(q string) (*domain.GeocodedPlace, error) {
		return e.geocoder.ResolveOne(ctx, q, withGeometry, viewbox)
	})
	if err != nil {
		return nil, err
	}
	return &domain.ExecutedAction{Type: domain.ActionPlace, Payload: *place}, nil
}

func (e *ActionExecutor) search(ctx context.Context, action domain.Action, viewbox *domain.Viewbox) (*domain.ExecutedAction, error) {
	query, err := requireParam(action, domain.ActionSearch, "query")
	if err != nil {
		return nil, err
	}
	limit, err := action.Int("limit", defaultSearchLimit)
	if err != nil {
		return nil, err
	}
	limit = clamp(limit, 1, maxSearchLimit)

	places, err := withRawFallback(ctx, domain.ActionSearch, query, func(q string) ([]domain.GeocodedPlace, error) {
		return e.geocoder.ResolveMany(ctx, q, limit, viewbox)
	})
	if err != nil {
		return nil, err
	}
	return &domain.ExecutedAction{Type: domain.ActionSearch, Payload: places}, nil
}

// area always asks for geometry and is reported as a place.
func (e *ActionExecutor) area(ctx context.Context, action domain.Action, viewbox *domain.Viewbox) (*domain.ExecutedAction, error) {
	query, err := requireParam(action, domain.ActionArea, "query")
	if err != nil {
		return nil, err
	}

	place, err := withRawFallback(ctx, domain.ActionArea, query, func(q string) (*domain.GeocodedPlace, error) {
		return e.geocoder.ResolveOne(ctx, q, true, viewbox)
	})
	if err != nil {
		return nil, err
	}
	if !place.GeoJSON.HasShape() {
		logging.FromContext(ctx).DebugContext(ctx, "area resolved to a point", "query", query)
	}
	return &domain.ExecutedAction{Type: domain.ActionPlace, Payload: *place}, nil
}

// route never uses the map viewbox: endpoints may lie far outside the current view.
func (e *ActionExecutor) route(ctx context.Context, action domain.Action) (*domain.ExecutedAction, error) {
	origin := action.String("origin")
	destination := action.String("destination")
	if origin == "" || destination == "" {
		return nil, domain.Validation("action %q requires parameters \"origin\" and \"destination\"", domain.ActionRoute)
	}
	profile := domain.ParseProfile(action.String("profile"))
	trace.SpanFromContext(ctx).SetAttributes(telemetry.AttrProfile.String(string(profile)))

	cleanOrigin, cleanDest := normalizedOr(origin), normalizedOr(destination)
	log := logging.FromContext(ctx)
	log.DebugContext(ctx, "routing", "origin", cleanOrigin, "destination", cleanDest, "profile", profile)

	route, err := e.router.Route(ctx, cleanOrigin, cleanDest, profile)
	if err != nil && domain.IsNotFound(err) && (cleanOrigin != origin || cleanDest != destination) {
		metrics.FallbackRetries.WithLabelValues(string(domain.ActionRoute)).Inc()
		log.DebugContext(ctx, "normalized route failed, retrying raw", "origin", origin, "destination", destination)
		route, err = e.router.Route(ctx, origin, destination, profile)
	}
	if err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "route resolved",
		"straight_line_m", geospatial.Haversine(route.Origin.Lat, route.Origin.Lon, route.Destination.Lat, route.Destination.Lon),
		"distance_m", route.DistanceMeters,
		"steps", len(route.Steps))
	return &domain.ExecutedAction{Type: domain.ActionRoute, Payload: route}, nil
}

// withRawFallback runs attempt with the normalized query and, on a not-found
// result, once more with the raw query if normalization changed it.
func withRawFallback[T any](ctx context.Context, kind domain.ActionType, raw string, attempt func(q string) (T, error)) (T, error) {
	normalized := normalizedOr(raw)
	trace.SpanFromContext(ctx).SetAttributes(telemetry.AttrQuery.String(normalized))
	log := logging.FromContext(ctx)
	log.DebugContext(ctx, "geocoding", "action", kind, "query", raw, "normalized", normalized)

	res, err := attempt(normalized)
	if err == nil || !domain.IsNotFound(err) || normalized == raw {
		return res, err
	}

	metrics.FallbackRetries.WithLabelValues(string(kind)).Inc()
	log.DebugContext(ctx, "normalized query failed, retrying raw", "action", kind, "query", raw)
	trace.SpanFromContext(ctx).SetAttributes(telemetry.AttrQueryFallback.Bool(true))
	return attempt(raw)
}

// normalizedOr returns Normalize(q), or q itself when q is nothing but filler.
func normalizedOr(q string) string {
	if n := Normalize(q); n != "" {
		return n
	}
	return q
}

func requireParam(action domain.Action, kind domain.ActionType, key string) (string, error) {
	v := action.String(key)
	if v == "" {
		return "", domain.Validation("action %q requires parameter %q", kind, key)
	}
	return v, nil
}

// viewboxFor picks the explicit viewbox, or derives one from center and radius.
func viewboxFor(mapCtx *domain.MapContext) *domain.Viewbox {
	if mapCtx == nil {
		return nil
	}
	if mapCtx.Viewbox != nil && mapCtx.Viewbox.Valid() {
		return mapCtx.Viewbox
	}
	if mapCtx.Center != nil && mapCtx.RadiusMeters > 0 {
		minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(mapCtx.Center.Lat, mapCtx.Center.Lon, mapCtx.RadiusMeters)
		box := domain.Viewbox{West: minLon, South: minLat, East: maxLon, North: maxLat}
		if box.Valid() {
			return &box
		}
	}
	return nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
