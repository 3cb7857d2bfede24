package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys used across the pipeline.
const (
	AttrActionType    = attribute.Key("geoplan.action.type")
	AttrActionIndex   = attribute.Key("geoplan.action.index")
	AttrQuery         = attribute.Key("geoplan.query")
	AttrQueryFallback = attribute.Key("geoplan.query.fallback")
	AttrProfile       = attribute.Key("geoplan.route.profile")
	AttrProvider      = attribute.Key("geoplan.upstream.provider")
	AttrPlanActions   = attribute.Key("geoplan.plan.actions")
	AttrPlanWarnings  = attribute.Key("geoplan.plan.warnings")
)
