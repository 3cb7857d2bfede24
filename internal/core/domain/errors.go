package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors classify every failure the pipeline can produce.
// Wrap them with fmt.Errorf("...: %w") and test with errors.Is.
var (
	ErrValidation          = errors.New("invalid action")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamProtocol    = errors.New("unexpected upstream response")
	ErrNetwork             = errors.New("upstream unreachable")
	ErrUnknownAction       = errors.New("unknown action")
	ErrPlannerUnavailable  = errors.New("planner unavailable")
	ErrPlannerAccessDenied = errors.New("planner access denied")
	ErrPlannerResponse     = errors.New("planner response invalid")
)

// NotFoundFragment is present in every not-found message so that the reply
// rewrite can classify warnings by substring.
const NotFoundFragment = "no results found"

// UpstreamStatusFragment is present in every non-2xx provider failure.
const UpstreamStatusFragment = "upstream status"

// Validation builds an ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound reports that a provider returned no candidate for query.
func NotFound(query string) error {
	return fmt.Errorf("%w: %s for %q", ErrNotFound, NotFoundFragment, query)
}

// RouteNotFound reports that no route could be computed between two endpoints.
func RouteNotFound(origin, destination string) error {
	return fmt.Errorf("%w: %s for a route from %q to %q", ErrNotFound, NotFoundFragment, origin, destination)
}

// UnknownAction reports an unrecognized action tag.
func UnknownAction(tag string) error {
	return fmt.Errorf("%w: %q", ErrUnknownAction, tag)
}

// UpstreamStatus reports a non-2xx answer from a provider.
func UpstreamStatus(provider string, status int) error {
	return fmt.Errorf("%w: %s: %s %d", ErrUpstreamProtocol, provider, UpstreamStatusFragment, status)
}

// Protocol reports a malformed provider payload.
func Protocol(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstreamProtocol, provider, err)
}

// Network reports a connection or timeout failure.
func Network(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrNetwork, provider, err)
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Kind returns a stable label for err, used for metrics and API error codes.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrUpstreamProtocol):
		return "upstream_protocol"
	case errors.Is(err, ErrPlannerAccessDenied):
		return "planner_denied"
	case errors.Is(err, ErrPlannerUnavailable):
		return "planner_unavailable"
	case errors.Is(err, ErrPlannerResponse):
		return "planner_response"
	default:
		return "internal"
	}
}
