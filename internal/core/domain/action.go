package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ActionType is the closed set of actions a plan may contain.
type ActionType string

const (
	ActionPlace  ActionType = "place"
	ActionSearch ActionType = "search"
	ActionArea   ActionType = "area"
	ActionRoute  ActionType = "route"
)

// ActionTypes lists every supported action type in planner order.
var ActionTypes = []ActionType{ActionPlace, ActionSearch, ActionRoute, ActionArea}

// ParseActionType maps a planner tag onto an ActionType.
func ParseActionType(raw string) (ActionType, error) {
	switch t := ActionType(strings.ToLower(strings.TrimSpace(raw))); t {
	case ActionPlace, ActionSearch, ActionArea, ActionRoute:
		return t, nil
	default:
		return "", UnknownAction(raw)
	}
}

// Action is a single structured instruction produced by the planner.
// Type is kept as the raw tag so that an unknown type surfaces at execution time
// instead of failing the whole plan decode.
type Action struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// String returns a trimmed string parameter, or "" when absent or not a string.
func (a Action) String(key string) string {
	v, ok := a.Params[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return ""
	}
}

// Bool reads a boolean parameter. Planners occasionally send "true" or 1.
func (a Action) Bool(key string) bool {
	switch v := a.Params[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case float64:
		return v != 0
	case int:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	default:
		return false
	}
}

// Int reads an integer parameter, returning def when it is absent, zero or unparsable.
func (a Action) Int(key string, def int) (int, error) {
	v, ok := a.Params[key]
	if !ok || v == nil {
		return def, nil
	}
	var n int
	switch t := v.(type) {
	case int:
		n = t
	case int64:
		n = int(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, Validation("parameter %q must be a number", key)
		}
		n = int(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, Validation("parameter %q must be a number", key)
		}
		n = int(f)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, nil
		}
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return 0, Validation("parameter %q must be a number", key)
		}
		n = parsed
	default:
		return 0, Validation("parameter %q must be a number", key)
	}
	if n == 0 {
		return def, nil
	}
	return n, nil
}
