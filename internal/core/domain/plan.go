package domain

import (
	"encoding/json"
	"time"
)

// Message is one prior conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Plan is what the planner returns for an utterance.
type Plan struct {
	Reply   string   `json:"reply"`
	Actions []Action `json:"actions"`
}

// ExecutedAction is the result of one successful action. Payload is a
// GeocodedPlace, a []GeocodedPlace or a *RouteResult depending on Type.
type ExecutedAction struct {
	Type    ActionType `json:"type"`
	Payload any        `json:"payload"`
}

// UnmarshalJSON restores the concrete payload type from Type.
func (e *ExecutedAction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    ActionType      `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Type = raw.Type
	switch raw.Type {
	case ActionSearch:
		var places []GeocodedPlace
		if err := json.Unmarshal(raw.Payload, &places); err != nil {
			return err
		}
		e.Payload = places
	case ActionRoute:
		var route RouteResult
		if err := json.Unmarshal(raw.Payload, &route); err != nil {
			return err
		}
		e.Payload = &route
	default:
		var place GeocodedPlace
		if err := json.Unmarshal(raw.Payload, &place); err != nil {
			return err
		}
		e.Payload = place
	}
	return nil
}

// ActionFailure pairs a warning with the index of the action that produced it.
type ActionFailure struct {
	Index   int    `json:"index"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ExecutionOutcome is the result of running a whole plan.
// len(Executed)+len(Warnings) always equals the number of input actions.
type ExecutionOutcome struct {
	Executed []ExecutedAction `json:"actions"`
	Warnings []string         `json:"warnings,omitempty"`
	Failures []ActionFailure  `json:"failures,omitempty"`
}

// PlanRecord is a persisted assistant exchange.
type PlanRecord struct {
	ID        string           `json:"id"`
	Prompt    string           `json:"prompt"`
	Reply     string           `json:"reply"`
	Actions   []Action         `json:"planned_actions"`
	Executed  []ExecutedAction `json:"actions"`
	Warnings  []string         `json:"warnings,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// PlanExecutedEvent is broadcast after every assistant exchange.
type PlanExecutedEvent struct {
	PlanID     string    `json:"plan_id"`
	Prompt     string    `json:"prompt"`
	Actions    int       `json:"actions"`
	Executed   int       `json:"executed"`
	Warnings   []string  `json:"warnings,omitempty"`
	ExecutedAt time.Time `json:"executed_at"`
}
