package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoplan/internal/core/usecases"
)

// Pinger is a backing store that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
// DB, Cache and NATS are optional; nil means the component is not configured.
type Dependencies struct {
	Assistant *usecases.AssistantService
	Actions   usecases.ActionRunner
	History   *usecases.HistoryService
	NATS      *nats.Conn
	DB        Pinger
	Cache     Pinger
	Version   string
}
