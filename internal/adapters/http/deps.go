package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/pulpuluck/internal/adapters/postgres"
	"github.com/samirrijal/pulpuluck/internal/adapters/valkey"
	"github.com/samirrijal/pulpuluck/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Fountains *usecases.FountainService
	Routes    *usecases.RouteService
	Feedback  *usecases.FeedbackService
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache

	// Validate is created by SetupRoutes when nil.
	Validate *validator.Validate
}
