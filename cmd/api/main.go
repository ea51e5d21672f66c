package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/pulpuluck/internal/adapters/http"
	"github.com/samirrijal/pulpuluck/internal/adapters/jsonfile"
	natsadapter "github.com/samirrijal/pulpuluck/internal/adapters/nats"
	"github.com/samirrijal/pulpuluck/internal/adapters/osrm"
	"github.com/samirrijal/pulpuluck/internal/adapters/overpass"
	"github.com/samirrijal/pulpuluck/internal/adapters/postgres"
	"github.com/samirrijal/pulpuluck/internal/adapters/snapshot"
	"github.com/samirrijal/pulpuluck/internal/adapters/valkey"
	"github.com/samirrijal/pulpuluck/internal/core/ports"
	"github.com/samirrijal/pulpuluck/internal/core/usecases"
	"github.com/samirrijal/pulpuluck/internal/pkg/config"
	"github.com/samirrijal/pulpuluck/internal/pkg/geospatial"
	"github.com/samirrijal/pulpuluck/internal/pkg/logging"
	"github.com/samirrijal/pulpuluck/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("pulpuluck-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database (postgres feedback backend only)
	var db *postgres.DB
	if cfg.Feedback.Backend == config.BackendPostgres {
		db, err = postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
	}

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS
	var (
		events   ports.EventPublisher
		natsConn *nats.Conn
	)
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, votes will not be broadcast", "error", err)
		} else {
			events = pub
			natsConn = pub.Conn()
		}
	}

	// Repos & providers
	var feedbackRepo ports.FeedbackRepository
	switch cfg.Feedback.Backend {
	case config.BackendPostgres:
		feedbackRepo = postgres.NewFeedbackRepo(db)
	default:
		feedbackRepo = jsonfile.NewFeedbackRepo(cfg.Feedback.File)
	}

	var snapshots ports.SnapshotStore
	switch {
	case cfg.Snapshot.Backend == config.BackendValkey && cache != nil:
		snapshots = snapshot.NewCacheStore(cache, cfg.Snapshot.Key)
	case cfg.Snapshot.Backend == config.BackendValkey:
		slog.Warn("snapshot backend valkey is down, falling back to file", "file", cfg.Snapshot.File)
		snapshots = snapshot.NewFileStore(cfg.Snapshot.File)
	default:
		snapshots = snapshot.NewFileStore(cfg.Snapshot.File)
	}

	pois := overpass.NewClient(cfg.Overpass.URL, geospatial.Bound(cfg.Overpass.BBox), cfg.Overpass.Timeout)
	router := osrm.NewClient(cfg.OSRM.URL, cfg.OSRM.Timeout)

	// Use cases
	fountainSvc := usecases.NewFountainService(pois, snapshots)
	if cache != nil {
		fountainSvc.WithCache(cache)
	}
	routeSvc := usecases.NewRouteService(router, cfg.OSRM.Timeout)
	feedbackSvc := usecases.NewFeedbackService(feedbackRepo, events)

	deps := &http.Dependencies{
		Fountains: fountainSvc,
		Routes:    routeSvc,
		Feedback:  feedbackSvc,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:           time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:             64 * 1024, // votes are tiny
		AppName:               "Pulpuluck API",
		ErrorHandler:          http.ErrorHandler,
		DisableStartupMessage: true,
	})
	http.SetupRoutes(app, deps)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "feedback_backend", cfg.Feedback.Backend, "snapshot_backend", cfg.Snapshot.Backend)
		return app.Listen(addr)
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, draining connections...")

		// Give in-flight requests up to 10s to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := app.ShutdownWithContext(shutdownCtx)

		// Stop the vote relay after the WebSocket clients are gone.
		if natsConn != nil {
			if derr := natsConn.Drain(); derr != nil && !errors.Is(derr, nats.ErrConnectionClosed) {
				slog.Warn("nats drain failed", "error", derr)
			}
		}
		return err
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
