package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/pulpuluck/internal/adapters/overpass"
	"github.com/samirrijal/pulpuluck/internal/adapters/snapshot"
	"github.com/samirrijal/pulpuluck/internal/adapters/valkey"
	"github.com/samirrijal/pulpuluck/internal/core/ports"
	"github.com/samirrijal/pulpuluck/internal/core/usecases"
	"github.com/samirrijal/pulpuluck/internal/pkg/config"
	"github.com/samirrijal/pulpuluck/internal/pkg/geospatial"
	"github.com/samirrijal/pulpuluck/internal/pkg/logging"
	"github.com/samirrijal/pulpuluck/internal/workflows"
)

func main() {
	once := flag.Bool("once", false, "start a single refresh run and exit")
	flag.Parse()

	cfg, err := config.Load("pulpuluck-refresher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	if *once {
		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        fmt.Sprintf(workflows.RefreshWorkflowIDFmt, time.Now().UTC().Format("20060102T150405")),
			TaskQueue: cfg.Temporal.TaskQueue,
		}, workflows.RefreshWorkflowName, workflows.RefreshInput{})
		if err != nil {
			log.Fatalf("start refresh: %v", err)
		}
		slog.Info("refresh started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
		return
	}

	if err := ensureSchedule(ctx, c, cfg.Temporal); err != nil {
		log.Fatalf("schedule: %v", err)
	}

	// Snapshot store
	var snapshots ports.SnapshotStore
	var cache *valkey.Cache
	switch cfg.Snapshot.Backend {
	case config.BackendValkey:
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			log.Fatalf("valkey: %v", err)
		}
		defer cache.Close()
		snapshots = snapshot.NewCacheStore(cache, cfg.Snapshot.Key)
	default:
		snapshots = snapshot.NewFileStore(cfg.Snapshot.File)
	}

	pois := overpass.NewClient(cfg.Overpass.URL, geospatial.Bound(cfg.Overpass.BBox), cfg.Overpass.Timeout)
	fountains := usecases.NewFountainService(pois, snapshots)
	if cache != nil {
		// the API reads the list cache; a refresh must invalidate it
		fountains.WithCache(cache)
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.RefreshFountainsWorkflow)
	w.RegisterActivity(&workflows.RefreshActivities{Fountains: fountains})

	slog.Info("refresher worker started", "task_queue", cfg.Temporal.TaskQueue, "cron", cfg.Temporal.RefreshCron)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// ensureSchedule creates the refresh schedule, leaving an existing one untouched.
func ensureSchedule(ctx context.Context, c client.Client, tc config.TemporalConfig) error {
	if tc.RefreshCron == "" {
		slog.Info("refresh_cron empty, not scheduling refreshes")
		return nil
	}

	_, err := c.ScheduleClient().Create(ctx, client.ScheduleOptions{
		ID: workflows.RefreshScheduleID,
		Spec: client.ScheduleSpec{
			CronExpressions: []string{tc.RefreshCron},
		},
		Action: &client.ScheduleWorkflowAction{
			ID:        workflows.RefreshScheduleID,
			Workflow:  workflows.RefreshWorkflowName,
			Args:      []interface{}{workflows.RefreshInput{}},
			TaskQueue: tc.TaskQueue,
		},
		Overlap: enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
	})
	if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
		slog.Info("refresh schedule already exists", "schedule_id", workflows.RefreshScheduleID)
		return nil
	}
	return err
}
