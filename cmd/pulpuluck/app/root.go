package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/pulpuluck/internal/adapters/osrm"
	"github.com/samirrijal/pulpuluck/internal/adapters/overpass"
	"github.com/samirrijal/pulpuluck/internal/adapters/snapshot"
	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/core/usecases"
	"github.com/samirrijal/pulpuluck/internal/pkg/config"
	"github.com/samirrijal/pulpuluck/internal/pkg/geospatial"
	"github.com/samirrijal/pulpuluck/internal/pkg/logging"
)

// services are the use cases shared by every subcommand. The CLI keeps its
// snapshot in a local file so it works without the server's backends.
type services struct {
	cfg       *config.Config
	fountains *usecases.FountainService
	routes    *usecases.RouteService
}

func newServices(cfg *config.Config) *services {
	pois := overpass.NewClient(cfg.Overpass.URL, geospatial.Bound(cfg.Overpass.BBox), cfg.Overpass.Timeout)
	return &services{
		cfg:       cfg,
		fountains: usecases.NewFountainService(pois, snapshot.NewFileStore(cfg.Snapshot.File)),
		routes:    usecases.NewRouteService(osrm.NewClient(cfg.OSRM.URL, cfg.OSRM.Timeout), cfg.OSRM.Timeout),
	}
}

type rootOptions struct {
	logLevel string
	jsonOut  bool
	svc      *services
}

// NewRootCommand builds the pulpuluck client CLI.
func NewRootCommand(ctx context.Context) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "pulpuluck",
		Short: "Find public drinking fountains and walk to them",
		Long: "pulpuluck queries OpenStreetMap for drinking fountains inside the configured area, " +
			"finds the nearest one and asks OSRM for a walking route. The last good fountain set " +
			"is kept on disk and used when Overpass is unreachable.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("pulpuluck-cli")
			if err != nil {
				return err
			}
			level := opts.logLevel
			if level == "" {
				level = "warn"
			}
			slog.SetDefault(logging.New(os.Stderr, level, "text"))
			opts.svc = newServices(cfg)
			return nil
		},
	}
	cmd.SetContext(ctx)

	fs := cmd.PersistentFlags()
	fs.StringVar(&opts.logLevel, "log-level", "", "log level written to stderr (debug, info, warn, error)")
	fs.BoolVar(&opts.jsonOut, "json", false, "print results as JSON")

	cmd.AddCommand(
		newFountainsCommand(opts),
		newNearestCommand(opts),
		newNearbyCommand(opts),
		newRouteCommand(opts),
		newLocateCommand(opts),
		newWatchCommand(opts),
	)
	return cmd
}

// pointFlags registers --<prefix>lat and --<prefix>lon on cmd.
type pointFlags struct {
	prefix   string
	lat, lon float64
}

func (p *pointFlags) register(cmd *cobra.Command, what string, required bool) {
	cmd.Flags().Float64Var(&p.lat, p.prefix+"lat", 0, "latitude of the "+what)
	cmd.Flags().Float64Var(&p.lon, p.prefix+"lon", 0, "longitude of the "+what)
	if required {
		_ = cmd.MarkFlagRequired(p.prefix + "lat")
		_ = cmd.MarkFlagRequired(p.prefix + "lon")
	}
}

func (p *pointFlags) point() (domain.GeoPoint, error) {
	gp := domain.GeoPoint{Lat: p.lat, Lon: p.lon}
	if !gp.Valid() {
		return gp, fmt.Errorf("coordinates out of range: %.6f,%.6f", p.lat, p.lon)
	}
	return gp, nil
}
