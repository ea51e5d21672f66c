package app

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/core/usecases"
)

func newFountainsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fountains",
		Short: "List every drinking fountain in the configured area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fountains, err := opts.svc.fountains.Fetch(cmd.Context())
			if err != nil {
				return dataError(err)
			}
			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, fountains)
			}
			fmt.Fprintf(out, "%d fountains\n", len(fountains))
			for _, f := range fountains {
				fmt.Fprintf(out, "%-12s %10.6f %11.6f  %s\n", f.ID, f.Location.Lat, f.Location.Lon, f.Name)
			}
			return nil
		},
	}
}

func newNearestCommand(opts *rootOptions) *cobra.Command {
	from := &pointFlags{}
	cmd := &cobra.Command{
		Use:   "nearest",
		Short: "Show the fountain closest to a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := from.point()
			if err != nil {
				return err
			}
			fountains, err := opts.svc.fountains.Fetch(cmd.Context())
			if err != nil {
				return dataError(err)
			}

			nearest := usecases.FindNearest(p, fountains)
			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, nearest)
			}
			if nearest == nil {
				fmt.Fprintln(out, "No drinking fountains known nearby")
				return nil
			}
			printNearest(out, *nearest)
			return nil
		},
	}
	from.register(cmd, "starting point", true)
	return cmd
}

func newNearbyCommand(opts *rootOptions) *cobra.Command {
	from := &pointFlags{}
	var radius float64
	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List fountains within a radius, nearest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := from.point()
			if err != nil {
				return err
			}
			if radius <= 0 {
				return fmt.Errorf("radius must be positive, got %v", radius)
			}
			fountains, err := opts.svc.fountains.Fetch(cmd.Context())
			if err != nil {
				return dataError(err)
			}

			results := usecases.Within(p, radius, fountains)
			out := cmd.OutOrStdout()
			if opts.jsonOut {
				if results == nil {
					results = []domain.NearestResult{}
				}
				return writeJSON(out, results)
			}
			fmt.Fprintf(out, "%d fountains within %.0fm\n", len(results), radius)
			for _, r := range results {
				printNearest(out, r)
			}
			return nil
		},
	}
	from.register(cmd, "center", true)
	cmd.Flags().Float64Var(&radius, "radius", 500, "search radius in meters")
	return cmd
}

func newRouteCommand(opts *rootOptions) *cobra.Command {
	from := &pointFlags{prefix: "from-"}
	to := &pointFlags{prefix: "to-"}
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Walking route between two points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := from.point()
			if err != nil {
				return err
			}
			end, err := to.point()
			if err != nil {
				return err
			}

			route := opts.svc.routes.WalkingRoute(cmd.Context(), start, end)
			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, route)
			}
			printRoute(out, route)
			return nil
		},
	}
	from.register(cmd, "start", true)
	to.register(cmd, "destination", true)
	return cmd
}

func printNearest(w io.Writer, r domain.NearestResult) {
	fmt.Fprintf(w, "%-12s %6dm  %s (%.6f, %.6f)\n",
		r.Fountain.ID, int(math.Round(r.DistanceMeters)), r.Fountain.Name,
		r.Fountain.Location.Lat, r.Fountain.Location.Lon)
}

func printRoute(w io.Writer, r domain.Route) {
	fmt.Fprintf(w, "%dm, %d min walk (%s, %d points)\n",
		int(math.Round(r.DistanceMeters)), int(math.Round(r.DurationSeconds/60)), r.Source, len(r.Path))
	if r.IsFallback() {
		fmt.Fprintln(w, "routing service unavailable, showing straight line")
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
