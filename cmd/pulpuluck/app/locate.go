package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/pulpuluck/internal/adapters/location"
	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/core/ports"
	"github.com/samirrijal/pulpuluck/internal/core/usecases"
)

func newLocateCommand(opts *rootOptions) *cobra.Command {
	at := &pointFlags{}
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Find your position, the nearest fountain and a walking route to it",
		Long: "locate uses --lat/--lon when given, otherwise approximates the position " +
			"from the public IP address.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var provider ports.LocationProvider
			hasLat, hasLon := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			switch {
			case hasLat && hasLon:
				p := domain.GeoPoint{Lat: at.lat, Lon: at.lon}
				provider = location.NewFixed(&p)
			case hasLat || hasLon:
				// half a coordinate is no position
				provider = location.NewFixed(nil)
			default:
				loc := opts.svc.cfg.Location
				provider = location.NewIPLookup(loc.IPLookupURL, loc.Timeout)
			}

			svc := usecases.NewLocateService(provider, opts.svc.fountains, opts.svc.routes)
			res, err := svc.Locate(cmd.Context())
			if err != nil {
				var locErr *domain.LocationError
				if errors.As(err, &locErr) {
					return errors.New(locErr.Message())
				}
				return dataError(err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, res)
			}
			fmt.Fprintf(out, "You are at %.6f, %.6f\n", res.User.Lat, res.User.Lon)
			if res.Nearest != nil {
				printNearest(out, *res.Nearest)
			}
			if res.Route != nil {
				printRoute(out, *res.Route)
			}
			fmt.Fprintln(out, res.Summary())
			return nil
		},
	}
	at.register(cmd, "current position", false)
	return cmd
}

// dataError turns ErrDataUnavailable into the message shown to users.
func dataError(err error) error {
	if errors.Is(err, domain.ErrDataUnavailable) {
		return errors.New("fountain data is unavailable and no saved copy exists, please retry later")
	}
	return err
}
