package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/pulpuluck/internal/adapters/nats"
	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var fountainID string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print fountain status votes as they are cast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := natsadapter.NewSubscriber(opts.svc.cfg.NATS.URL, "")
			if err != nil {
				return err
			}
			defer sub.Close()

			out := cmd.OutOrStdout()
			err = sub.SubscribeVotes(cmd.Context(), func(ctx context.Context, ev *domain.VoteEvent) error {
				if fountainID != "" && ev.FountainID != fountainID {
					return nil
				}
				if opts.jsonOut {
					return writeJSON(out, ev)
				}
				fb := ev.Feedback
				fmt.Fprintf(out, "%s  %-12s %-13s running=%d outOfService=%d abandoned=%d\n",
					ev.Time.Local().Format(time.TimeOnly), ev.FountainID, ev.VoteType,
					fb.Running, fb.OutOfService, fb.Abandoned)
				return nil
			})
			if err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "watching votes, press Ctrl+C to stop")
			<-cmd.Context().Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&fountainID, "fountain", "", "only show votes for this fountain id")
	return cmd
}
