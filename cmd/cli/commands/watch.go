package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/pkg/cache"
)

// WatchCmd creates the watch command, a foreground poller that keeps the
// three job collections warm on a cron schedule
func WatchCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically refresh the job collections until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, _ := cmd.Flags().GetString("every")
			if schedule == "" {
				schedule = app.Cfg.WatchSchedule
			}

			app.Logger.Info("watch started", zap.String("schedule", schedule))

			scheduler := cron.New()
			_, err := scheduler.AddFunc(schedule, func() {
				refreshCollections(app)
			})
			if err != nil {
				return fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
			}

			// Warm the cache immediately rather than waiting a full interval
			refreshCollections(app)

			scheduler.Start()
			defer func() {
				<-scheduler.Stop().Done()
			}()

			fmt.Printf("Watching job collections (%s). Press Ctrl+C to stop.\n", schedule)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			app.Logger.Info("watch stopped")
			return nil
		},
	}

	cmd.Flags().String("every", "", "Cron schedule override, e.g. '@every 2m'")

	return cmd
}

func refreshCollections(app *AppContext) {
	start := time.Now()
	for _, key := range []string{cache.KeyNearbyJobs, cache.KeyBidJobs, cache.KeyMyBids} {
		if _, err := app.Cache.ForceRefresh(app.Ctx, key); err != nil {
			app.Logger.Warn("collection refresh failed",
				zap.String("collection", key),
				zap.Error(err))
			continue
		}
		app.Logger.Debug("collection refreshed", zap.String("collection", key))
	}
	app.Logger.Info("refresh cycle complete", zap.Duration("took", time.Since(start)))
}
