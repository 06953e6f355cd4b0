package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/cmd/cli/commands"
	"github.com/rfihub/inspector-cli/internal/config"
	"github.com/rfihub/inspector-cli/pkg/cache"
	"github.com/rfihub/inspector-cli/pkg/clients/geoclient"
	"github.com/rfihub/inspector-cli/pkg/clients/marketclient"
	"github.com/rfihub/inspector-cli/pkg/device"
	"github.com/rfihub/inspector-cli/pkg/session"
	"github.com/rfihub/inspector-cli/pkg/utils/logging"
)

var (
	env     string
	verbose bool

	// app is allocated up front so commands can hold the pointer; its
	// fields are populated by initApp once flags are parsed
	app = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "inspector",
		Short: "Inspector CLI - bid on and check in to inspection jobs",
		Long:  `A CLI client for the inspection marketplace: browse nearby jobs, place bids, and record on-site check-ins.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Cache != nil {
				app.Cache.Close()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug output on the console")

	rootCmd.AddCommand(commands.ViewJobCmd(app))
	rootCmd.AddCommand(commands.ListJobsCmd(app))
	rootCmd.AddCommand(commands.SubmitBidCmd(app))
	rootCmd.AddCommand(commands.CheckInCmd(app))
	rootCmd.AddCommand(commands.WatchCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, session, clients, and the cache store
func initApp() error {
	app.Ctx = context.Background()

	var err error
	app.Logger, err = logging.InitLogger(env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	app.Logger.Info("Loading session token", zap.String("path", app.Cfg.TokenPath))
	app.Session, err = session.Load(app.Cfg.TokenPath)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if app.Session.Expired(time.Now()) {
		return fmt.Errorf("session token has expired, please log in again")
	}
	app.Logger.Debug("Session loaded", zap.String("inspector_id", app.Session.InspectorID))

	app.Logger.Info("Initializing marketplace client")
	app.Market = marketclient.NewClient(app.Ctx, app.Cfg.APIBaseURL, app.Session.Token, app.Logger)

	app.Logger.Info("Initializing geocoder client")
	app.Geocoder = geoclient.NewClient(app.Cfg.GeocoderURL, app.Logger)

	app.Logger.Info("Opening cache store", zap.String("path", app.Cfg.CachePath))
	ttl := cache.DefaultTTL
	if app.Cfg.CacheTTLMinutes > 0 {
		ttl = time.Duration(app.Cfg.CacheTTLMinutes) * time.Minute
	}
	app.Cache, err = cache.Open(app.Ctx, app.Cfg.CachePath, ttl, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to open cache store: %w", err)
	}
	app.Cache.RegisterLoader(cache.KeyNearbyJobs, app.Market.NearbyEnquiries)
	app.Cache.RegisterLoader(cache.KeyBidJobs, app.Market.BidEnquiries)
	app.Cache.RegisterLoader(cache.KeyMyBids, app.Market.MyBids)

	app.Location = locationProvider(app.Cfg)
	app.Photos = device.FilePhotoSource{
		CameraPath:  app.Cfg.CameraPath,
		GalleryPath: app.Cfg.GalleryPath,
	}

	app.Logger.Info("Application initialized successfully")
	return nil
}

// locationProvider builds the CLI's stand-in for a device location sensor.
// Missing coordinates behave like a permission refusal so the check-in flow
// degrades the same way it would on a phone.
func locationProvider(cfg *config.Config) device.LocationProvider {
	if cfg.Latitude == nil || cfg.Longitude == nil {
		return device.StaticLocation{Denied: true}
	}
	return device.StaticLocation{
		Position: device.Position{
			Latitude:  *cfg.Latitude,
			Longitude: *cfg.Longitude,
		},
	}
}
