package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/internal/config"
	"github.com/rfihub/inspector-cli/pkg/cache"
	"github.com/rfihub/inspector-cli/pkg/clients/geoclient"
	"github.com/rfihub/inspector-cli/pkg/clients/marketclient"
	"github.com/rfihub/inspector-cli/pkg/device"
	"github.com/rfihub/inspector-cli/pkg/session"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Market   *marketclient.Client
	Geocoder *geoclient.Client
	Cache    *cache.Store
	Session  *session.Session
	Location device.LocationProvider
	Photos   device.PhotoSource
	Logger   *zap.Logger
	Ctx      context.Context
}
