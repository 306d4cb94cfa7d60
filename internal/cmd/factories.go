package cmd

import (
	"github.com/voxdash/voxdash/internal/adapters/realtime"
	"github.com/voxdash/voxdash/internal/adapters/restapi"
	"github.com/voxdash/voxdash/internal/adapters/storage"
	"github.com/voxdash/voxdash/internal/config"
	"github.com/voxdash/voxdash/internal/domain"
	"github.com/voxdash/voxdash/internal/services"
)

// Container holds all dependencies for the application
type Container struct {
	API            *restapi.Client
	Channel        *services.Channel
	Device         domain.DeviceInfo
	QueryService   *services.QueryService
	SessionService *services.SessionService

	// Internal - for cleanup only
	store *storage.SQLiteStore
}

// NewContainer creates a Container with all dependencies wired. The
// caller resolves the gateway URL and connection options (flags over
// settings over defaults) before getting here.
func NewContainer(apiURL string, opts config.ConnectionOptions, appVersion string) (*Container, error) {
	store, err := storage.NewSQLiteStore(config.GetDBPath())
	if err != nil {
		return nil, err
	}

	device := services.LoadDeviceInfo(appVersion)
	api := restapi.NewClient(apiURL, opts.Timeout)
	sessionService := services.NewSessionService(api, store, device)
	channel := services.NewChannel(realtime.NewProvider(opts.Timeout), sessionService, opts)
	queryService := services.NewQueryService(channel, api, sessionService)

	return &Container{
		API:            api,
		Channel:        channel,
		Device:         device,
		QueryService:   queryService,
		SessionService: sessionService,
		store:          store,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	c.Channel.Disconnect()
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
