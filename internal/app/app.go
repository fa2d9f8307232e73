package app

import (
	"context"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/coindeck/internal/api"
	"github.com/coindeck/internal/cache"
	"github.com/coindeck/internal/gateway"
	"github.com/coindeck/internal/messaging"
	"github.com/coindeck/internal/upstream"
	"github.com/coindeck/pkg/config"
)

// App represents the gateway server application
type App struct {
	cfg    *config.Config
	logger *logrus.Logger
	wg     sync.WaitGroup

	redisCache *cache.RedisClient
	natsClient *messaging.NATSClient
	gw         *gateway.Gateway
	apiServer  *api.Server
}

// New creates a new application instance
func New(cfg *config.Config, logger *logrus.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Initialize wires all application components. Redis and NATS are
// optional backends: when disabled the gateway runs uncached and
// purchases go to the log sink only.
func (a *App) Initialize() error {
	if a.cfg.Redis.Enabled {
		rc, err := cache.NewRedisClient(&a.cfg.Redis, a.cfg.Upstream.CacheTTL, a.logger)
		if err != nil {
			a.logger.WithError(err).Warn("Redis unavailable, gateway runs uncached")
		} else {
			a.redisCache = rc
		}
	}

	if a.cfg.NATS.Enabled {
		nc, err := messaging.NewNATSClient(&a.cfg.NATS, a.logger)
		if err != nil {
			a.logger.WithError(err).Warn("NATS unavailable, purchase telemetry disabled")
		} else {
			a.natsClient = nc
		}
	}

	client := upstream.NewClient(&a.cfg.Upstream, a.logger)

	// The nil interface dance keeps the gateway's cache truly optional.
	var envCache gateway.EnvelopeCache
	if a.redisCache != nil {
		envCache = a.redisCache
	}
	a.gw = gateway.New(client, envCache, a.cfg.Upstream.MaxCount, a.logger)

	a.apiServer = api.NewServer(a.cfg, a.logger, a.gw, a.redisCache, a.natsClient)

	return nil
}

// Start starts the HTTP server.
func (a *App) Start() error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			a.logger.WithError(err).Error("API server error")
		}
	}()

	return nil
}

// Stop gracefully stops the application
func (a *App) Stop(ctx context.Context) error {
	if a.apiServer != nil {
		if err := a.apiServer.Stop(ctx); err != nil {
			a.logger.WithError(err).Error("Failed to stop API server")
		}
	}

	if a.natsClient != nil {
		a.natsClient.Close()
	}

	if a.redisCache != nil {
		a.redisCache.Close()
	}

	a.wg.Wait()
	return nil
}
