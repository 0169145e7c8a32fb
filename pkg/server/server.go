// Package server provides the public entry point for initializing the
// Athlete Sentinel backend: configuration, telemetry, store, generation
// gateway, flows, device channel, and the HTTP router, composed in order.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/athlete-sentinel/sentinel/internal/api"
	"github.com/athlete-sentinel/sentinel/internal/api/handlers"
	"github.com/athlete-sentinel/sentinel/internal/config"
	"github.com/athlete-sentinel/sentinel/internal/devicestatus"
	"github.com/athlete-sentinel/sentinel/internal/flows"
	"github.com/athlete-sentinel/sentinel/internal/gateway"
	"github.com/athlete-sentinel/sentinel/internal/metrics"
	"github.com/athlete-sentinel/sentinel/internal/store"
	"github.com/athlete-sentinel/sentinel/internal/telemetry"
)

// Server holds the initialized Athlete Sentinel backend.
type Server struct {
	// Handler is the HTTP handler with all routes and middleware.
	Handler http.Handler

	// Store is the data store (memory or PostgreSQL).
	Store store.Store

	// Device is the process-wide device-status channel.
	Device *devicestatus.Channel

	// Port is the port the server should listen on.
	Port int

	// ShutdownFunc should be called on graceful shutdown to stop the
	// simulator and flush telemetry.
	ShutdownFunc func(context.Context) error
}

// New initializes all components and returns a ready Server. A missing or
// unusable backend chain is a startup failure, not a runtime degradation.
func New(ctx context.Context) (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	otelShutdown, err := telemetry.Init(cfg.Telemetry, cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	dataStore, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Seed(ctx, dataStore); err != nil {
		return nil, fmt.Errorf("seed store: %w", err)
	}

	gw, err := newGateway(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Strs("chain", gw.Backends()).Msg("Generation gateway initialized")

	m := metrics.New()
	fl := flows.New(gw, dataStore, m)

	device := devicestatus.NewChannel()
	var sim *devicestatus.Simulator
	if cfg.Device.SimulateInterval > 0 {
		sim = devicestatus.NewSimulator(device, cfg.Device.SimulateInterval)
		sim.Start()
		log.Info().Dur("interval", cfg.Device.SimulateInterval).Msg("Device simulator started")
	}

	h := handlers.New(dataStore, fl, device, m)
	router := api.NewRouter(cfg, h, m)

	return &Server{
		Handler: router,
		Store:   dataStore,
		Device:  device,
		Port:    cfg.Port,
		ShutdownFunc: func(ctx context.Context) error {
			if sim != nil {
				sim.Stop()
			}
			return otelShutdown(ctx)
		},
	}, nil
}

// newStore selects PostgreSQL when DATABASE_URL is set, the in-memory
// store otherwise.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.URL == "" {
		log.Info().Msg("In-memory store initialized")
		return store.NewMemoryStore(), nil
	}
	pg, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return pg, nil
}

// newGateway builds the ordered backend chain from configuration.
func newGateway(ctx context.Context, cfg *config.Config) (*gateway.Gateway, error) {
	var backends []gateway.Backend
	for _, bc := range cfg.Generation.Backends {
		switch bc.Kind {
		case "gemini":
			b, err := gateway.NewGeminiBackend(ctx, bc.Name, bc.APIKey(), nil)
			if err != nil {
				return nil, fmt.Errorf("backend %s: %w", bc.Name, err)
			}
			backends = append(backends, b)
		case "openai":
			b, err := gateway.NewOpenAIBackend(bc.Name, bc.Endpoint, bc.Model, bc.APIKey())
			if err != nil {
				return nil, fmt.Errorf("backend %s: %w", bc.Name, err)
			}
			backends = append(backends, b)
		default:
			return nil, fmt.Errorf("backend %s: unknown kind %q", bc.Name, bc.Kind)
		}
	}

	return gateway.New(backends,
		gateway.WithTimeout(cfg.Generation.Timeout),
		gateway.WithMaxTokens(cfg.Generation.MaxTokens),
	)
}
