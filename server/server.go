package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/n9te9/go-graphql-composer/federation/transport"
	"github.com/n9te9/go-graphql-composer/gateway"
	"github.com/n9te9/go-graphql-composer/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	recomposeEndpoint = "/schema/recompose"
	sdlEndpoint       = "/sdl"
	metricsEndpoint   = "/metrics"
	healthEndpoint    = "/healthz"
)

type server struct {
	registry        *registry.Registry
	graphqlEndpoint string
	graphqlHandler  http.Handler
	metricsHandler  http.Handler
}

func newServer(reg *registry.Registry, endpoint string, gatherer prometheus.Gatherer, tracing bool) *server {
	var graphqlHandler http.Handler = reg
	if tracing {
		graphqlHandler = otelhttp.NewHandler(reg, "graphql")
	}

	return &server{
		registry:        reg,
		graphqlEndpoint: endpoint,
		graphqlHandler:  graphqlHandler,
		metricsHandler:  promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.URL.Path {
	case recomposeEndpoint:
		s.registry.RegisterGateway(w, req)
	case sdlEndpoint:
		s.registry.ServeSDL(w, req)
	case metricsEndpoint:
		s.metricsHandler.ServeHTTP(w, req)
	case healthEndpoint:
		if s.registry.AppliedGateway() == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	case s.graphqlEndpoint:
		s.graphqlHandler.ServeHTTP(w, req)
	default:
		http.NotFound(w, req)
	}
}

// Run serves the gateway described by the config at configPath until SIGTERM or
// interrupt.
func Run(configPath string) error {
	opt, err := gateway.LoadOption(configPath)
	if err != nil {
		return err
	}
	logger := NewLogger(opt)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	shutdownTracing, err := setupTracing(ctx, opt)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	client := newTransport(opt, transport.NewMetrics(promRegistry))

	reg := registry.NewRegistry(buildFunc(*opt, logger, client), logger)
	if err := reg.Start(ctx); err != nil {
		return fmt.Errorf("failed to compose the initial schema: %w", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opt.Port),
		Handler: newServer(reg, opt.Endpoint, promRegistry, opt.Opentelemetry.TracingSetting.Enable),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", opt.Port).Str("endpoint", opt.Endpoint).Msg("gateway started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("gateway stopped")

	return nil
}

// NewLogger builds the process logger from the log settings of opt.
func NewLogger(opt *gateway.GatewayOption) zerolog.Logger {
	level, err := zerolog.ParseLevel(opt.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if opt.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", opt.ServiceName).Logger()
}
