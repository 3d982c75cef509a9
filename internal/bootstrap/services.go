package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerline/invoice-api/config"
	mongoadapter "github.com/ledgerline/invoice-api/internal/adapters/mongo"
	"github.com/ledgerline/invoice-api/internal/observability/statsd"
	"github.com/ledgerline/invoice-api/internal/service"
)

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// ServiceContainer holds the application's service instances.
type ServiceContainer struct {
	Auth     *service.AuthService
	Invoices *service.InvoiceService
	Sweeper  *service.SweeperService
}

// ObservabilityContainer holds metrics infrastructure shared across services.
type ObservabilityContainer struct {
	Metrics statsd.Sink
	closer  func() error
}

// Close releases observability resources.
func (o ObservabilityContainer) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer()
}

// ServiceDeps contains dependencies for creating services.
type ServiceDeps struct {
	Config *config.AppConfig
	Mongo  *MongoHandle
	Logger *slog.Logger
}

// buildObservability wires the StatsD client when metrics are enabled.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	if !cfg.Metrics.IsEnabled() {
		return ObservabilityContainer{}
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  "invoice_api",
		Logger:  logger,
	})
	if err != nil {
		logger.Warn("statsd client unavailable, metrics disabled", "error", err)
		return ObservabilityContainer{}
	}

	return ObservabilityContainer{Metrics: client, closer: client.Close}
}

// NewServices creates and wires all application services.
func NewServices(deps *ServiceDeps) ServiceContainer {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(logger, deps.Config.Observability)

	authSvc := BuildAuthService(AuthDeps{
		Auth:    deps.Config.Auth,
		Session: deps.Config.Session,
		Mongo:   deps.Mongo,
		Logger:  logger,
	})

	var invoiceSvc *service.InvoiceService
	var sweeperSvc *service.SweeperService

	if deps.Mongo != nil && deps.Mongo.Database != nil {
		// Services are only constructed for the modes this process runs.
		if deps.Config.IsHTTPServerEnabled() {
			var err error
			invoiceSvc, err = service.NewInvoiceService(service.InvoiceServiceOptions{
				Repo:   mongoadapter.NewInvoiceRepo(deps.Mongo.Database),
				Logger: logger,
			})
			if err != nil {
				logger.Warn("invoice service unavailable", "error", err)
			}
		}

		if deps.Config.IsSweeperEnabled() {
			var err error
			sweeperSvc, err = service.NewSweeperService(service.SweeperServiceOptions{
				Store:   mongoadapter.NewSessionStore(deps.Mongo.Database),
				Config:  deps.Config.Sweeper,
				Logger:  logger,
				Metrics: observability.Metrics,
			})
			if err != nil {
				logger.Warn("sweeper service unavailable", "error", err)
			}
		}
	}

	return ServiceContainer{
		Auth:     authSvc,
		Invoices: invoiceSvc,
		Sweeper:  sweeperSvc,
	}
}

// ServiceOrchestrationConfig contains everything needed to run the enabled services.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a long-running service started in its own goroutine.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(ctx context.Context) error
}

// backgroundServiceHandle tracks a started background service for shutdown.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

type startResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// RunServicesWithShutdown starts the enabled services and blocks until a
// shutdown signal arrives or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, len(enabledServices)+1)

	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		logger:      logger,
		backgrounds: result.Background,
	})
}

// startServices launches everything enabled in the configuration.
func startServices(deps *serviceStartupDeps) startResult {
	var result startResult

	if deps.enabledServices[config.ServiceModeHTTP] {
		result.HTTPServer = StartHTTPServer(&HTTPServerConfig{
			Config:   deps.cfg.Config,
			Services: deps.cfg.Services,
			Logger:   deps.logger,
		})
	}

	if deps.cfg.Services.Sweeper != nil {
		done := launchBackground(deps.ctx, deps, backgroundService{
			mode:  config.ServiceModeSweeper,
			name:  "session sweeper",
			start: deps.cfg.Services.Sweeper.Run,
		})
		if done != nil {
			result.Background = append(result.Background, backgroundServiceHandle{
				name: "session sweeper",
				done: done,
			})
		}
	}

	return result
}

// launchBackground starts a background service when its mode is enabled and
// returns a channel closed when the service goroutine exits.
func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
