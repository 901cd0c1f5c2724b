// Package app provides the application lifecycle management for propgrid.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	grpcapi "github.com/propgrid/propgrid/internal/api/grpc"
	httpapi "github.com/propgrid/propgrid/internal/api/http"
	"github.com/propgrid/propgrid/internal/config"
	"github.com/propgrid/propgrid/internal/dataset"
	"github.com/propgrid/propgrid/internal/observability"
	"github.com/propgrid/propgrid/internal/server"
	"github.com/propgrid/propgrid/internal/session"
	"github.com/propgrid/propgrid/internal/storage"
	"github.com/propgrid/propgrid/internal/view"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// statsWindow is how long usage stats are kept.
const statsWindow = 24 * time.Hour

// App manages the propgrid service lifecycle.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	// Shared resources
	storage  storage.ObjectStorage
	store    *dataset.SQLiteStore
	registry *dataset.Registry
	memo     *view.Memo
	stats    *observability.ViewStats
	sessions *session.Manager
	shutdown *server.ShutdownManager

	// Servers
	httpServer   *http.Server
	httpListener net.Listener
	grpcServer   *grpc.Server
	grpcListener net.Listener

	// Lifecycle
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// New creates a new App with the given configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		shutdown: server.NewShutdownManager(server.ShutdownConfig{
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
			DrainTimeout:    cfg.HTTP.ShutdownTimeout / 2,
			Logger:          logger,
		}),
	}, nil
}

// Start initializes shared resources, loads datasets and starts the HTTP
// and gRPC servers.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app is already running")
	}
	a.running = true
	a.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.initSharedResources(ctx); err != nil {
		a.abort()
		return err
	}
	if err := a.listen(); err != nil {
		a.abort()
		return err
	}

	g, gctx := errgroup.WithContext(runCtx)
	a.group = g

	g.Go(func() error {
		a.logger.Info("HTTP server listening", zap.String("addr", a.httpListener.Addr().String()))
		if err := a.httpServer.Serve(a.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.grpcServer != nil {
		g.Go(func() error {
			a.logger.Info("gRPC server listening", zap.String("addr", a.grpcListener.Addr().String()))
			if err := a.grpcServer.Serve(a.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		return a.sessions.Run(gctx, sweepInterval(a.cfg.View.SessionTTL))
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				a.stats.Prune()
			}
		}
	})

	a.logger.Info("propgrid started",
		zap.Int("datasets", len(a.registry.List())),
		zap.Bool("grpc", a.grpcServer != nil))
	return nil
}

func (a *App) initSharedResources(ctx context.Context) error {
	store, err := OpenStorage(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.storage = store
	a.logger.Info("storage initialized", zap.String("type", a.cfg.Storage.Type))

	a.store, err = dataset.OpenSQLiteStore(a.cfg.Datasets.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open dataset store: %w", err)
	}
	a.shutdown.RegisterCloser("dataset store", a.store)

	a.registry = dataset.NewRegistry(a.logger.Named("datasets"))
	err = LoadDatasets(ctx, a.registry, Sources{
		Snapshots: dataset.NewSnapshotSource(a.storage, a.cfg.Datasets.SnapshotPrefix),
		Store:     a.store,
		Fixtures:  a.cfg.Datasets.LoadFixtures,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to load datasets: %w", err)
	}

	a.memo = view.NewMemo(a.cfg.View.MemoCapacity)
	a.stats = observability.NewViewStats(statsWindow)
	a.sessions = session.NewManager(a.registry, a.memo, a.stats, session.Options{
		TTL:             a.cfg.View.SessionTTL,
		DefaultPageSize: a.cfg.View.DefaultPageSize,
		PageSizeOptions: a.cfg.View.PageSizeOptions,
	}, a.logger.Named("sessions"))
	return nil
}

func (a *App) listen() error {
	handler := httpapi.NewHandler(httpapi.Options{
		Registry:        a.registry,
		Sessions:        a.sessions,
		Memo:            a.memo,
		Stats:           a.stats,
		DefaultPageSize: a.cfg.View.DefaultPageSize,
		Logger:          a.logger.Named("http"),
	})

	ln, err := net.Listen("tcp", a.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.HTTP.Addr, err)
	}
	a.httpListener = ln
	a.httpServer = &http.Server{
		Handler:      server.ShutdownMiddleware(a.shutdown)(handler.Routes()),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}
	a.shutdown.RegisterCloser("http server", server.HTTPServerCloser(a.httpServer, a.cfg.HTTP.ShutdownTimeout))

	if !a.cfg.GRPC.Enabled {
		return nil
	}

	gln, err := net.Listen("tcp", a.cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.GRPC.Addr, err)
	}
	a.grpcListener = gln
	a.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(grpcapi.UnaryInterceptor(a.logger.Named("grpc"))))
	grpcapi.RegisterViewServiceServer(a.grpcServer, grpcapi.NewViewServer(grpcapi.Options{
		Registry:        a.registry,
		Sessions:        a.sessions,
		Memo:            a.memo,
		Stats:           a.stats,
		DefaultPageSize: a.cfg.View.DefaultPageSize,
		Logger:          a.logger.Named("grpc"),
	}))
	a.shutdown.RegisterCloser("grpc server", server.CloserFunc(func() error {
		a.grpcServer.GracefulStop()
		return nil
	}))
	return nil
}

// abort releases whatever Start managed to open.
func (a *App) abort() {
	if a.httpListener != nil {
		a.httpListener.Close()
	}
	if a.grpcListener != nil {
		a.grpcListener.Close()
	}
	a.cancel()
	a.shutdown.Shutdown(context.Background(), "start failed")

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
}

// Stop gracefully shuts down all services and releases resources.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	a.cancel()
	err := a.shutdown.Shutdown(ctx, "stop requested")

	if a.group != nil {
		if gerr := a.group.Wait(); gerr != nil && err == nil {
			err = gerr
		}
	}

	a.logger.Info("propgrid stopped")
	return err
}

// Wait blocks until a server fails or the app is stopped.
func (a *App) Wait() error {
	if a.group == nil {
		return nil
	}
	return a.group.Wait()
}

// WaitForShutdown blocks until a shutdown signal is received or ctx is
// cancelled, then stops the app.
func (a *App) WaitForShutdown(ctx context.Context) error {
	if err := a.shutdown.ListenForSignals(ctx); err != nil {
		a.logger.Warn("shutdown incomplete", zap.Error(err))
	}
	return a.Stop(context.Background())
}

// HTTPAddr returns the address the HTTP server listens on.
func (a *App) HTTPAddr() string {
	if a.httpListener == nil {
		return ""
	}
	return a.httpListener.Addr().String()
}

// GRPCAddr returns the address the gRPC server listens on, or "" when
// gRPC is disabled.
func (a *App) GRPCAddr() string {
	if a.grpcListener == nil {
		return ""
	}
	return a.grpcListener.Addr().String()
}

// Registry returns the dataset registry.
func (a *App) Registry() *dataset.Registry {
	return a.registry
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	return interval
}
