package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/genricoloni/synremote/internal/api"
	"github.com/genricoloni/synremote/internal/artwork"
	"github.com/genricoloni/synremote/internal/auth"
	"github.com/genricoloni/synremote/internal/clock"
	"github.com/genricoloni/synremote/internal/config"
	"github.com/genricoloni/synremote/internal/domain"
	"github.com/genricoloni/synremote/internal/engine"
	"github.com/genricoloni/synremote/internal/jellyfin"
	"github.com/genricoloni/synremote/internal/poller"
	"github.com/genricoloni/synremote/internal/presence"
	"github.com/genricoloni/synremote/internal/selector"
	"github.com/genricoloni/synremote/internal/store"
	"github.com/spf13/afero"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// options are the global command line flags
type options struct {
	ConfigFile string
	Debug      bool
	LogFile    string
}

// appOptions is the dependency graph shared by every command
func appOptions(opts options) fx.Option {
	return fx.Options(
		fx.Supply(opts),
		fx.Provide(
			newLogger,
			afero.NewOsFs,
			newConfigSource,
			fx.Annotate(config.NewAppConfig, fx.As(new(domain.Config))),
			clock.New,
			auth.NewTokenStore,
			newFileStore,
			newSessionStore,
			newTransport,
			selector.NewSelector,
			poller.NewPoller,
			newArtwork,
			newPresenceSink,
			presence.NewBridge,
			newEngine,
			newController,
			api.NewServer,
		),
	)
}

// newLogger creates the zap logger. With a log file set, all output goes
// there so the terminal stays free for the remote screen.
func newLogger(opts options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if opts.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if opts.LogFile != "" {
		cfg.OutputPaths = []string{opts.LogFile}
		cfg.ErrorOutputPaths = []string{opts.LogFile}
	}
	return cfg.Build()
}

func newConfigSource(fs afero.Fs, opts options) config.Source {
	return config.Source{Fs: fs, File: opts.ConfigFile}
}

func newFileStore(logger *zap.Logger, fs afero.Fs, cfg domain.Config) (*store.FileStore, error) {
	return store.NewFileStore(logger, fs, cfg.StateDir())
}

func newSessionStore(s *store.FileStore) domain.SessionStore {
	return s
}

func newTransport(logger *zap.Logger, cfg domain.Config, tokens *auth.TokenStore, device *store.FileStore) domain.Transport {
	return jellyfin.NewClient(logger, cfg, tokens, device)
}

func newArtwork(logger *zap.Logger, transport domain.Transport, fs afero.Fs, cfg domain.Config) (*artwork.Service, error) {
	if err := fs.MkdirAll(cfg.ArtworkDir(), 0o755); err != nil {
		logger.Warn("Failed to create artwork directory", zap.String("dir", cfg.ArtworkDir()), zap.Error(err))
	}
	return artwork.NewService(logger, transport, fs, cfg)
}

func newPresenceSink(logger *zap.Logger, cfg domain.Config, art *artwork.Service) domain.PresenceSink {
	return presence.NewNotificationSink(logger, cfg, art)
}

func newEngine(
	logger *zap.Logger,
	cfg domain.Config,
	clk clock.Clock,
	transport domain.Transport,
	sel *selector.Selector,
	pol *poller.Poller,
	bridge *presence.Bridge,
	art *artwork.Service,
) *engine.Engine {
	return engine.NewEngine(logger, cfg, clk, transport, sel, pol, bridge, art)
}

func newController(e *engine.Engine) api.Controller {
	return e
}

// registerEngine ties the engine to the application lifecycle
func registerEngine(lc fx.Lifecycle, logger *zap.Logger, e *engine.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Synremote started")
			return e.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			return e.Stop(ctx)
		},
	})
}

// registerServer ties the control API to the application lifecycle
func registerServer(lc fx.Lifecycle, srv *api.Server) {
	lc.Append(fx.StartStopHook(srv.Start, srv.Stop))
}

// runApp starts the graph plus extra, runs fn and stops the graph again
func runApp(ctx context.Context, opts options, extra fx.Option, fn func(ctx context.Context) error) error {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		appOptions(opts),
		extra,
	)
	if err := app.Err(); err != nil {
		return err
	}

	if err := app.Start(ctx); err != nil {
		return err
	}

	runErr := fn(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	return multierr.Append(runErr, app.Stop(stopCtx))
}

// defaultLogFile is where the terminal remote logs unless told otherwise
func defaultLogFile() string {
	return filepath.Join(os.TempDir(), "synremote.log")
}
