// Package server initializes and runs the GlueAuth server: it opens the
// database, applies migrations, wires the protocol services and runs the
// HTTP API alongside the session janitor until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/glueauth/internal/logging"
	"github.com/dmitrijs2005/glueauth/internal/server/config"
	"github.com/dmitrijs2005/glueauth/internal/server/httpserver"
	"github.com/dmitrijs2005/glueauth/internal/server/metrics"
	"github.com/dmitrijs2005/glueauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/glueauth/internal/server/services"
	"github.com/dmitrijs2005/glueauth/internal/server/sessions"
)

const minJanitorInterval = time.Second

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	store     sessions.Store
	publisher *services.S3SnapshotPublisher
	server    *httpserver.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newSessionStore(c, m, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	registry := services.NewRegistry(db, m)
	ledger := services.NewLedger(db, m)
	publisher := services.NewS3SnapshotPublisher(registry, c)

	kx := services.NewKeyExchangeService(store, c.BaseKey)
	authService := services.NewAuthService(store, registry, ledger, publisher, c.SecretKey, c.TokenValidityDuration, logger)

	srv := httpserver.NewHTTPServer(c, logger, kx, authService, registry, metrics.New())

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		store:     store,
		publisher: publisher,
		server:    srv,
	}, nil
}

func newSessionStore(c *config.Config, m repomanager.RepositoryManager, db *sql.DB) (sessions.Store, error) {
	switch c.SessionStore {
	case config.SessionStoreMemory, "":
		return sessions.NewMemoryStore(c.SessionTTL), nil
	case config.SessionStorePostgres:
		return sessions.NewPostgresStore(m.Sessions(db), c.SessionTTL), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", c.SessionStore)
	}
}

// janitorInterval sweeps twice per TTL, but never more often than once a second.
func janitorInterval(ttl time.Duration) time.Duration {
	if d := ttl / 2; d > minJanitorInterval {
		return d
	}
	return minJanitorInterval
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if app.publisher.Enabled() {
		if err := app.publisher.Publish(ctx); err != nil {
			app.logger.Warn(ctx, "initial membership snapshot not published", "error", err)
		}
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		sessions.RunJanitor(ctx, app.store, janitorInterval(app.config.SessionTTL), app.logger)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close", "error", err)
	}
	app.logger.Info(context.Background(), "Stopped")
}
