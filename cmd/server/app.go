package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"github.com/phrazzld/taskmaster-api/internal/config"
	"github.com/phrazzld/taskmaster-api/internal/events"
	"github.com/phrazzld/taskmaster-api/internal/metrics"
	"github.com/phrazzld/taskmaster-api/internal/platform/mailer"
	"github.com/phrazzld/taskmaster-api/internal/platform/sqlstore"
	"github.com/phrazzld/taskmaster-api/internal/scheduler"
	"github.com/phrazzld/taskmaster-api/internal/service/auth"
	"github.com/phrazzld/taskmaster-api/internal/service/notification"
	"github.com/phrazzld/taskmaster-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sqlx.DB

	userStore store.UserStore
	taskStore store.TaskStore

	jwtService    auth.JWTService
	mailer        mailer.Mailer
	notifications *notification.Service
	scheduler     *scheduler.Scheduler
	metrics       *metrics.Metrics

	eventEmitter *events.InMemoryEventEmitter
	natsConn     *nats.Conn
}

// newApplication wires every component on top of a live database. The
// caller keeps ownership of db if an error is returned.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sqlx.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	loc, err := time.LoadLocation(cfg.Notifications.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid notifications timezone %q: %w", cfg.Notifications.Timezone, err)
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("ops token service initialized",
		"token_lifetime_minutes", cfg.Auth.OpsTokenLifetimeMinutes)

	app.userStore = sqlstore.NewUserStore(db, logger)
	app.taskStore = sqlstore.NewTaskStore(db, logger)

	app.mailer, err = mailer.New(cfg.Mail, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	app.metrics = metrics.New()

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	if cfg.Events.NATSURL != "" {
		app.natsConn, err = events.ConnectNATS(cfg.Events.NATSURL, logger)
		if err != nil {
			return nil, err
		}
		app.eventEmitter.RegisterHandler(events.NewNATSHandler(app.natsConn, cfg.Events.Subject))
	}

	app.notifications = notification.NewService(
		app.taskStore,
		app.userStore,
		app.mailer,
		notification.Config{
			SendTimeout: cfg.Notifications.SendTimeout,
			MaxAttempts: cfg.Notifications.MaxAttempts,
		},
		logger,
		notification.WithEmitter(app.eventEmitter),
		notification.WithRecorder(app.metrics),
	)

	app.scheduler = scheduler.New(
		app.notifications,
		app.notifications,
		scheduler.Config{
			ScanInterval: cfg.Notifications.ScanInterval,
			DigestSpec:   cfg.Notifications.DigestSpec,
			Location:     loc,
		},
		logger,
		app.metrics,
	)

	return app, nil
}

// cleanup releases connections. It is safe to call more than once.
func (app *application) cleanup() {
	if app.natsConn != nil {
		if err := app.natsConn.Drain(); err != nil {
			app.logger.Warn("failed to drain nats connection", "error", err)
		}
		app.natsConn = nil
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn("failed to close database", "error", err)
		}
		app.db = nil
	}
}
