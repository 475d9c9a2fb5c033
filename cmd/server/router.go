package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskmaster-api/internal/api"
	apiMiddleware "github.com/phrazzld/taskmaster-api/internal/api/middleware"
)

// setupRouter creates the router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(middleware.Recoverer)

	healthHandler := api.NewHealthHandler(app.db)
	notificationHandler := api.NewNotificationHandler(
		app.scheduler,
		app.scheduler.GuardTaskReminders(app.notifications),
		app.notifications,
		app.logger,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/notifications/check", notificationHandler.CheckNotifications)
		r.Post("/notifications/test", notificationHandler.SendTestNotification)
		r.Post("/notifications/tasks/{id}", notificationHandler.SendTaskNotification)
		r.Post("/notifications/tasks/{id}/completion", notificationHandler.SendCompletionNotification)
	})

	return r
}
