// Package visittracker предоставляет маршруты для основного приложения.
package visittracker

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/auth/login"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/auth/logout"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/auth/register"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/template/gettemplates"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/template/materialize"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/template/savetemplates"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/visit/bulkpay"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/visit/clearmonth"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/visit/create"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/visit/list"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/visit/redo"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/visit/remove"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/visit/summary"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/visit/togglepayment"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/visit/undo"
	"github.com/daniellaterapia/visit-tracker/internal/http/handlers/visit/update"
	"github.com/daniellaterapia/visit-tracker/internal/http/middlewarectx"
	authservice "github.com/daniellaterapia/visit-tracker/internal/services/auth"
	visitservice "github.com/daniellaterapia/visit-tracker/internal/services/visit"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, authService *authservice.Service, visitService *visitservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/visits", create.New(logger, visitService).ServeHTTP)
			r.Put("/visits/{id}", update.New(logger, visitService).ServeHTTP)
			r.Delete("/visits/{id}", remove.New(logger, visitService).ServeHTTP)
			r.Post("/visits/{id}/payment", togglepayment.New(logger, visitService).ServeHTTP)
			r.Post("/visits/list", list.New(logger, visitService).ServeHTTP)
			r.Post("/visits/summary", summary.New(logger, visitService).ServeHTTP)
			r.Post("/visits/bulkpay", bulkpay.New(logger, visitService).ServeHTTP)
			r.Delete("/visits/month/{month}", clearmonth.New(logger, visitService).ServeHTTP)
			r.Post("/visits/undo", undo.New(logger, visitService).ServeHTTP)
			r.Post("/visits/redo", redo.New(logger, visitService).ServeHTTP)

			r.Get("/templates", gettemplates.New(logger, visitService).ServeHTTP)
			r.Put("/templates", savetemplates.New(logger, visitService).ServeHTTP)
			r.Post("/templates/materialize", materialize.New(logger, visitService).ServeHTTP)

			r.Post("/logout", logout.New(logger, visitService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
}
