// Package gettemplates реализует HTTP-обработчик чтения недельных шаблонов.
package gettemplates

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daniellaterapia/visit-tracker/internal/http/middlewarectx"
	"github.com/daniellaterapia/visit-tracker/internal/http/response"
	"github.com/daniellaterapia/visit-tracker/internal/models"
)

// Handler управляет HTTP-запросами на чтение шаблонов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения шаблонов.
type Service interface {
	Templates(ctx context.Context, userUID string) models.WeeklyTemplates
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.template.get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	templates := h.service.Templates(r.Context(), userUID)

	log.Info("templates read", slog.Int("days", len(templates)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"templates": templates,
	}))
}
