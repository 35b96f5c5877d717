// Package redo реализует HTTP-обработчик повтора отменённого действия.
package redo

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daniellaterapia/visit-tracker/internal/http/middlewarectx"
	"github.com/daniellaterapia/visit-tracker/internal/http/response"
)

// Handler управляет HTTP-запросами на повтор отменённого действия.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики повтора действия.
type Service interface {
	Redo(ctx context.Context, userUID string) (string, bool)
	CanUndoRedo(ctx context.Context, userUID string) (canUndo, canRedo bool)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.visit.redo"

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

	description, redone := h.service.Redo(r.Context(), userUID)
	canUndo, canRedo := h.service.CanUndoRedo(r.Context(), userUID)

	log.Info("redo handled", slog.Bool("redone", redone))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"redone":      redone,
		"description": description,
		"can_undo":    canUndo,
		"can_redo":    canRedo,
	}))
}
