// Package undo реализует HTTP-обработчик отмены последнего действия.
// Пустой журнал истории — не ошибка: возвращается undone=false.
package undo

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daniellaterapia/visit-tracker/internal/http/middlewarectx"
	"github.com/daniellaterapia/visit-tracker/internal/http/response"
)

// Handler управляет HTTP-запросами на отмену последнего действия.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики отмены действия.
type Service interface {
	Undo(ctx context.Context, userUID string) (string, bool)
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
	const op = "handlers.visit.undo"

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

	description, undone := h.service.Undo(r.Context(), userUID)
	canUndo, canRedo := h.service.CanUndoRedo(r.Context(), userUID)

	log.Info("undo handled", slog.Bool("undone", undone))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"undone":      undone,
		"description": description,
		"can_undo":    canUndo,
		"can_redo":    canRedo,
	}))
}
