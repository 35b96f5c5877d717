// Package materialize реализует HTTP-обработчик разворачивания заготовок
// сегодняшнего дня недели в приёмы. Добавленные записи получают сегодняшнюю
// дату, статус pending и свежие идентификаторы; день без заготовок — не
// ошибка, возвращается нулевой счётчик.
package materialize

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daniellaterapia/visit-tracker/internal/http/middlewarectx"
	"github.com/daniellaterapia/visit-tracker/internal/http/response"
	"github.com/daniellaterapia/visit-tracker/internal/lib/sl"
)

// Handler управляет HTTP-запросами на материализацию шаблонов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики материализации шаблонов.
type Service interface {
	MaterializeToday(ctx context.Context, userUID string) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.template.materialize"

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

	added, err := h.service.MaterializeToday(r.Context(), userUID)
	if err != nil {
		log.Error("failed to materialize templates", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not materialize templates"))
		return
	}

	log.Info("templates materialized", slog.Int("added", added))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"added_count": added,
	}))
}
