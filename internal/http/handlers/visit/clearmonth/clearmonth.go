// Package clearmonth реализует HTTP-обработчик удаления всех приёмов месяца.
// Удаление фиксируется одной записью истории и обратимо через Undo.
package clearmonth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daniellaterapia/visit-tracker/internal/http/middlewarectx"
	"github.com/daniellaterapia/visit-tracker/internal/http/response"
	"github.com/daniellaterapia/visit-tracker/internal/lib/sl"
)

// Handler управляет HTTP-запросами на удаление приёмов месяца.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики удаления приёмов месяца.
type Service interface {
	ClearMonth(ctx context.Context, userUID, month string) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.visit.clearmonth"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	month := chi.URLParam(r, "month")
	if _, err := time.Parse("2006-01", month); err != nil {
		log.Error("invalid month format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid month"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	removed, err := h.service.ClearMonth(r.Context(), userUID, month)
	if err != nil {
		log.Error("failed to clear month", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not clear month"))
		return
	}

	log.Info("month cleared", slog.String("month", month), slog.Int("removed", removed))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"deleted_count": removed,
	}))
}
