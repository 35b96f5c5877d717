// Package togglepayment реализует HTTP-обработчик переключения статуса оплаты приёма.
// При переходе в paid датой оплаты становится сегодняшний день, при возврате
// в pending дата оплаты очищается.
package togglepayment

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daniellaterapia/visit-tracker/internal/http/middlewarectx"
	"github.com/daniellaterapia/visit-tracker/internal/http/response"
	"github.com/daniellaterapia/visit-tracker/internal/lib/sl"
	"github.com/daniellaterapia/visit-tracker/internal/models"
	"github.com/daniellaterapia/visit-tracker/internal/services/visit"
)

// Handler управляет HTTP-запросами на переключение статуса оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики переключения статуса оплаты.
type Service interface {
	TogglePayment(ctx context.Context, userUID, id string) (models.Visit, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.visit.togglepayment"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		log.Error("missing visit id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	toggled, err := h.service.TogglePayment(r.Context(), userUID, id)
	if err != nil {
		if errors.Is(err, visit.ErrNotFound) {
			log.Error("visit not found", slog.String("visit_id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("visit not found"))
			return
		}
		log.Error("failed to toggle payment status", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not toggle payment status"))
		return
	}

	log.Info("payment status toggled",
		slog.String("visit_id", toggled.ID),
		slog.String("payment_status", toggled.PaymentStatus))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"visit": toggled,
	}))
}
