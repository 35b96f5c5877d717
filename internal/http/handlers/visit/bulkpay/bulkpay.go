// Package bulkpay реализует HTTP-обработчик массовой отметки оплаты:
// все ожидающие оплаты приёмы заданного плана за заданный месяц
// отмечаются оплаченными одним действием.
package bulkpay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/daniellaterapia/visit-tracker/internal/http/middlewarectx"
	"github.com/daniellaterapia/visit-tracker/internal/http/response"
	"github.com/daniellaterapia/visit-tracker/internal/lib/sl"
	"github.com/daniellaterapia/visit-tracker/internal/lib/validation"
	"github.com/daniellaterapia/visit-tracker/internal/models"
)

// Handler управляет HTTP-запросами на массовую отметку оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики массовой отметки оплаты.
type Service interface {
	BulkMarkPaid(ctx context.Context, userUID, planName, month string) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validation.New(),
	}
}

// ServeHTTP godoc
// @Summary Массовая отметка оплаты
// @Description Отмечает оплаченными все ожидающие приёмы плана за месяц.
// @Tags Visits
// @Accept  json
// @Produce  json
// @Param request body models.DummyBulkPay true "План и месяц"
// @Success 200 {object} map[string]any "Число изменённых записей"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /visits/bulkpay [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.visit.bulkpay"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBulkPay
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	changed, err := h.service.BulkMarkPaid(r.Context(), userUID, req.PlanName, req.Month)
	if err != nil {
		log.Error("failed to bulk mark paid", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not mark visits as paid"))
		return
	}

	log.Info("visits marked as paid", slog.Int("changed", changed))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"changed_count": changed,
	}))
}
