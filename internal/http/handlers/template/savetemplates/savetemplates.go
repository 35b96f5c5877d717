// Package savetemplates реализует HTTP-обработчик полной замены недельных шаблонов.
//
// Шаблоны заменяются целиком: частичных обновлений нет, клиент присылает
// всю недельную структуру. Дни вне диапазона 0..6 отклоняются.
package savetemplates

import (
	"context"
	"encoding/json"
	"fmt"
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

// Request — структура входных данных с недельными шаблонами.
type Request struct {
	Templates models.WeeklyTemplates `json:"templates" validate:"required"`
}

// Handler управляет HTTP-запросами на замену шаблонов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики замены шаблонов.
type Service interface {
	ReplaceTemplates(ctx context.Context, userUID string, templates models.WeeklyTemplates)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validation.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.template.save"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := validateTemplates(h.validate, req.Templates); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	h.service.ReplaceTemplates(r.Context(), userUID, req.Templates)

	log.Info("templates replaced", slog.Int("days", len(req.Templates)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "templates saved",
	}))
}

// validateTemplates проверяет диапазон дней недели и каждую заготовку.
func validateTemplates(validate *validator.Validate, templates models.WeeklyTemplates) error {
	for day, entries := range templates {
		if day < 0 || day > 6 {
			return fmt.Errorf("day %d is out of range 0..6", day)
		}
		for _, entry := range entries {
			if err := validate.Struct(entry); err != nil {
				return fmt.Errorf("day %d: %w", day, err)
			}
		}
	}
	return nil
}
