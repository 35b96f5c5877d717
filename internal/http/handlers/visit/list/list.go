// Package list реализует HTTP-обработчик выборки приёмов по фильтру.
//
// Handler принимает JSON-запрос с критериями фильтра, валидирует их, извлекает
// идентификатор пользователя из контекста и возвращает отфильтрованный список,
// отсортированный по дате приёма по убыванию, вместе со списками уникальных
// имён пациентов и названий планов для автодополнения.
package list

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

// Handler управляет HTTP-запросами на выборку приёмов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики выборки приёмов.
type Service interface {
	List(ctx context.Context, userUID string, f models.Filter) ([]models.Visit, bool)
	Suggestions(ctx context.Context, userUID string) (names, plans []string)
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
// @Summary Список приёмов
// @Description Возвращает приёмы пользователя, отфильтрованные по заданным критериям.
// @Tags Visits
// @Accept  json
// @Produce  json
// @Param request body models.DummyFilter true "Критерии фильтра"
// @Success 200 {object} map[string]any "Список приёмов"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /visits/list [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.visit.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyFilter
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

	visits, isNew := h.service.List(r.Context(), userUID, req.ToFilter())
	names, plans := h.service.Suggestions(r.Context(), userUID)

	log.Info("visits listed", slog.Int("count", len(visits)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"list_count":  len(visits),
		"visits":      visits,
		"names":       names,
		"plans":       plans,
		"is_new_user": isNew,
	}))
}
