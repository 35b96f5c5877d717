// Package logout реализует HTTP-обработчик завершения сеанса пользователя.
// Сеанс с живой коллекцией и журналом истории освобождается на сервере;
// токен остаётся валиден до истечения срока и просто забывается клиентом.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/daniellaterapia/visit-tracker/internal/http/middlewarectx"
	"github.com/daniellaterapia/visit-tracker/internal/http/response"
)

// Handler обрабатывает HTTP-запросы на завершение сеанса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс завершения сеанса.
type Service interface {
	EndSession(userUID string)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

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

	h.service.EndSession(userUID)

	log.Info("session ended", slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "session ended",
	}))
}
