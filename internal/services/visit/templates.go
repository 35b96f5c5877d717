package visit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/daniellaterapia/visit-tracker/internal/history"
	"github.com/daniellaterapia/visit-tracker/internal/lib/sl"
	"github.com/daniellaterapia/visit-tracker/internal/models"
)

// Templates возвращает недельные шаблоны пользователя.
func (s *Service) Templates(ctx context.Context, userUID string) models.WeeklyTemplates {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	return models.CopyTemplates(sess.templates)
}

// ReplaceTemplates заменяет недельные шаблоны целиком. Применение
// оптимистичное, как и для коллекции приёмов; изменения шаблонов
// в журнал истории не попадают.
func (s *Service) ReplaceTemplates(ctx context.Context, userUID string, templates models.WeeklyTemplates) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	sess.templates = models.CopyTemplates(templates)
	snapshot := models.CopyTemplates(templates)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()
		if err := s.store.SaveTemplates(ctx, userUID, snapshot); err != nil {
			s.log.Error("failed to persist templates", slog.String("user_uid", userUID), sl.Err(err))
		}
	}()
}

// MaterializeToday разворачивает заготовки сегодняшнего дня недели в приёмы
// с сегодняшней датой, статусом pending и свежими идентификаторами. Все
// добавленные записи фиксируются одной записью истории. Возвращает число
// добавленных приёмов; ноль — для дня без заготовок.
func (s *Service) MaterializeToday(ctx context.Context, userUID string) (int, error) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	today := s.now()
	entries := sess.templates[int(today.Weekday())]
	if len(entries) == 0 {
		return 0, nil
	}

	date := today.Format("2006-01-02")
	next := models.CopyVisits(sess.visits)
	for _, e := range entries {
		visit := models.Visit{
			ID:            uuid.NewString(),
			SubjectName:   e.SubjectName,
			ServiceDate:   date,
			BillingMode:   e.BillingMode,
			PlanName:      e.PlanName,
			Amount:        e.Amount,
			PaymentStatus: models.StatusPending,
			Notes:         e.Notes,
		}
		visit.Normalize()
		next = append(next, visit)
	}

	sess.history.Record(history.KindAdd, sess.visits, next,
		fmt.Sprintf("%d visits added from %s template", len(entries), today.Weekday()))
	s.apply(sess, userUID, next)
	return len(entries), nil
}
