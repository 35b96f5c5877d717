// Package visit содержит бизнес-логику учёта приёмов: сеанс пользователя
// с живой коллекцией, оптимистичное применение изменений с фоновой
// персистентностью и многошаговую отмену/повтор через журнал истории.
//
// Каждое изменение применяется к живой коллекции синхронно и сразу видно
// читателям; запись в хранилище уходит в фоне и не блокирует вызывающего.
// Неуспех фоновой записи логируется и не откатывает живое состояние:
// локальное зеркало в шлюзе уже сохранило изменение (единая политика для
// коллекции приёмов и для шаблонов).
package visit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daniellaterapia/visit-tracker/internal/history"
	"github.com/daniellaterapia/visit-tracker/internal/lib/sl"
	"github.com/daniellaterapia/visit-tracker/internal/lib/view"
	"github.com/daniellaterapia/visit-tracker/internal/models"
)

// ErrNotFound возвращается операциями над несуществующей записью.
var ErrNotFound = errors.New("visit not found")

// Store описывает контракт шлюза персистентности для документов пользователя.
type Store interface {
	// LoadVisits возвращает коллекцию приёмов и признак нового пользователя.
	LoadVisits(ctx context.Context, userUID string) ([]models.Visit, bool)
	// SaveVisits сохраняет коллекцию приёмов целиком.
	SaveVisits(ctx context.Context, userUID string, visits []models.Visit) error
	// LoadTemplates возвращает недельные шаблоны пользователя.
	LoadTemplates(ctx context.Context, userUID string) models.WeeklyTemplates
	// SaveTemplates сохраняет недельные шаблоны целиком.
	SaveTemplates(ctx context.Context, userUID string, templates models.WeeklyTemplates) error
}

// Session — состояние одного аутентифицированного сеанса: живая коллекция,
// шаблоны и журнал истории. Живёт от первого запроса пользователя до logout.
type Session struct {
	mu        sync.Mutex
	visits    []models.Visit
	templates models.WeeklyTemplates
	history   *history.Log
	loaded    bool
	isNew     bool
}

// Service реализует операции учёта приёмов поверх сеансов пользователей.
type Service struct {
	store          Store
	log            *slog.Logger
	persistTimeout time.Duration
	now            func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	inflight sync.WaitGroup
}

// New создает новый экземпляр Service. persistTimeout ограничивает фоновую
// запись одного изменения в хранилище.
func New(store Store, log *slog.Logger, persistTimeout time.Duration) *Service {
	return &Service{
		store:          store,
		log:            log,
		persistTimeout: persistTimeout,
		now:            time.Now,
		sessions:       make(map[string]*Session),
	}
}

// session возвращает сеанс пользователя, создавая его при первом обращении.
func (s *Service) session(userUID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userUID]
	if !ok {
		sess = &Session{history: history.New()}
		s.sessions[userUID] = sess
	}
	return sess
}

// ensureLoaded загружает документы пользователя при первом обращении сеанса.
// Вызывается под блокировкой сеанса.
func (s *Service) ensureLoaded(ctx context.Context, sess *Session, userUID string) {
	if sess.loaded {
		return
	}
	visits, isNew := s.store.LoadVisits(ctx, userUID)
	sess.visits = visits
	sess.isNew = isNew
	sess.templates = s.store.LoadTemplates(ctx, userUID)
	sess.loaded = true
	s.log.Info("session loaded",
		slog.String("user_uid", userUID),
		slog.Int("visits", len(visits)),
		slog.Bool("is_new_user", isNew))
}

// apply — оптимистичное применение: живая коллекция заменяется синхронно,
// запись в хранилище уходит в фон. Вызывается под блокировкой сеанса.
func (s *Service) apply(sess *Session, userUID string, next []models.Visit) {
	sess.visits = next
	snapshot := models.CopyVisits(next)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()
		if err := s.store.SaveVisits(ctx, userUID, snapshot); err != nil {
			s.log.Error("failed to persist visits", slog.String("user_uid", userUID), sl.Err(err))
		}
	}()
}

// EndSession завершает сеанс пользователя, освобождая его состояние в памяти.
func (s *Service) EndSession(userUID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userUID)
}

// Flush дожидается завершения всех фоновых записей. Используется при
// остановке сервера, чтобы не оборвать последнюю запись.
func (s *Service) Flush() {
	s.inflight.Wait()
}

// Add добавляет новый приём. Если приём по плану с указанным названием,
// название плана проставляется всем записям этого пациента по плану:
// имя пациента служит ключом группировки.
func (s *Service) Add(ctx context.Context, userUID string, req models.DummyVisit) (models.Visit, error) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	visit := req.ToVisit(uuid.NewString())
	before := models.CopyVisits(sess.visits)

	next := models.CopyVisits(sess.visits)
	if visit.BillingMode == models.BillingPlan && visit.PlanName != "" {
		next = view.ApplyPlanName(next, visit.SubjectName, visit.PlanName)
	}
	next = append(next, visit)

	sess.history.Record(history.KindAdd, before, next,
		fmt.Sprintf("visit for %s added", visit.SubjectName))
	s.apply(sess, userUID, next)
	return visit, nil
}

// Edit обновляет приём по идентификатору с тем же правилом распространения
// названия плана, что и Add.
func (s *Service) Edit(ctx context.Context, userUID, id string, req models.DummyVisit) (models.Visit, error) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	if !hasVisit(sess.visits, id) {
		return models.Visit{}, ErrNotFound
	}

	visit := req.ToVisit(id)
	before := models.CopyVisits(sess.visits)

	next := models.CopyVisits(sess.visits)
	if visit.BillingMode == models.BillingPlan && visit.PlanName != "" {
		next = view.ApplyPlanName(next, visit.SubjectName, visit.PlanName)
	}
	for i := range next {
		if next[i].ID == id {
			next[i] = visit
			break
		}
	}

	sess.history.Record(history.KindEdit, before, next,
		fmt.Sprintf("visit for %s edited", visit.SubjectName))
	s.apply(sess, userUID, next)
	return visit, nil
}

// Remove удаляет приём по идентификатору.
func (s *Service) Remove(ctx context.Context, userUID, id string) error {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	var removed *models.Visit
	next := make([]models.Visit, 0, len(sess.visits))
	for _, v := range sess.visits {
		if v.ID == id {
			removed = &v
			continue
		}
		next = append(next, v)
	}
	if removed == nil {
		return ErrNotFound
	}

	sess.history.Record(history.KindDelete, sess.visits, next,
		fmt.Sprintf("visit for %s removed", removed.SubjectName))
	s.apply(sess, userUID, next)
	return nil
}

// TogglePayment переключает статус оплаты приёма. При переходе в paid
// проставляется сегодняшняя дата оплаты, при возврате в pending дата
// очищается.
func (s *Service) TogglePayment(ctx context.Context, userUID, id string) (models.Visit, error) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	next := models.CopyVisits(sess.visits)
	var toggled *models.Visit
	for i := range next {
		if next[i].ID != id {
			continue
		}
		if next[i].PaymentStatus == models.StatusPaid {
			next[i].PaymentStatus = models.StatusPending
			next[i].PaymentDate = ""
		} else {
			next[i].PaymentStatus = models.StatusPaid
			next[i].PaymentDate = s.today()
		}
		toggled = &next[i]
		break
	}
	if toggled == nil {
		return models.Visit{}, ErrNotFound
	}

	sess.history.Record(history.KindEdit, sess.visits, next,
		fmt.Sprintf("payment status of %s changed to %s", toggled.SubjectName, toggled.PaymentStatus))
	s.apply(sess, userUID, next)
	return *toggled, nil
}

// ClearMonth удаляет все приёмы заданного месяца одной записью истории.
func (s *Service) ClearMonth(ctx context.Context, userUID, month string) (int, error) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	next, removed := view.ClearMonth(sess.visits, month)
	if removed == 0 {
		return 0, nil
	}
	sess.history.Record(history.KindClear, sess.visits, next,
		fmt.Sprintf("%d visits of month %s removed", removed, month))
	s.apply(sess, userUID, next)
	return removed, nil
}

// BulkMarkPaid отмечает оплаченными все ожидающие приёмы плана за месяц.
// Все изменения фиксируются одной записью истории.
func (s *Service) BulkMarkPaid(ctx context.Context, userUID, planName, month string) (int, error) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	next, changed := view.BulkMarkPaid(sess.visits, planName, month, s.today())
	if changed == 0 {
		return 0, nil
	}
	sess.history.Record(history.KindEdit, sess.visits, next,
		fmt.Sprintf("%d visits of plan %s marked as paid", changed, planName))
	s.apply(sess, userUID, next)
	return changed, nil
}

// Undo откатывает последнее изменение, применяя снимок «до» через тот же
// оптимистичный путь. Пустой журнал — тихий no-op.
func (s *Service) Undo(ctx context.Context, userUID string) (string, bool) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	snapshot, description, ok := sess.history.Undo()
	if !ok {
		return "", false
	}
	s.apply(sess, userUID, snapshot)
	return description, true
}

// Redo повторяет отменённое изменение, применяя снимок «после».
func (s *Service) Redo(ctx context.Context, userUID string) (string, bool) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	snapshot, description, ok := sess.history.Redo()
	if !ok {
		return "", false
	}
	s.apply(sess, userUID, snapshot)
	return description, true
}

// List возвращает отфильтрованную коллекцию, отсортированную по дате приёма
// по убыванию, и признак нового пользователя.
func (s *Service) List(ctx context.Context, userUID string, f models.Filter) ([]models.Visit, bool) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	return view.SortByServiceDate(view.Filter(sess.visits, f)), sess.isNew
}

// Summarize считает агрегаты по отфильтрованному подмножеству и сумму,
// полученную за месяц фильтра (по дате оплаты).
func (s *Service) Summarize(ctx context.Context, userUID string, f models.Filter) (models.Summary, float64) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	summary := view.Aggregate(view.Filter(sess.visits, f))
	received := view.ReceivedInMonth(sess.visits, f.Month)
	return summary, received
}

// Suggestions возвращает списки уникальных имён пациентов и названий планов.
func (s *Service) Suggestions(ctx context.Context, userUID string) (names, plans []string) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	return view.UniqueNames(sess.visits), view.UniquePlans(sess.visits)
}

// CanUndoRedo сообщает, доступны ли отмена и повтор.
func (s *Service) CanUndoRedo(ctx context.Context, userUID string) (canUndo, canRedo bool) {
	sess := s.session(userUID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.ensureLoaded(ctx, sess, userUID)

	return sess.history.CanUndo(), sess.history.CanRedo()
}

func (s *Service) today() string {
	return s.now().Format("2006-01-02")
}

func hasVisit(visits []models.Visit, id string) bool {
	for _, v := range visits {
		if v.ID == id {
			return true
		}
	}
	return false
}
