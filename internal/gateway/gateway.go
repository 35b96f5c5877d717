// Package gateway реализует шлюз персистентности: чтение и запись именованных
// JSON-документов в удалённом объектном хранилище с локальным резервом.
//
// На каждую пару (пользователь, вид документа) приходится один документ:
// patients-<uid>.json, templates-<uid>.json и общий users.json. Запись сначала
// синхронно зеркалируется в локальный кеш, затем делается одна попытка записи
// в удалённое хранилище; её неуспех логируется и проглатывается. Чтение идёт
// сначала в удалённое хранилище с ограничением по времени, при любом сбое
// срабатывает локальный резерв; отсутствие документа в обоих ярусах — не
// ошибка, а признак нового пользователя.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator"

	"github.com/daniellaterapia/visit-tracker/internal/blobstore"
	"github.com/daniellaterapia/visit-tracker/internal/lib/metrics"
	"github.com/daniellaterapia/visit-tracker/internal/lib/sl"
	"github.com/daniellaterapia/visit-tracker/internal/lib/validation"
	"github.com/daniellaterapia/visit-tracker/internal/models"
)

// Виды документов; участвуют в именах объектов и метках метрик.
const (
	kindPatients  = "patients"
	kindTemplates = "templates"
	kindUsers     = "users"
)

const contentTypeJSON = "application/json"

// BlobClient описывает контракт удалённого объектного хранилища.
type BlobClient interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	List(ctx context.Context, prefix string) ([]blobstore.Object, error)
	Get(ctx context.Context, url string) ([]byte, error)
}

// FallbackCache описывает контракт локального резервного кеша.
type FallbackCache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// Gateway — шлюз персистентности поверх удалённого хранилища и кеша.
type Gateway struct {
	blobs       BlobClient
	cache       FallbackCache
	log         *slog.Logger
	readTimeout time.Duration
	validate    *validator.Validate
}

// New создаёт шлюз. readTimeout ограничивает ожидание удалённого чтения:
// чтение, не уложившееся в срок, считается неуспешным и не отменяется —
// его поздний результат просто игнорируется.
func New(blobs BlobClient, cache FallbackCache, log *slog.Logger, readTimeout time.Duration) *Gateway {
	return &Gateway{
		blobs:       blobs,
		cache:       cache,
		log:         log,
		readTimeout: readTimeout,
		validate:    validation.New(),
	}
}

// patientsDocument — формат документа с приёмами пациентов.
type patientsDocument struct {
	UserID      string         `json:"userId"`
	Patients    []models.Visit `json:"patients"`
	LastUpdated string         `json:"lastUpdated"`
}

// rawPatientsDocument читает записи как сырой JSON: каждая запись проходит
// проверку формы отдельно, чтобы одна битая запись не ронялa весь документ.
type rawPatientsDocument struct {
	Patients []json.RawMessage `json:"patients"`
}

// visitShape — проверка формы записи при чтении: обязательные поля присутствуют
// и имеют правильный примитивный тип. Указатели отличают отсутствующее поле
// от нулевого значения; несовпадение типа ловится самим json.Unmarshal.
type visitShape struct {
	ID            *string  `json:"id" validate:"required"`
	SubjectName   *string  `json:"subjectName" validate:"required"`
	ServiceDate   *string  `json:"serviceDate" validate:"required"`
	BillingMode   *string  `json:"billingMode" validate:"required"`
	Amount        *float64 `json:"amount" validate:"required"`
	PaymentStatus *string  `json:"paymentStatus" validate:"required"`
}

// templatesDocument — текущий формат документа недельных шаблонов.
// Старые документы могут быть в других формах, см. decodeTemplates.
type templatesDocument struct {
	UserID    string                 `json:"userId,omitempty"`
	Templates models.WeeklyTemplates `json:"templates"`
}

// usersDocument — текущий формат таблицы пользователей: email -> User.
type usersDocument struct {
	Users map[string]models.User `json:"users"`
}

func patientsKey(userUID string) string  { return "patients-" + userUID }
func templatesKey(userUID string) string { return "templates-" + userUID }

// SaveVisits сохраняет коллекцию приёмов пользователя. Локальное зеркало
// пишется синхронно до удалённой попытки, поэтому недоступность хранилища
// не теряет только что сделанное изменение. Ошибка возвращается только если
// не удались оба яруса.
func (g *Gateway) SaveVisits(ctx context.Context, userUID string, visits []models.Visit) error {
	const op = "gateway.SaveVisits"
	cacheErr := g.cache.Set(patientsKey(userUID), visits, 0)
	if cacheErr != nil {
		g.log.Error("failed to mirror patients to local cache", sl.Err(cacheErr))
	}

	doc := patientsDocument{
		UserID:      userUID,
		Patients:    visits,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}
	remoteErr := g.putDocument(ctx, kindPatients, patientsKey(userUID)+".json", doc)
	if remoteErr != nil && cacheErr != nil {
		return fmt.Errorf("%s: %w", op, remoteErr)
	}
	return nil
}

// LoadVisits читает коллекцию приёмов пользователя. Второе значение — признак
// нового пользователя: документа нет ни в одном ярусе. Чтение не возвращает
// ошибок: любой сбой вырождается в резерв, затем в пустую коллекцию.
//
// Резерв срабатывает всегда, когда удалённое чтение не дало разбираемый
// документ — при ошибке сети, таймауте, битом теле и при его отсутствии.
// Последний случай важен: запись, успевшая только в локальное зеркало,
// не должна пропасть, когда хранилище снова доступно, но пустое.
func (g *Gateway) LoadVisits(ctx context.Context, userUID string) ([]models.Visit, bool) {
	const op = "gateway.LoadVisits"
	data, found, err := g.getDocument(ctx, patientsKey(userUID)+".json")
	switch {
	case err != nil:
		g.log.Warn("remote read failed, falling back to local cache", slog.String("op", op), sl.Err(err))
	case found:
		var doc rawPatientsDocument
		if err := json.Unmarshal(data, &doc); err == nil {
			metrics.BlobReads.WithLabelValues(kindPatients, metrics.SourceRemote).Inc()
			return g.validVisits(doc.Patients), false
		}
		g.log.Warn("malformed patients document, falling back to local cache",
			slog.String("op", op), slog.String("user_uid", userUID))
	}

	var cached []models.Visit
	ok, cacheErr := g.cache.Get(patientsKey(userUID), &cached)
	if cacheErr != nil {
		g.log.Error("failed to read patients from local cache", sl.Err(cacheErr))
	}
	if ok {
		// Зеркало писалось нашим же кодом, форма записей уже проверена.
		metrics.BlobReads.WithLabelValues(kindPatients, metrics.SourceCache).Inc()
		return cached, false
	}
	metrics.BlobReads.WithLabelValues(kindPatients, metrics.SourceEmpty).Inc()
	return []models.Visit{}, true
}

// SaveTemplates сохраняет недельные шаблоны пользователя; политика та же,
// что у SaveVisits.
func (g *Gateway) SaveTemplates(ctx context.Context, userUID string, templates models.WeeklyTemplates) error {
	const op = "gateway.SaveTemplates"
	cacheErr := g.cache.Set(templatesKey(userUID), templates, 0)
	if cacheErr != nil {
		g.log.Error("failed to mirror templates to local cache", sl.Err(cacheErr))
	}

	doc := templatesDocument{UserID: userUID, Templates: templates}
	remoteErr := g.putDocument(ctx, kindTemplates, templatesKey(userUID)+".json", doc)
	if remoteErr != nil && cacheErr != nil {
		return fmt.Errorf("%s: %w", op, remoteErr)
	}
	return nil
}

// LoadTemplates читает недельные шаблоны пользователя, принимая все
// исторические формы документа. Сбои вырождаются в резерв и пустую карту.
func (g *Gateway) LoadTemplates(ctx context.Context, userUID string) models.WeeklyTemplates {
	const op = "gateway.LoadTemplates"
	data, found, err := g.getDocument(ctx, templatesKey(userUID)+".json")
	switch {
	case err != nil:
		g.log.Warn("remote read failed, falling back to local cache", slog.String("op", op), sl.Err(err))
	case found:
		if templates, decodeErr := decodeTemplates(data); decodeErr == nil {
			metrics.BlobReads.WithLabelValues(kindTemplates, metrics.SourceRemote).Inc()
			return templates
		}
		g.log.Warn("malformed templates document, falling back to local cache",
			slog.String("op", op), slog.String("user_uid", userUID))
	}

	var cached models.WeeklyTemplates
	ok, cacheErr := g.cache.Get(templatesKey(userUID), &cached)
	if cacheErr != nil {
		g.log.Error("failed to read templates from local cache", sl.Err(cacheErr))
	}
	if ok {
		metrics.BlobReads.WithLabelValues(kindTemplates, metrics.SourceCache).Inc()
		return cached
	}
	metrics.BlobReads.WithLabelValues(kindTemplates, metrics.SourceEmpty).Inc()
	return models.WeeklyTemplates{}
}

// SaveUsers сохраняет таблицу пользователей. В отличие от документов приёмов
// учётная запись не должна существовать только в кеше, поэтому ошибка
// удалённой записи здесь возвращается вызывающему.
func (g *Gateway) SaveUsers(ctx context.Context, users map[string]models.User) error {
	const op = "gateway.SaveUsers"
	if err := g.cache.Set(kindUsers, users, 0); err != nil {
		g.log.Error("failed to mirror users to local cache", sl.Err(err))
	}
	if err := g.putDocument(ctx, kindUsers, "users.json", usersDocument{Users: users}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LoadUsers читает таблицу пользователей. Отсутствие документа — пустая
// таблица (первый запуск); сбой обоих ярусов — ошибка, чтобы последующая
// запись read-modify-write не затёрла таблицу пустым документом.
func (g *Gateway) LoadUsers(ctx context.Context) (map[string]models.User, error) {
	const op = "gateway.LoadUsers"
	data, found, err := g.getDocument(ctx, "users.json")
	if err == nil {
		if !found {
			metrics.BlobReads.WithLabelValues(kindUsers, metrics.SourceEmpty).Inc()
			return map[string]models.User{}, nil
		}
		users, decodeErr := decodeUsers(data)
		if decodeErr != nil {
			return nil, fmt.Errorf("%s: %w", op, decodeErr)
		}
		metrics.BlobReads.WithLabelValues(kindUsers, metrics.SourceRemote).Inc()
		return users, nil
	}

	g.log.Warn("remote read failed, falling back to local cache", slog.String("op", op), sl.Err(err))
	var cached map[string]models.User
	ok, cacheErr := g.cache.Get(kindUsers, &cached)
	if cacheErr != nil {
		g.log.Error("failed to read users from local cache", sl.Err(cacheErr))
	}
	if ok {
		metrics.BlobReads.WithLabelValues(kindUsers, metrics.SourceCache).Inc()
		return cached, nil
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

// putDocument сериализует документ и выполняет одну попытку удалённой записи.
func (g *Gateway) putDocument(ctx context.Context, kind, name string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		metrics.BlobWrites.WithLabelValues(kind, metrics.ResultFailed).Inc()
		return err
	}
	if _, err := g.blobs.Put(ctx, name, data, contentTypeJSON); err != nil {
		metrics.BlobWrites.WithLabelValues(kind, metrics.ResultFailed).Inc()
		g.log.Warn("remote write failed, local mirror holds the change",
			slog.String("name", name), sl.Err(err))
		return err
	}
	metrics.BlobWrites.WithLabelValues(kind, metrics.ResultOK).Inc()
	return nil
}

// getDocument ищет документ в листинге и скачивает его под таймаутом чтения.
// found=false без ошибки означает, что документа в хранилище нет.
func (g *Gateway) getDocument(ctx context.Context, name string) (data []byte, found bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, g.readTimeout)
	defer cancel()

	blobs, err := g.blobs.List(ctx, name)
	if err != nil {
		return nil, false, err
	}
	var objectURL string
	for _, b := range blobs {
		if b.Pathname == name {
			objectURL = b.URL
			break
		}
	}
	if objectURL == "" {
		return nil, false, nil
	}
	data, err = g.blobs.Get(ctx, objectURL)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// validVisits пропускает каждую запись через проверку формы и молча
// отбрасывает невалидные: одна битая запись не должна ронять всё чтение.
func (g *Gateway) validVisits(raws []json.RawMessage) []models.Visit {
	out := make([]models.Visit, 0, len(raws))
	for _, raw := range raws {
		var shape visitShape
		if err := json.Unmarshal(raw, &shape); err != nil {
			metrics.DroppedRecords.Inc()
			g.log.Warn("dropping malformed record", sl.Err(err))
			continue
		}
		if err := g.validate.Struct(shape); err != nil {
			metrics.DroppedRecords.Inc()
			g.log.Warn("dropping malformed record", sl.Err(err))
			continue
		}
		var v models.Visit
		if err := json.Unmarshal(raw, &v); err != nil {
			metrics.DroppedRecords.Inc()
			continue
		}
		out = append(out, v)
	}
	return out
}
