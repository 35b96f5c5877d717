package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniellaterapia/visit-tracker/internal/blobstore"
	"github.com/daniellaterapia/visit-tracker/internal/cache"
	"github.com/daniellaterapia/visit-tracker/internal/config"
	"github.com/daniellaterapia/visit-tracker/internal/models"
)

// fakeBlobServer эмулирует удалённое объектное хранилище: PUT по имени,
// листинг с префиксом, чтение по URL из листинга.
type fakeBlobServer struct {
	mu      sync.Mutex
	objects map[string][]byte
	srv     *httptest.Server
	failAll bool
	delay   time.Duration
}

func newFakeBlobServer(t *testing.T) *fakeBlobServer {
	f := &fakeBlobServer{objects: map[string][]byte{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		failAll, delay := f.failAll, f.delay
		f.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		if failAll {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch {
		case r.Method == http.MethodPut:
			name := strings.TrimPrefix(r.URL.Path, "/")
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.objects[name] = body
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]string{"url": f.srv.URL + "/objects/" + name})
		case strings.HasPrefix(r.URL.Path, "/objects/"):
			name := strings.TrimPrefix(r.URL.Path, "/objects/")
			f.mu.Lock()
			body, ok := f.objects[name]
			f.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(body)
		default:
			prefix := r.URL.Query().Get("prefix")
			var blobs []blobstore.Object
			f.mu.Lock()
			for name := range f.objects {
				if strings.HasPrefix(name, prefix) {
					blobs = append(blobs, blobstore.Object{Pathname: name, URL: f.srv.URL + "/objects/" + name})
				}
			}
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{"blobs": blobs})
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBlobServer) setFailAll(v bool) {
	f.mu.Lock()
	f.failAll = v
	f.mu.Unlock()
}

func (f *fakeBlobServer) put(name string, body string) {
	f.mu.Lock()
	f.objects[name] = []byte(body)
	f.mu.Unlock()
}

func newTestGateway(t *testing.T, blobs *fakeBlobServer, readTimeout time.Duration) *Gateway {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)

	client := blobstore.New(config.BlobStore{
		BaseURL:        blobs.srv.URL,
		Token:          "test-token",
		ReadTimeout:    readTimeout,
		RequestTimeout: 5 * time.Second,
	})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(client, c, log, readTimeout)
}

func someVisits() []models.Visit {
	return []models.Visit{{
		ID:            "1",
		SubjectName:   "Maria Souza",
		ServiceDate:   "2024-03-04",
		BillingMode:   models.BillingPlan,
		PlanName:      "PlanA",
		Amount:        150,
		PaymentStatus: models.StatusPending,
	}}
}

func TestSaveAndLoadVisitsRoundTrip(t *testing.T) {
	blobs := newFakeBlobServer(t)
	g := newTestGateway(t, blobs, time.Second)

	require.NoError(t, g.SaveVisits(context.Background(), "u1", someVisits()))

	got, isNew := g.LoadVisits(context.Background(), "u1")
	assert.False(t, isNew)
	assert.Equal(t, someVisits(), got)

	// Документ в хранилище имеет обёртку {userId, patients, lastUpdated}.
	var doc map[string]any
	require.NoError(t, json.Unmarshal(blobs.objects["patients-u1.json"], &doc))
	assert.Equal(t, "u1", doc["userId"])
	assert.NotEmpty(t, doc["lastUpdated"])
}

func TestLoadVisitsNewUser(t *testing.T) {
	g := newTestGateway(t, newFakeBlobServer(t), time.Second)

	got, isNew := g.LoadVisits(context.Background(), "nobody")
	assert.True(t, isNew)
	assert.Empty(t, got)
}

func TestLoadVisitsDropsMalformedRecord(t *testing.T) {
	blobs := newFakeBlobServer(t)
	blobs.put("patients-u1.json", `{
		"userId": "u1",
		"patients": [
			{"id":"1","subjectName":"Maria Souza","serviceDate":"2024-03-04","billingMode":"plan","planName":"PlanA","amount":150,"paymentStatus":"pending"},
			{"id":"2","subjectName":"Joao Lima","serviceDate":"2024-03-05","billingMode":"private","paymentStatus":"pending"}
		],
		"lastUpdated": "2024-03-05T10:00:00Z"
	}`)
	g := newTestGateway(t, blobs, time.Second)

	got, isNew := g.LoadVisits(context.Background(), "u1")
	assert.False(t, isNew)
	// Вторая запись без amount отброшена, чтение при этом успешно.
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func TestLoadVisitsFallsBackToCacheOnRemoteFailure(t *testing.T) {
	blobs := newFakeBlobServer(t)
	g := newTestGateway(t, blobs, time.Second)

	require.NoError(t, g.SaveVisits(context.Background(), "u1", someVisits()))
	blobs.setFailAll(true)

	got, isNew := g.LoadVisits(context.Background(), "u1")
	assert.False(t, isNew)
	assert.Equal(t, someVisits(), got)
}

func TestLoadVisitsTimesOutAndFallsBack(t *testing.T) {
	blobs := newFakeBlobServer(t)
	g := newTestGateway(t, blobs, 100*time.Millisecond)

	require.NoError(t, g.SaveVisits(context.Background(), "u1", someVisits()))
	blobs.mu.Lock()
	blobs.delay = 500 * time.Millisecond
	blobs.mu.Unlock()

	start := time.Now()
	got, isNew := g.LoadVisits(context.Background(), "u1")
	assert.Less(t, time.Since(start), 450*time.Millisecond)
	assert.False(t, isNew)
	assert.Equal(t, someVisits(), got)
}

func TestSaveVisitsSwallowsRemoteFailure(t *testing.T) {
	blobs := newFakeBlobServer(t)
	g := newTestGateway(t, blobs, time.Second)

	blobs.setFailAll(true)
	// Удалённая запись не удалась, но локальное зеркало сохранило изменение.
	require.NoError(t, g.SaveVisits(context.Background(), "u1", someVisits()))
	got, isNew := g.LoadVisits(context.Background(), "u1")
	assert.False(t, isNew)
	assert.Equal(t, someVisits(), got)
}

func TestLoadTemplatesLegacyShapes(t *testing.T) {
	entry := `{"id":"t1","subjectName":"Maria Souza","billingMode":"plan","planName":"PlanA","amount":100}`
	want := models.WeeklyTemplates{1: {{ID: "t1", SubjectName: "Maria Souza", BillingMode: models.BillingPlan, PlanName: "PlanA", Amount: 100}}}

	tests := []struct {
		name string
		body string
	}{
		{"текущая форма templates", `{"userId":"u1","templates":{"1":[` + entry + `]}}`},
		{"старая форма template", `{"template":{"1":[` + entry + `]}}`},
		{"голое отображение", `{"1":[` + entry + `]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs := newFakeBlobServer(t)
			blobs.put("templates-u1.json", tt.body)
			g := newTestGateway(t, blobs, time.Second)

			got := g.LoadTemplates(context.Background(), "u1")
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadTemplatesEmptyForNewUser(t *testing.T) {
	g := newTestGateway(t, newFakeBlobServer(t), time.Second)
	got := g.LoadTemplates(context.Background(), "u1")
	assert.Equal(t, models.WeeklyTemplates{}, got)
}

func TestSaveAndLoadTemplatesRoundTrip(t *testing.T) {
	blobs := newFakeBlobServer(t)
	g := newTestGateway(t, blobs, time.Second)
	templates := models.WeeklyTemplates{
		2: {{ID: "t1", SubjectName: "Joao Lima", BillingMode: models.BillingPrivate, Amount: 200}},
	}

	require.NoError(t, g.SaveTemplates(context.Background(), "u1", templates))
	got := g.LoadTemplates(context.Background(), "u1")
	assert.Equal(t, templates, got)
}

func TestLoadUsersLegacyArrayShape(t *testing.T) {
	blobs := newFakeBlobServer(t)
	blobs.put("users.json", `[{"id":"u1","name":"Maria","email":"maria@example.com","password":"$2a$10$hash","createdAt":"2024-01-01T00:00:00Z"}]`)
	g := newTestGateway(t, blobs, time.Second)

	users, err := g.LoadUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users["maria@example.com"].UID)
}

func TestLoadUsersEmptyOnFirstRun(t *testing.T) {
	g := newTestGateway(t, newFakeBlobServer(t), time.Second)
	users, err := g.LoadUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestLoadUsersErrorsWhenBothTiersFail(t *testing.T) {
	blobs := newFakeBlobServer(t)
	blobs.setFailAll(true)
	g := newTestGateway(t, blobs, time.Second)

	_, err := g.LoadUsers(context.Background())
	assert.Error(t, err)
}

func TestSaveAndLoadUsersRoundTrip(t *testing.T) {
	blobs := newFakeBlobServer(t)
	g := newTestGateway(t, blobs, time.Second)
	users := map[string]models.User{
		"maria@example.com": {UID: "u1", Name: "Maria", Email: "maria@example.com", PasswordHash: "$2a$10$hash", CreatedAt: "2024-01-01T00:00:00Z"},
	}

	require.NoError(t, g.SaveUsers(context.Background(), users))
	got, err := g.LoadUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, users, got)
}

func TestLoadVisitsFallsBackWhenRemoteDocumentAbsent(t *testing.T) {
	blobs := newFakeBlobServer(t)
	g := newTestGateway(t, blobs, time.Second)

	// Запись во время недоступности хранилища успевает только в зеркало.
	blobs.setFailAll(true)
	require.NoError(t, g.SaveVisits(context.Background(), "u1", someVisits()))

	// Хранилище снова доступно, но документа в нём нет: зеркало не должно
	// стать невидимым.
	blobs.setFailAll(false)
	got, isNew := g.LoadVisits(context.Background(), "u1")
	assert.False(t, isNew)
	assert.Equal(t, someVisits(), got)
}

func TestLoadVisitsFallsBackWhenRemoteDocumentMalformed(t *testing.T) {
	blobs := newFakeBlobServer(t)
	g := newTestGateway(t, blobs, time.Second)

	blobs.setFailAll(true)
	require.NoError(t, g.SaveVisits(context.Background(), "u1", someVisits()))
	blobs.setFailAll(false)

	blobs.put("patients-u1.json", "{not json")

	got, isNew := g.LoadVisits(context.Background(), "u1")
	assert.False(t, isNew)
	assert.Equal(t, someVisits(), got)
}

func TestLoadTemplatesFallsBackWhenRemoteDocumentAbsent(t *testing.T) {
	blobs := newFakeBlobServer(t)
	g := newTestGateway(t, blobs, time.Second)

	templates := models.WeeklyTemplates{
		1: {{ID: "t1", SubjectName: "Maria", BillingMode: models.BillingPrivate, Amount: 100}},
	}
	blobs.setFailAll(true)
	require.NoError(t, g.SaveTemplates(context.Background(), "u1", templates))
	blobs.setFailAll(false)

	got := g.LoadTemplates(context.Background(), "u1")
	assert.Equal(t, templates, got)
}
