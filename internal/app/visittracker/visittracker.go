// Package visittracker собирает приложение учёта приёмов: шлюз
// персистентности поверх удалённого объектного хранилища с локальным
// резервом в redis, сервисы бизнес-логики и HTTP-сервер.
package visittracker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/daniellaterapia/visit-tracker/internal/blobstore"
	"github.com/daniellaterapia/visit-tracker/internal/cache"
	"github.com/daniellaterapia/visit-tracker/internal/config"
	"github.com/daniellaterapia/visit-tracker/internal/gateway"
	"github.com/daniellaterapia/visit-tracker/internal/lib/jwt"
	authservice "github.com/daniellaterapia/visit-tracker/internal/services/auth"
	visitservice "github.com/daniellaterapia/visit-tracker/internal/services/visit"
)

// App — собранное приложение с HTTP-сервером и зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	visits *visitservice.Service
}

// New инициализирует зависимости приложения и собирает HTTP-сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	blobs := blobstore.New(cfg.BlobStore)
	store := gateway.New(blobs, cacheRedis, logger, cfg.BlobStore.ReadTimeout)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.New(store, jwtMaker)
	visitService := visitservice.New(store, logger, cfg.BlobStore.RequestTimeout)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, visitService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		visits: visitService,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
// Перед выходом дожидается завершения фоновых записей в хранилище.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.visits.Flush()
		return err
	}
}
