//	@title			Filegate API
//	@version		1.0
//	@description	Authenticated file storage gateway over S3-compatible object storage with a local fallback.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token from /auth/login. Browsers may send the filegate_session cookie instead. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/filegate/service/internal/auth"
	"github.com/filegate/service/internal/config"
	"github.com/filegate/service/internal/db"
	"github.com/filegate/service/internal/files"
	"github.com/filegate/service/internal/metrics"
	appMiddleware "github.com/filegate/service/internal/middleware"
	"github.com/filegate/service/internal/session"
	"github.com/filegate/service/internal/storage"
	"github.com/filegate/service/internal/user"

	_ "github.com/filegate/service/docs/swagger"
)

func main() {
	cfg := config.Load()
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	backend, err := storage.Select(ctx, cfg)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}

	// Wire dependencies: repository → service → handler
	issuer := session.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)

	userRepo := user.NewRepository(pool)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(userSvc, issuer)
	authHandler := auth.NewHandler(authSvc, issuer.TTL(), cfg.IsProduction())

	storageMetrics := metrics.MustNewStorage(prometheus.DefaultRegisterer, string(backend.Mode()))
	validator := files.NewValidator(cfg.AllowedExtensions, cfg.MaxUploadBytes)
	filesSvc := files.NewService(backend, validator, files.Timeouts{
		Call:   cfg.StorageTimeout,
		Upload: cfg.StorageUploadTimeout,
	}, storageMetrics)
	filesHandler := files.NewHandler(filesSvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "Location"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","storage":"` + string(backend.Mode()) + `"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireSession(issuer))

			r.Get("/users/me", userHandler.GetMe)

			r.Route("/files", func(r chi.Router) {
				r.Get("/", filesHandler.List)
				r.Post("/", filesHandler.Upload)
				r.Get("/stats", filesHandler.Stats)
				r.Get("/{key}/download", filesHandler.Download)
				r.Get("/{key}/share", filesHandler.Share)
				r.Delete("/{key}", filesHandler.Delete)
			})
		})
	})

	// Uploads and local downloads stream through the handlers.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Port,
			"env":     cfg.AppEnv,
			"storage": backend.Mode(),
			"target":  backend.Label(),
		}).Info("server listening")
		log.Infof("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Info("server stopped")
}
