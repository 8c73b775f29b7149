package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photobooth-admin-api/config"
	"photobooth-admin-api/internal/archive"
	"photobooth-admin-api/internal/auth"
	"photobooth-admin-api/internal/event"
	"photobooth-admin-api/internal/logger"
	"photobooth-admin-api/internal/logs"
	"photobooth-admin-api/internal/middlewares"
	"photobooth-admin-api/internal/notify"
	"photobooth-admin-api/internal/screenconfig"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.LoadConfig()

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		Output:     os.Stdout,
		JSON:       cfg.LogJSON,
		TimeFormat: time.RFC3339,
	})

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&screenconfig.ScreenConfigRow{},
		&screenconfig.EventScreen{},
		&event.Event{},
		&logs.AuditEntry{},
		&auth.Operator{},
	); err != nil {
		log.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	identities := screenconfig.DefaultIdentityMap()
	if cfg.ScreensFile != "" {
		identities, err = screenconfig.LoadIdentityMap(cfg.ScreensFile)
		if err != nil {
			log.Error("failed to load screens file", "path", cfg.ScreensFile, "error", err)
			os.Exit(1)
		}
	}

	operatorService := &auth.OperatorService{DB: db}
	if created, err := operatorService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Error("failed to bootstrap admin operator", "error", err)
		os.Exit(1)
	} else if created {
		log.Info("created initial admin operator", "email", cfg.AdminEmail)
	}

	store := screenconfig.NewGormStore(db)
	resolver := screenconfig.NewIdentityResolver(identities, store, log.With("component", "resolver"))
	eventService := &event.EventService{DB: db}
	auditService := &logs.AuditService{DB: db, Service: logs.DefaultService}

	var publisher notify.Publisher = notify.NoopPublisher{}
	if cfg.NATSURL != "" {
		p, err := notify.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			log.Error("failed to connect to NATS", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		publisher = p
	}
	defer publisher.Close()

	var archiver screenconfig.Archiver
	if cfg.GCSBucket != "" {
		archiver = archive.NewGCSArchiver(cfg.GCSBucket)
	}

	screenService := screenconfig.NewScreenConfigService(screenconfig.ServiceOptions{
		Store:    store,
		Resolver: resolver,
		Events:   eventService,
		Notifier: notify.NewScreenNotifier(publisher),
		Archiver: archiver,
		Auditor:  auditService,
		Log:      log.With("component", "screenconfig"),
		Debounce: cfg.SaveDebounce,
	})

	r := gin.Default()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-Modified-Since"},
		ExposeHeaders:    []string{"Content-Disposition", "Last-Modified"},
		AllowCredentials: true,
	}))

	requireAuth := middlewares.AuthMiddleware(cfg.JWTSecret)
	requireAdmin := middlewares.RequireRole(auth.RoleAdmin)

	auth.RegisterRoutes(r, &auth.AuthController{
		OperatorService: operatorService,
		Secret:          cfg.JWTSecret,
		TokenTTL:        cfg.TokenTTL,
	}, requireAuth, requireAdmin)
	screenconfig.RegisterRoutes(r, screenService, requireAuth)
	event.RegisterRoutes(r, eventService, requireAuth, requireAdmin)
	logs.RegisterRoutes(r, auditService, requireAuth)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: "0.0.0.0:" + port, Handler: r}

	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	if err := screenService.Shutdown(shutdownCtx); err != nil {
		log.Error("flushing screen configs failed", "error", err)
	}
	log.Info("server stopped")
}
