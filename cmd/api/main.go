package main

import (
	"context"
	"log"
	"time"

	"barulogix/internal/core/cache"
	"barulogix/internal/core/config"
	"barulogix/internal/core/logger"
	"barulogix/internal/core/server"
	"barulogix/internal/core/storage"
	adminadapter "barulogix/internal/features/admin/adapters"
	adminhandler "barulogix/internal/features/admin/handler"
	adminservice "barulogix/internal/features/admin/service"
	authadapter "barulogix/internal/features/auth/adapters"
	authhandler "barulogix/internal/features/auth/handler"
	authservice "barulogix/internal/features/auth/service"
	conductoradapter "barulogix/internal/features/conductors/adapters"
	conductorhandler "barulogix/internal/features/conductors/handler"
	conductorservice "barulogix/internal/features/conductors/service"
	notificationadapter "barulogix/internal/features/notifications/adapters"
	notificationhandler "barulogix/internal/features/notifications/handler"
	notificationservice "barulogix/internal/features/notifications/service"
	packageadapter "barulogix/internal/features/packages/adapters"
	packagehandler "barulogix/internal/features/packages/handler"
	packageservice "barulogix/internal/features/packages/service"
	reportadapter "barulogix/internal/features/reports/adapters"
	reporthandler "barulogix/internal/features/reports/handler"
	reportservice "barulogix/internal/features/reports/service"

	"go.uber.org/zap"
)

// @title BaruLogix API
// @version 1.0
// @description Package tracking, conductor management and delivery reconciliation for small warehouses.
// @contact.name API Support
// @contact.email support@barulogix.app
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx := context.Background()

	// Initialize Postgres and run schema setup
	store, err := storage.NewPostgres(ctx, cfg.Database.URL)
	if err != nil {
		l.Fatal("Postgres connection failed", zap.Error(err))
	}
	defer store.Close()
	l.Info("Postgres connection verified")

	// Initialize Redis cache
	statsCache, err := cache.NewRedisAdapter(cfg.Cache.RedisURL)
	if err != nil {
		l.Fatal("Redis connection failed", zap.Error(err))
	}
	l.Info("Redis connection verified")

	// Auth
	tokens := authservice.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	authSvc := authservice.NewAuthService(
		authadapter.NewPostgresUserRepository(store.Pool),
		authadapter.NewPostgresConductorGateway(store.Pool),
		tokens,
	)
	authHdl := authhandler.NewAuthHandler(authSvc)
	mw := authhandler.NewMiddleware(tokens)

	// Conductors
	conductorRepo := conductoradapter.NewPostgresRepository(store.Pool)
	conductorHistory := conductoradapter.NewPostgresHistoryRecorder(store.Pool)
	conductorSvc := conductorservice.NewConductorService(conductorRepo, conductorHistory)
	conductorHdl := conductorhandler.NewConductorHandler(conductorSvc)

	// Packages
	packageSvc := packageservice.NewPackageService(
		packageadapter.NewPostgresRepository(store.Pool),
		conductorRepo,
		statsCache,
		time.Duration(cfg.Cache.StatsTTLSeconds)*time.Second,
	)
	packageHdl := packagehandler.NewPackageHandler(packageSvc)

	// Notifications
	notificationSvc := notificationservice.NewNotificationService(
		notificationadapter.NewPostgresRepository(store.Pool),
		notificationadapter.NewPostgresPackageGateway(store.Pool),
		notificationadapter.NewPostgresConductorGateway(store.Pool),
	)
	notificationHdl := notificationhandler.NewNotificationHandler(notificationSvc)

	// Reports
	reportSvc := reportservice.NewReportService(
		reportadapter.NewPostgresPackageSource(store.Pool),
		reportadapter.NewPostgresConductorSource(store.Pool),
		reportadapter.NewPostgresHistoryRecorder(store.Pool),
	)
	reportHdl := reporthandler.NewReportHandler(reportSvc)

	// Admin
	adminSvc := adminservice.NewAdminService(
		adminadapter.NewPostgresUserRepository(store.Pool),
		adminadapter.NewPostgresHistoryRepository(store.Pool),
	)
	adminHdl := adminhandler.NewAdminHandler(adminSvc)

	srv := server.New(cfg)
	app := srv.App

	// Public routes
	app.Post("/auth/register", authHdl.Register)
	app.Post("/auth/login", authHdl.Login)
	app.Post("/auth/conductor-login", authHdl.ConductorLogin)

	// Owner routes. Static paths go before the :id catch-alls.
	owner := mw.RequireOwner()
	admin := mw.RequireAdmin()
	app.Post("/packages", owner, packageHdl.Create)
	app.Get("/packages", owner, packageHdl.List)
	app.Get("/packages/search", owner, packageHdl.Search)
	app.Post("/packages/search/bulk", owner, packageHdl.BulkSearch)
	app.Get("/packages/stats", owner, packageHdl.Stats)
	app.Get("/packages/by-conductor/:id", owner, packageHdl.ByConductor)
	app.Post("/packages/deliveries", owner, packageHdl.Deliveries)
	app.Get("/packages/:id", owner, packageHdl.Get)
	app.Put("/packages/:id", owner, packageHdl.Update)
	app.Delete("/packages/:id", owner, packageHdl.Delete)

	app.Post("/conductors", owner, conductorHdl.Create)
	app.Get("/conductors", owner, conductorHdl.List)
	app.Get("/conductors/:id", owner, conductorHdl.Get)
	app.Put("/conductors/:id", owner, conductorHdl.Update)
	app.Patch("/conductors/:id/active", owner, conductorHdl.SetActive)
	app.Delete("/conductors/:id", admin, conductorHdl.Purge)

	app.Post("/notifications/send-alert", owner, notificationHdl.SendAlert)
	app.Post("/notifications/send-bulk-alerts", owner, notificationHdl.SendBulkAlerts)
	app.Post("/notifications/send-custom", owner, notificationHdl.SendCustom)

	app.Post("/reports/generate", owner, reportHdl.Generate)
	app.Post("/reports/export", owner, reportHdl.Export)

	// Conductor routes
	conductor := mw.RequireConductor()
	app.Get("/notifications/conductor/:id", conductor, notificationHdl.ListForConductor)
	app.Post("/notifications/mark-read", conductor, notificationHdl.MarkRead)
	app.Put("/notifications/mark-read", conductor, notificationHdl.MarkRead)

	// Admin routes
	app.Get("/admin/users", admin, adminHdl.ListUsers)
	app.Put("/admin/users/:id", admin, adminHdl.UpdateUser)
	app.Delete("/admin/users/:id", admin, adminHdl.DeleteUser)
	app.Get("/admin/history", admin, adminHdl.History)

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
