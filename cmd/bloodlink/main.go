package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"BloodLink/internal/alerts"
	handlers "BloodLink/internal/handler"
	"BloodLink/internal/matcher"
	"BloodLink/internal/notify"
	"BloodLink/internal/pipeline"
	"BloodLink/internal/reserve"
	"BloodLink/internal/store"
	"BloodLink/pkg/cache"
	"BloodLink/pkg/config"
	"BloodLink/pkg/location"
	"BloodLink/pkg/logger"
	"BloodLink/pkg/metrics"
	"BloodLink/pkg/middleware"
	"BloodLink/pkg/notification"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log)
	defer log.Sync()

	db, err := store.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Fatal("database open failed", zap.Error(err))
	}

	cacheBackend, err := cache.NewCache(cfg.Cache)
	if err != nil {
		log.Fatal("cache init failed", zap.Error(err))
	}
	defer cacheBackend.Close()

	met := metrics.New()

	requests := store.NewRequestStore(db)
	hospitals := store.NewHospitalStore(db)
	stock := store.NewStockStore(db)
	alertStore := store.NewAlertStore(db)
	records := store.NewNotificationStore(db)

	if cfg.SeedDemoData {
		if err := store.SeedMumbaiHospitals(context.Background(), db); err != nil {
			log.Warn("demo data seeding failed", zap.Error(err))
		}
	}

	geocoder := location.NewGoogleGeocoder(cfg.Location.GoogleAPIKey, cfg.Location.HTTPTimeout)
	ipLocator := location.NewIPLocator(cfg.Location)
	resolver := location.NewResolver(geocoder, ipLocator, cacheBackend, cfg.Location, log, met)

	m := matcher.NewMatcher(hospitals, matcher.Config{
		SearchRadiusKM: cfg.SearchRadiusKM,
		MaxResults:     cfg.MaxResults,
	}, log)
	coordinator := reserve.NewCoordinator(stock, alertStore, log, met)

	smsSender := notification.NewTwilioSMS(cfg.SMS)
	mailSender := notification.NewSMTPMailer(cfg.Mail)
	dispatcher := notify.NewDispatcher(
		smsSender, cfg.SMS.Configured(),
		mailSender, cfg.Mail.Configured(),
		records, notification.NormalizePhone(cfg.OperatorPhone),
		log, met,
	)

	pipe := pipeline.New(requests, resolver, m, coordinator, dispatcher, log, met)

	sweeper := alerts.NewSweeper(stock, alertStore, log, met)
	if err := sweeper.Start(cfg.AlertSweepSchedule); err != nil {
		log.Fatal("alert sweeper start failed", zap.Error(err))
	}
	defer sweeper.Stop()

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.RateLimit,
		SkipPaths:  []string{"/health", "/metrics"},
		AddHeaders: true,
	}, nil)

	h := handlers.New(db, requests, hospitals, stock, alertStore, records, m, pipe, met, log)
	h.RegisterRoutes(r, limiter)

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
