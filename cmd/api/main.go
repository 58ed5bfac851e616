package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/orsched/or-dashboard/internal/config"
	"github.com/orsched/or-dashboard/internal/handler"
	analyticsHandler "github.com/orsched/or-dashboard/internal/handler/analytics"
	predictionHandler "github.com/orsched/or-dashboard/internal/handler/prediction"
	seedHandler "github.com/orsched/or-dashboard/internal/handler/seed"
	surgeryHandler "github.com/orsched/or-dashboard/internal/handler/surgery"
	"github.com/orsched/or-dashboard/internal/middleware"
	"github.com/orsched/or-dashboard/internal/repository/postgres"
	"github.com/orsched/or-dashboard/internal/router"
	analyticsService "github.com/orsched/or-dashboard/internal/service/analytics"
	predictionService "github.com/orsched/or-dashboard/internal/service/prediction"
	seederService "github.com/orsched/or-dashboard/internal/service/seeder"
	surgeryService "github.com/orsched/or-dashboard/internal/service/surgery"
	apperrors "github.com/orsched/or-dashboard/pkg/errors"
	"github.com/orsched/or-dashboard/pkg/logger"
	"github.com/orsched/or-dashboard/pkg/metrics"
)

const analyticsCacheTTL = 30 * time.Second

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	if err := postgres.EnsureSchema(context.Background(), db); err != nil {
		log.Fatal(err, "failed to ensure schema")
	}

	caseRepo := postgres.NewCaseRepository(db)
	appMetrics := metrics.NewMetrics("ordash", "api")
	analyticsCache := cache.New(analyticsCacheTTL, time.Minute)

	holder := predictionService.NewHolder()
	predictionSvc := predictionService.NewService(caseRepo, holder, predictionService.ForestConfig{
		Trees:       cfg.Training.Trees,
		MaxDepth:    cfg.Training.MaxDepth,
		MinLeafSize: cfg.Training.MinLeafSize,
		Seed:        cfg.Training.Seed,
	}, appMetrics)
	surgerySvc := surgeryService.NewService(caseRepo, holder, analyticsCache, appMetrics)
	analyticsSvc := analyticsService.NewService(caseRepo, analyticsCache)
	seederSvc := seederService.NewService(caseRepo, predictionSvc)

	// Fit over whatever history is already stored; an empty store is not
	// an error at boot.
	if cfg.Training.TrainOnBoot {
		if _, err := predictionSvc.Train(context.Background()); err != nil {
			if apperrors.IsCode(err, apperrors.ErrNoTrainingData) {
				log.Info("store empty, skipping startup training")
			} else {
				log.Error(err, "startup training failed")
			}
		}
	}

	h := handler.NewHandler(db)
	surgeryH := surgeryHandler.NewHandler(surgerySvc)
	analyticsH := analyticsHandler.NewHandler(analyticsSvc)
	predictionH := predictionHandler.NewHandler(predictionSvc)
	seedH := seedHandler.NewHandler(seederSvc)

	r := router.NewRouter(surgeryH, analyticsH, predictionH, seedH, h, router.RouterConfig{
		RateLimitRPS:   cfg.API.RateLimitRPS,
		RateLimitBurst: cfg.API.RateLimitBurst,
		Timeout:        time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		CORSConfig:     middleware.DefaultCORSConfig(),
		MetricsPrefix:  "ordash",
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()
	log.Info("server started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
