package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heatgrid-dss/sizing-backend/config"
	"github.com/heatgrid-dss/sizing-backend/internal/bootstrap"
	"github.com/heatgrid-dss/sizing-backend/internal/costbook"
	cronjob "github.com/heatgrid-dss/sizing-backend/internal/costbook/cron"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/repository"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/service"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/simulation"
	"github.com/heatgrid-dss/sizing-backend/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	pool, err := bootstrap.OpenDBFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("postgres pool: %v", err)
	}
	defer pool.Close()

	sqlDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer sqlDB.Close()

	// Cost catalog: DB rows when present, built-in rates otherwise.
	costStore := costbook.NewStore(pool)
	costs, err := costStore.LoadTable(ctx)
	if err != nil {
		log.Printf("cost catalog unavailable, using built-in rates: %v", err)
		costs = nil
	}

	var scheduler *cronjob.Scheduler
	if cfg.Costbook.Enabled && cfg.Costbook.FeedURL != "" {
		fetcher := costbook.NewFetcher(cfg.Costbook.FeedURL)
		scheduler = cronjob.NewScheduler(fetcher, costStore)
		scheduler.Start()
		defer scheduler.Stop()
	}

	var solver simulation.Solver
	if cfg.Solver.URL != "" {
		solver = simulation.NewSolverClient(
			cfg.Solver.URL,
			time.Duration(cfg.Solver.TimeoutSeconds)*time.Second,
			cfg.Solver.CallsPerSecond,
		)
	} else {
		log.Println("SOLVER_URL not set, using built-in analytic solver")
		solver = &simulation.AnalyticSolver{Fluid: service.HotWater()}
	}

	runRepo := repository.NewRunRepository(rdb)
	reportRepo := repository.NewReportRepository(sqlDB)
	svc := service.NewSizingService(
		service.PipelineFromConfig(cfg, costs),
		solver,
		runRepo,
		reportRepo,
	)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "sizing-backend",
		Version:     cfg.App.Version,
		DB:          pool,
		Cache:       rdb,
		Sizing:      svc,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
