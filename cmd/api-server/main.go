package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/praktijk-epd/scheduling/internal/api"
	"github.com/praktijk-epd/scheduling/internal/assignment"
	"github.com/praktijk-epd/scheduling/internal/clock"
	"github.com/praktijk-epd/scheduling/internal/config"
	"github.com/praktijk-epd/scheduling/internal/db"
	redisclient "github.com/praktijk-epd/scheduling/internal/redis"
	"github.com/praktijk-epd/scheduling/internal/scheduling"
)

const version = "0.3.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	clk := clock.System()
	sink := redisclient.NewPubSubSink(rdb, cfg.NotifyChannel)
	locker := redisclient.NewTherapistLocker(rdb, cfg.LockTTL)

	schedulingSvc := scheduling.NewService(scheduling.NewPgRepository(pgPool), locker, clk, sink, cfg)
	assignmentSvc := assignment.NewService(assignment.NewPgRepository(pgPool), clk, sink, cfg)

	router := api.NewRouter(api.RouterConfig{
		Scheduling:  schedulingSvc,
		Assignments: assignmentSvc,
		PgPool:      pgPool,
		Redis:       rdb,
		Env:         cfg.Env,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
}
