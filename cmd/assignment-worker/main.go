package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/praktijk-epd/scheduling/internal/assignment"
	"github.com/praktijk-epd/scheduling/internal/clock"
	"github.com/praktijk-epd/scheduling/internal/config"
	"github.com/praktijk-epd/scheduling/internal/db"
	redisclient "github.com/praktijk-epd/scheduling/internal/redis"
)

// The worker closes recurring assignments whose last occurrence lies in the
// past, so "active" in the portal always means there is still something to do.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("assignment-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running assignment worker in env=%s interval=%s", cfg.Env, cfg.WorkerInterval)

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

	sink := redisclient.NewPubSubSink(rdb, cfg.NotifyChannel)
	svc := assignment.NewService(assignment.NewPgRepository(pgPool), clock.System(), sink, cfg)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping assignment worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *assignment.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.CloseElapsed(runCtx); err != nil {
		log.Printf("close-elapsed run error: %v", err)
		return
	}
	log.Printf("close-elapsed run complete in %s", time.Since(start))
}
