package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ecommerce-analytics/internal/app"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	ctx := context.Background()

	pipeline, err := app.New(ctx)
	if err != nil {
		log.Fatalf("pipeline: %v", err)
	}
	defer pipeline.Close()

	schedule := pipeline.Config().PipelineSchedule
	if schedule == "" {
		if err := pipeline.RunAll(ctx); err != nil {
			log.Fatalf("pipeline: %v", err)
		}
		return
	}

	// Scheduled mode: run until interrupted. SkipIfStillRunning keeps the
	// at-most-one-invocation contract when a run outlasts its interval.
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(schedule, func() {
		if err := pipeline.RunAll(ctx); err != nil {
			log.Printf("pipeline: scheduled run failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("pipeline: invalid PIPELINE_SCHEDULE %q: %v", schedule, err)
	}
	c.Start()
	log.Printf("pipeline: scheduled with %q", schedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	<-c.Stop().Done()
}
