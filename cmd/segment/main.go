package main

import (
	"context"
	"log"

	"ecommerce-analytics/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	ctx := context.Background()

	pipeline, err := app.New(ctx)
	if err != nil {
		log.Fatalf("segment: %v", err)
	}
	defer pipeline.Close()

	if err := pipeline.RunSegmentation(ctx); err != nil {
		log.Fatalf("segment: %v", err)
	}
}
