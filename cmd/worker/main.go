package main

import (
	"go-elms/internal/app"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// The worker shares the API's database and outbox but carries no HTTP
// surface; it only drains staged decision events into Kafka.
func main() {
	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := app.RunWorker(); err != nil {
		logger.Fatal("run worker failed", zap.Error(err))
	}
}
