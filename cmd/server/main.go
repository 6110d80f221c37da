package main

import (
	"log"

	"taskboard/internal/config"
	"taskboard/internal/logger"
	"taskboard/internal/server"

	"go.uber.org/zap"
)

func main() {
	zapLogger, err := logger.New()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	cfg := config.Load(zapLogger)

	srv, err := server.Init(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize server", zap.Error(err))
	}

	if err := srv.Run(); err != nil {
		zapLogger.Fatal("Server stopped with error", zap.Error(err))
	}
}
