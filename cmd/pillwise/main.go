package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pillwise/pillwise/internal/app"
	"github.com/pillwise/pillwise/internal/config"
	"github.com/pillwise/pillwise/internal/seed"
	"github.com/pillwise/pillwise/internal/store"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Printf("PillWise version %s\n", version)
			return
		}
	}

	flag.Parse()

	config.LoadEnvFiles()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting PillWise", zap.String("version", version))

	if err := seed.Err(); err != nil {
		logger.Fatal("Seed dataset is invalid", zap.Error(err))
	}

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	st, err := store.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.Error(err))
	}

	application := app.New(cfg, st, logger, version)
	application.RunServer()
}
