package main

import (
	"context"
	"flag"
	"os"

	"github.com/chitworks/chitfund-api/internal/app"
	"github.com/chitworks/chitfund-api/internal/config"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	if errEnv := godotenv.Load(); errEnv != nil {
		log.Debug("no .env file found, using process environment")
	}

	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, errLoad := config.Load(*configPath)
	if errLoad != nil {
		log.Errorf("load config: %v", errLoad)
		os.Exit(1)
	}

	app.SetupLogging(cfg.Log)

	if errRun := app.RunServer(context.Background(), cfg); errRun != nil {
		log.Errorf("server exited: %v", errRun)
		os.Exit(1)
	}
}
