package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/amaumene/gridguide/internal/app"
	"github.com/amaumene/gridguide/internal/config"
)

const defaultConfigFile = "settings.toml"

func main() {
	configPath := flag.String("config", "", "path to the settings file")
	flag.Parse()

	cfg, err := config.Load(resolveConfigPath(*configPath))
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	setupLogging(cfg.Log)

	application, err := app.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.WithError(err).Fatal("guide run failed")
	}
}

func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if envPath := os.Getenv("GRIDGUIDE_CONFIG"); envPath != "" {
		return envPath
	}
	return defaultConfigFile
}

// setupLogging sends logs to stdout, and additionally to a rotating log file
// when one is configured.
func setupLogging(cfg config.Log) {
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.File == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		log.WithError(err).Warn("could not create log directory")
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
}
