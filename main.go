package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	api "pulsewatch/http"
	"pulsewatch/logging"
	"pulsewatch/monitor"
	"pulsewatch/registry"
	"pulsewatch/store"
)

type Config struct {
	Models struct {
		Dir string `yaml:"dir"`
	} `yaml:"models"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log   logging.Config `yaml:"log"`
	Alert struct {
		RiskThreshold   float64 `yaml:"risk_threshold"`
		Consecutive     int     `yaml:"consecutive"`
		CooldownSeconds int     `yaml:"cooldown_seconds"`
	} `yaml:"alert"`
	History struct {
		MaxSessions       int `yaml:"max_sessions"`
		WindowsPerSession int `yaml:"windows_per_session"`
	} `yaml:"history"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. Load config
	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Build logger
	logger, err := logging.New(config.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 3. Initialize database
	if err := store.Init(config.Database.Path); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("database initialized", zap.String("path", config.Database.Path))

	// 4. Start the realtime monitor
	mon, err := monitor.New(monitor.Config{
		Alert: monitor.AlertRule{
			RiskThreshold: config.Alert.RiskThreshold,
			Consecutive:   config.Alert.Consecutive,
			Cooldown:      time.Duration(config.Alert.CooldownSeconds) * time.Second,
		},
		MaxSessions:       config.History.MaxSessions,
		WindowsPerSession: config.History.WindowsPerSession,
	}, logger)
	if err != nil {
		logger.Fatal("failed to build monitor", zap.Error(err))
	}
	if err := mon.Start(); err != nil {
		logger.Fatal("failed to start monitor", zap.Error(err))
	}

	// 5. Load the model bundle and watch the directory for updates
	ctx, cancel := context.WithCancel(context.Background())
	reg := registry.New(config.Models.Dir, logger)
	reg.OnReload(func(b *registry.Bundle) {
		mon.PublishStatus("model", "reloaded", b.Dir)
	})
	if err := reg.Reload(); err != nil {
		logger.Warn("no model loaded, predictions unavailable until model files appear",
			zap.String("dir", config.Models.Dir), zap.Error(err))
	}
	if err := reg.Watch(ctx); err != nil {
		logger.Warn("model directory watch disabled", zap.Error(err))
	}

	// 6. Start HTTP server
	handlers := api.NewHandlers(reg, mon, logger)
	server := api.NewServer(api.ServerConfig{
		Port:           config.Http.Port,
		Timeout:        time.Duration(config.Http.TimeoutSeconds) * time.Second,
		AllowedOrigins: config.Http.AllowedOrigins,
	}, handlers, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 7. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	if err := mon.Stop(); err != nil {
		logger.Warn("monitor stop failed", zap.Error(err))
	}
	cancel()

	logger.Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
