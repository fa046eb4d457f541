package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unnati-09m/MediQ/internal/command"
	"github.com/unnati-09m/MediQ/internal/gateway"
	"github.com/unnati-09m/MediQ/internal/reconcile"
	"github.com/unnati-09m/MediQ/pkg/config"
	"github.com/unnati-09m/MediQ/pkg/logger"
	"github.com/unnati-09m/MediQ/pkg/monitoring"
	"github.com/unnati-09m/MediQ/pkg/types"
)

// The intake form holds no live queue state: it issues the register
// command and reads the token, position and wait estimate straight from
// the response. It subscribes to nothing and polls nothing.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	metrics := monitoring.NewMetricsCollector("intake")

	gw := gateway.NewClient(gateway.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.RequestTimeout(),
	}, logger)

	store := reconcile.NewStore(cfg.Poll.LogLimit)
	commands := command.NewDispatcher(gw, store, noopRefresher{}, logger, metrics)

	health := monitoring.NewHealthManager("intake-form")
	opsServer := monitoring.NewServer(monitoring.ServerConfig{
		Port:        cfg.Monitoring.Port,
		MetricsPath: cfg.Monitoring.MetricsPath,
		HealthPath:  cfg.Monitoring.HealthPath,
	}, metrics, health)

	opsServer.Router().Use(monitoring.RequestLogging(logger))
	opsServer.Router().HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		var req types.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		result, err := commands.RegisterPatient(r.Context(), req)

		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(result)
	}).Methods(http.MethodPost)

	go func() {
		logger.Info("Starting intake form server", "port", cfg.Monitoring.Port)
		if err := opsServer.Start(); err != nil {
			logger.Error("Failed to start intake form server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down intake form...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := opsServer.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown intake form server gracefully", "error", err)
	}

	logger.Info("Intake form stopped")
}

// noopRefresher satisfies the dispatcher; the intake form keeps no
// canonical state worth refreshing.
type noopRefresher struct{}

func (noopRefresher) RefreshNow(ctx context.Context) {}
