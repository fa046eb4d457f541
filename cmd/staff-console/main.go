package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/unnati-09m/MediQ/internal/command"
	"github.com/unnati-09m/MediQ/internal/gateway"
	"github.com/unnati-09m/MediQ/internal/projection"
	"github.com/unnati-09m/MediQ/internal/push"
	"github.com/unnati-09m/MediQ/internal/session"
	"github.com/unnati-09m/MediQ/pkg/config"
	"github.com/unnati-09m/MediQ/pkg/logger"
	"github.com/unnati-09m/MediQ/pkg/monitoring"
	"github.com/unnati-09m/MediQ/pkg/types"
)

// Display caps for the completed and no-show kanban columns
const (
	completedColumnCap = 10
	noShowColumnCap    = 5
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	metrics := monitoring.NewMetricsCollector("staff")

	gw := gateway.NewClient(gateway.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.RequestTimeout(),
	}, logger)

	channel := push.NewChannel(push.Config{
		URL:            cfg.Push.URL,
		InitialBackoff: cfg.Push.InitialBackoffDuration(),
		MaxBackoff:     cfg.Push.MaxBackoffDuration(),
		PingInterval:   cfg.Push.PingIntervalDuration(),
	}, logger, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	channel.Start(ctx)

	sess := session.New(session.ViewStaff, cfg, gw, channel, logger, metrics)
	sess.Mount(ctx)

	health := monitoring.NewHealthManager("staff-console")
	health.RegisterChecker("push", monitoring.HealthCheckerFunc(func() monitoring.HealthCheck {
		check := monitoring.HealthCheck{Name: "push_channel", Status: monitoring.HealthStatusHealthy, LastChecked: time.Now()}
		if !channel.Connected() {
			check.Status = monitoring.HealthStatusDegraded
			check.Message = "push channel disconnected, poll fallback active"
		}
		return check
	}))

	opsServer := monitoring.NewServer(monitoring.ServerConfig{
		Port:        cfg.Monitoring.Port,
		MetricsPath: cfg.Monitoring.MetricsPath,
		HealthPath:  cfg.Monitoring.HealthPath,
	}, metrics, health)

	opsServer.Router().Use(monitoring.RequestLogging(logger))
	registerControls(opsServer.Router(), sess.Commands())

	go func() {
		logger.Info("Starting staff console ops server", "port", cfg.Monitoring.Port)
		if err := opsServer.Start(); err != nil {
			logger.Error("Failed to start ops server", "error", err)
			os.Exit(1)
		}
	}()

	go consoleLoop(ctx, sess.Projector())

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down staff console...")

	sess.Unmount()
	cancel()
	channel.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := opsServer.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown ops server gracefully", "error", err)
	}

	logger.Info("Staff console stopped")
}

// registerControls mounts the staff command endpoints
func registerControls(router *mux.Router, commands *command.Dispatcher) {
	router.HandleFunc("/controls/walkin", func(w http.ResponseWriter, r *http.Request) {
		var req types.WalkInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		result, err := commands.RegisterWalkIn(r.Context(), req)
		respond(w, result, err)
	}).Methods(http.MethodPost)

	router.HandleFunc("/controls/emergency", func(w http.ResponseWriter, r *http.Request) {
		var req types.EmergencyRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
		}
		result, err := commands.AddEmergency(r.Context(), req)
		respond(w, result, err)
	}).Methods(http.MethodPost)

	router.HandleFunc("/controls/noshow/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			http.Error(w, "invalid patient id", http.StatusBadRequest)
			return
		}
		respond(w, map[string]string{"status": "ok"}, commands.MarkNoShow(r.Context(), id))
	}).Methods(http.MethodPost)

	router.HandleFunc("/controls/rebalance", func(w http.ResponseWriter, r *http.Request) {
		result, err := commands.Rebalance(r.Context())
		respond(w, result, err)
	}).Methods(http.MethodPost)

	router.HandleFunc("/controls/doctor/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(mux.Vars(r)["id"])
		if err != nil {
			http.Error(w, "invalid doctor id", http.StatusBadRequest)
			return
		}
		var req types.ToggleDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		result, err := commands.ToggleDoctor(r.Context(), id, req.IsActive, req.IsOnBreak)
		respond(w, result, err)
	}).Methods(http.MethodPut)
}

// respond writes the command outcome as JSON
func respond(w http.ResponseWriter, result interface{}, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(result)
}

// consoleLoop prints the kanban summary and activity feed every second
func consoleLoop(ctx context.Context, proj *projection.Projector) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fmt.Print("\033[2J\033[H")
			kanban := proj.Columns(completedColumnCap, noShowColumnCap)
			fmt.Printf("WAITING %d | IN CONSULTATION %d | COMPLETED %d | NO-SHOW %d\n\n",
				len(kanban.Waiting), len(kanban.InConsultation), len(kanban.Completed), len(kanban.NoShow))

			for _, p := range kanban.Waiting {
				wait := projection.FormatElapsed(projection.WaitElapsed(p, now))
				fmt.Printf("  %s  %-24s urgency %2d  waiting %s\n", p.TokenString(), p.Name, p.Urgency, wait)
			}

			fmt.Println("\nDOCTORS")
			for _, card := range proj.DoctorCards() {
				status := "available"
				switch {
				case !card.Doctor.IsActive:
					status = "off duty"
				case card.Doctor.IsOnBreak:
					status = "on break"
				case card.CurrentToken != "":
					status = "with " + card.CurrentToken
				}
				fmt.Printf("  %-24s %-18s %-12s seen today: %d\n",
					card.Doctor.Name, card.Doctor.Specialization, status, card.Doctor.TotalConsultedToday)
			}

			fmt.Println("\nACTIVITY")
			for _, entry := range proj.Ticker(8) {
				fmt.Printf("  %s  [%s]  %s\n", entry.Timestamp.Format("15:04"), entry.Severity, entry.Message)
			}
		}
	}
}
