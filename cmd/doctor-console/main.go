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
)

// The console assumes a single fixed clinician identity; there is no
// login flow on any consumed endpoint.
const defaultDoctorID = 1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	doctorID := defaultDoctorID
	if raw := os.Getenv("MEDIQ_DOCTOR_ID"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil && id > 0 {
			doctorID = id
		}
	}

	metrics := monitoring.NewMetricsCollector("doctor")

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

	sess := session.New(session.ViewDoctor, cfg, gw, channel, logger, metrics)
	sess.Mount(ctx)

	health := monitoring.NewHealthManager("doctor-console")
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

	// Clinician actions arrive over a local control API; rendering input
	// widgets is out of scope for the sync layer.
	opsServer.Router().Use(monitoring.RequestLogging(logger))
	registerControls(opsServer.Router(), sess.Commands(), doctorID)

	go func() {
		logger.Info("Starting doctor console ops server", "port", cfg.Monitoring.Port, "doctor_id", doctorID)
		if err := opsServer.Start(); err != nil {
			logger.Error("Failed to start ops server", "error", err)
			os.Exit(1)
		}
	}()

	go consoleLoop(ctx, sess.Projector(), doctorID)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down doctor console...")

	sess.Unmount()
	cancel()
	channel.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := opsServer.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown ops server gracefully", "error", err)
	}

	logger.Info("Doctor console stopped")
}

// registerControls mounts the clinician command endpoints
func registerControls(router *mux.Router, commands *command.Dispatcher, doctorID int) {
	router.HandleFunc("/controls/start", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PatientID int `json:"patient_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		respond(w, commands.StartConsultation(r.Context(), doctorID, body.PatientID))
	}).Methods(http.MethodPost)

	router.HandleFunc("/controls/complete", func(w http.ResponseWriter, r *http.Request) {
		respond(w, commands.CompleteConsultation(r.Context(), doctorID))
	}).Methods(http.MethodPost)

	router.HandleFunc("/controls/skip", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PatientID int `json:"patient_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		respond(w, commands.SkipPatient(r.Context(), doctorID, body.PatientID))
	}).Methods(http.MethodPost)

	router.HandleFunc("/controls/flag", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			PatientID int `json:"patient_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		respond(w, commands.FlagEmergency(r.Context(), doctorID, body.PatientID))
	}).Methods(http.MethodPost)
}

// respond writes the command outcome as JSON
func respond(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// consoleLoop prints the clinician's queue once per second
func consoleLoop(ctx context.Context, proj *projection.Projector, doctorID int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fmt.Print("\033[2J\033[H")
			if active, ok := proj.ActivePatient(doctorID); ok {
				elapsed := projection.FormatElapsed(projection.ConsultationElapsed(active, now))
				fmt.Printf("CURRENT PATIENT  %s  %s  (%s)  urgency %d/10\n\n",
					active.TokenString(), active.Name, elapsed, active.Urgency)
			} else {
				fmt.Print("CURRENT PATIENT  (none, pick from the queue)\n\n")
			}

			fmt.Println("TODAY'S QUEUE")
			for _, p := range proj.WaitingList() {
				wait := projection.FormatElapsed(projection.WaitElapsed(p, now))
				fmt.Printf("  %s  %-24s %-28s urgency %2d  waiting %s\n",
					p.TokenString(), p.Name, p.Reason, p.Urgency, wait)
			}
		}
	}
}
