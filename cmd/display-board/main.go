package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/unnati-09m/MediQ/internal/gateway"
	"github.com/unnati-09m/MediQ/internal/projection"
	"github.com/unnati-09m/MediQ/internal/push"
	"github.com/unnati-09m/MediQ/internal/session"
	"github.com/unnati-09m/MediQ/pkg/config"
	"github.com/unnati-09m/MediQ/pkg/logger"
	"github.com/unnati-09m/MediQ/pkg/monitoring"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	metrics := monitoring.NewMetricsCollector("display")

	// Create the remote access gateway and the shared push channel
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

	// Mount the public display view session
	sess := session.New(session.ViewDisplay, cfg, gw, channel, logger, metrics)
	sess.Mount(ctx)

	// Serve metrics and health
	health := monitoring.NewHealthManager("display-board")
	health.RegisterChecker("push", pushChecker(channel))
	health.RegisterChecker("canonical", freshnessChecker(sess))

	opsServer := monitoring.NewServer(monitoring.ServerConfig{
		Port:        cfg.Monitoring.Port,
		MetricsPath: cfg.Monitoring.MetricsPath,
		HealthPath:  cfg.Monitoring.HealthPath,
	}, metrics, health)
	opsServer.Router().Use(monitoring.RequestLogging(logger))

	if cfg.Monitoring.Enabled {
		go func() {
			logger.Info("Starting ops server", "port", cfg.Monitoring.Port)
			if err := opsServer.Start(); err != nil {
				logger.Error("Failed to start ops server", "error", err)
				os.Exit(1)
			}
		}()
	}

	// Re-render on a fixed local tick; elapsed times come from stored
	// server timestamps, never from a locally incremented counter.
	go renderLoop(ctx, sess.Projector())

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down display board...")

	sess.Unmount()
	cancel()
	channel.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := opsServer.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown ops server gracefully", "error", err)
	}

	logger.Info("Display board stopped")
}

// renderLoop prints the board once per second
func renderLoop(ctx context.Context, proj *projection.Projector) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fmt.Print(renderBoard(proj, now))
		}
	}
}

// renderBoard builds the plain-text board frame
func renderBoard(proj *projection.Projector, now time.Time) string {
	var b strings.Builder

	b.WriteString("\033[2J\033[H")
	b.WriteString("NOW SERVING\n")
	serving := proj.NowServing()
	if len(serving) == 0 {
		b.WriteString("  (no active consultations)\n")
	}
	for _, p := range serving {
		elapsed := projection.FormatElapsed(projection.ConsultationElapsed(p, now))
		fmt.Fprintf(&b, "  %s  %-24s %s  [%s]\n", p.TokenString(), p.Name, p.AssignedDoctorName, elapsed)
	}

	b.WriteString("\nUP NEXT\n")
	for _, p := range proj.UpNext(8) {
		fmt.Fprintf(&b, "  %s  %-24s est. %d min\n", p.TokenString(), p.Name, p.EstimatedWaitMinutes)
	}

	if stats, ok := proj.Stats(); ok {
		fmt.Fprintf(&b, "\nWaiting %d | Consulting %d | Completed %d | Avg wait %d min\n",
			stats.InQueue, stats.InConsultation, stats.CompletedToday, stats.AvgWaitMinutes)
	}

	for _, entry := range proj.Ticker(3) {
		fmt.Fprintf(&b, "%s  %s\n", entry.Timestamp.Format("15:04"), entry.Message)
	}

	return b.String()
}

// pushChecker reports push channel connectivity
func pushChecker(channel *push.Channel) monitoring.HealthCheckerFunc {
	return func() monitoring.HealthCheck {
		check := monitoring.HealthCheck{
			Name:        "push_channel",
			Status:      monitoring.HealthStatusHealthy,
			LastChecked: time.Now(),
		}
		if !channel.Connected() {
			check.Status = monitoring.HealthStatusDegraded
			check.Message = "push channel disconnected, poll fallback active"
		}
		return check
	}
}

// freshnessChecker reports how stale the canonical state is
func freshnessChecker(sess *session.Session) monitoring.HealthCheckerFunc {
	return func() monitoring.HealthCheck {
		check := monitoring.HealthCheck{
			Name:        "canonical_state",
			Status:      monitoring.HealthStatusHealthy,
			LastChecked: time.Now(),
		}
		last := sess.Store().LastSnapshotAt()
		switch {
		case last.IsZero():
			check.Status = monitoring.HealthStatusDegraded
			check.Message = "no snapshot received yet"
		case time.Since(last) > time.Minute:
			check.Status = monitoring.HealthStatusDegraded
			check.Message = fmt.Sprintf("last snapshot %s ago", time.Since(last).Round(time.Second))
		}
		return check
	}
}
