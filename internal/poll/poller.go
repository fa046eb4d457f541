package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/unnati-09m/MediQ/internal/gateway"
	"github.com/unnati-09m/MediQ/internal/reconcile"
	"github.com/unnati-09m/MediQ/pkg/logger"
	"github.com/unnati-09m/MediQ/pkg/monitoring"
	"github.com/unnati-09m/MediQ/pkg/types"
)

// Poller is the poll fallback: an unconditional full-state refetch on a
// fixed interval, independent of push channel health. It is the sole
// correctness backstop; push events only shorten latency. Each of the
// parallel fetches may fail independently, leaving its canonical slice
// stale-but-valid rather than clearing it.
type Poller struct {
	gw       *gateway.Client
	store    *reconcile.Store
	interval time.Duration
	logLimit int
	logger   *logger.Logger
	metrics  *monitoring.MetricsCollector
}

// Config holds poller configuration. LogLimit 0 disables the activity log
// fetch (only the staff view reads it).
type Config struct {
	Interval time.Duration
	LogLimit int
}

// NewPoller creates a poll fallback bound to one canonical store
func NewPoller(cfg Config, gw *gateway.Client, store *reconcile.Store, log *logger.Logger, metrics *monitoring.MetricsCollector) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}

	return &Poller{
		gw:       gw,
		store:    store,
		interval: cfg.Interval,
		logLimit: cfg.LogLimit,
		logger:   log,
		metrics:  metrics,
	}
}

// Run performs an immediate first pass and then refreshes on every tick
// until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.RefreshNow(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RefreshNow(ctx)
		}
	}
}

// RefreshNow performs one full fetch pass: queue, doctors, stats and,
// when enabled, recent activity logs, all in parallel. Fetched slices are
// applied as one full snapshot; failed fetches are logged and skipped.
func (p *Poller) RefreshNow(ctx context.Context) {
	var (
		wg       sync.WaitGroup
		patients []types.Patient
		doctors  []types.Doctor
		stats    *types.QueueStats
		records  []types.EventRecord
		logsOK   bool
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		var fetched []types.Patient
		if err := p.gw.GetJSON(ctx, "/patients/queue", &fetched); err != nil {
			p.fetchFailed("queue", err)
			return
		}
		if fetched == nil {
			fetched = []types.Patient{}
		}
		patients = fetched
		p.metrics.RecordPollFetch("queue", "success")
	}()

	go func() {
		defer wg.Done()
		var fetched []types.Doctor
		if err := p.gw.GetJSON(ctx, "/doctors", &fetched); err != nil {
			p.fetchFailed("doctors", err)
			return
		}
		if fetched == nil {
			fetched = []types.Doctor{}
		}
		doctors = fetched
		p.metrics.RecordPollFetch("doctors", "success")
	}()

	go func() {
		defer wg.Done()
		var fetched types.QueueStats
		if err := p.gw.GetJSON(ctx, "/patients/stats", &fetched); err != nil {
			p.fetchFailed("stats", err)
			return
		}
		stats = &fetched
		p.metrics.RecordPollFetch("stats", "success")
	}()

	if p.logLimit > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path := fmt.Sprintf("/staff/logs?limit=%d", p.logLimit)
			if err := p.gw.GetJSON(ctx, path, &records); err != nil {
				p.fetchFailed("logs", err)
				return
			}
			logsOK = true
			p.metrics.RecordPollFetch("logs", "success")
		}()
	}

	wg.Wait()

	p.store.ApplyFullSnapshot(patients, doctors, stats)
	if logsOK {
		p.store.ReplaceLog(mapEventRecords(records))
	}

	patientCount, doctorCount := p.store.Counts()
	p.metrics.SetCanonicalCount("patients", patientCount)
	p.metrics.SetCanonicalCount("doctors", doctorCount)
}

// fetchFailed swallows one slice failure: the prior canonical slice stays
// in place and the view keeps rendering stale data until the next pass.
func (p *Poller) fetchFailed(slice string, err error) {
	p.metrics.RecordPollFetch(slice, "failure")
	p.logger.WithComponent("poll").
		WithField("slice", slice).
		WithError(err).
		Warn("Poll fetch failed, keeping stale slice")
}
