package command

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

// Refresher triggers an immediate reconciliation pass. The poll fallback
// satisfies it; commands never hand-edit canonical state, they refetch
// server truth after every success.
type Refresher interface {
	RefreshNow(ctx context.Context)
}

// Key identifies one command slot: the entity it acts on and the action.
// While a key is in flight the corresponding control is disabled.
type Key struct {
	Entity string
	Action string
}

// EntityDoctor builds the entity key for a doctor
func EntityDoctor(id int) string {
	return fmt.Sprintf("doctor:%d", id)
}

// EntityPatient builds the entity key for a patient
func EntityPatient(id int) string {
	return fmt.Sprintf("patient:%d", id)
}

// EntityQueue is the entity key for whole-queue operations
const EntityQueue = "queue"

// Dispatcher issues mutating commands through the gateway, tracks their
// in-flight and error status per key, and schedules the post-success
// refresh. Failed commands are never retried automatically; retry is a
// user-initiated re-issue once the flag clears.
type Dispatcher struct {
	gw        *gateway.Client
	store     *reconcile.Store
	refresher Refresher
	logger    *logger.Logger
	metrics   *monitoring.MetricsCollector

	mu       sync.Mutex
	inFlight map[Key]bool
	lastErr  map[Key]string
}

// NewDispatcher creates a command dispatcher for one view session
func NewDispatcher(gw *gateway.Client, store *reconcile.Store, refresher Refresher, log *logger.Logger, metrics *monitoring.MetricsCollector) *Dispatcher {
	return &Dispatcher{
		gw:        gw,
		store:     store,
		refresher: refresher,
		logger:    log,
		metrics:   metrics,
		inFlight:  make(map[Key]bool),
		lastErr:   make(map[Key]string),
	}
}

// InFlight reports whether the command slot is currently executing
func (d *Dispatcher) InFlight(entity, action string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight[Key{Entity: entity, Action: action}]
}

// LastError returns the user-facing message of the slot's last failure,
// empty after a success or before any dispatch.
func (d *Dispatcher) LastError(entity, action string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr[Key{Entity: entity, Action: action}]
}

// DismissError clears the slot's recorded failure message
func (d *Dispatcher) DismissError(entity, action string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.lastErr, Key{Entity: entity, Action: action})
}

// issue runs one command under the in-flight flag for its key. On success
// it triggers an immediate full refresh; on failure it records the
// message and appends an error entry to the activity feed.
func (d *Dispatcher) issue(ctx context.Context, entity, action string, fn func(ctx context.Context) error) error {
	key := Key{Entity: entity, Action: action}

	d.mu.Lock()
	if d.inFlight[key] {
		d.mu.Unlock()
		return types.NewGatewayError(fmt.Sprintf("%s %s is already in progress", entity, action), 0, nil)
	}
	d.inFlight[key] = true
	delete(d.lastErr, key)
	d.mu.Unlock()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	d.mu.Lock()
	delete(d.inFlight, key)
	if err != nil {
		d.lastErr[key] = err.Error()
	}
	d.mu.Unlock()

	if err != nil {
		d.metrics.RecordCommand(entityKind(entity), action, "failure", duration)
		d.logger.Command(entity, action, false, map[string]interface{}{"error": err.Error()})
		d.store.ApplyLogEntry(types.LogEntry{
			Timestamp: time.Now(),
			Message:   fmt.Sprintf("%s failed for %s: %s", action, entity, err.Error()),
			Severity:  types.SeverityError,
		})
		return err
	}

	d.metrics.RecordCommand(entityKind(entity), action, "success", duration)
	d.logger.Command(entity, action, true, nil)

	// Converge to server truth; the command's side effects may be much
	// broader than the entity acted upon (a rebalance reshuffles the
	// whole queue).
	d.refresher.RefreshNow(ctx)

	return nil
}

// entityKind strips the id from an entity key for metric labels
func entityKind(entity string) string {
	for i := 0; i < len(entity); i++ {
		if entity[i] == ':' {
			return entity[:i]
		}
	}
	return entity
}
