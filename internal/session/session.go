package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unnati-09m/MediQ/internal/command"
	"github.com/unnati-09m/MediQ/internal/gateway"
	"github.com/unnati-09m/MediQ/internal/poll"
	"github.com/unnati-09m/MediQ/internal/projection"
	"github.com/unnati-09m/MediQ/internal/push"
	"github.com/unnati-09m/MediQ/internal/reconcile"
	"github.com/unnati-09m/MediQ/pkg/config"
	"github.com/unnati-09m/MediQ/pkg/logger"
	"github.com/unnati-09m/MediQ/pkg/monitoring"
	"github.com/unnati-09m/MediQ/pkg/types"
)

// View names the projection a session serves
type View string

const (
	ViewDisplay View = "display"
	ViewDoctor  View = "doctor"
	ViewStaff   View = "staff"
)

// Session owns the canonical state of one mounted view: its store, its
// poll fallback and its push subscriptions. Mount wires everything up,
// Unmount detaches the topic handlers and stops the poll timer without
// touching the shared push connection. State is never shared between
// sessions; a remounted view starts empty and converges on its first
// poll.
type Session struct {
	id         string
	view       View
	store      *reconcile.Store
	poller     *poll.Poller
	projector  *projection.Projector
	dispatcher *command.Dispatcher
	channel    *push.Channel
	logger     *logger.Logger

	subs   []*push.Subscription
	cancel context.CancelFunc
	ctx    context.Context
}

// New creates an unmounted session for the given view
func New(view View, cfg *config.Config, gw *gateway.Client, channel *push.Channel, log *logger.Logger, metrics *monitoring.MetricsCollector) *Session {
	store := reconcile.NewStore(cfg.Poll.LogLimit)

	pollCfg := poll.Config{Interval: pollInterval(view, cfg)}
	if view == ViewStaff {
		pollCfg.LogLimit = cfg.Poll.LogLimit
	}
	poller := poll.NewPoller(pollCfg, gw, store, log, metrics)

	return &Session{
		id:         uuid.New().String(),
		view:       view,
		store:      store,
		poller:     poller,
		projector:  projection.New(store),
		dispatcher: command.NewDispatcher(gw, store, poller, log, metrics),
		channel:    channel,
		logger:     log,
	}
}

// ID returns the session identifier used for log correlation
func (s *Session) ID() string {
	return s.id
}

// Store exposes the session's canonical state
func (s *Session) Store() *reconcile.Store {
	return s.store
}

// Projector exposes the session's read-only projections
func (s *Session) Projector() *projection.Projector {
	return s.projector
}

// Commands exposes the session's command dispatcher
func (s *Session) Commands() *command.Dispatcher {
	return s.dispatcher
}

// Mount attaches the push topic handlers and starts the poll fallback.
// The first poll pass populates the empty store.
func (s *Session) Mount(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.subs = []*push.Subscription{
		s.channel.Subscribe(types.TopicQueueUpdated, s.onQueueUpdated),
		s.channel.Subscribe(types.TopicDoctorStatusChanged, s.onDoctorStatusChanged),
		s.channel.Subscribe(types.TopicPatientStatusChanged, s.onPatientStatusChanged),
		s.channel.Subscribe(types.TopicEmergencyAdded, s.onEmergencyAdded),
	}

	go s.poller.Run(s.ctx)

	s.logger.WithView(string(s.view)).
		WithField("session_id", s.id).
		Info("View session mounted")
}

// Unmount detaches the topic handlers and stops the poll timer. In-flight
// gateway calls are not cancelled beyond the context; any late result
// lands in a store nobody reads anymore.
func (s *Session) Unmount() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil

	if s.cancel != nil {
		s.cancel()
	}

	s.logger.WithView(string(s.view)).
		WithField("session_id", s.id).
		Info("View session unmounted")
}

// onQueueUpdated applies the pushed snapshot: full queue replacement plus
// stats when present.
func (s *Session) onQueueUpdated(data json.RawMessage) {
	var event types.QueueUpdatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.eventDecodeFailed(types.TopicQueueUpdated, err)
		return
	}

	queue := event.Queue
	if queue == nil {
		queue = []types.Patient{}
	}
	s.store.ApplyFullSnapshot(queue, nil, event.Stats)
}

// onDoctorStatusChanged merges the partial doctor patch. Doctor patches
// are the only partial merge allowed: they carry no cross-entity
// invariant that could go inconsistent without patient data.
func (s *Session) onDoctorStatusChanged(data json.RawMessage) {
	var patch types.DoctorPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		s.eventDecodeFailed(types.TopicDoctorStatusChanged, err)
		return
	}

	s.store.ApplyDoctorPatch(patch)
}

// onPatientStatusChanged triggers a full refetch. The event's fields are
// not enough to safely patch cross-referenced patient and doctor state.
func (s *Session) onPatientStatusChanged(data json.RawMessage) {
	var event types.PatientStatusChangedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.eventDecodeFailed(types.TopicPatientStatusChanged, err)
		return
	}

	go s.poller.RefreshNow(s.ctx)
}

// onEmergencyAdded appends a ticker entry only; the real queue data
// arrives in the queue_updated event that follows.
func (s *Session) onEmergencyAdded(data json.RawMessage) {
	var event types.EmergencyAddedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.eventDecodeFailed(types.TopicEmergencyAdded, err)
		return
	}

	s.store.ApplyLogEntry(types.LogEntry{
		Timestamp: time.Now(),
		Message:   fmt.Sprintf("Emergency token #%03d added (%s), queue reshuffled", event.TokenNumber, event.Name),
		Severity:  types.SeverityWarn,
	})
}

func (s *Session) eventDecodeFailed(topic string, err error) {
	s.logger.WithView(string(s.view)).
		WithField("topic", topic).
		WithError(err).
		Warn("Dropping undecodable push event")
}

// pollInterval picks the view-specific poll cadence
func pollInterval(view View, cfg *config.Config) time.Duration {
	switch view {
	case ViewDoctor:
		return time.Duration(cfg.Poll.DoctorInterval) * time.Second
	case ViewStaff:
		return time.Duration(cfg.Poll.StaffInterval) * time.Second
	default:
		return time.Duration(cfg.Poll.DisplayInterval) * time.Second
	}
}
