package command

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unnati-09m/MediQ/internal/gateway"
	"github.com/unnati-09m/MediQ/internal/reconcile"
	"github.com/unnati-09m/MediQ/pkg/logger"
	"github.com/unnati-09m/MediQ/pkg/monitoring"
	"github.com/unnati-09m/MediQ/pkg/types"
)

// fakeRefresher counts post-success refresh triggers
type fakeRefresher struct {
	calls atomic.Int32
}

func (f *fakeRefresher) RefreshNow(ctx context.Context) {
	f.calls.Add(1)
}

func newTestDispatcher(t *testing.T, handler http.HandlerFunc) (*Dispatcher, *reconcile.Store, *fakeRefresher) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.New("error")
	store := reconcile.NewStore(0)
	refresher := &fakeRefresher{}
	gw := gateway.NewClient(gateway.Config{BaseURL: server.URL}, log)

	return NewDispatcher(gw, store, refresher, log, monitoring.NewMetricsCollector("test")), store, refresher
}

func TestStartConsultation_SuccessTriggersRefresh(t *testing.T) {
	dispatcher, _, refresher := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/doctors/1/start-consultation", r.URL.Path)
		w.Write([]byte(`{"message":"consultation started"}`))
	})

	err := dispatcher.StartConsultation(context.Background(), 1, 5)

	require.NoError(t, err)
	assert.Equal(t, int32(1), refresher.calls.Load())
	assert.False(t, dispatcher.InFlight(EntityDoctor(1), "start"))
	assert.Empty(t, dispatcher.LastError(EntityDoctor(1), "start"))
}

func TestCompleteConsultation_FailureLeavesStateUntouched(t *testing.T) {
	dispatcher, store, refresher := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"No active consultation"}`))
	})

	store.ApplyFullSnapshot([]types.Patient{
		{ID: 1, TokenNumber: 1, Status: types.StatusInConsultation},
	}, nil, nil)

	err := dispatcher.CompleteConsultation(context.Background(), 1)

	require.Error(t, err)
	assert.Equal(t, "No active consultation", err.Error())

	// No optimistic mutation: the patient is exactly as the last snapshot
	// left it, and no refresh was triggered.
	p, ok := store.Patient(1)
	require.True(t, ok)
	assert.Equal(t, types.StatusInConsultation, p.Status)
	assert.Equal(t, int32(0), refresher.calls.Load())

	// The flag cleared, the failure is recorded and the feed got one entry
	assert.False(t, dispatcher.InFlight(EntityDoctor(1), "complete"))
	assert.Equal(t, "No active consultation", dispatcher.LastError(EntityDoctor(1), "complete"))

	log := store.Log()
	require.Len(t, log, 1)
	assert.Equal(t, types.SeverityError, log[0].Severity)
}

func TestDismissError(t *testing.T) {
	dispatcher, _, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":"Patient is not waiting"}`))
	})

	err := dispatcher.MarkNoShow(context.Background(), 9)
	require.Error(t, err)
	require.NotEmpty(t, dispatcher.LastError(EntityPatient(9), "noshow"))

	dispatcher.DismissError(EntityPatient(9), "noshow")
	assert.Empty(t, dispatcher.LastError(EntityPatient(9), "noshow"))
}

func TestIssue_RejectsConcurrentSameKey(t *testing.T) {
	release := make(chan struct{})
	dispatcher, _, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{}`))
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := dispatcher.CompleteConsultation(context.Background(), 1)
		assert.NoError(t, err)
	}()

	// Wait for the first dispatch to take the slot
	require.Eventually(t, func() bool {
		return dispatcher.InFlight(EntityDoctor(1), "complete")
	}, time.Second, time.Millisecond)

	// Re-issuing the same command while in flight is rejected locally
	err := dispatcher.CompleteConsultation(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in progress")

	// A different slot is unaffected
	assert.False(t, dispatcher.InFlight(EntityDoctor(2), "complete"))

	close(release)
	wg.Wait()
	assert.False(t, dispatcher.InFlight(EntityDoctor(1), "complete"))
}

func TestRegisterWalkIn_ReturnsRegistration(t *testing.T) {
	dispatcher, _, refresher := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/staff/register-walkin", r.URL.Path)
		w.Write([]byte(`{"token_number":31,"queue_position":6,"estimated_wait_minutes":48,"message":"Walk-in registered"}`))
	})

	result, err := dispatcher.RegisterWalkIn(context.Background(), types.WalkInRequest{Name: "Asha", Reason: "Fever", Urgency: 4})

	require.NoError(t, err)
	assert.Equal(t, 31, result.TokenNumber)
	assert.Equal(t, 6, result.QueuePosition)
	assert.Equal(t, 48, result.EstimatedWaitMinutes)
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestToggleDoctor_SendsOnlyPresentFlags(t *testing.T) {
	var received string
	dispatcher, _, _ := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		body, _ := io.ReadAll(r.Body)
		received = string(body)
		w.Write([]byte(`{"doctor_id":2,"is_active":true,"is_on_break":true,"is_available":false}`))
	})

	onBreak := true
	result, err := dispatcher.ToggleDoctor(context.Background(), 2, nil, &onBreak)

	require.NoError(t, err)
	assert.JSONEq(t, `{"is_on_break":true}`, received, "absent flags must be omitted, not sent as false")
	assert.False(t, result.IsAvailable)
}

func TestEntityKind(t *testing.T) {
	assert.Equal(t, "doctor", entityKind(EntityDoctor(3)))
	assert.Equal(t, "patient", entityKind(EntityPatient(8)))
	assert.Equal(t, "queue", entityKind(EntityQueue))
}
