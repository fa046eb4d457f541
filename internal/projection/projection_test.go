package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unnati-09m/MediQ/internal/reconcile"
	"github.com/unnati-09m/MediQ/pkg/types"
)

func patient(id, token int, status types.PatientStatus) types.Patient {
	return types.Patient{ID: id, TokenNumber: token, Status: status, CreatedAt: time.Now()}
}

func inConsultationWith(id, token, doctorID int, start time.Time) types.Patient {
	p := patient(id, token, types.StatusInConsultation)
	p.AssignedDoctorID = &doctorID
	p.ConsultationStart = &start
	return p
}

func TestWaitingList_PreservesServerOrder(t *testing.T) {
	store := reconcile.NewStore(0)
	store.ApplyFullSnapshot([]types.Patient{
		patient(7, 11, types.StatusWaiting),
		patient(2, 3, types.StatusCompleted),
		patient(4, 5, types.StatusWaiting),
		patient(1, 1, types.StatusWaiting),
	}, nil, nil)

	waiting := New(store).WaitingList()
	require.Len(t, waiting, 3)
	assert.Equal(t, []int{7, 4, 1}, []int{waiting[0].ID, waiting[1].ID, waiting[2].ID})
}

func TestActivePatient_MatchesDoctor(t *testing.T) {
	store := reconcile.NewStore(0)
	now := time.Now()
	store.ApplyFullSnapshot([]types.Patient{
		inConsultationWith(1, 1, 2, now),
		inConsultationWith(2, 2, 5, now),
		patient(3, 3, types.StatusWaiting),
	}, nil, nil)

	proj := New(store)

	active, ok := proj.ActivePatient(5)
	require.True(t, ok)
	assert.Equal(t, 2, active.ID)

	_, ok = proj.ActivePatient(9)
	assert.False(t, ok)

	// Doctor id 0 matches any consultation
	active, ok = proj.ActivePatient(0)
	require.True(t, ok)
	assert.Equal(t, 1, active.ID)
}

func TestColumns_PartitionsAndCaps(t *testing.T) {
	store := reconcile.NewStore(0)
	var queue []types.Patient
	for i := 1; i <= 4; i++ {
		queue = append(queue, patient(i, i, types.StatusCompleted))
	}
	queue = append(queue,
		patient(5, 5, types.StatusWaiting),
		patient(6, 6, types.StatusInConsultation),
		patient(7, 7, types.StatusNoShow),
		patient(8, 8, types.StatusNoShow),
	)
	store.ApplyFullSnapshot(queue, nil, nil)

	kanban := New(store).Columns(2, 1)
	assert.Len(t, kanban.Waiting, 1)
	assert.Len(t, kanban.InConsultation, 1)
	assert.Len(t, kanban.Completed, 2)
	assert.Len(t, kanban.NoShow, 1)
}

func TestNowServingAndUpNext(t *testing.T) {
	store := reconcile.NewStore(0)
	now := time.Now()
	store.ApplyFullSnapshot([]types.Patient{
		inConsultationWith(1, 1, 1, now),
		patient(2, 2, types.StatusWaiting),
		patient(3, 3, types.StatusWaiting),
		patient(4, 4, types.StatusWaiting),
	}, nil, nil)

	proj := New(store)

	serving := proj.NowServing()
	require.Len(t, serving, 1)
	assert.Equal(t, 1, serving[0].ID)

	next := proj.UpNext(2)
	require.Len(t, next, 2)
	assert.Equal(t, 2, next[0].ID)
	assert.Equal(t, 3, next[1].ID)
}

func TestDoctorCards_FormatsCurrentToken(t *testing.T) {
	store := reconcile.NewStore(0)
	token := 7
	store.ApplyFullSnapshot(nil, []types.Doctor{
		{ID: 1, Name: "Dr. Rao", CurrentPatientToken: &token},
		{ID: 2, Name: "Dr. Iyer"},
	}, nil)

	cards := New(store).DoctorCards()
	require.Len(t, cards, 2)
	assert.Equal(t, "#007", cards[0].CurrentToken)
	assert.Equal(t, "", cards[1].CurrentToken)
}

func TestTicker_ReturnsNewestEntries(t *testing.T) {
	store := reconcile.NewStore(0)
	store.ApplyLogEntry(types.LogEntry{Message: "first"})
	store.ApplyLogEntry(types.LogEntry{Message: "second"})
	store.ApplyLogEntry(types.LogEntry{Message: "third"})

	entries := New(store).Ticker(2)
	require.Len(t, entries, 2)
	assert.Equal(t, "third", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
}

func TestConsultationElapsed(t *testing.T) {
	now := time.Now()
	start := now.Add(-90 * time.Second)
	p := inConsultationWith(1, 1, 1, start)

	assert.Equal(t, 90*time.Second, ConsultationElapsed(p, now).Round(time.Second))

	// No start timestamp means no timer
	assert.Equal(t, time.Duration(0), ConsultationElapsed(patient(2, 2, types.StatusWaiting), now))

	// Client clock behind the server clock must not show a negative timer
	future := now.Add(time.Minute)
	p.ConsultationStart = &future
	assert.Equal(t, time.Duration(0), ConsultationElapsed(p, now))
}

func TestWaitElapsed(t *testing.T) {
	now := time.Now()
	p := patient(1, 1, types.StatusWaiting)
	p.CreatedAt = now.Add(-5 * time.Minute)

	assert.Equal(t, 5*time.Minute, WaitElapsed(p, now).Round(time.Second))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "00:00", FormatElapsed(0))
	assert.Equal(t, "00:59", FormatElapsed(59*time.Second))
	assert.Equal(t, "12:05", FormatElapsed(12*time.Minute+5*time.Second))
	assert.Equal(t, "1:02:03", FormatElapsed(time.Hour+2*time.Minute+3*time.Second))
}

func TestTokenString_ZeroPadded(t *testing.T) {
	assert.Equal(t, "#007", types.Patient{TokenNumber: 7}.TokenString())
	assert.Equal(t, "#042", types.Patient{TokenNumber: 42}.TokenString())
	assert.Equal(t, "#123", types.Patient{TokenNumber: 123}.TokenString())
	assert.Equal(t, "#1234", types.Patient{TokenNumber: 1234}.TokenString())
}
