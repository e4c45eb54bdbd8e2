package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftworks/weft/internal/run"
)

func openTestRunStore(t *testing.T) *RunStore {
	t.Helper()
	store, err := OpenRunStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecord(id string, started time.Time) *RunRecord {
	return &RunRecord{
		ID:          id,
		Workflow:    "classifier",
		Status:      string(run.StatusSucceeded),
		FinalOutput: "SPAM",
		Context:     map[string]any{"input": "WIN A FREE CRUISE", "start": "SPAM"},
		Trace: []run.StepRecord{
			{Node: "start", Output: "SPAM", Next: "classify", Timestamp: started},
			{Node: "classify", Next: "terminal_spam", Timestamp: started},
			{Node: "terminal_spam", Output: "SPAM", Timestamp: started},
		},
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
	}
}

func TestRunStoreSaveGet(t *testing.T) {
	store := openTestRunStore(t)
	started := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rec := sampleRecord("run-1", started)

	require.NoError(t, store.SaveRun(rec))

	got, err := store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Workflow, got.Workflow)
	assert.Equal(t, rec.Status, got.Status)
	assert.Equal(t, rec.FinalOutput, got.FinalOutput)
	assert.Equal(t, rec.Context, got.Context)
	require.Len(t, got.Trace, 3)
	assert.Equal(t, "start", got.Trace[0].Node)
	assert.Equal(t, "classify", got.Trace[0].Next)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt))
	assert.True(t, rec.FinishedAt.Equal(got.FinishedAt))
}

func TestRunStoreUpsert(t *testing.T) {
	store := openTestRunStore(t)
	started := time.Now().UTC()

	rec := sampleRecord("run-1", started)
	rec.Status = string(run.StatusRunning)
	rec.FinalOutput = ""
	rec.FinishedAt = time.Time{}
	require.NoError(t, store.SaveRun(rec))

	got, err := store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, string(run.StatusRunning), got.Status)
	assert.True(t, got.FinishedAt.IsZero())

	require.NoError(t, store.SaveRun(sampleRecord("run-1", started)))

	got, err = store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, string(run.StatusSucceeded), got.Status)
	assert.False(t, got.FinishedAt.IsZero())
}

func TestRunStoreGetMissing(t *testing.T) {
	store := openTestRunStore(t)
	_, err := store.GetRun("nope")
	assert.ErrorIs(t, err, run.ErrRunNotFound)
}

func TestRunStoreList(t *testing.T) {
	store := openTestRunStore(t)
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		rec := sampleRecord(id, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.SaveRun(rec))
	}
	other := sampleRecord("run-x", base.Add(time.Hour))
	other.Workflow = "triage"
	require.NoError(t, store.SaveRun(other))

	recs, err := store.ListRuns("", 0)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, "run-x", recs[0].ID, "newest first")

	recs, err = store.ListRuns("classifier", 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "run-c", recs[0].ID)

	recs, err = store.ListRuns("classifier", 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
