package sweep

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/netsweep/internal/errors"
)

func newTestTracker(echoer *scriptedEchoer, dialer *scriptedDialer) *Tracker {
	return NewTracker(newTestEngine(echoer, dialer, nil))
}

func waitForRun(t *testing.T, tr *Tracker, id uuid.UUID, status RunStatus) Run {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if run, ok := tr.Get(id); ok && run.Status == status {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s never reached status %s", id, status)
	return Run{}
}

func TestTrackerHostRun(t *testing.T) {
	echoer := newScriptedEchoer()
	echoer.up("10.0.0.2")
	// Slow the probes down so the run is still observable as running
	// right after it starts.
	echoer.delay = 20 * time.Millisecond
	eng := newTestEngine(echoer, nil, nil)
	tr := NewTracker(eng)
	assert.Same(t, eng, tr.Engine())

	run, err := tr.StartHostSweep(context.Background(), HostSweepConfig{
		Start:    "10.0.0.1",
		End:      "10.0.0.3",
		Threads:  2,
		Attempts: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, RunKindHosts, run.Kind)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Equal(t, "10.0.0.1-10.0.0.3", run.Target)
	assert.Equal(t, 3, run.Progress.Total)
	assert.Nil(t, run.CompletedAt)

	final := waitForRun(t, tr, run.ID, RunStatusCompleted)
	require.NotNil(t, final.CompletedAt)
	assert.Equal(t, 3, final.Progress.Completed)
	assert.Equal(t, 100.0, final.Progress.Percent)
	require.Len(t, final.HostResults, 1)
	assert.Equal(t, "10.0.0.2", final.HostResults[0].Address)
	assert.Equal(t, StatusUp, final.HostResults[0].Status)
	assert.GreaterOrEqual(t, final.Duration(), time.Duration(0))
}

func TestTrackerPortRun(t *testing.T) {
	dialer := &scriptedDialer{open: map[uint16]bool{22: true}}
	tr := newTestTracker(nil, dialer)

	run, err := tr.StartPortSweep(context.Background(), PortSweepConfig{
		Host:      "10.0.0.9",
		StartPort: 20,
		EndPort:   25,
		Threads:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, RunKindPorts, run.Kind)
	assert.Equal(t, "10.0.0.9", run.Target)

	final := waitForRun(t, tr, run.ID, RunStatusCompleted)
	assert.Equal(t, 6, final.Progress.Completed)
	assert.Equal(t, 100.0, final.Progress.Percent)
	require.Len(t, final.PortResults, 1)
	assert.Equal(t, uint16(22), final.PortResults[0].Port)
	assert.Empty(t, final.HostResults)
}

func TestTrackerFailedRun(t *testing.T) {
	tr := newTestTracker(newScriptedEchoer(), nil)

	_, err := tr.StartHostSweep(context.Background(), HostSweepConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))

	runs := tr.List()
	require.Len(t, runs, 1)
	assert.Equal(t, RunStatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
	require.NotNil(t, runs[0].CompletedAt)
}

func TestTrackerCancel(t *testing.T) {
	echoer := newScriptedEchoer()
	echoer.allUp = true
	echoer.delay = 20 * time.Millisecond
	tr := newTestTracker(echoer, nil)

	run, err := tr.StartHostSweep(context.Background(), HostSweepConfig{
		Start:    "10.0.1.1",
		End:      "10.0.1.100",
		Threads:  4,
		Attempts: 1,
	})
	require.NoError(t, err)
	require.NoError(t, tr.Cancel(run.ID))

	final := waitForRun(t, tr, run.ID, RunStatusCancelled)
	assert.Less(t, final.Progress.Completed, 100)
	require.NotNil(t, final.CompletedAt)

	err = tr.Cancel(run.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))

	err = tr.Cancel(uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestTrackerDelete(t *testing.T) {
	echoer := newScriptedEchoer()
	echoer.allUp = true
	echoer.delay = 30 * time.Millisecond
	tr := newTestTracker(echoer, nil)

	run, err := tr.StartHostSweep(context.Background(), HostSweepConfig{
		Start:    "10.0.0.1",
		End:      "10.0.0.10",
		Threads:  2,
		Attempts: 1,
	})
	require.NoError(t, err)

	err = tr.Delete(run.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))

	waitForRun(t, tr, run.ID, RunStatusCompleted)
	require.NoError(t, tr.Delete(run.ID))

	_, ok := tr.Get(run.ID)
	assert.False(t, ok)

	err = tr.Delete(run.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestTrackerList(t *testing.T) {
	echoer := newScriptedEchoer()
	echoer.up("10.0.0.1")
	dialer := &scriptedDialer{open: map[uint16]bool{80: true}}
	tr := NewTracker(newTestEngine(echoer, dialer, nil))

	hostRun, err := tr.StartHostSweep(context.Background(), HostSweepConfig{
		Start:    "10.0.0.1",
		End:      "10.0.0.1",
		Attempts: 1,
	})
	require.NoError(t, err)
	waitForRun(t, tr, hostRun.ID, RunStatusCompleted)

	time.Sleep(5 * time.Millisecond)
	portRun, err := tr.StartPortSweep(context.Background(), PortSweepConfig{
		Host:      "10.0.0.1",
		StartPort: 80,
		EndPort:   80,
	})
	require.NoError(t, err)
	waitForRun(t, tr, portRun.ID, RunStatusCompleted)

	runs := tr.List()
	require.Len(t, runs, 2)
	assert.Equal(t, RunKindPorts, runs[0].Kind)
	assert.Equal(t, RunKindHosts, runs[1].Kind)
	for _, r := range runs {
		assert.Nil(t, r.HostResults)
		assert.Nil(t, r.PortResults)
	}
}

func TestTrackerNotifier(t *testing.T) {
	echoer := newScriptedEchoer()
	echoer.allUp = true
	tr := newTestTracker(echoer, nil)

	var mu sync.Mutex
	var seen []Run
	tr.SetNotifier(func(r Run) {
		mu.Lock()
		seen = append(seen, r)
		mu.Unlock()
	})

	run, err := tr.StartHostSweep(context.Background(), HostSweepConfig{
		Start:    "10.0.0.1",
		End:      "10.0.0.5",
		Threads:  2,
		Attempts: 1,
	})
	require.NoError(t, err)
	waitForRun(t, tr, run.ID, RunStatusCompleted)

	var last Run
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		if n := len(seen); n > 0 && seen[n-1].Status == RunStatusCompleted {
			last = seen[n-1]
			mu.Unlock()
			break
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, RunStatusCompleted, last.Status)
	assert.Equal(t, 100.0, last.Progress.Percent)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, len(seen), 2)
	for _, r := range seen {
		assert.Equal(t, run.ID, r.ID)
		assert.Nil(t, r.HostResults)
	}
}

func TestTrackerEviction(t *testing.T) {
	echoer := newScriptedEchoer()
	echoer.allUp = true
	tr := newTestTracker(echoer, nil)
	tr.maxRuns = 2

	var ids []uuid.UUID
	for _, addr := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		run, err := tr.StartHostSweep(context.Background(), HostSweepConfig{
			Start:    addr,
			End:      addr,
			Attempts: 1,
		})
		require.NoError(t, err)
		waitForRun(t, tr, run.ID, RunStatusCompleted)
		ids = append(ids, run.ID)
		time.Sleep(5 * time.Millisecond)
	}

	assert.Len(t, tr.List(), 2)
	_, ok := tr.Get(ids[0])
	assert.False(t, ok, "oldest finished run should be evicted")
	_, ok = tr.Get(ids[1])
	assert.True(t, ok)
	_, ok = tr.Get(ids[2])
	assert.True(t, ok)
}
