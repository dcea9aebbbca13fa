package sweep

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anstrom/netsweep/internal/errors"
	"github.com/anstrom/netsweep/internal/logging"
)

// RunKind identifies which sweep a tracked run executed.
type RunKind string

const (
	RunKindHosts RunKind = "hosts"
	RunKindPorts RunKind = "ports"
)

// RunStatus is the lifecycle state of a tracked run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

const defaultMaxTrackedRuns = 128

// Run is a snapshot of one tracked sweep. Snapshots returned by the
// tracker are copies and safe to hold while the sweep keeps running.
type Run struct {
	ID          uuid.UUID    `json:"id"`
	Kind        RunKind      `json:"kind"`
	Target      string       `json:"target"`
	Status      RunStatus    `json:"status"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Progress    Progress     `json:"progress"`
	Error       string       `json:"error,omitempty"`
	HostResults []HostResult `json:"host_results,omitempty"`
	PortResults []PortResult `json:"port_results,omitempty"`
}

// Duration returns how long the run has been going, or took.
func (r Run) Duration() time.Duration {
	return Elapsed(r.StartedAt, r.CompletedAt)
}

type runState struct {
	run    Run
	cancel context.CancelFunc
}

// Tracker starts sweeps in the background and keeps their progress
// and results addressable by run ID until they are deleted or
// evicted.
type Tracker struct {
	mu       sync.RWMutex
	engine   *Engine
	runs     map[uuid.UUID]*runState
	maxRuns  int
	notifier func(Run)
}

// NewTracker creates a tracker around the given engine. A nil engine
// gets a production engine with the built-in service registry.
func NewTracker(engine *Engine) *Tracker {
	if engine == nil {
		engine = NewEngine(nil)
	}
	return &Tracker{
		engine:  engine,
		runs:    make(map[uuid.UUID]*runState),
		maxRuns: defaultMaxTrackedRuns,
	}
}

// Engine returns the sweep engine behind the tracker.
func (t *Tracker) Engine() *Engine {
	return t.engine
}

// SetNotifier registers a callback invoked on every progress update
// and status change. Notifications carry run metadata and progress
// only; results are fetched by ID. The callback runs on sweep
// goroutines and must not block.
func (t *Tracker) SetNotifier(fn func(Run)) {
	t.mu.Lock()
	t.notifier = fn
	t.mu.Unlock()
}

// StartHostSweep begins a host sweep in the background and returns
// the tracked run. Configuration errors are returned immediately; the
// run stays tracked with the failed status so scheduled sweeps leave
// a trace.
func (t *Tracker) StartHostSweep(ctx context.Context, cfg HostSweepConfig) (Run, error) {
	runCtx, cancel := context.WithCancel(ctx)
	id := uuid.New()

	user := cfg.OnProgress
	cfg.OnProgress = func(p Progress) {
		t.updateProgress(id, p)
		if user != nil {
			user(p)
		}
	}

	t.track(Run{
		ID:        id,
		Kind:      RunKindHosts,
		Target:    cfg.targetLabel(),
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}, cancel)

	stream, err := t.engine.SweepHosts(runCtx, cfg)
	if err != nil {
		cancel()
		t.fail(id, err)
		return Run{}, err
	}

	go func() {
		for result := range stream {
			t.appendHostResult(id, result)
		}
		t.finish(runCtx, id, cancel)
	}()

	run, _ := t.Get(id)
	return run, nil
}

// StartPortSweep begins a port sweep in the background and returns
// the tracked run. Configuration and resolution errors are returned
// immediately; the run stays tracked with the failed status.
func (t *Tracker) StartPortSweep(ctx context.Context, cfg PortSweepConfig) (Run, error) {
	runCtx, cancel := context.WithCancel(ctx)
	id := uuid.New()

	user := cfg.OnProgress
	cfg.OnProgress = func(p Progress) {
		t.updateProgress(id, p)
		if user != nil {
			user(p)
		}
	}

	t.track(Run{
		ID:        id,
		Kind:      RunKindPorts,
		Target:    cfg.Host,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}, cancel)

	stream, err := t.engine.SweepPorts(runCtx, cfg)
	if err != nil {
		cancel()
		t.fail(id, err)
		return Run{}, err
	}

	go func() {
		for result := range stream {
			t.appendPortResult(id, result)
		}
		t.finish(runCtx, id, cancel)
	}()

	run, _ := t.Get(id)
	return run, nil
}

// Get returns a copy of the tracked run.
func (t *Tracker) Get(id uuid.UUID) (Run, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.runs[id]
	if !ok {
		return Run{}, false
	}
	return cloneRun(state.run), true
}

// List returns every tracked run, newest first, without result
// payloads.
func (t *Tracker) List() []Run {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Run, 0, len(t.runs))
	for _, state := range t.runs {
		out = append(out, summarize(state.run))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Cancel stops a running sweep. The run stays tracked and moves to
// the cancelled status once in-flight probes drain.
func (t *Tracker) Cancel(id uuid.UUID) error {
	t.mu.RLock()
	state, ok := t.runs[id]
	var cancel context.CancelFunc
	if ok && state.run.Status == RunStatusRunning {
		cancel = state.cancel
	}
	t.mu.RUnlock()

	if !ok {
		return errors.NewSweepError(errors.CodeNotFound, "run not found")
	}
	if cancel == nil {
		return errors.NewSweepError(errors.CodeConflict, "run already finished")
	}
	logging.Debug("Cancelling sweep run", "run_id", id.String())
	cancel()
	return nil
}

// Delete removes a finished run from the tracker.
func (t *Tracker) Delete(id uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	state, ok := t.runs[id]
	if !ok {
		return errors.NewSweepError(errors.CodeNotFound, "run not found")
	}
	if state.run.Status == RunStatusRunning {
		return errors.NewSweepError(errors.CodeConflict, "run is still running")
	}
	delete(t.runs, id)
	return nil
}

func (t *Tracker) track(run Run, cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runs[run.ID] = &runState{run: run, cancel: cancel}
	t.evictLocked()
	logging.Debug("Tracking sweep run",
		"run_id", run.ID.String(),
		"kind", string(run.Kind),
		"target", run.Target)
}

// fail marks a run that never started probing.
func (t *Tracker) fail(id uuid.UUID, err error) {
	now := time.Now()
	t.mu.Lock()
	state, ok := t.runs[id]
	if ok {
		state.run.Status = RunStatusFailed
		state.run.Error = err.Error()
		state.run.CompletedAt = &now
		state.cancel = nil
	}
	notifier := t.notifier
	var snapshot Run
	if ok && notifier != nil {
		snapshot = summarize(state.run)
	}
	t.mu.Unlock()
	if ok && notifier != nil {
		notifier(snapshot)
	}
}

// evictLocked drops the oldest finished runs once the table grows
// past maxRuns. Running sweeps are never evicted.
func (t *Tracker) evictLocked() {
	if len(t.runs) <= t.maxRuns {
		return
	}
	type candidate struct {
		id      uuid.UUID
		started time.Time
	}
	finished := make([]candidate, 0, len(t.runs))
	for id, state := range t.runs {
		if state.run.Status != RunStatusRunning {
			finished = append(finished, candidate{id: id, started: state.run.StartedAt})
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].started.Before(finished[j].started)
	})
	for _, c := range finished {
		if len(t.runs) <= t.maxRuns {
			break
		}
		delete(t.runs, c.id)
	}
}

func (t *Tracker) updateProgress(id uuid.UUID, p Progress) {
	t.mu.Lock()
	state, ok := t.runs[id]
	if ok {
		state.run.Progress = p
	}
	notifier := t.notifier
	var snapshot Run
	if ok && notifier != nil {
		snapshot = summarize(state.run)
	}
	t.mu.Unlock()
	if ok && notifier != nil {
		notifier(snapshot)
	}
}

func (t *Tracker) appendHostResult(id uuid.UUID, result HostResult) {
	t.mu.Lock()
	if state, ok := t.runs[id]; ok {
		state.run.HostResults = append(state.run.HostResults, result)
	}
	t.mu.Unlock()
}

func (t *Tracker) appendPortResult(id uuid.UUID, result PortResult) {
	t.mu.Lock()
	if state, ok := t.runs[id]; ok {
		state.run.PortResults = append(state.run.PortResults, result)
	}
	t.mu.Unlock()
}

// finish marks a run completed, or cancelled when its context was
// cut, and releases the run context.
func (t *Tracker) finish(ctx context.Context, id uuid.UUID, cancel context.CancelFunc) {
	status := RunStatusCompleted
	if ctx.Err() != nil {
		status = RunStatusCancelled
	}
	now := time.Now()

	t.mu.Lock()
	state, ok := t.runs[id]
	if ok {
		state.run.Status = status
		state.run.CompletedAt = &now
		state.cancel = nil
	}
	notifier := t.notifier
	var snapshot Run
	if ok && notifier != nil {
		snapshot = summarize(state.run)
	}
	t.mu.Unlock()

	cancel()
	if ok {
		logging.Debug("Sweep run finished",
			"run_id", id.String(),
			"status", string(status))
		if notifier != nil {
			notifier(snapshot)
		}
	}
}

func cloneRun(r Run) Run {
	out := r
	if r.CompletedAt != nil {
		ts := *r.CompletedAt
		out.CompletedAt = &ts
	}
	if r.HostResults != nil {
		out.HostResults = append([]HostResult(nil), r.HostResults...)
	}
	if r.PortResults != nil {
		out.PortResults = append([]PortResult(nil), r.PortResults...)
	}
	return out
}

// summarize copies a run without its result payloads.
func summarize(r Run) Run {
	out := r
	out.HostResults = nil
	out.PortResults = nil
	return out
}
