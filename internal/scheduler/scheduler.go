// Package scheduler runs recurring sweeps defined in configuration.
// Each entry binds a cron expression to one sweep kind and its
// parameters; runs start through the tracker so they are visible to
// the API like any other sweep. Overlapping runs of the same entry
// are skipped.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/anstrom/netsweep/internal/logging"
	"github.com/anstrom/netsweep/internal/sweep"
)

// Scheduler manages recurring sweep entries.
type Scheduler struct {
	tracker *sweep.Tracker
	cron    *cron.Cron
	entries map[string]*entry
	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// entry is one registered recurring sweep.
type entry struct {
	name    string
	spec    string
	kind    sweep.RunKind
	cronID  cron.EntryID
	lastRun time.Time
	lastID  uuid.UUID
	hosts   *sweep.HostSweepConfig
	ports   *sweep.PortSweepConfig
}

// EntryStatus is a point-in-time view of one entry.
type EntryStatus struct {
	Name    string        `json:"name"`
	Spec    string        `json:"spec"`
	Kind    sweep.RunKind `json:"kind"`
	Running bool          `json:"running"`
	LastRun time.Time     `json:"last_run,omitempty"`
	NextRun time.Time     `json:"next_run,omitempty"`
	LastID  uuid.UUID     `json:"last_run_id,omitempty"`
}

// New creates a scheduler that starts runs through the given tracker.
func New(tracker *sweep.Tracker) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		tracker: tracker,
		cron:    cron.New(),
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddHostJob registers a recurring host sweep under the given name.
func (s *Scheduler) AddHostJob(name, cronExpr string, cfg sweep.HostSweepConfig) error {
	return s.add(name, cronExpr, sweep.RunKindHosts, &cfg, nil)
}

// AddPortJob registers a recurring port sweep under the given name.
func (s *Scheduler) AddPortJob(name, cronExpr string, cfg sweep.PortSweepConfig) error {
	return s.add(name, cronExpr, sweep.RunKindPorts, nil, &cfg)
}

func (s *Scheduler) add(
	name, cronExpr string, kind sweep.RunKind,
	hosts *sweep.HostSweepConfig, ports *sweep.PortSweepConfig,
) error {
	if name == "" {
		return fmt.Errorf("schedule entry needs a name")
	}

	// Validate cron expression using standard 5-field format
	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("duplicate schedule entry: %s", name)
	}

	ent := &entry{
		name:  name,
		spec:  cronExpr,
		kind:  kind,
		hosts: hosts,
		ports: ports,
	}

	cronID, err := s.cron.AddFunc(cronExpr, func() {
		s.execute(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	ent.cronID = cronID
	s.entries[name] = ent

	logging.InfoScheduler("Added schedule entry",
		"entry", name, "kind", string(kind), "cron", cronExpr)
	return nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.cron.Start()
	s.running = true

	logging.InfoScheduler("Scheduler started", "entries", len(s.entries))
	return nil
}

// Stop stops the scheduler and cancels sweeps it started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Stop()
	s.cancel()
	s.running = false

	logging.InfoScheduler("Scheduler stopped")
}

// Running reports whether the scheduler has been started.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Entries returns the status of every registered entry, sorted by name.
func (s *Scheduler) Entries() []EntryStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]EntryStatus, 0, len(s.entries))
	for _, ent := range s.entries {
		status := EntryStatus{
			Name:    ent.name,
			Spec:    ent.spec,
			Kind:    ent.kind,
			Running: s.entryRunningLocked(ent),
			LastRun: ent.lastRun,
			NextRun: s.cron.Entry(ent.cronID).Next,
			LastID:  ent.lastID,
		}
		out = append(out, status)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// execute starts one run of the named entry. A tick that fires while
// the previous run of the same entry is still active is skipped.
func (s *Scheduler) execute(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, exists := s.entries[name]
	if !exists {
		return
	}

	if s.entryRunningLocked(ent) {
		logging.InfoScheduler("Previous run still active, skipping",
			"entry", name, "run_id", ent.lastID.String())
		return
	}

	ent.lastRun = time.Now()

	var run sweep.Run
	var err error
	switch ent.kind {
	case sweep.RunKindHosts:
		run, err = s.tracker.StartHostSweep(s.ctx, *ent.hosts)
	case sweep.RunKindPorts:
		run, err = s.tracker.StartPortSweep(s.ctx, *ent.ports)
	}
	if err != nil {
		logging.ErrorScheduler("Scheduled sweep failed to start", err, "entry", name)
		return
	}
	ent.lastID = run.ID

	logging.InfoScheduler("Scheduled sweep started",
		"entry", name, "kind", string(ent.kind),
		"run_id", run.ID.String(), "target", run.Target)
}

// entryRunningLocked reports whether the entry's last run is still
// active in the tracker. Callers hold s.mu.
func (s *Scheduler) entryRunningLocked(ent *entry) bool {
	if ent.lastID == uuid.Nil {
		return false
	}
	run, ok := s.tracker.Get(ent.lastID)
	return ok && run.Status == sweep.RunStatusRunning
}
