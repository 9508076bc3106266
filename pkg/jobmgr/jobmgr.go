// Package jobmgr runs named background jobs with cancellation and lifecycle
// reporting. The bot uses it for the admin HTTP server and the cooldown
// sweeper.
//
//	jm := jobmgr.NewManager(jobmgr.LogReporter(logger))
//	_ = jm.StartAsync(ctx, "sweeper", func(ctx context.Context) error {
//	    return cooldown.RunSweeper(ctx, time.Minute)
//	})
//	defer jm.StopAll()
package jobmgr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Event is a job lifecycle transition.
type Event struct {
	Job   string
	State string // running, done, error
	Err   error
}

// StatusReporter receives lifecycle events. It must not block.
type StatusReporter func(Event)

// LogReporter reports lifecycle events to log.
func LogReporter(log zerolog.Logger) StatusReporter {
	return func(ev Event) {
		switch ev.State {
		case "error":
			log.Error().Err(ev.Err).Str("job", ev.Job).Msg("Job failed")
		case "running":
			log.Info().Str("job", ev.Job).Msg("Job started")
		default:
			log.Info().Str("job", ev.Job).Msg("Job finished")
		}
	}
}

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager tracks running jobs. It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*job
	reporter StatusReporter
}

// NewManager creates a Manager. reporter may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*job),
		reporter: reporter,
	}
}

// StartAsync runs runner on its own goroutine under a context derived from
// parent. A name can only run once at a time.
func (m *Manager) StartAsync(parent context.Context, name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("job '%s' is already running", name)
	}
	ctx, cancel := context.WithCancel(parent)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.mu.Unlock()

	go func() {
		defer close(j.done)
		defer cancel()
		m.report(Event{Job: name, State: "running"})

		if err := runner(ctx); err != nil {
			m.report(Event{Job: name, State: "error", Err: err})
		} else {
			m.report(Event{Job: name, State: "done"})
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()
	return nil
}

// Stop cancels a running job and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("job '%s' not running", name)
	}
	j.cancel()
	<-j.done
	return nil
}

// StopAll cancels every job and waits for all of them.
func (m *Manager) StopAll() {
	m.mu.Lock()
	running := make([]*job, 0, len(m.jobs))
	for name, j := range m.jobs {
		running = append(running, j)
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	for _, j := range running {
		j.cancel()
	}
	for _, j := range running {
		<-j.done
	}
}

// List returns the names of running jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Status returns a one-line summary such as "Running jobs: admin, sweeper".
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}

func (m *Manager) report(ev Event) {
	if m.reporter != nil {
		m.reporter(ev)
	}
}
