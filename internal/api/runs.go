package api

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/price-monitor/internal/pipeline"
)

const maxListedRuns = 100

var (
	ErrRunNotFound   = errors.New("run not found")
	ErrRunInProgress = errors.New("a run is already in progress")
)

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Pipeline is satisfied by *pipeline.Runner.
type Pipeline interface {
	RunWithID(ctx context.Context, runID string) (*pipeline.Report, error)
}

// Run represents one pipeline run started through the API
type Run struct {
	ID          string           `json:"id"`
	Status      RunStatus        `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Error       string           `json:"error,omitempty"`
	Report      *pipeline.Report `json:"report,omitempty"`
}

// Manager keeps the runs of this process in memory and executes at most
// one at a time.
type Manager struct {
	ctx      context.Context
	pipeline Pipeline
	logger   *slog.Logger

	mu     sync.RWMutex
	runs   map[string]*Run
	active string
	wg     sync.WaitGroup
}

// NewManager creates a manager whose runs are cancelled when ctx ends.
func NewManager(ctx context.Context, p Pipeline, logger *slog.Logger) *Manager {
	return &Manager{
		ctx:      ctx,
		pipeline: p,
		logger:   logger.With("component", "run_manager"),
		runs:     make(map[string]*Run),
	}
}

// Start launches a run in the background.
func (m *Manager) Start() (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != "" {
		return Run{}, ErrRunInProgress
	}

	run := &Run{
		ID:        uuid.NewString(),
		Status:    RunRunning,
		CreatedAt: time.Now(),
	}
	m.runs[run.ID] = run
	m.active = run.ID

	m.wg.Add(1)
	go m.execute(run.ID)

	m.logger.Info("run started", "id", run.ID)
	return *run, nil
}

func (m *Manager) execute(id string) {
	defer m.wg.Done()

	report, err := m.pipeline.RunWithID(m.ctx, id)

	m.mu.Lock()
	defer m.mu.Unlock()

	run := m.runs[id]
	now := time.Now()
	run.CompletedAt = &now
	run.Report = report
	run.Status = RunCompleted
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
		m.logger.Error("run failed", "id", id, "error", err)
	} else {
		m.logger.Info("run completed", "id", id)
	}
	m.active = ""
}

func (m *Manager) Get(id string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return *run, nil
}

// List returns the most recent runs first.
func (m *Manager) List() []Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if len(runs) > maxListedRuns {
		runs = runs[:maxListedRuns]
	}
	return runs
}

// Wait blocks until every started run has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}
