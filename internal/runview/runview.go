// Package runview models an automation's detail view: the definition, its
// run history with derived statistics, the single-slot expansion state, and
// the trigger-then-settle flow for new runs.
package runview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/baikal-ai/baikalctl/internal/platform"
)

// Source is the slice of the automation collection the view model needs.
// *platform.Automations satisfies it.
type Source interface {
	Get(ctx context.Context, id string) (platform.AutomationDefinition, error)
	Runs(ctx context.Context, id string) ([]platform.AutomationRun, error)
	TriggerRun(ctx context.Context, id string) error
}

// ErrNotSettled is returned by AwaitSettled when the newest run has not
// reached a terminal status within the polling budget.
var ErrNotSettled = errors.New("run did not settle within the polling budget")

// Statistics are derived from the run collection on every read and never
// cached across mutations.
type Statistics struct {
	Total        int
	SuccessCount int
	FailedCount  int
	// SuccessRate is round(success/total*100); 0 when there are no runs.
	SuccessRate int
}

// ComputeStatistics derives aggregate run statistics. Pure.
func ComputeStatistics(runs []platform.AutomationRun) Statistics {
	s := Statistics{Total: len(runs)}
	for _, r := range runs {
		switch r.Status {
		case platform.RunSuccess:
			s.SuccessCount++
		case platform.RunFailed:
			s.FailedCount++
		}
	}
	if s.Total > 0 {
		s.SuccessRate = int(math.Round(float64(s.SuccessCount) / float64(s.Total) * 100))
	}
	return s
}

// PollPolicy bounds the trigger-then-settle refresh loop.
type PollPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultPollPolicy starts at the 1.5s the console has always waited after
// a trigger, then backs off exponentially.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		InitialDelay: 1500 * time.Millisecond,
		MaxDelay:     12 * time.Second,
		MaxAttempts:  8,
	}
}

// Model is the view model for one automation's detail view. Single
// logical thread of use; no internal locking.
type Model struct {
	src          Source
	log          *slog.Logger
	automationID string
	poll         PollPolicy

	def      platform.AutomationDefinition
	defined  bool
	runs     []platform.AutomationRun
	expanded string
}

func New(src Source, automationID string, log *slog.Logger) *Model {
	if log == nil {
		log = slog.Default()
	}
	return &Model{
		src:          src,
		log:          log,
		automationID: automationID,
		poll:         DefaultPollPolicy(),
	}
}

// SetPollPolicy overrides the settle-polling bounds.
func (m *Model) SetPollPolicy(p PollPolicy) { m.poll = p }

// LoadDefinition fetches the definition. Errors (including not-found) are
// fatal for this view: the caller falls back to the list.
func (m *Model) LoadDefinition(ctx context.Context) error {
	def, err := m.src.Get(ctx, m.automationID)
	if err != nil {
		return fmt.Errorf("loading automation %s: %w", m.automationID, err)
	}
	m.def = def
	m.defined = true
	return nil
}

// Definition returns the loaded definition and whether LoadDefinition has
// succeeded.
func (m *Model) Definition() (platform.AutomationDefinition, bool) {
	return m.def, m.defined
}

// LoadRuns refreshes the run history. Fetch failures are swallowed: the
// previous list stays in place, stale data beats a broken view.
func (m *Model) LoadRuns(ctx context.Context) {
	runs, err := m.src.Runs(ctx, m.automationID)
	if err != nil {
		m.log.Warn("refreshing run history failed, keeping previous list",
			"automation", m.automationID, "error", err)
		return
	}
	m.runs = runs
}

// Runs returns the current run history, newest first.
func (m *Model) Runs() []platform.AutomationRun { return m.runs }

// Statistics recomputes aggregate statistics from the current history.
func (m *Model) Statistics() Statistics { return ComputeStatistics(m.runs) }

// TriggerRun requests a new run. On rejection the error surfaces for user
// notification; nothing is retried. On acceptance the new run becomes
// visible only eventually — call Refresh or AwaitSettled afterwards.
func (m *Model) TriggerRun(ctx context.Context) error {
	if err := m.src.TriggerRun(ctx, m.automationID); err != nil {
		return fmt.Errorf("triggering run: %w", err)
	}
	return nil
}

// Refresh performs the one-shot deferred reload: wait the initial poll
// delay, then reload the history once.
func (m *Model) Refresh(ctx context.Context) error {
	if err := sleep(ctx, m.poll.InitialDelay); err != nil {
		return err
	}
	m.LoadRuns(ctx)
	return nil
}

// AwaitSettled polls the run history with bounded exponential backoff until
// the newest run reaches a terminal status, returning that run. Transient
// fetch failures consume an attempt and keep the previous list, like
// LoadRuns. Returns ErrNotSettled when the budget runs out.
func (m *Model) AwaitSettled(ctx context.Context) (platform.AutomationRun, error) {
	delay := m.poll.InitialDelay
	for attempt := 0; attempt < m.poll.MaxAttempts; attempt++ {
		if err := sleep(ctx, delay); err != nil {
			return platform.AutomationRun{}, err
		}
		m.LoadRuns(ctx)
		if len(m.runs) > 0 && m.runs[0].Status.Terminal() {
			return m.runs[0], nil
		}
		delay *= 2
		if delay > m.poll.MaxDelay {
			delay = m.poll.MaxDelay
		}
	}
	return platform.AutomationRun{}, ErrNotSettled
}

// ToggleExpanded flips the expansion state of one run. At most one run is
// expanded at a time; expanding another collapses the first.
func (m *Model) ToggleExpanded(runID string) {
	if m.expanded == runID {
		m.expanded = ""
		return
	}
	m.expanded = runID
}

// Expanded returns the currently expanded run id, if any.
func (m *Model) Expanded() (string, bool) {
	return m.expanded, m.expanded != ""
}

// IsExpanded reports whether the given run is the expanded one.
func (m *Model) IsExpanded(runID string) bool {
	return m.expanded != "" && m.expanded == runID
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
