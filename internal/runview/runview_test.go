package runview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/baikal-ai/baikalctl/internal/platform"
)

var ctx = context.Background()

type stubSource struct {
	def        platform.AutomationDefinition
	defErr     error
	runs       []platform.AutomationRun
	runsErr    error
	runsCalls  int
	onRuns     func(call int) ([]platform.AutomationRun, error)
	triggerErr error
	triggers   int
}

func (s *stubSource) Get(_ context.Context, _ string) (platform.AutomationDefinition, error) {
	return s.def, s.defErr
}

func (s *stubSource) Runs(_ context.Context, _ string) ([]platform.AutomationRun, error) {
	s.runsCalls++
	if s.onRuns != nil {
		return s.onRuns(s.runsCalls)
	}
	return s.runs, s.runsErr
}

func (s *stubSource) TriggerRun(_ context.Context, _ string) error {
	s.triggers++
	return s.triggerErr
}

func runsWithStatuses(statuses ...platform.RunStatus) []platform.AutomationRun {
	runs := make([]platform.AutomationRun, len(statuses))
	for i, st := range statuses {
		runs[i] = platform.AutomationRun{ID: string(rune('a' + i)), Status: st}
	}
	return runs
}

func fastPoll(attempts int) PollPolicy {
	return PollPolicy{InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, MaxAttempts: attempts}
}

func TestComputeStatistics(t *testing.T) {
	tests := []struct {
		name     string
		statuses []platform.RunStatus
		want     Statistics
	}{
		{
			name: "empty collection",
			want: Statistics{},
		},
		{
			name:     "two success one failed",
			statuses: []platform.RunStatus{platform.RunSuccess, platform.RunSuccess, platform.RunFailed},
			want:     Statistics{Total: 3, SuccessCount: 2, FailedCount: 1, SuccessRate: 67},
		},
		{
			name:     "pending runs count toward total only",
			statuses: []platform.RunStatus{platform.RunQueued, platform.RunRunning, platform.RunSuccess},
			want:     Statistics{Total: 3, SuccessCount: 1, FailedCount: 0, SuccessRate: 33},
		},
		{
			name:     "all failed",
			statuses: []platform.RunStatus{platform.RunFailed, platform.RunFailed},
			want:     Statistics{Total: 2, FailedCount: 2, SuccessRate: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStatistics(runsWithStatuses(tt.statuses...))
			if got != tt.want {
				t.Errorf("ComputeStatistics() = %+v, want %+v", got, tt.want)
			}
			if got.SuccessCount+got.FailedCount > got.Total {
				t.Errorf("success+failed = %d exceeds total %d", got.SuccessCount+got.FailedCount, got.Total)
			}
		})
	}
}

func TestToggleExpanded_DoubleToggleRestores(t *testing.T) {
	m := New(&stubSource{}, "a1", nil)

	m.ToggleExpanded("r1")
	if !m.IsExpanded("r1") {
		t.Fatal("r1 should be expanded after first toggle")
	}
	m.ToggleExpanded("r1")
	if _, any := m.Expanded(); any {
		t.Error("double toggle should restore the collapsed state")
	}
}

func TestToggleExpanded_SingleSlot(t *testing.T) {
	m := New(&stubSource{}, "a1", nil)

	m.ToggleExpanded("r1")
	m.ToggleExpanded("r2")
	if m.IsExpanded("r1") {
		t.Error("expanding r2 should collapse r1")
	}
	if !m.IsExpanded("r2") {
		t.Error("r2 should be expanded")
	}
}

func TestLoadDefinition_ErrorIsFatalForView(t *testing.T) {
	src := &stubSource{defErr: errors.New("Automation not found")}
	m := New(src, "a1", nil)

	if err := m.LoadDefinition(ctx); err == nil {
		t.Fatal("expected error to propagate to the caller")
	}
	if _, ok := m.Definition(); ok {
		t.Error("definition should remain unloaded after failure")
	}
}

func TestLoadRuns_FailureKeepsPreviousList(t *testing.T) {
	src := &stubSource{runs: runsWithStatuses(platform.RunSuccess)}
	m := New(src, "a1", nil)

	m.LoadRuns(ctx)
	if len(m.Runs()) != 1 {
		t.Fatalf("runs = %d, want 1", len(m.Runs()))
	}

	src.runsErr = errors.New("backend flaked")
	m.LoadRuns(ctx)
	if len(m.Runs()) != 1 {
		t.Error("failed refresh must keep the stale list intact")
	}
}

func TestStatistics_RecomputedAfterEachLoad(t *testing.T) {
	src := &stubSource{runs: runsWithStatuses(platform.RunSuccess)}
	m := New(src, "a1", nil)

	m.LoadRuns(ctx)
	if got := m.Statistics(); got.SuccessRate != 100 {
		t.Fatalf("rate = %d, want 100", got.SuccessRate)
	}

	src.runs = runsWithStatuses(platform.RunFailed, platform.RunSuccess)
	m.LoadRuns(ctx)
	if got := m.Statistics(); got.SuccessRate != 50 {
		t.Errorf("rate after reload = %d, want 50", got.SuccessRate)
	}
}

func TestTriggerRun_RejectionSurfacesOnce(t *testing.T) {
	src := &stubSource{triggerErr: errors.New("worker pool exhausted")}
	m := New(src, "a1", nil)

	if err := m.TriggerRun(ctx); err == nil {
		t.Fatal("expected trigger failure to surface")
	}
	if src.triggers != 1 {
		t.Errorf("trigger attempted %d times, want exactly 1 (no retries)", src.triggers)
	}
}

func TestAwaitSettled_PollsUntilTerminal(t *testing.T) {
	src := &stubSource{}
	src.onRuns = func(call int) ([]platform.AutomationRun, error) {
		switch call {
		case 1:
			return runsWithStatuses(platform.RunQueued), nil
		case 2:
			return runsWithStatuses(platform.RunRunning), nil
		default:
			return runsWithStatuses(platform.RunSuccess), nil
		}
	}
	m := New(src, "a1", nil)
	m.SetPollPolicy(fastPoll(5))

	run, err := m.AwaitSettled(ctx)
	if err != nil {
		t.Fatalf("AwaitSettled: %v", err)
	}
	if run.Status != platform.RunSuccess {
		t.Errorf("settled status = %q, want success", run.Status)
	}
	if src.runsCalls != 3 {
		t.Errorf("polled %d times, want 3", src.runsCalls)
	}
}

func TestAwaitSettled_BudgetExhausted(t *testing.T) {
	src := &stubSource{runs: runsWithStatuses(platform.RunRunning)}
	m := New(src, "a1", nil)
	m.SetPollPolicy(fastPoll(3))

	_, err := m.AwaitSettled(ctx)
	if !errors.Is(err, ErrNotSettled) {
		t.Errorf("err = %v, want ErrNotSettled", err)
	}
	if src.runsCalls != 3 {
		t.Errorf("polled %d times, want 3", src.runsCalls)
	}
}

func TestAwaitSettled_TransientFetchFailuresConsumeAttempts(t *testing.T) {
	src := &stubSource{}
	src.onRuns = func(call int) ([]platform.AutomationRun, error) {
		if call == 1 {
			return nil, errors.New("flake")
		}
		return runsWithStatuses(platform.RunFailed), nil
	}
	m := New(src, "a1", nil)
	m.SetPollPolicy(fastPoll(4))

	run, err := m.AwaitSettled(ctx)
	if err != nil {
		t.Fatalf("AwaitSettled: %v", err)
	}
	if run.Status != platform.RunFailed {
		t.Errorf("settled status = %q, want failed", run.Status)
	}
}

func TestAwaitSettled_ContextCancelled(t *testing.T) {
	src := &stubSource{runs: runsWithStatuses(platform.RunRunning)}
	m := New(src, "a1", nil)
	m.SetPollPolicy(PollPolicy{InitialDelay: time.Hour, MaxDelay: time.Hour, MaxAttempts: 2})

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := m.AwaitSettled(cancelCtx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestStyleFor_UnknownFallback(t *testing.T) {
	for _, status := range []platform.RunStatus{platform.RunQueued, platform.RunRunning, platform.RunSuccess, platform.RunFailed} {
		if StyleFor(status).Label == "unknown" {
			t.Errorf("status %q should have its own style", status)
		}
	}
	if got := StyleFor(platform.RunStatus("archived")); got.Label != "unknown" {
		t.Errorf("fallback label = %q, want unknown", got.Label)
	}
}
