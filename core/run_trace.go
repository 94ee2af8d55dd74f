package core

import (
	"context"
	"sync"
)

// RunStep is the last orchestration state a store invocation reached.
type RunStep string

const (
	StepNotAuthenticated     RunStep = "not_authenticated"
	StepAuthenticated        RunStep = "authenticated"
	StepVersionResolved      RunStep = "version_resolved"
	StepLocalizationResolved RunStep = "localization_resolved"
	StepSessionOpen          RunStep = "session_open"
	StepMutated              RunStep = "mutated"
	StepCommitted            RunStep = "committed"
	StepPatched              RunStep = "patched"
	StepCreated              RunStep = "created"
)

// RunTrace collects the steps reached by one store invocation.
type RunTrace struct {
	mu    sync.Mutex
	steps []RunStep
}

func NewRunTrace() *RunTrace {
	return &RunTrace{}
}

func (t *RunTrace) Mark(step RunStep) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, step)
}

// Last returns the latest step, StepNotAuthenticated when nothing was marked.
func (t *RunTrace) Last() RunStep {
	if t == nil {
		return StepNotAuthenticated
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.steps) == 0 {
		return StepNotAuthenticated
	}
	return t.steps[len(t.steps)-1]
}

func (t *RunTrace) Steps() []RunStep {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]RunStep(nil), t.steps...)
}

type runTraceKey struct{}

func ContextWithRunTrace(ctx context.Context, trace *RunTrace) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runTraceKey{}, trace)
}

func RunTraceFromContext(ctx context.Context) *RunTrace {
	if ctx == nil {
		return nil
	}
	trace, _ := ctx.Value(runTraceKey{}).(*RunTrace)
	return trace
}

// MarkStep records step on the trace carried by ctx, if any.
func MarkStep(ctx context.Context, step RunStep) {
	RunTraceFromContext(ctx).Mark(step)
}
