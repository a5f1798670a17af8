package analyses

import (
	"context"
	"strings"
	"time"

	"ats-backend/internal/llm"
	"ats-backend/internal/shared/metrics"
	"ats-backend/internal/shared/telemetry"
)

// OverloadedFallback is returned when every attempt against the remote
// model fails. It is a normal result, not an error: callers cannot tell
// it apart from genuine model output except by its content.
const OverloadedFallback = "Error: AI engine is currently overloaded. Please try again in 30 seconds."

// DefaultBackoffDelays is the wait schedule applied between failed attempts.
var DefaultBackoffDelays = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
}

// Engine calls the remote model with a fixed ordered backoff schedule.
// One attempt is made per schedule entry; after each failed attempt the
// engine sleeps for that entry before moving on. Engine holds no state
// between calls.
type Engine struct {
	LLM    llm.Client
	Delays []time.Duration
	Sleep  func(time.Duration)
}

// NewEngine constructs an Engine. An empty schedule falls back to
// DefaultBackoffDelays.
func NewEngine(client llm.Client, delays []time.Duration) *Engine {
	if len(delays) == 0 {
		delays = DefaultBackoffDelays
	}
	return &Engine{
		LLM:    client,
		Delays: delays,
		Sleep:  time.Sleep,
	}
}

// Run evaluates the resume against the job description. Exhausting the
// schedule yields OverloadedFallback; transient remote failures never
// surface to the caller as errors.
func (e *Engine) Run(ctx context.Context, resumeText, jobDescription string) string {
	prompt := llm.BuildPrompt(resumeText, jobDescription)

	for attempt, delay := range e.Delays {
		text, err := e.LLM.Generate(ctx, prompt)
		if err == nil {
			return strings.TrimSpace(text)
		}
		telemetry.Warn("engine.attempt_failed", map[string]any{
			"attempt":  attempt + 1,
			"attempts": len(e.Delays),
			"delay_ms": delay.Milliseconds(),
			"err":      err.Error(),
		})
		e.Sleep(delay)
	}

	metrics.IncAnalysisDegraded()
	return OverloadedFallback
}
