// Package analytics receives discrete player choices for offline analysis.
// The sink is best-effort: the simulation never waits on it and never sees
// its failures.
package analytics

import "log/slog"

// Sink records a player choice label. Implementations must be safe for
// concurrent use and must not block for long.
type Sink interface {
	AppendChoice(label string)
}

// Nop discards every choice. Used when no sink is configured.
type Nop struct{}

func (Nop) AppendChoice(string) {}

// Logger writes choices to structured logs.
type Logger struct{}

func (Logger) AppendChoice(label string) {
	slog.Info("choice", "label", label)
}

// ChoiceWriter is the persistence-side contract for durable choice storage.
type ChoiceWriter interface {
	AppendChoice(label string) error
}

// Recorder adapts a durable writer into a Sink, swallowing and logging
// failures so storage trouble never reaches the simulation.
type Recorder struct {
	W ChoiceWriter
}

func (r Recorder) AppendChoice(label string) {
	if err := r.W.AppendChoice(label); err != nil {
		slog.Warn("choice append failed", "label", label, "error", err)
	}
}
