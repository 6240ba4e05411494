// Package runner provides the tick loop driving the nest simulation.
package runner

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/talgya/nestsim/internal/nest"
)

// Runner drives the Keeper forward on a fixed cadence.
type Runner struct {
	Keeper   *nest.Keeper
	Interval time.Duration // Base tick interval (default 1 second)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused

	// OnSave, when set, is invoked every SaveEvery of wall time for
	// periodic persistence.
	OnSave    func()
	SaveEvery time.Duration

	// Stop is called from a signal handler goroutine, so the flag is
	// atomic.
	running  atomic.Bool
	lastSave time.Time
}

// New creates a runner with default settings.
func New(k *nest.Keeper) *Runner {
	return &Runner{
		Keeper:   k,
		Interval: time.Second,
		Speed:    1.0,
	}
}

// Run starts the tick loop. Blocks until Stop() is called.
func (r *Runner) Run() {
	r.running.Store(true)
	r.lastSave = time.Now()
	slog.Info("nest runner started", "interval", r.Interval, "speed", r.Speed)

	for r.running.Load() {
		if r.Speed <= 0 {
			// Paused. Sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		r.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(r.Interval) / r.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("nest runner stopped")
}

// Stop halts the tick loop after the current step. Safe to call from any
// goroutine.
func (r *Runner) Stop() {
	r.running.Store(false)
}

func (r *Runner) step() {
	r.Keeper.Tick()

	if r.OnSave != nil && r.SaveEvery > 0 && time.Since(r.lastSave) >= r.SaveEvery {
		r.OnSave()
		r.lastSave = time.Now()
	}
}
