package nest

import (
	"math"

	"github.com/talgya/nestsim/internal/tiers"
)

const (
	millisPerHour = int64(3_600_000)

	// Accruals closer together than this advance the passive clock without
	// generating seeds, so rapid ticks never mint fractional income.
	minAccrualIntervalMillis = int64(60_000)
)

// applyAccrual folds elapsed time since the last passive tick into seed
// stock. Income is floor(rate * elapsed hours); the fractional remainder is
// discarded, not carried, so repeated ticks at the same timestamp stay
// idempotent. The passive clock only ever moves forward.
func applyAccrual(st State, now int64, cfg *tiers.Catalog) State {
	elapsed := now - st.LastPassiveTickMillis
	if elapsed <= 0 {
		// Clock went backwards or stood still. Nothing to mint, and the
		// passive clock must not regress.
		return st
	}

	if elapsed < minAccrualIntervalMillis {
		st.LastPassiveTickMillis = now
		return st
	}

	rate := cfg.PassiveRate(st.Level, st.AssignedRoles())
	hours := float64(elapsed) / float64(millisPerHour)
	generated := int64(math.Floor(rate * hours))
	if generated > 0 {
		st.SeedStock += generated
	}
	st.LastPassiveTickMillis = now
	return st
}
