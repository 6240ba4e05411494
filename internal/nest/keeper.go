package nest

import (
	"fmt"
	"sync"

	"github.com/talgya/nestsim/internal/analytics"
	"github.com/talgya/nestsim/internal/clock"
	"github.com/talgya/nestsim/internal/entropy"
	"github.com/talgya/nestsim/internal/tiers"
)

// Keeper is the nest state machine. It owns the canonical State and
// serializes every mutation behind one mutex: each operation reads a
// snapshot, computes the next state, and commits before the next caller
// gets in. Observers receive immutable value snapshots after each
// successful mutation.
type Keeper struct {
	cfg  *tiers.Catalog
	clk  clock.Clock
	src  entropy.Source
	sink analytics.Sink

	mu sync.Mutex
	st State

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int
}

// snapshotBuffer is the per-subscriber channel depth. Slow observers drop
// intermediate snapshots rather than stalling the simulation.
const snapshotBuffer = 8

// New creates a Keeper with a fresh nest at the catalog's lowest level.
// A nil sink disables choice reporting.
func New(cfg *tiers.Catalog, clk clock.Clock, src entropy.Source, sink analytics.Sink) *Keeper {
	if sink == nil {
		sink = analytics.Nop{}
	}
	return &Keeper{
		cfg:  cfg,
		clk:  clk,
		src:  src,
		sink: sink,
		st: State{
			Level:                 cfg.MinLevel(),
			LastPassiveTickMillis: clk.NowMillis(),
		},
		subs: make(map[int]chan State),
	}
}

// Snapshot returns a deep copy of the current state.
func (k *Keeper) Snapshot() State {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.st.Clone()
}

// Restore replaces the state with a previously persisted one. A zero
// passive clock (fresh or pre-passive-era save) is normalized to now so
// accrual starts at restore time, not at the epoch; a real timestamp is
// preserved so offline time still pays out on the next tick.
func (k *Keeper) Restore(st State) {
	k.mu.Lock()
	if st.LastPassiveTickMillis == 0 {
		st.LastPassiveTickMillis = k.clk.NowMillis()
	}
	k.st = st.Clone()
	k.publish(k.st.Clone())
	k.mu.Unlock()
}

// Subscribe registers an observer of state snapshots. The returned cancel
// func must be called exactly once; it closes the channel.
func (k *Keeper) Subscribe() (<-chan State, func()) {
	k.subMu.Lock()
	id := k.nextSub
	k.nextSub++
	ch := make(chan State, snapshotBuffer)
	k.subs[id] = ch
	k.subMu.Unlock()

	cancel := func() {
		k.subMu.Lock()
		if c, ok := k.subs[id]; ok {
			delete(k.subs, id)
			close(c)
		}
		k.subMu.Unlock()
	}
	return ch, cancel
}

// publish fans a snapshot out to every subscriber. Called with k.mu still
// held so deliveries follow commit order; sends are non-blocking, so a slow
// subscriber drops intermediate snapshots instead of holding the lock.
func (k *Keeper) publish(snap State) {
	k.subMu.Lock()
	defer k.subMu.Unlock()
	for _, ch := range k.subs {
		select {
		case ch <- snap:
		default:
			// Subscriber is behind; it will catch up on the next publish.
		}
	}
}

// report hands a choice label to the analytics sink without waiting on it.
func (k *Keeper) report(label string) {
	go k.sink.AppendChoice(label)
}

// RefreshRecruitment purges expired offers and tops the pool back up.
// Always succeeds.
func (k *Keeper) RefreshRecruitment() {
	k.mu.Lock()
	now := k.clk.NowMillis()
	k.st = EnsureOffers(k.st, now, k.cfg, k.src)
	k.publish(k.st.Clone())
	k.mu.Unlock()
}

// AcceptRecruitment spends seeds to turn an offer into an assignment in the
// given role. On any precondition failure the state is untouched.
func (k *Keeper) AcceptRecruitment(offerID string, role tiers.Role) error {
	k.mu.Lock()
	now := k.clk.NowMillis()

	idx := k.st.FindOffer(offerID)
	if idx < 0 || k.st.Pool[idx].ExpiresAtMillis <= now {
		k.mu.Unlock()
		return ErrOfferNotFound
	}
	offer := k.st.Pool[idx]

	if !k.cfg.RoleAllowed(k.st.Level, role) {
		k.mu.Unlock()
		return ErrRoleNotUnlocked
	}
	if len(k.st.Assignments) >= k.cfg.Capacity(k.st.Level) {
		k.mu.Unlock()
		return ErrCapacityExceeded
	}
	if k.st.SeedStock < offer.SeedCost {
		k.mu.Unlock()
		return ErrInsufficientSeeds
	}
	if k.st.HasCritter(offer.Critter.ID) {
		k.mu.Unlock()
		return ErrCritterAlreadyAssigned
	}

	k.st.SeedStock -= offer.SeedCost
	slotID := deriveSlotID(k.st, role)
	k.st.Assignments = append(k.st.Assignments, Assignment{
		SlotID:           slotID,
		Role:             role,
		Critter:          offer.Critter,
		AssignedAtMillis: now,
	})
	k.st.Pool = append(k.st.Pool[:idx], k.st.Pool[idx+1:]...)
	k.st = EnsureOffers(k.st, now, k.cfg, k.src)
	k.publish(k.st.Clone())
	k.mu.Unlock()

	k.report(fmt.Sprintf("nest:recruit:%s:%s", offer.Critter.Species, role))
	return nil
}

// Unassign removes the assignment with the given slot ID. Removing an
// absent slot is a no-op, not an error.
func (k *Keeper) Unassign(slotID string) bool {
	k.mu.Lock()
	removed := false
	for i, a := range k.st.Assignments {
		if a.SlotID == slotID {
			k.st.Assignments = append(k.st.Assignments[:i], k.st.Assignments[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		k.mu.Unlock()
		return false
	}
	k.publish(k.st.Clone())
	k.mu.Unlock()

	k.report("nest:unassign:" + slotID)
	return true
}

// RequestUpgrade starts the timed upgrade into the next level. Requesting
// while one is in flight, or past the maximum level, is a silent no-op.
func (k *Keeper) RequestUpgrade() error {
	k.mu.Lock()
	now := k.clk.NowMillis()

	if k.st.Upgrade.InProgress {
		k.mu.Unlock()
		return nil
	}
	next, ok := k.cfg.NextLevel(k.st.Level)
	if !ok {
		k.mu.Unlock()
		return nil
	}
	spec, _ := k.cfg.SpecFor(k.st.Level)
	if k.st.SeedStock < spec.UpgradeCost {
		k.mu.Unlock()
		return ErrInsufficientSeeds
	}

	k.st.SeedStock -= spec.UpgradeCost
	k.st.Upgrade = UpgradeStatus{
		InProgress:        true,
		TargetLevel:       next,
		CompletesAtMillis: now + spec.UpgradeDurationMS,
	}
	k.publish(k.st.Clone())
	k.mu.Unlock()

	k.report(fmt.Sprintf("nest:upgrade:%d", next))
	return nil
}

// Tick advances simulation time in a fixed order: purge expired offers,
// then complete a due upgrade, then apply passive accrual, then replenish
// the pool. The whole sequence commits as one new state.
func (k *Keeper) Tick() {
	k.mu.Lock()
	now := k.clk.NowMillis()

	st := k.st
	st = purgeExpired(st, now)
	st = completeUpgrade(st, now, k.cfg)
	st = applyAccrual(st, now, k.cfg)
	st = EnsureOffers(st, now, k.cfg, k.src)

	k.st = st
	k.publish(k.st.Clone())
	k.mu.Unlock()
}

func purgeExpired(st State, now int64) State {
	var kept []Offer
	for _, o := range st.Pool {
		if o.ExpiresAtMillis > now {
			kept = append(kept, o)
		}
	}
	st.Pool = kept
	return st
}

// completeUpgrade transitions to the target level once the completion
// timestamp passes. If the new capacity is somehow smaller, assignments are
// truncated to the first N in existing order. Dropped slots are not
// refunded.
func completeUpgrade(st State, now int64, cfg *tiers.Catalog) State {
	if !st.Upgrade.InProgress || now < st.Upgrade.CompletesAtMillis {
		return st
	}

	st.Level = st.Upgrade.TargetLevel
	st.Upgrade = UpgradeStatus{}

	if limit := cfg.Capacity(st.Level); len(st.Assignments) > limit {
		st.Assignments = st.Assignments[:limit]
	}
	return st
}

// deriveSlotID names a slot after its role plus the 1-based ordinal of that
// role's assignments, probing upward past any ordinal freed by a previous
// unassign so IDs stay unique within a role.
func deriveSlotID(st State, role tiers.Role) string {
	count := 0
	for _, a := range st.Assignments {
		if a.Role == role {
			count++
		}
	}
	for n := count + 1; ; n++ {
		id := fmt.Sprintf("%s-%d", role, n)
		taken := false
		for _, a := range st.Assignments {
			if a.SlotID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}
