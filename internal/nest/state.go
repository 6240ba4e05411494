// Package nest implements the home-base simulation core: passive seed
// accrual, the timed upgrade lifecycle, and the perishable recruitment
// offer pool, all behind a single serialized state machine.
package nest

import "github.com/talgya/nestsim/internal/tiers"

// Critter is a candidate or assigned inhabitant of the nest.
type Critter struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Species  string     `json:"species"`
	Affinity tiers.Role `json:"affinity"`
}

// Offer is a time-limited opportunity to recruit a critter for seeds.
// Immutable once generated; it disappears when accepted or expired.
type Offer struct {
	ID              string  `json:"id"`
	Critter         Critter `json:"critter"`
	SeedCost        int64   `json:"seed_cost"`
	ExpiresAtMillis int64   `json:"expires_at_ms"`
}

// Assignment is a critter occupying one functional slot. Immutable once
// created; removed only by explicit unassignment or upgrade truncation.
type Assignment struct {
	SlotID           string     `json:"slot_id"`
	Role             tiers.Role `json:"role"`
	Critter          Critter    `json:"critter"`
	AssignedAtMillis int64      `json:"assigned_at_ms"`
}

// UpgradeStatus tracks the at-most-one in-flight nest upgrade.
type UpgradeStatus struct {
	InProgress        bool        `json:"in_progress"`
	TargetLevel       tiers.Level `json:"target_level,omitempty"`
	CompletesAtMillis int64       `json:"completes_at_ms,omitempty"`
}

// State is the nest aggregate. The Keeper owns the canonical copy; everyone
// else sees value snapshots.
type State struct {
	Level                 tiers.Level   `json:"level"`
	SeedStock             int64         `json:"seed_stock"`
	Assignments           []Assignment  `json:"assignments"`
	Pool                  []Offer       `json:"recruitment_pool"`
	Upgrade               UpgradeStatus `json:"upgrade"`
	LastPassiveTickMillis int64         `json:"last_passive_tick_ms"`
}

// Clone returns a deep copy. Snapshots handed to observers are clones, so
// no observer can reach the Keeper's internal slices.
func (s State) Clone() State {
	out := s
	if s.Assignments != nil {
		out.Assignments = make([]Assignment, len(s.Assignments))
		copy(out.Assignments, s.Assignments)
	}
	if s.Pool != nil {
		out.Pool = make([]Offer, len(s.Pool))
		copy(out.Pool, s.Pool)
	}
	return out
}

// AssignedRoles returns the role of every current assignment, in slot order.
func (s State) AssignedRoles() []tiers.Role {
	roles := make([]tiers.Role, len(s.Assignments))
	for i, a := range s.Assignments {
		roles[i] = a.Role
	}
	return roles
}

// FindOffer returns the index of an offer by ID, or -1.
func (s State) FindOffer(id string) int {
	for i, o := range s.Pool {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// HasCritter reports whether a critter ID is already assigned.
func (s State) HasCritter(critterID string) bool {
	for _, a := range s.Assignments {
		if a.Critter.ID == critterID {
			return true
		}
	}
	return false
}
