// Package tiers holds the read-only nest progression catalog: per-level
// capacity, unlocked roles, passive seed rates, and upgrade costs, plus the
// recruitment generation policy. The catalog is pure data; the simulation
// core never mutates it.
package tiers

import (
	"fmt"
	"sort"
)

// Level is an ordinal stage of the nest's progression.
type Level uint8

// Role is a functional slot a critter can occupy.
type Role string

// TierSpec describes one nest level.
type TierSpec struct {
	Level        Level   `yaml:"level" json:"level"`
	Capacity     int     `yaml:"capacity" json:"capacity"`
	AllowedRoles []Role  `yaml:"allowed_roles" json:"allowed_roles"`
	BaseRate     float64 `yaml:"base_passive_rate" json:"base_passive_rate"` // seeds per hour

	// Cost and duration of the upgrade into the next level.
	// Ignored on the maximum level.
	UpgradeCost       int64 `yaml:"upgrade_cost" json:"upgrade_cost"`
	UpgradeDurationMS int64 `yaml:"upgrade_duration_ms" json:"upgrade_duration_ms"`
}

// RecruitmentSpec is the offer generation policy.
type RecruitmentSpec struct {
	TargetPoolSize   int      `yaml:"target_pool_size" json:"target_pool_size"`
	OfferTTLMS       int64    `yaml:"offer_ttl_ms" json:"offer_ttl_ms"`
	MinSeedCost      int64    `yaml:"min_seed_cost" json:"min_seed_cost"`
	MaxSeedCost      int64    `yaml:"max_seed_cost" json:"max_seed_cost"`
	GenerationBudget int      `yaml:"generation_budget" json:"generation_budget"`
	Species          []string `yaml:"species" json:"species"`
	Names            []string `yaml:"names" json:"names"`
}

// Catalog is the full progression configuration.
type Catalog struct {
	Levels      []TierSpec       `yaml:"levels" json:"levels"`
	RoleBonuses map[Role]float64 `yaml:"role_bonuses" json:"role_bonuses"` // seeds per hour per assignment
	Recruitment RecruitmentSpec  `yaml:"recruitment" json:"recruitment"`
}

// SpecFor returns the spec for a level, or false if the level is not in the
// catalog.
func (c *Catalog) SpecFor(l Level) (TierSpec, bool) {
	for _, s := range c.Levels {
		if s.Level == l {
			return s, true
		}
	}
	return TierSpec{}, false
}

// NextLevel returns the level after l, or false at the maximum.
func (c *Catalog) NextLevel(l Level) (Level, bool) {
	_, ok := c.SpecFor(l + 1)
	if !ok {
		return 0, false
	}
	return l + 1, true
}

// MinLevel returns the lowest configured level, where a fresh nest starts.
func (c *Catalog) MinLevel() Level {
	if len(c.Levels) == 0 {
		return 0
	}
	min := c.Levels[0].Level
	for _, s := range c.Levels {
		if s.Level < min {
			min = s.Level
		}
	}
	return min
}

// MaxLevel returns the highest configured level.
func (c *Catalog) MaxLevel() Level {
	var max Level
	for _, s := range c.Levels {
		if s.Level > max {
			max = s.Level
		}
	}
	return max
}

// Capacity returns the assignment capacity at a level, 0 if unknown.
func (c *Catalog) Capacity(l Level) int {
	s, ok := c.SpecFor(l)
	if !ok {
		return 0
	}
	return s.Capacity
}

// RoleAllowed reports whether a role is unlocked at a level.
func (c *Catalog) RoleAllowed(l Level, r Role) bool {
	s, ok := c.SpecFor(l)
	if !ok {
		return false
	}
	for _, allowed := range s.AllowedRoles {
		if allowed == r {
			return true
		}
	}
	return false
}

// PassiveRate returns the seeds-per-hour rate at a level with the given
// assigned roles: base rate plus each role's bonus.
func (c *Catalog) PassiveRate(l Level, roles []Role) float64 {
	s, ok := c.SpecFor(l)
	if !ok {
		return 0
	}
	rate := s.BaseRate
	for _, r := range roles {
		rate += c.RoleBonuses[r]
	}
	return rate
}

// SortedRoles returns the bonus-bearing roles in stable order, for
// deterministic draws during offer generation.
func (c *Catalog) SortedRoles() []Role {
	roles := make([]Role, 0, len(c.RoleBonuses))
	for r := range c.RoleBonuses {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Validate checks the catalog for holes the simulation cannot tolerate.
func (c *Catalog) Validate() error {
	if len(c.Levels) == 0 {
		return fmt.Errorf("catalog has no levels")
	}

	seen := make(map[Level]bool, len(c.Levels))
	var min, max Level = c.Levels[0].Level, c.Levels[0].Level
	for _, s := range c.Levels {
		if seen[s.Level] {
			return fmt.Errorf("duplicate level %d", s.Level)
		}
		seen[s.Level] = true
		if s.Level < min {
			min = s.Level
		}
		if s.Level > max {
			max = s.Level
		}
		if s.Capacity < 0 {
			return fmt.Errorf("level %d: negative capacity", s.Level)
		}
		if s.BaseRate < 0 {
			return fmt.Errorf("level %d: negative base rate", s.Level)
		}
	}
	// Every level between min and max must exist so NextLevel is total
	// everywhere except the maximum.
	for l := min; l < max; l++ {
		if !seen[l] {
			return fmt.Errorf("level gap: %d missing between %d and %d", l, min, max)
		}
	}
	// Upgrades into a next level need a positive duration.
	for _, s := range c.Levels {
		if s.Level == max {
			continue
		}
		if s.UpgradeCost < 0 {
			return fmt.Errorf("level %d: negative upgrade cost", s.Level)
		}
		if s.UpgradeDurationMS <= 0 {
			return fmt.Errorf("level %d: non-positive upgrade duration", s.Level)
		}
	}

	r := c.Recruitment
	if r.TargetPoolSize < 0 {
		return fmt.Errorf("recruitment: negative target pool size")
	}
	if r.TargetPoolSize > 0 {
		if r.OfferTTLMS <= 0 {
			return fmt.Errorf("recruitment: non-positive offer TTL")
		}
		if r.MinSeedCost < 0 || r.MaxSeedCost < r.MinSeedCost {
			return fmt.Errorf("recruitment: invalid seed cost band [%d, %d]", r.MinSeedCost, r.MaxSeedCost)
		}
		if len(r.Species) == 0 {
			return fmt.Errorf("recruitment: empty species table")
		}
		if len(r.Names) == 0 {
			return fmt.Errorf("recruitment: empty name table")
		}
	}
	return nil
}
