package tiers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestSpecForAndNextLevel(t *testing.T) {
	c := Default()

	spec, ok := c.SpecFor(1)
	if !ok {
		t.Fatal("expected spec for level 1")
	}
	if spec.Capacity != 2 {
		t.Fatalf("expected capacity 2 at level 1, got %d", spec.Capacity)
	}

	next, ok := c.NextLevel(1)
	if !ok || next != 2 {
		t.Fatalf("expected next level 2, got %d ok=%v", next, ok)
	}

	if _, ok := c.NextLevel(c.MaxLevel()); ok {
		t.Fatal("expected no next level at the maximum")
	}

	if _, ok := c.SpecFor(99); ok {
		t.Fatal("expected no spec for unknown level")
	}
}

func TestPassiveRateSumsRoleBonuses(t *testing.T) {
	c := Default()

	base := c.PassiveRate(1, nil)
	if base != 10 {
		t.Fatalf("expected base rate 10, got %v", base)
	}

	// forager +5, sentry +2 on top of base 10.
	got := c.PassiveRate(1, []Role{"forager", "sentry"})
	if got != 17 {
		t.Fatalf("expected rate 17, got %v", got)
	}

	// Unknown roles contribute nothing.
	got = c.PassiveRate(1, []Role{"wanderer"})
	if got != 10 {
		t.Fatalf("expected rate 10 with unknown role, got %v", got)
	}
}

func TestRoleAllowed(t *testing.T) {
	c := Default()

	if !c.RoleAllowed(1, "forager") {
		t.Fatal("forager should be unlocked at level 1")
	}
	if c.RoleAllowed(1, "sentry") {
		t.Fatal("sentry should not be unlocked at level 1")
	}
	if !c.RoleAllowed(2, "sentry") {
		t.Fatal("sentry should be unlocked at level 2")
	}
}

func TestLoadFromYAML(t *testing.T) {
	yml := `
levels:
  - level: 1
    capacity: 3
    allowed_roles: [forager]
    base_passive_rate: 12
    upgrade_cost: 100
    upgrade_duration_ms: 5000
  - level: 2
    capacity: 5
    allowed_roles: [forager, sentry]
    base_passive_rate: 20
role_bonuses:
  forager: 4
  sentry: 1
recruitment:
  target_pool_size: 2
  offer_ttl_ms: 60000
  min_seed_cost: 10
  max_seed_cost: 40
  generation_budget: 4
  species: [dormouse]
  names: [Pip]
`
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Capacity(1) != 3 {
		t.Fatalf("expected capacity 3, got %d", c.Capacity(1))
	}
	if c.MaxLevel() != 2 {
		t.Fatalf("expected max level 2, got %d", c.MaxLevel())
	}
	if c.Recruitment.TargetPoolSize != 2 {
		t.Fatalf("expected target pool size 2, got %d", c.Recruitment.TargetPoolSize)
	}
}

func TestValidateRejectsLevelGap(t *testing.T) {
	c := &Catalog{
		Levels: []TierSpec{
			{Level: 1, Capacity: 2, BaseRate: 10, UpgradeCost: 1, UpgradeDurationMS: 1},
			{Level: 3, Capacity: 4, BaseRate: 20},
		},
	}
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for level gap")
	}
}

func TestValidateRejectsBadCostBand(t *testing.T) {
	c := Default()
	c.Recruitment.MaxSeedCost = c.Recruitment.MinSeedCost - 1
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for inverted cost band")
	}
}
