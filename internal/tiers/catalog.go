package tiers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a catalog from a YAML file and validates it.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return &c, nil
}

// Default returns the compiled-in progression catalog, used when no catalog
// file is configured. Numbers here are placeholder tuning, not authority;
// production deployments ship their own YAML.
func Default() *Catalog {
	return &Catalog{
		Levels: []TierSpec{
			{
				Level:             1,
				Capacity:          2,
				AllowedRoles:      []Role{"forager"},
				BaseRate:          10,
				UpgradeCost:       600,
				UpgradeDurationMS: 60_000,
			},
			{
				Level:             2,
				Capacity:          4,
				AllowedRoles:      []Role{"forager", "sentry"},
				BaseRate:          18,
				UpgradeCost:       2_400,
				UpgradeDurationMS: 300_000,
			},
			{
				Level:             3,
				Capacity:          6,
				AllowedRoles:      []Role{"forager", "sentry", "nurse"},
				BaseRate:          30,
				UpgradeCost:       9_000,
				UpgradeDurationMS: 1_800_000,
			},
			{
				Level:             4,
				Capacity:          9,
				AllowedRoles:      []Role{"forager", "sentry", "nurse", "builder"},
				BaseRate:          48,
				UpgradeCost:       30_000,
				UpgradeDurationMS: 7_200_000,
			},
			{
				Level:        5,
				Capacity:     12,
				AllowedRoles: []Role{"forager", "sentry", "nurse", "builder"},
				BaseRate:     75,
			},
		},
		RoleBonuses: map[Role]float64{
			"forager": 5,
			"sentry":  2,
			"nurse":   3,
			"builder": 4,
		},
		Recruitment: RecruitmentSpec{
			TargetPoolSize:   3,
			OfferTTLMS:       3_600_000,
			MinSeedCost:      50,
			MaxSeedCost:      250,
			GenerationBudget: 8,
			Species: []string{
				"dormouse", "chipmunk", "wren", "hedgehog",
				"red squirrel", "vole", "nuthatch", "shrew",
			},
			Names: []string{
				"Bramble", "Hazel", "Pip", "Moss", "Clover",
				"Acorn", "Fern", "Thistle", "Juniper", "Sorrel",
				"Maple", "Birch", "Rowan", "Teasel", "Tansy",
			},
		},
	}
}
