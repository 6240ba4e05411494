package nest

import (
	"github.com/google/uuid"

	"github.com/talgya/nestsim/internal/entropy"
	"github.com/talgya/nestsim/internal/tiers"
)

// EnsureOffers purges expired offers and tops the pool up toward the
// configured target size. Pure: only the returned state's pool differs from
// the input; every other field passes through. Generation draws exclusively
// from the injected source, so a seeded source makes offer content exact.
func EnsureOffers(st State, now int64, cfg *tiers.Catalog, src entropy.Source) State {
	spec := cfg.Recruitment

	var kept []Offer
	for _, o := range st.Pool {
		if o.ExpiresAtMillis > now {
			kept = append(kept, o)
		}
	}

	// Top up, bounded by the generation budget so a pathological target
	// size cannot spin the engine.
	budget := spec.GenerationBudget
	if budget <= 0 {
		budget = spec.TargetPoolSize
	}
	for len(kept) < spec.TargetPoolSize && budget > 0 {
		kept = append(kept, generateOffer(st.Level, now, cfg, src))
		budget--
	}

	st.Pool = kept
	return st
}

// generateOffer synthesizes one recruitment candidate. Offer and critter IDs
// come from the injected source via uuid's reader constructor, keeping even
// IDs reproducible under a seeded source.
func generateOffer(level tiers.Level, now int64, cfg *tiers.Catalog, src entropy.Source) Offer {
	spec := cfg.Recruitment

	affinity := drawAffinity(level, cfg, src)

	cost := spec.MinSeedCost
	if band := spec.MaxSeedCost - spec.MinSeedCost; band > 0 {
		cost += int64(src.IntN(int(band + 1)))
	}

	return Offer{
		ID: uuid.Must(uuid.NewRandomFromReader(src)).String(),
		Critter: Critter{
			ID:       uuid.Must(uuid.NewRandomFromReader(src)).String(),
			Name:     spec.Names[src.IntN(len(spec.Names))],
			Species:  spec.Species[src.IntN(len(spec.Species))],
			Affinity: affinity,
		},
		SeedCost:        cost,
		ExpiresAtMillis: now + spec.OfferTTLMS,
	}
}

// drawAffinity prefers roles unlocked at the current level so offers stay
// relevant to what the player can actually use.
func drawAffinity(level tiers.Level, cfg *tiers.Catalog, src entropy.Source) tiers.Role {
	if spec, ok := cfg.SpecFor(level); ok && len(spec.AllowedRoles) > 0 {
		return spec.AllowedRoles[src.IntN(len(spec.AllowedRoles))]
	}
	if roles := cfg.SortedRoles(); len(roles) > 0 {
		return roles[src.IntN(len(roles))]
	}
	return ""
}
