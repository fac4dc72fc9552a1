/*
Package game
File: stats.go
Description:
    The stat accumulator. Derived stats are never patched in place: every
    purchase or prestige change rebuilds the whole table from the base values.

    Application order is fixed:
    1. Base table.
    2. Purchased upgrades, in catalog declaration order, once per owned rank.
    3. Active archetype passives.
    4. Active relic passives, in canonical relic order.
*/

package game

// BaseStats returns the starting stat table before any modifier.
func BaseStats() DerivedStats {
	return DerivedStats{
		BeamRadius:      150,
		BeamAngle:       3,
		RotationSpeed:   1,
		BeamPenetration: 1,
		BeamCount:       1,
		PulseRadius:     300,
		PulseForce:      50,

		SlowPulseCooldownMs: 5000,
		SlowPulseFactor:     0.1,
		SlowPulseDurationMs: 1000,

		MaxEnergy:       10,
		EnergyPerClick:  0.2,
		EnergyDrainRate: 0.5,

		MaxLighthouseHealth:   100,
		LighthouseHealthRegen: 1,
		TileHealth:            10,

		WaveFragmentsModifier: 1,
		LightMultiplier:       1,
		KillRewardMultiplier:  1,
		SaleModifier:          1,

		MegaBombCooldownMs:   60000,
		TimeWarpCooldownMs:   120000,
		TimeWarpDurationMs:   10000,
		TimeWarpScaleBonus:   1,
		LightSurgeCooldownMs: 45000,
		LightSurgeDurationMs: 8000,
		LightSurgeRadius:     300,
		LightSurgeAngle:      10,
		OverloadCooldownMs:   90000,
		FortifyCooldownMs:    60000,
		FortifyDurationMs:    5000,

		TimeScale:          1,
		EnemySpeedModifier: 1,
	}
}

// Recompute folds purchases and prestige selections over base.
// It is a pure function: the same inputs always give the same table.
// Unknown upgrade, archetype or relic ids are skipped.
func Recompute(base DerivedStats, cat *Catalog, purchased map[string]int, sel Selection) DerivedStats {
	s := base

	// 2. Upgrades. Iterating the catalog (not the map) pins the order.
	for _, u := range cat.upgrades {
		rank := purchased[u.ID]
		if rank <= 0 || u.Kind != StatModifier {
			continue
		}
		for i := 0; i < rank; i++ {
			for _, e := range u.Effects {
				e.apply(&s)
			}
		}
	}

	// 3. Archetype
	if a, ok := cat.archetypes[sel.Archetype]; ok {
		for _, e := range a.Effects {
			e.apply(&s)
		}
	}

	// 4. Relics
	active := make(map[string]bool, len(sel.Relics))
	for _, id := range sel.Relics {
		active[id] = true
	}
	for _, r := range cat.relics {
		if !active[r.ID] {
			continue
		}
		for _, e := range r.Effects {
			e.apply(&s)
		}
	}

	return s
}
