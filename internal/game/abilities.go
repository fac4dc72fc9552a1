/*
Package game
File: abilities.go
Description:
    Player-activated abilities. Every ability has a cooldown; some also run
    for a duration. Three shapes exist:
    - bomb:   one-shot effect request, cooldown only (Mega Bomb, Overload)
    - buff:   adds stat deltas for a duration, then removes exactly those deltas
              (Time Warp, Light Surge)
    - shield: invulnerability for a duration (Fortified Construct)
*/

package game

// AbilityKind identifies an activatable ability.
type AbilityKind string

const (
	AbilityMegaBomb   AbilityKind = "mega_bomb"
	AbilityTimeWarp   AbilityKind = "time_warp"
	AbilityLightSurge AbilityKind = "light_surge"
	AbilityOverload   AbilityKind = "overload"
	AbilityFortify    AbilityKind = "fortify"
)

type abilityShape int

const (
	shapeBomb abilityShape = iota
	shapeBuff
	shapeShield
)

type abilitySpec struct {
	name      string
	shape     abilityShape
	activated string

	unlocked func(s *DerivedStats) bool
	cooldown func(s *DerivedStats) float64
	duration func(s *DerivedStats) float64
	deltas   func(s *DerivedStats) []Effect
}

// abilityOrder pins iteration order for timers and buff re-application.
var abilityOrder = []AbilityKind{
	AbilityMegaBomb,
	AbilityTimeWarp,
	AbilityLightSurge,
	AbilityOverload,
	AbilityFortify,
}

var abilities = map[AbilityKind]abilitySpec{
	AbilityMegaBomb: {
		name:      "Mega Bomb",
		shape:     shapeBomb,
		activated: "MEGA BOMB!",
		unlocked:  func(s *DerivedStats) bool { return s.HasMegaBomb },
		cooldown:  func(s *DerivedStats) float64 { return s.MegaBombCooldownMs },
	},
	AbilityOverload: {
		name:      "Overload",
		shape:     shapeBomb,
		activated: "OVERLOAD!",
		unlocked:  func(s *DerivedStats) bool { return s.HasOverload },
		cooldown:  func(s *DerivedStats) float64 { return s.OverloadCooldownMs },
	},
	AbilityTimeWarp: {
		name:      "Time Warp",
		shape:     shapeBuff,
		activated: "TIME WARP ACTIVATED!",
		unlocked:  func(s *DerivedStats) bool { return s.HasTimeWarp },
		cooldown:  func(s *DerivedStats) float64 { return s.TimeWarpCooldownMs },
		duration:  func(s *DerivedStats) float64 { return s.TimeWarpDurationMs },
		deltas: func(s *DerivedStats) []Effect {
			return []Effect{mustEffect("time_scale", OpAdd, s.TimeWarpScaleBonus)}
		},
	},
	AbilityLightSurge: {
		name:      "Light Surge",
		shape:     shapeBuff,
		activated: "LIGHT SURGE!",
		unlocked:  func(s *DerivedStats) bool { return s.HasLightSurge },
		cooldown:  func(s *DerivedStats) float64 { return s.LightSurgeCooldownMs },
		duration:  func(s *DerivedStats) float64 { return s.LightSurgeDurationMs },
		deltas: func(s *DerivedStats) []Effect {
			return []Effect{
				mustEffect("beam_radius", OpAdd, s.LightSurgeRadius),
				mustEffect("beam_angle", OpAdd, s.LightSurgeAngle),
			}
		},
	},
	AbilityFortify: {
		name:      "Fortified Construct",
		shape:     shapeShield,
		activated: "FORTIFIED!",
		unlocked:  func(s *DerivedStats) bool { return s.HasFortify },
		cooldown:  func(s *DerivedStats) float64 { return s.FortifyCooldownMs },
		duration:  func(s *DerivedStats) float64 { return s.FortifyDurationMs },
	},
}

// Reason codes returned with a rejected purchase or activation.
const (
	ReasonUnknown           = "unknown"
	ReasonLocked            = "locked"
	ReasonCooldown          = "cooldown"
	ReasonGameOver          = "game_over"
	ReasonSoldOut           = "sold_out"
	ReasonInsufficientFunds = "insufficient_funds"
)

// AbilityResult reports the outcome of ActivateAbility.
type AbilityResult struct {
	Kind        AbilityKind `json:"kind"`
	Activated   bool        `json:"activated"`
	Reason      string      `json:"reason,omitempty"`
	RemainingMs float64     `json:"remaining_ms,omitempty"`
}

// buffDelta is one stat change made by a buff, with the values seen on
// either side of the most recent apply.
type buffDelta struct {
	eff    Effect
	before float64
	after  float64
}

// activeBuff remembers the exact deltas a buff added so they can be removed.
type activeBuff struct {
	remainingMs float64
	deltas      []buffDelta
}

func newActiveBuff(remainingMs float64, effs []Effect) *activeBuff {
	b := &activeBuff{remainingMs: remainingMs, deltas: make([]buffDelta, len(effs))}
	for i, e := range effs {
		b.deltas[i].eff = e
	}
	return b
}

func (b *activeBuff) apply(s *DerivedStats) {
	for i := range b.deltas {
		d := &b.deltas[i]
		v := d.eff.num(s)
		d.before = *v
		d.eff.apply(s)
		d.after = *v
	}
}

// revert restores the pre-buff value when the stat has not moved since the
// buff was applied. Otherwise only the delta is taken back off.
func (b *activeBuff) revert(s *DerivedStats) {
	for i := len(b.deltas) - 1; i >= 0; i-- {
		d := b.deltas[i]
		v := d.eff.num(s)
		if *v == d.after {
			*v = d.before
			continue
		}
		inv := d.eff
		inv.Op = OpSub
		inv.apply(s)
	}
}
