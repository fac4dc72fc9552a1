/*
Package game
File: effects.go
Description:
    Resolves the stat names used in the catalog into typed accessors on
    DerivedStats, and applies a single effect to a stat table.

    Effects are resolved once, when the catalog is loaded. After that an
    unknown stat name can no longer reach the fold in Recompute.
*/

package game

import "fmt"

// EffectOp is the arithmetic an effect performs on its stat.
type EffectOp string

const (
	OpAdd    EffectOp = "add"    // stat += value
	OpSub    EffectOp = "sub"    // stat -= value
	OpMul    EffectOp = "mul"    // stat *= value
	OpFloor  EffectOp = "floor"  // stat = max(stat, value)
	OpReduce EffectOp = "reduce" // stat = max(bound, stat - value)
	OpSet    EffectOp = "set"    // stat = value
	OpUnlock EffectOp = "unlock" // flag = true
)

// Effect is one resolved stat modification.
type Effect struct {
	Stat  string   `json:"stat"`
	Op    EffectOp `json:"op"`
	Value float64  `json:"value"`
	Bound float64  `json:"bound,omitempty"`

	num  func(*DerivedStats) *float64
	flag func(*DerivedStats) *bool
}

func (e Effect) apply(s *DerivedStats) {
	if e.Op == OpUnlock {
		*e.flag(s) = true
		return
	}
	v := e.num(s)
	switch e.Op {
	case OpAdd:
		*v += e.Value
	case OpSub:
		*v -= e.Value
	case OpMul:
		*v *= e.Value
	case OpFloor:
		if *v < e.Value {
			*v = e.Value
		}
	case OpReduce:
		*v -= e.Value
		if *v < e.Bound {
			*v = e.Bound
		}
	case OpSet:
		*v = e.Value
	}
}

// resolveEffect binds a stat name and op to an accessor.
func resolveEffect(stat string, op EffectOp, value, bound float64) (Effect, error) {
	e := Effect{Stat: stat, Op: op, Value: value, Bound: bound}
	if op == OpUnlock {
		f, ok := flagFields[stat]
		if !ok {
			return e, fmt.Errorf("unknown flag %q", stat)
		}
		e.flag = f
		return e, nil
	}
	switch op {
	case OpAdd, OpSub, OpMul, OpFloor, OpReduce, OpSet:
	default:
		return e, fmt.Errorf("unknown op %q for stat %q", op, stat)
	}
	f, ok := statFields[stat]
	if !ok {
		return e, fmt.Errorf("unknown stat %q", stat)
	}
	e.num = f
	return e, nil
}

// mustEffect is used for the hard-wired buff deltas.
func mustEffect(stat string, op EffectOp, value float64) Effect {
	e, err := resolveEffect(stat, op, value, 0)
	if err != nil {
		panic(err)
	}
	return e
}

var flagFields = map[string]func(*DerivedStats) *bool{
	"has_slowing_pulse": func(s *DerivedStats) *bool { return &s.HasSlowingPulse },
	"has_auto_builder":  func(s *DerivedStats) *bool { return &s.HasAutoBuilder },
	"has_mega_bomb":     func(s *DerivedStats) *bool { return &s.HasMegaBomb },
	"has_time_warp":     func(s *DerivedStats) *bool { return &s.HasTimeWarp },
	"has_light_surge":   func(s *DerivedStats) *bool { return &s.HasLightSurge },
	"has_overload":      func(s *DerivedStats) *bool { return &s.HasOverload },
	"has_fortify":       func(s *DerivedStats) *bool { return &s.HasFortify },
}

var statFields = map[string]func(*DerivedStats) *float64{
	"beam_radius":            func(s *DerivedStats) *float64 { return &s.BeamRadius },
	"beam_angle":             func(s *DerivedStats) *float64 { return &s.BeamAngle },
	"rotation_speed":         func(s *DerivedStats) *float64 { return &s.RotationSpeed },
	"beam_penetration":       func(s *DerivedStats) *float64 { return &s.BeamPenetration },
	"beam_count":             func(s *DerivedStats) *float64 { return &s.BeamCount },
	"pulse_radius":           func(s *DerivedStats) *float64 { return &s.PulseRadius },
	"pulse_force":            func(s *DerivedStats) *float64 { return &s.PulseForce },
	"chain_lightning_chance": func(s *DerivedStats) *float64 { return &s.ChainLightningChance },
	"spawn_lightning_chance": func(s *DerivedStats) *float64 { return &s.SpawnLightningChance },

	"slow_pulse_cooldown_ms": func(s *DerivedStats) *float64 { return &s.SlowPulseCooldownMs },
	"slow_pulse_factor":      func(s *DerivedStats) *float64 { return &s.SlowPulseFactor },
	"slow_pulse_duration_ms": func(s *DerivedStats) *float64 { return &s.SlowPulseDurationMs },

	"max_energy":                 func(s *DerivedStats) *float64 { return &s.MaxEnergy },
	"energy_per_click":           func(s *DerivedStats) *float64 { return &s.EnergyPerClick },
	"energy_drain_rate":          func(s *DerivedStats) *float64 { return &s.EnergyDrainRate },
	"auto_energy_collector_rate": func(s *DerivedStats) *float64 { return &s.AutoEnergyCollectorRate },
	"overcharge_chance":          func(s *DerivedStats) *float64 { return &s.OverchargeChance },
	"energy_on_kill":             func(s *DerivedStats) *float64 { return &s.EnergyOnKill },

	"max_lighthouse_health":   func(s *DerivedStats) *float64 { return &s.MaxLighthouseHealth },
	"lighthouse_health_regen": func(s *DerivedStats) *float64 { return &s.LighthouseHealthRegen },
	"tile_health":             func(s *DerivedStats) *float64 { return &s.TileHealth },
	"damage_negate_chance":    func(s *DerivedStats) *float64 { return &s.DamageNegateChance },

	"light_per_second":          func(s *DerivedStats) *float64 { return &s.LightPerSecond },
	"wave_fragments_modifier":   func(s *DerivedStats) *float64 { return &s.WaveFragmentsModifier },
	"kinetic_siphon_modifier":   func(s *DerivedStats) *float64 { return &s.KineticSiphonModifier },
	"tidal_force_modifier":      func(s *DerivedStats) *float64 { return &s.TidalForceModifier },
	"light_multiplier":          func(s *DerivedStats) *float64 { return &s.LightMultiplier },
	"kill_reward_multiplier":    func(s *DerivedStats) *float64 { return &s.KillRewardMultiplier },
	"auto_light_collector_rate": func(s *DerivedStats) *float64 { return &s.AutoLightCollectorRate },
	"light_interest_rate":       func(s *DerivedStats) *float64 { return &s.LightInterestRate },
	"sale_modifier":             func(s *DerivedStats) *float64 { return &s.SaleModifier },

	"mega_bomb_cooldown_ms":   func(s *DerivedStats) *float64 { return &s.MegaBombCooldownMs },
	"time_warp_cooldown_ms":   func(s *DerivedStats) *float64 { return &s.TimeWarpCooldownMs },
	"time_warp_duration_ms":   func(s *DerivedStats) *float64 { return &s.TimeWarpDurationMs },
	"time_warp_scale_bonus":   func(s *DerivedStats) *float64 { return &s.TimeWarpScaleBonus },
	"light_surge_cooldown_ms": func(s *DerivedStats) *float64 { return &s.LightSurgeCooldownMs },
	"light_surge_duration_ms": func(s *DerivedStats) *float64 { return &s.LightSurgeDurationMs },
	"light_surge_radius":      func(s *DerivedStats) *float64 { return &s.LightSurgeRadius },
	"light_surge_angle":       func(s *DerivedStats) *float64 { return &s.LightSurgeAngle },
	"overload_cooldown_ms":    func(s *DerivedStats) *float64 { return &s.OverloadCooldownMs },
	"fortify_cooldown_ms":     func(s *DerivedStats) *float64 { return &s.FortifyCooldownMs },
	"fortify_duration_ms":     func(s *DerivedStats) *float64 { return &s.FortifyDurationMs },

	"time_scale":           func(s *DerivedStats) *float64 { return &s.TimeScale },
	"enemy_speed_modifier": func(s *DerivedStats) *float64 { return &s.EnemySpeedModifier },
}
