/*
Package game
File: models.go
Description:
    Defines the data structures used throughout the lighthouse simulation.
    This file serves as the "schema" for the engine, mapping directly to
    the YAML catalog and to the JSON snapshots handed to the API layer.

    No gameplay logic is performed here.
*/

package game

// Category groups upgrades in the shop.
type Category string

const (
	CategoryOffensive Category = "offensive"
	CategoryDefensive Category = "defensive"
	CategoryEconomic  Category = "economic"
	CategoryEnergy    Category = "energy"
)

// SinglePurchase is the cost growth sentinel for upgrades that can only be bought once.
const SinglePurchase = 1.0

// EffectKind discriminates catalog entries that modify stats from entries that
// trigger a one-off action on the island.
type EffectKind int

const (
	StatModifier EffectKind = iota
	InstantAction
)

func (k EffectKind) String() string {
	if k == InstantAction {
		return "instant"
	}
	return "stat"
}

// Action is an instant effect executed against the external collaborator.
type Action string

const (
	ActionIslandRebuild Action = "island_rebuild"
	ActionIslandExpand  Action = "island_expand"
)

// UpgradeDefinition is one immutable catalog entry.
type UpgradeDefinition struct {
	ID          string
	Name        string
	Description string
	Category    Category
	BaseCost    float64
	CostGrowth  float64 // Multiplier per purchase, SinglePurchase means one purchase only
	Magnitude   float64 // Default value for effects that don't carry their own

	Kind    EffectKind
	Effects []Effect // Only for StatModifier entries
	Action  Action   // Only for InstantAction entries
}

// SingleUse reports whether the upgrade can only be bought once.
func (u UpgradeDefinition) SingleUse() bool {
	return u.CostGrowth == SinglePurchase
}

// ArchetypeID is the closed set of playstyle archetypes.
type ArchetypeID string

const (
	ArchetypeNone         ArchetypeID = "none"
	ArchetypeChronomancer ArchetypeID = "chronomancer"
	ArchetypeStormbringer ArchetypeID = "stormbringer"
	ArchetypeArchitect    ArchetypeID = "architect"
)

// Valid reports whether id is one of the known archetypes.
func (id ArchetypeID) Valid() bool {
	switch id {
	case ArchetypeNone, ArchetypeChronomancer, ArchetypeStormbringer, ArchetypeArchitect:
		return true
	}
	return false
}

// Archetype is a mutually exclusive permanent modifier bought with Aether.
type Archetype struct {
	ID          ArchetypeID `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Cost        int         `json:"cost"`
	Effects     []Effect    `json:"effects"`
}

// Relic is an independently toggleable permanent modifier bought with Aether.
type Relic struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Cost        int      `json:"cost"`
	Effects     []Effect `json:"effects"`
}

// Selection is the set of prestige choices that feed into stat recomputation.
type Selection struct {
	Archetype ArchetypeID
	Relics    []string
}

// DerivedStats is the full table of gameplay parameters.
// It is only ever produced by Recompute (plus the exact deltas of active timed buffs).
type DerivedStats struct {
	// Offensive
	BeamRadius           float64 `json:"beam_radius"`
	BeamAngle            float64 `json:"beam_angle"`
	RotationSpeed        float64 `json:"rotation_speed"`
	BeamPenetration      float64 `json:"beam_penetration"`
	BeamCount            float64 `json:"beam_count"`
	PulseRadius          float64 `json:"pulse_radius"`
	PulseForce           float64 `json:"pulse_force"`
	ChainLightningChance float64 `json:"chain_lightning_chance"`
	SpawnLightningChance float64 `json:"spawn_lightning_chance"`

	// Slowing pulse
	HasSlowingPulse     bool    `json:"has_slowing_pulse"`
	SlowPulseCooldownMs float64 `json:"slow_pulse_cooldown_ms"`
	SlowPulseFactor     float64 `json:"slow_pulse_factor"`
	SlowPulseDurationMs float64 `json:"slow_pulse_duration_ms"`

	// Energy
	MaxEnergy               float64 `json:"max_energy"`
	EnergyPerClick          float64 `json:"energy_per_click"`
	EnergyDrainRate         float64 `json:"energy_drain_rate"`
	AutoEnergyCollectorRate float64 `json:"auto_energy_collector_rate"`
	OverchargeChance        float64 `json:"overcharge_chance"`
	EnergyOnKill            float64 `json:"energy_on_kill"`

	// Defensive
	MaxLighthouseHealth   float64 `json:"max_lighthouse_health"`
	LighthouseHealthRegen float64 `json:"lighthouse_health_regen"`
	TileHealth            float64 `json:"tile_health"`
	HasAutoBuilder        bool    `json:"has_auto_builder"`
	DamageNegateChance    float64 `json:"damage_negate_chance"`

	// Economic
	LightPerSecond         float64 `json:"light_per_second"`
	WaveFragmentsModifier  float64 `json:"wave_fragments_modifier"`
	KineticSiphonModifier  float64 `json:"kinetic_siphon_modifier"`
	TidalForceModifier     float64 `json:"tidal_force_modifier"`
	LightMultiplier        float64 `json:"light_multiplier"`
	KillRewardMultiplier   float64 `json:"kill_reward_multiplier"`
	AutoLightCollectorRate float64 `json:"auto_light_collector_rate"`
	LightInterestRate      float64 `json:"light_interest_rate"`
	SaleModifier           float64 `json:"sale_modifier"`

	// Active abilities
	HasMegaBomb          bool    `json:"has_mega_bomb"`
	MegaBombCooldownMs   float64 `json:"mega_bomb_cooldown_ms"`
	HasTimeWarp          bool    `json:"has_time_warp"`
	TimeWarpCooldownMs   float64 `json:"time_warp_cooldown_ms"`
	TimeWarpDurationMs   float64 `json:"time_warp_duration_ms"`
	TimeWarpScaleBonus   float64 `json:"time_warp_scale_bonus"`
	HasLightSurge        bool    `json:"has_light_surge"`
	LightSurgeCooldownMs float64 `json:"light_surge_cooldown_ms"`
	LightSurgeDurationMs float64 `json:"light_surge_duration_ms"`
	LightSurgeRadius     float64 `json:"light_surge_radius"`
	LightSurgeAngle      float64 `json:"light_surge_angle"`
	HasOverload          bool    `json:"has_overload"`
	OverloadCooldownMs   float64 `json:"overload_cooldown_ms"`
	HasFortify           bool    `json:"has_fortify"`
	FortifyCooldownMs    float64 `json:"fortify_cooldown_ms"`
	FortifyDurationMs    float64 `json:"fortify_duration_ms"`

	// World
	TimeScale          float64 `json:"time_scale"`
	EnemySpeedModifier float64 `json:"enemy_speed_modifier"`
}

// WavePhase is the wave state machine position.
type WavePhase string

const (
	PhaseInWave  WavePhase = "in_wave"
	PhaseWaiting WavePhase = "waiting"
)

// ResourceKind identifies a consumable for display refreshes.
type ResourceKind string

const (
	ResourceLight  ResourceKind = "light"
	ResourceEnergy ResourceKind = "energy"
	ResourceHealth ResourceKind = "health"
)

// RunTally holds lifetime counters for the current run.
type RunTally struct {
	LightEarned    float64 `json:"light_earned"`
	WavesDestroyed int     `json:"waves_destroyed"`
	LighthouseHits int     `json:"lighthouse_hits"`
	Clicks         int     `json:"clicks"`
	HighestWave    int     `json:"highest_wave"`
}

// Snapshot is a read-only copy of the run handed to renderers and the API.
type Snapshot struct {
	Revision        uint64             `json:"revision"`
	Stats           DerivedStats       `json:"stats"`
	Light           float64            `json:"light"`
	Energy          float64            `json:"energy"`
	Health          float64            `json:"health"`
	WaveNumber      int                `json:"wave_number"`
	Phase           WavePhase          `json:"phase"`
	WaveSecondsLeft float64            `json:"wave_seconds_left"`
	SpawnIntervalMs float64            `json:"spawn_interval_ms"`
	ActiveWaves     int                `json:"active_waves"`
	Cooldowns       map[string]float64 `json:"cooldowns_ms"`
	ActiveBuffs     map[string]float64 `json:"active_buffs_ms"`
	Invulnerable    bool               `json:"invulnerable"`
	GameOver        bool               `json:"game_over"`
	Purchased       map[string]int     `json:"purchased"`
	Archetype       ArchetypeID        `json:"archetype"`
	Relics          []string           `json:"relics"`
	Tally           RunTally           `json:"tally"`
}
