/*
Package game
File: run.go
Description:
    Run is the mutable state of one play session: consumable resources,
    timers, wave progress and the purchase ledger. It owns the per-frame
    Update cascade and emits every observable effect through its EventSink.

    A Run is not safe for concurrent use. Callers serialize access.
*/

package game

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// SelectionSource supplies the active prestige choices. PrestigeStore implements it.
type SelectionSource interface {
	Selection() Selection
}

// Run holds the state of a single play session.
type Run struct {
	catalog  *Catalog
	prestige SelectionSource
	sink     EventSink
	rng      *rand.Rand

	// Derived
	stats     DerivedStats
	selection Selection
	revision  uint64

	// Purchase ledger (stat upgrades) and instant action use counts
	purchased   map[string]int
	instantUses map[string]int

	// Consumables
	light  float64
	energy float64
	health float64

	// Wave state machine
	waveNumber      int
	phase           WavePhase
	waveTimerMs     float64
	spawnIntervalMs float64
	activeWaves     int

	// Timers
	autoBuilderMs float64
	slowPulseMs   float64
	cooldowns     map[AbilityKind]float64
	buffs         map[AbilityKind]*activeBuff
	invulnerable  bool
	invulnMs      float64

	gameOver bool
	tally    RunTally
}

// NewRun creates a run in its starting state.
// A nil sink discards events, a nil rng is seeded from the clock.
func NewRun(cat *Catalog, prestige SelectionSource, sink EventSink, rng *rand.Rand) *Run {
	if sink == nil {
		sink = NopSink{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r := &Run{catalog: cat, prestige: prestige, sink: sink, rng: rng}
	r.reset()
	return r
}

// reset puts every run-local value back to its documented default.
// The prestige record is only read, never written.
func (r *Run) reset() {
	b := r.catalog.Balance

	r.purchased = make(map[string]int)
	r.instantUses = make(map[string]int)
	r.cooldowns = make(map[AbilityKind]float64)
	r.buffs = make(map[AbilityKind]*activeBuff)

	r.selection = r.currentSelection()
	r.stats = Recompute(BaseStats(), r.catalog, r.purchased, r.selection)
	r.revision++

	r.light = b.StartingLight
	r.energy = r.stats.MaxEnergy
	r.health = r.stats.MaxLighthouseHealth

	r.waveNumber = 1
	r.phase = PhaseInWave
	r.waveTimerMs = b.WaveDurationSeconds * 1000
	r.spawnIntervalMs = b.SpawnIntervalMs
	r.activeWaves = 0

	r.autoBuilderMs = 0
	r.slowPulseMs = 0
	r.invulnerable = false
	r.invulnMs = 0
	r.gameOver = false
	r.tally = RunTally{HighestWave: 1}
}

func (r *Run) currentSelection() Selection {
	if r.prestige == nil {
		return Selection{Archetype: ArchetypeNone}
	}
	return r.prestige.Selection()
}

// FullReset clears the run and re-applies the current prestige selection.
func (r *Run) FullReset() {
	shielded := r.invulnerable
	r.reset()
	if shielded {
		r.sink.RequestInvulnerabilityVisual(false)
	}
	r.publishAll()
}

// RefreshPrestige re-reads the prestige selection and recomputes stats.
func (r *Run) RefreshPrestige() {
	r.selection = r.currentSelection()
	r.recompute()
}

// SetCatalog swaps the catalog (hot reload) and recomputes against it.
// Purchases of ids that no longer exist are kept but contribute nothing.
func (r *Run) SetCatalog(cat *Catalog) {
	r.catalog = cat
	r.recompute()
}

// recompute rebuilds derived stats, re-applies active buff deltas and clamps consumables.
func (r *Run) recompute() {
	r.stats = Recompute(BaseStats(), r.catalog, r.purchased, r.selection)
	for _, k := range abilityOrder {
		if b := r.buffs[k]; b != nil {
			b.apply(&r.stats)
		}
	}
	r.revision++
	r.clampConsumables()
	r.sink.NotifyStatsChanged(r.revision, r.stats)
	r.sink.NotifyResourceChanged(ResourceEnergy, r.energy, r.stats.MaxEnergy)
	r.sink.NotifyResourceChanged(ResourceHealth, r.health, r.stats.MaxLighthouseHealth)
}

func (r *Run) clampConsumables() {
	r.energy = clamp(r.energy, 0, r.stats.MaxEnergy)
	r.health = clamp(r.health, 0, r.stats.MaxLighthouseHealth)
}

func (r *Run) publishAll() {
	r.sink.NotifyStatsChanged(r.revision, r.stats)
	r.sink.NotifyResourceChanged(ResourceLight, r.light, 0)
	r.sink.NotifyResourceChanged(ResourceEnergy, r.energy, r.stats.MaxEnergy)
	r.sink.NotifyResourceChanged(ResourceHealth, r.health, r.stats.MaxLighthouseHealth)
	r.sink.NotifyWaveNumber(r.waveNumber)
	r.sink.NotifyWaveProgress(r.waveTimerMs/1000, r.phaseSeconds())
	r.sink.NotifySpawnInterval(r.spawnIntervalMs)
}

// Update advances the simulation by deltaMs milliseconds of frame time.
func (r *Run) Update(deltaMs float64) {
	if r.gameOver || deltaMs <= 0 {
		return
	}
	s := &r.stats

	// 1. Energy drain
	r.energy = clamp(r.energy-s.EnergyDrainRate*(deltaMs/1000), 0, s.MaxEnergy)
	r.sink.NotifyResourceChanged(ResourceEnergy, r.energy, s.MaxEnergy)

	// 2. Auto-builder (scaled time)
	if s.HasAutoBuilder {
		r.autoBuilderMs += deltaMs * s.TimeScale
		if r.autoBuilderMs >= r.catalog.Balance.AutoBuilderMs {
			r.autoBuilderMs = 0
			r.sink.RequestTileRepair()
		}
	}

	// 3. Slowing pulse (raw time)
	if s.HasSlowingPulse {
		r.slowPulseMs -= deltaMs
		if r.slowPulseMs <= 0 {
			r.slowPulseMs = s.SlowPulseCooldownMs
			r.sink.RequestSlowPulseEffect()
		}
	}

	// 4. Ability cooldowns (raw time, never auto-triggered)
	for _, k := range abilityOrder {
		if !abilities[k].unlocked(s) {
			continue
		}
		if rem := r.cooldowns[k]; rem > 0 {
			r.cooldowns[k] = math.Max(0, rem-deltaMs)
		}
	}

	// 5. Timed buffs: remove exactly what was added
	for _, k := range abilityOrder {
		b := r.buffs[k]
		if b == nil {
			continue
		}
		b.remainingMs -= deltaMs
		if b.remainingMs <= 0 {
			b.revert(s)
			delete(r.buffs, k)
			r.revision++
			r.sink.NotifyStatsChanged(r.revision, r.stats)
		}
	}

	// 6. Invulnerability duration
	if r.invulnerable {
		r.invulnMs -= deltaMs
		if r.invulnMs <= 0 {
			r.invulnerable = false
			r.invulnMs = 0
			r.sink.RequestInvulnerabilityVisual(false)
		}
	}

	// 7. Wave state machine
	r.advanceWave(deltaMs)

	// 8. Health regeneration (scaled time)
	r.health = clamp(r.health+s.LighthouseHealthRegen*(deltaMs/1000)*s.TimeScale, 0, s.MaxLighthouseHealth)
	r.sink.NotifyResourceChanged(ResourceHealth, r.health, s.MaxLighthouseHealth)
}

func (r *Run) phaseSeconds() float64 {
	if r.phase == PhaseWaiting {
		return r.catalog.Balance.WaveDelaySeconds
	}
	return r.catalog.Balance.WaveDurationSeconds
}

// advanceWave counts the phase timer down in milliseconds and flips phase at zero.
func (r *Run) advanceWave(deltaMs float64) {
	r.waveTimerMs -= deltaMs
	if r.waveTimerMs <= 0 {
		if r.phase == PhaseInWave {
			r.endWave()
		} else {
			r.startWave()
		}
	}
	r.sink.NotifyWaveProgress(r.waveTimerMs/1000, r.phaseSeconds())
}

// endWave: InWave -> Waiting. The wave number advances here too.
func (r *Run) endWave() {
	b := r.catalog.Balance
	r.phase = PhaseWaiting
	r.waveNumber++
	r.waveTimerMs = b.WaveDelaySeconds * 1000
	r.noteWave()
	r.addLight(WaveCompletionReward(b.WaveBaseReward, r.waveNumber, r.stats))
}

// startWave: Waiting -> InWave. Spawns speed up by one step.
func (r *Run) startWave() {
	b := r.catalog.Balance
	r.phase = PhaseInWave
	r.waveNumber++
	r.waveTimerMs = b.WaveDurationSeconds * 1000
	r.spawnIntervalMs = math.Max(b.SpawnIntervalFloorMs, r.spawnIntervalMs-b.SpawnIntervalStepMs)
	r.noteWave()
	r.sink.NotifySpawnInterval(r.spawnIntervalMs)
}

func (r *Run) noteWave() {
	if r.waveNumber > r.tally.HighestWave {
		r.tally.HighestWave = r.waveNumber
	}
	r.sink.NotifyWaveNumber(r.waveNumber)
}

// HandleClick adds click energy and rolls for an overcharge.
// Returns true when the overcharge fired.
func (r *Run) HandleClick() bool {
	if r.gameOver {
		return false
	}
	s := &r.stats
	r.tally.Clicks++
	r.energy = clamp(r.energy+s.EnergyPerClick, 0, s.MaxEnergy)

	overcharged := false
	if s.OverchargeChance > 0 && r.rng.Float64() < s.OverchargeChance {
		r.energy = clamp(r.energy+s.MaxEnergy*r.catalog.Balance.OverchargeFraction, 0, s.MaxEnergy)
		overcharged = true
	}
	r.sink.NotifyResourceChanged(ResourceEnergy, r.energy, s.MaxEnergy)
	return overcharged
}

// ActivateAbility triggers an unlocked ability that is off cooldown.
func (r *Run) ActivateAbility(kind AbilityKind) AbilityResult {
	res := AbilityResult{Kind: kind}
	spec, ok := abilities[kind]
	if !ok {
		res.Reason = ReasonUnknown
		return res
	}
	if r.gameOver {
		res.Reason = ReasonGameOver
		return res
	}
	if !spec.unlocked(&r.stats) {
		res.Reason = ReasonLocked
		return res
	}
	if rem := r.cooldowns[kind]; rem > 0 {
		r.sink.NotifyAbilityFeedback(fmt.Sprintf("%s on cooldown for %ds", spec.name, int(math.Ceil(rem/1000))))
		res.Reason = ReasonCooldown
		res.RemainingMs = rem
		return res
	}

	r.cooldowns[kind] = spec.cooldown(&r.stats)

	switch spec.shape {
	case shapeBomb:
		r.sink.RequestBombEffect(kind)
	case shapeBuff:
		if prev := r.buffs[kind]; prev != nil {
			prev.revert(&r.stats)
		}
		b := newActiveBuff(spec.duration(&r.stats), spec.deltas(&r.stats))
		b.apply(&r.stats)
		r.buffs[kind] = b
		r.revision++
		r.sink.NotifyStatsChanged(r.revision, r.stats)
	case shapeShield:
		r.invulnerable = true
		r.invulnMs = spec.duration(&r.stats)
		r.sink.RequestInvulnerabilityVisual(true)
	}

	r.sink.NotifyAbilityFeedback(spec.activated)
	res.Activated = true
	return res
}

// OnWaveSpawned registers a new wave and rolls the spawn-lightning chance.
// Returns true when the collaborator should strike the new wave.
func (r *Run) OnWaveSpawned() bool {
	if r.gameOver {
		return false
	}
	r.activeWaves++
	if c := r.stats.SpawnLightningChance; c > 0 && r.rng.Float64() < c {
		r.sink.RequestLightningStrike()
		return true
	}
	return false
}

func (r *Run) waveGone() {
	if r.activeWaves > 0 {
		r.activeWaves--
	}
}

// OnWaveDestroyed credits the kill reward and kill energy. Returns the reward.
func (r *Run) OnWaveDestroyed(rewardBasis float64) float64 {
	if r.gameOver {
		return 0
	}
	s := &r.stats
	r.waveGone()
	r.tally.WavesDestroyed++

	reward := WaveKillReward(rewardBasis, *s)
	r.addLight(reward)

	r.energy = clamp(r.energy+s.EnergyOnKill, 0, s.MaxEnergy)
	r.sink.NotifyResourceChanged(ResourceEnergy, r.energy, s.MaxEnergy)
	return reward
}

// OnWaveReachedLighthouse applies hit damage unless invulnerable or deflected.
// The kinetic siphon bonus is granted whether or not damage was taken.
// Returns true when damage was applied.
func (r *Run) OnWaveReachedLighthouse() bool {
	if r.gameOver {
		return false
	}
	s := &r.stats
	r.waveGone()

	damaged := false
	if !r.invulnerable {
		if s.DamageNegateChance > 0 && r.rng.Float64() < s.DamageNegateChance {
			r.sink.NotifyAbilityFeedback("Deflected!")
		} else {
			damaged = true
			r.tally.LighthouseHits++
			r.health = clamp(r.health-r.catalog.Balance.LighthouseHitDamage, 0, s.MaxLighthouseHealth)
		}
	}
	r.sink.NotifyResourceChanged(ResourceHealth, r.health, s.MaxLighthouseHealth)

	if damaged && r.health <= 0 {
		r.gameOver = true
		r.sink.NotifyGameOver()
	}

	if bonus := s.KineticSiphonModifier * s.LightMultiplier; bonus != 0 {
		r.addLight(bonus)
	}
	return damaged
}

// --- Read accessors ---

func (r *Run) Light() float64      { return r.light }
func (r *Run) Energy() float64     { return r.energy }
func (r *Run) Health() float64     { return r.health }
func (r *Run) WaveNumber() int     { return r.waveNumber }
func (r *Run) Phase() WavePhase    { return r.phase }
func (r *Run) Stats() DerivedStats { return r.stats }
func (r *Run) Revision() uint64    { return r.revision }
func (r *Run) IsGameOver() bool    { return r.gameOver }
func (r *Run) ActiveWaves() int    { return r.activeWaves }
func (r *Run) Invulnerable() bool  { return r.invulnerable }

// Cooldown returns the remaining cooldown of an ability in milliseconds.
func (r *Run) Cooldown(kind AbilityKind) float64 { return r.cooldowns[kind] }

// Rank returns how many times an upgrade has been bought.
func (r *Run) Rank(id string) int {
	if u, ok := r.catalog.Get(id); ok {
		return r.owned(u)
	}
	return 0
}

// Snapshot returns a copy of the run that shares no memory with it.
func (r *Run) Snapshot() Snapshot {
	snap := Snapshot{
		Revision:        r.revision,
		Stats:           r.stats,
		Light:           r.light,
		Energy:          r.energy,
		Health:          r.health,
		WaveNumber:      r.waveNumber,
		Phase:           r.phase,
		WaveSecondsLeft: r.waveTimerMs / 1000,
		SpawnIntervalMs: r.spawnIntervalMs,
		ActiveWaves:     r.activeWaves,
		Cooldowns:       make(map[string]float64, len(r.cooldowns)),
		ActiveBuffs:     make(map[string]float64, len(r.buffs)),
		Invulnerable:    r.invulnerable,
		GameOver:        r.gameOver,
		Purchased:       make(map[string]int, len(r.purchased)),
		Archetype:       r.selection.Archetype,
		Relics:          append([]string(nil), r.selection.Relics...),
		Tally:           r.tally,
	}
	for k, v := range r.cooldowns {
		snap.Cooldowns[string(k)] = v
	}
	for k, b := range r.buffs {
		snap.ActiveBuffs[string(k)] = b.remainingMs
	}
	for k, v := range r.purchased {
		snap.Purchased[k] = v
	}
	return snap
}
