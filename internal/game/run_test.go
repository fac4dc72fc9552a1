package game

import (
	"io"
	"log"
	"reflect"
	"testing"
)

func TestNewRunStartingState(t *testing.T) {
	r, _ := newTestRun(t, 0, Selection{})

	if r.Light() != 0 || r.Energy() != 10 || r.Health() != 100 {
		t.Errorf("Unexpected starting resources: light=%v energy=%v health=%v", r.Light(), r.Energy(), r.Health())
	}
	if r.WaveNumber() != 1 || r.Phase() != PhaseInWave {
		t.Errorf("Expected wave 1 in progress, got %d/%s", r.WaveNumber(), r.Phase())
	}
	snap := r.Snapshot()
	if snap.WaveSecondsLeft != 30 || snap.SpawnIntervalMs != 1000 {
		t.Errorf("Unexpected timers: %v s, %v ms", snap.WaveSecondsLeft, snap.SpawnIntervalMs)
	}
	if r.IsGameOver() {
		t.Error("New run should not be over")
	}
}

func TestWaveCadence(t *testing.T) {
	r, sink := newTestRun(t, 0, Selection{})

	for i := 0; i < 29; i++ {
		r.Update(1000)
	}
	if r.WaveNumber() != 1 || r.Phase() != PhaseInWave {
		t.Fatalf("Wave ended early: %d/%s", r.WaveNumber(), r.Phase())
	}
	if got := r.Snapshot().WaveSecondsLeft; got != 1 {
		t.Errorf("Expected 1s left, got %v", got)
	}

	r.Update(1000)
	if r.WaveNumber() != 2 || r.Phase() != PhaseWaiting {
		t.Fatalf("Expected wave 2 waiting after 30s, got %d/%s", r.WaveNumber(), r.Phase())
	}
	// floor(100 * 2 * 1), paid with the already-advanced wave number
	if r.Light() != 200 {
		t.Errorf("Expected completion reward 200, got %v", r.Light())
	}

	for i := 0; i < 10; i++ {
		r.Update(1000)
	}
	if r.WaveNumber() != 3 || r.Phase() != PhaseInWave {
		t.Fatalf("Expected wave 3 in progress after delay, got %d/%s", r.WaveNumber(), r.Phase())
	}
	if got := r.Snapshot().SpawnIntervalMs; got != 900 {
		t.Errorf("Expected spawn interval 900, got %v", got)
	}
	if sink.count("spawn_interval:900") != 1 {
		t.Error("Expected spawn interval notification")
	}
	if r.Light() != 200 {
		t.Errorf("Starting a wave should not pay, light=%v", r.Light())
	}
	if r.Snapshot().Tally.HighestWave != 3 {
		t.Errorf("Expected highest wave 3, got %d", r.Snapshot().Tally.HighestWave)
	}
}

func TestSpawnIntervalFloor(t *testing.T) {
	r, _ := newTestRun(t, 0, Selection{})
	for i := 0; i < 15; i++ {
		r.Update(30000)
		r.Update(10000)
	}
	if got := r.Snapshot().SpawnIntervalMs; got != 100 {
		t.Errorf("Expected spawn interval floored at 100, got %v", got)
	}
}

func TestKillReward(t *testing.T) {
	r, _ := newTestRun(t, 0, Selection{})
	r.OnWaveSpawned()

	// floor((50/10 + 1) * 1 * 1)
	if got := r.OnWaveDestroyed(50); got != 6 {
		t.Errorf("Expected reward 6, got %v", got)
	}
	if r.Light() != 6 {
		t.Errorf("Expected light 6, got %v", r.Light())
	}
	if r.ActiveWaves() != 0 {
		t.Errorf("Expected no active waves, got %d", r.ActiveWaves())
	}
	if r.Snapshot().Tally.WavesDestroyed != 1 {
		t.Error("Expected the kill to be tallied")
	}
}

func TestPurchaseStatUpgrade(t *testing.T) {
	r, sink := newTestRun(t, 100, Selection{})
	rev := r.Revision()

	res := r.Purchase("beam_length")
	if !res.OK || res.Cost != 15 || res.Rank != 1 {
		t.Fatalf("Unexpected purchase result: %+v", res)
	}
	if r.Light() != 85 {
		t.Errorf("Expected 85 light left, got %v", r.Light())
	}
	if r.Stats().BeamRadius != 160 {
		t.Errorf("Expected beam radius 160, got %v", r.Stats().BeamRadius)
	}
	if r.Revision() <= rev || sink.count("stats") == 0 {
		t.Error("Expected a stats refresh after purchase")
	}

	for _, o := range r.Offers() {
		if o.ID != "beam_length" {
			continue
		}
		// ceil(15 * 1.15)
		if o.Cost != 18 || o.Rank != 1 || !o.Affordable {
			t.Errorf("Unexpected offer: %+v", o)
		}
	}
}

func TestPurchaseRejections(t *testing.T) {
	r, sink := newTestRun(t, 0, Selection{})

	res := r.Purchase("beam_pierce")
	if res.OK || res.Reason != ReasonInsufficientFunds || res.Cost != 10 {
		t.Errorf("Expected insufficient funds, got %+v", res)
	}
	if sink.count("stats") != 0 || r.Rank("beam_pierce") != 0 {
		t.Error("Rejected purchase had side effects")
	}

	if res := r.Purchase("warp_drive"); res.Reason != ReasonUnknown {
		t.Errorf("Expected unknown, got %+v", res)
	}
}

func TestSinglePurchaseSoldOut(t *testing.T) {
	r, _ := newTestRun(t, 20000, Selection{})

	if res := r.Purchase("mega_bomb"); !res.OK {
		t.Fatalf("First purchase failed: %+v", res)
	}
	res := r.Purchase("mega_bomb")
	if res.OK || res.Reason != ReasonSoldOut {
		t.Errorf("Expected sold out, got %+v", res)
	}
	if r.Light() != 10000 {
		t.Errorf("Sold out purchase charged light: %v", r.Light())
	}
	for _, o := range r.Offers() {
		if o.ID == "mega_bomb" && !o.SoldOut {
			t.Error("Expected mega_bomb offer to be sold out")
		}
	}
}

func TestInstantActionNotInLedger(t *testing.T) {
	r, sink := newTestRun(t, 10000, Selection{})
	rev := r.Revision()

	res := r.Purchase("island_reconstruction")
	if !res.OK || res.Kind != "instant" || res.Rank != 1 {
		t.Fatalf("Unexpected result: %+v", res)
	}
	if sink.count("island_rebuild") != 1 {
		t.Error("Expected a rebuild request")
	}
	if _, ok := r.Snapshot().Purchased["island_reconstruction"]; ok {
		t.Error("Instant action entered the purchase ledger")
	}
	if r.Revision() != rev {
		t.Error("Instant action triggered a recompute")
	}
	for _, o := range r.Offers() {
		if o.ID == "island_reconstruction" && o.Cost != 2000 {
			t.Errorf("Expected the second rebuild to cost 2000, got %v", o.Cost)
		}
	}

	if res := r.Purchase("island_expansion"); !res.OK {
		t.Fatalf("Expansion failed: %+v", res)
	}
	if len(sink.expand) != 1 || sink.expand[0] != 20 {
		t.Errorf("Expected expand by 20, got %v", sink.expand)
	}
	if r.Light() != 4000 {
		t.Errorf("Expected 4000 light left, got %v", r.Light())
	}
}

func TestAbilityGatingAndCooldown(t *testing.T) {
	r, sink := newTestRun(t, 10000, Selection{})

	if res := r.ActivateAbility(AbilityMegaBomb); res.Activated || res.Reason != ReasonLocked {
		t.Fatalf("Expected locked ability, got %+v", res)
	}
	if res := r.ActivateAbility("nuke"); res.Reason != ReasonUnknown {
		t.Errorf("Expected unknown ability, got %+v", res)
	}

	r.Purchase("mega_bomb")
	if res := r.ActivateAbility(AbilityMegaBomb); !res.Activated {
		t.Fatalf("Expected activation, got %+v", res)
	}
	if sink.count("bomb:mega_bomb") != 1 {
		t.Error("Expected a bomb effect request")
	}
	if r.Cooldown(AbilityMegaBomb) != 60000 {
		t.Errorf("Expected 60s cooldown, got %v", r.Cooldown(AbilityMegaBomb))
	}

	res := r.ActivateAbility(AbilityMegaBomb)
	if res.Activated || res.Reason != ReasonCooldown || res.RemainingMs != 60000 {
		t.Errorf("Expected cooldown rejection, got %+v", res)
	}
	if last := sink.feedback[len(sink.feedback)-1]; last != "Mega Bomb on cooldown for 60s" {
		t.Errorf("Unexpected feedback %q", last)
	}
	if r.Cooldown(AbilityMegaBomb) != 60000 {
		t.Error("Rejected activation changed the cooldown")
	}

	r.Update(1000)
	if r.Cooldown(AbilityMegaBomb) != 59000 {
		t.Errorf("Expected 59s cooldown, got %v", r.Cooldown(AbilityMegaBomb))
	}
	r.Update(60000)
	if r.Cooldown(AbilityMegaBomb) != 0 {
		t.Errorf("Expected cooldown clamped at 0, got %v", r.Cooldown(AbilityMegaBomb))
	}
	if res := r.ActivateAbility(AbilityMegaBomb); !res.Activated {
		t.Errorf("Expected reactivation after cooldown, got %+v", res)
	}
}

func TestLightSurgeRevertsExactly(t *testing.T) {
	r, _ := newTestRun(t, 100, Selection{Archetype: ArchetypeChronomancer})

	if res := r.ActivateAbility(AbilityLightSurge); !res.Activated {
		t.Fatalf("Expected light surge, got %+v", res)
	}
	if r.Stats().BeamRadius != 450 || r.Stats().BeamAngle != 13 {
		t.Errorf("Expected buffed beam 450/13, got %v/%v", r.Stats().BeamRadius, r.Stats().BeamAngle)
	}

	// A purchase mid-buff recomputes from scratch; the buff must survive it.
	r.Purchase("beam_length")
	if r.Stats().BeamRadius != 460 {
		t.Errorf("Expected 460 after purchase during buff, got %v", r.Stats().BeamRadius)
	}
	if got := r.Snapshot().ActiveBuffs["light_surge"]; got != 8000 {
		t.Errorf("Expected 8s of buff left, got %v", got)
	}

	r.Update(8000)
	if r.Stats().BeamRadius != 160 || r.Stats().BeamAngle != 3 {
		t.Errorf("Expected exact reversal to 160/3, got %v/%v", r.Stats().BeamRadius, r.Stats().BeamAngle)
	}
	if len(r.Snapshot().ActiveBuffs) != 0 {
		t.Error("Expected buff to be gone")
	}
}

func TestTimeWarp(t *testing.T) {
	r, _ := newTestRun(t, 25000, Selection{})
	if res := r.Purchase("time_warp"); !res.OK {
		t.Fatalf("Purchase failed: %+v", res)
	}
	r.ActivateAbility(AbilityTimeWarp)
	if r.Stats().TimeScale != 2 {
		t.Errorf("Expected time scale 2 during warp, got %v", r.Stats().TimeScale)
	}
	r.Update(10000)
	if r.Stats().TimeScale != 1 {
		t.Errorf("Expected time scale restored to 1, got %v", r.Stats().TimeScale)
	}
}

func TestTimeWarpCyclesUnderChronomancer(t *testing.T) {
	r, _ := newTestRun(t, 30000, Selection{Archetype: ArchetypeChronomancer})
	if res := r.Purchase("time_warp"); !res.OK {
		t.Fatalf("Purchase failed: %+v", res)
	}
	before := r.Stats().TimeScale

	for i := 0; i < 50; i++ {
		if res := r.ActivateAbility(AbilityTimeWarp); !res.Activated {
			t.Fatalf("Cycle %d: expected activation, got %+v", i, res)
		}
		if i == 0 {
			// A recompute mid-buff must not disturb the restore.
			r.Purchase("beam_length")
		}
		r.Update(10000)
		if got := r.Stats().TimeScale; got != before {
			t.Fatalf("Cycle %d: expected time scale %v after warp, got %v", i, before, got)
		}
		r.Update(110000)
	}
}

func TestPurchaseOrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"multiplier", "light_interest"},
		{"dual_lens", "multi_lens"},
		{"beam_length", "rotation_speed"},
	}
	for _, p := range pairs {
		a, _ := newTestRun(t, 20000, Selection{})
		b, _ := newTestRun(t, 20000, Selection{})

		for _, id := range []string{p[0], p[1]} {
			if res := a.Purchase(id); !res.OK {
				t.Fatalf("%s: purchase failed: %+v", id, res)
			}
		}
		for _, id := range []string{p[1], p[0]} {
			if res := b.Purchase(id); !res.OK {
				t.Fatalf("%s: purchase failed: %+v", id, res)
			}
		}
		if !reflect.DeepEqual(a.Stats(), b.Stats()) {
			t.Errorf("%s/%s: stats depend on purchase order:\n%+v\n%+v", p[0], p[1], a.Stats(), b.Stats())
		}
	}
	r, _ := newTestRun(t, 20000, Selection{})
	r.Purchase("multi_lens")
	r.Purchase("dual_lens")
	if r.Stats().BeamCount != 3 {
		t.Errorf("Expected floor then add to give 3 beams, got %v", r.Stats().BeamCount)
	}
}

func TestFullResetClearsShieldVisual(t *testing.T) {
	r, sink := newTestRun(t, 0, Selection{Archetype: ArchetypeArchitect})
	r.ActivateAbility(AbilityFortify)
	if !r.Invulnerable() {
		t.Fatal("Expected invulnerability on")
	}

	r.FullReset()
	if r.Invulnerable() {
		t.Error("Reset should drop invulnerability")
	}
	if sink.count("invuln:false") != 1 {
		t.Errorf("Expected the shield visual to be turned off, events=%v", sink.events)
	}

	sink.reset()
	r.FullReset()
	if sink.count("invuln:false") != 0 {
		t.Error("Reset without a shield should not touch the visual")
	}
}

func TestFortifyInvulnerability(t *testing.T) {
	r, sink := newTestRun(t, 150, Selection{Archetype: ArchetypeArchitect})
	r.Purchase("kinetic_siphon")

	if res := r.ActivateAbility(AbilityFortify); !res.Activated {
		t.Fatalf("Expected fortify, got %+v", res)
	}
	if !r.Invulnerable() || sink.count("invuln:true") != 1 {
		t.Fatal("Expected invulnerability on")
	}

	if r.OnWaveReachedLighthouse() {
		t.Error("Invulnerable lighthouse took damage")
	}
	if r.Health() != 100 {
		t.Errorf("Expected full health, got %v", r.Health())
	}
	// Siphon pays out even when the hit was absorbed.
	if r.Light() != 0.5 {
		t.Errorf("Expected siphon bonus 0.5, got %v", r.Light())
	}

	r.Update(5000)
	if r.Invulnerable() || sink.count("invuln:false") != 1 {
		t.Error("Expected invulnerability to expire")
	}
}

func TestRegenAndDrain(t *testing.T) {
	r, _ := newTestRun(t, 0, Selection{})
	r.OnWaveReachedLighthouse()
	if r.Health() != 90 {
		t.Fatalf("Expected 90 health after hit, got %v", r.Health())
	}

	r.Update(1000)
	if r.Health() != 91 {
		t.Errorf("Expected regen to 91, got %v", r.Health())
	}
	if r.Energy() != 9.5 {
		t.Errorf("Expected drain to 9.5, got %v", r.Energy())
	}
}

func TestTimeScaledRegen(t *testing.T) {
	r, _ := newTestRun(t, 0, Selection{Archetype: ArchetypeChronomancer})
	r.OnWaveReachedLighthouse()
	r.Update(1000)
	if !approx(r.Health(), 91.2) {
		t.Errorf("Expected regen scaled by 1.2, got %v", r.Health())
	}
}

func TestClickEnergyClamped(t *testing.T) {
	r, _ := newTestRun(t, 0, Selection{})

	r.HandleClick()
	if r.Energy() != 10 {
		t.Errorf("Energy exceeded max: %v", r.Energy())
	}

	r.Update(2000)
	r.HandleClick()
	if !approx(r.Energy(), 9.2) {
		t.Errorf("Expected 9.2 energy, got %v", r.Energy())
	}
	if r.Snapshot().Tally.Clicks != 2 {
		t.Errorf("Expected 2 clicks tallied, got %d", r.Snapshot().Tally.Clicks)
	}
}

func TestGameOver(t *testing.T) {
	r, sink := newTestRun(t, 0, Selection{})

	for i := 0; i < 10; i++ {
		r.OnWaveReachedLighthouse()
	}
	if !r.IsGameOver() || r.Health() != 0 {
		t.Fatalf("Expected game over at 0 health, got over=%v health=%v", r.IsGameOver(), r.Health())
	}
	if r.OnWaveReachedLighthouse() {
		t.Error("Hit applied after game over")
	}
	if sink.count("game_over") != 1 {
		t.Errorf("Expected one game over notification, got %d", sink.count("game_over"))
	}

	r.Update(5000)
	if r.Health() != 0 || r.WaveNumber() != 1 {
		t.Error("Update ran after game over")
	}
	if r.HandleClick() || r.OnWaveSpawned() {
		t.Error("Input accepted after game over")
	}
	if res := r.Purchase("beam_pierce"); res.Reason != ReasonGameOver {
		t.Errorf("Expected game over rejection, got %+v", res)
	}
	if res := r.ActivateAbility(AbilityMegaBomb); res.Reason != ReasonGameOver {
		t.Errorf("Expected game over rejection, got %+v", res)
	}

	r.FullReset()
	if r.IsGameOver() || r.Health() != 100 {
		t.Error("Full reset did not restart the run")
	}
}

func TestPassiveIncome(t *testing.T) {
	r, _ := newTestRun(t, 1000, Selection{})
	r.Purchase("core_crystal")
	if r.Light() != 975 {
		t.Fatalf("Expected 975 light, got %v", r.Light())
	}
	if got := r.PassiveIncomeTick(0); got != 1 {
		t.Errorf("Expected 1 light/s, got %v", got)
	}
	if r.Light() != 976 {
		t.Errorf("Expected 976 light, got %v", r.Light())
	}

	s := BaseStats()
	s.LightPerSecond = 2
	s.TidalForceModifier = 0.5
	s.LightInterestRate = 0.01
	s.LightMultiplier = 2
	if got := PassiveIncome(s, 100, 3); !approx(got, 9) {
		t.Errorf("Expected (2 + 3*0.5 + 100*0.01) * 2 = 9, got %v", got)
	}
}

func TestAutoCollectors(t *testing.T) {
	r, _ := newTestRun(t, 1000, Selection{})

	r.Purchase("auto_light_collector")
	r.AutoLightTick()
	if r.Light() != 501 {
		t.Errorf("Expected 501 light, got %v", r.Light())
	}

	r.Purchase("auto_energy_collector")
	r.Update(4000)
	r.AutoEnergyTick()
	if r.Energy() != 9 {
		t.Errorf("Expected 8 + 1 energy, got %v", r.Energy())
	}
}

func TestAutoBuilderAndSlowPulse(t *testing.T) {
	r, sink := newTestRun(t, 2500, Selection{})
	r.Purchase("auto_builder")
	r.Purchase("slowing_pulse")
	sink.reset()

	r.Update(1500)
	if sink.count("tile_repair") != 0 {
		t.Error("Tile repaired too early")
	}
	if sink.count("slow_pulse") != 1 {
		t.Error("Expected the first slow pulse right away")
	}
	r.Update(1500)
	if sink.count("tile_repair") != 1 {
		t.Error("Expected a tile repair after 3s")
	}
	if sink.count("slow_pulse") != 1 {
		t.Error("Slow pulse fired before its cooldown")
	}
}

func TestSpawnLightning(t *testing.T) {
	r, sink := newTestRun(t, 0, Selection{Archetype: ArchetypeStormbringer})

	strikes := 0
	for i := 0; i < 1000; i++ {
		if r.OnWaveSpawned() {
			strikes++
		}
	}
	if strikes < 50 || strikes > 150 {
		t.Errorf("Expected about 10%% lightning strikes, got %d/1000", strikes)
	}
	if sink.count("lightning") != strikes {
		t.Error("Strike count and requests disagree")
	}
	if r.ActiveWaves() != 1000 {
		t.Errorf("Expected 1000 active waves, got %d", r.ActiveWaves())
	}

	plain, _ := newTestRun(t, 0, Selection{})
	for i := 0; i < 100; i++ {
		if plain.OnWaveSpawned() {
			t.Fatal("Lightning without the Stormbringer")
		}
	}
}

func TestFullResetKeepsPrestige(t *testing.T) {
	cat := testCatalog(t, 100)
	store := NewPrestigeStore(cat, &memPersist{}, log.New(io.Discard, "", 0))
	store.AddMetaCurrency(100)
	store.UnlockArchetype(ArchetypeChronomancer)
	store.SetActiveArchetype(ArchetypeChronomancer)

	r := NewRun(cat, store, nil, nil)
	if !approx(r.Stats().TimeScale, 1.2) {
		t.Fatalf("Archetype not applied at start, scale=%v", r.Stats().TimeScale)
	}
	r.Purchase("beam_length")
	r.OnWaveDestroyed(50)

	r.FullReset()
	if r.Rank("beam_length") != 0 || r.Light() != 100 {
		t.Errorf("Run state survived reset: rank=%d light=%v", r.Rank("beam_length"), r.Light())
	}
	if r.Snapshot().Tally.WavesDestroyed != 0 {
		t.Error("Tally survived reset")
	}
	if !approx(r.Stats().TimeScale, 1.2) || !r.Stats().HasLightSurge {
		t.Error("Prestige selection lost on reset")
	}
	if store.MetaCurrency() != 50 {
		t.Errorf("Reset touched the Aether balance: %d", store.MetaCurrency())
	}
}

func TestRefreshPrestigeKeepsPurchases(t *testing.T) {
	cat := testCatalog(t, 100)
	store := NewPrestigeStore(cat, &memPersist{}, log.New(io.Discard, "", 0))
	r := NewRun(cat, store, nil, nil)
	r.Purchase("beam_length")

	store.AddMetaCurrency(10)
	store.UnlockRelic("prism_of_greed")
	store.ToggleActiveRelic("prism_of_greed")
	r.RefreshPrestige()

	if r.Stats().KillRewardMultiplier != 3 {
		t.Errorf("Relic not applied, multiplier=%v", r.Stats().KillRewardMultiplier)
	}
	if r.Stats().BeamRadius != 160 {
		t.Errorf("Purchases lost on refresh, radius=%v", r.Stats().BeamRadius)
	}
	if got := r.OnWaveDestroyed(50); got != 18 {
		t.Errorf("Expected tripled kill reward 18, got %v", got)
	}
}

func TestSetCatalogRecomputes(t *testing.T) {
	r, _ := newTestRun(t, 100, Selection{})
	r.Purchase("beam_length")

	next, err := ParseCatalog([]byte(`
upgrades:
  - { id: beam_length, cost: 15, cost_growth: 1.15, value: 50, effects: [ { stat: beam_radius } ] }
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	r.SetCatalog(next)
	if r.Stats().BeamRadius != 200 {
		t.Errorf("Expected 150+50 after reload, got %v", r.Stats().BeamRadius)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	r, _ := newTestRun(t, 100, Selection{})
	r.Purchase("beam_length")

	snap := r.Snapshot()
	snap.Purchased["beam_length"] = 99
	snap.Stats.BeamRadius = 1
	if r.Rank("beam_length") != 1 || r.Stats().BeamRadius != 160 {
		t.Error("Snapshot shares memory with the run")
	}
}
