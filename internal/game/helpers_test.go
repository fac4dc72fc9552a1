package game

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
)

// recordingSink captures every engine event as a short string.
type recordingSink struct {
	events   []string
	feedback []string
	stats    []uint64
	expand   []float64
}

func (s *recordingSink) add(e string) { s.events = append(s.events, e) }

func (s *recordingSink) NotifyResourceChanged(kind ResourceKind, value, max float64) {
	s.add("resource:" + string(kind))
}
func (s *recordingSink) NotifyWaveProgress(float64, float64) { s.add("wave_progress") }
func (s *recordingSink) NotifyWaveNumber(n int)              { s.add(fmt.Sprintf("wave:%d", n)) }
func (s *recordingSink) NotifyAbilityFeedback(msg string) {
	s.feedback = append(s.feedback, msg)
	s.add("feedback")
}
func (s *recordingSink) NotifySpawnInterval(ms float64) { s.add(fmt.Sprintf("spawn_interval:%.0f", ms)) }
func (s *recordingSink) NotifyStatsChanged(rev uint64, _ DerivedStats) {
	s.stats = append(s.stats, rev)
	s.add("stats")
}
func (s *recordingSink) NotifyGameOver()       { s.add("game_over") }
func (s *recordingSink) RequestTileRepair()    { s.add("tile_repair") }
func (s *recordingSink) RequestIslandRebuild() { s.add("island_rebuild") }
func (s *recordingSink) RequestIslandExpand(by float64) {
	s.expand = append(s.expand, by)
	s.add("island_expand")
}
func (s *recordingSink) RequestSlowPulseEffect()             { s.add("slow_pulse") }
func (s *recordingSink) RequestBombEffect(kind AbilityKind)  { s.add("bomb:" + string(kind)) }
func (s *recordingSink) RequestLightningStrike()             { s.add("lightning") }
func (s *recordingSink) RequestInvulnerabilityVisual(on bool) { s.add(fmt.Sprintf("invuln:%v", on)) }

func (s *recordingSink) count(e string) int {
	n := 0
	for _, v := range s.events {
		if v == e {
			n++
		}
	}
	return n
}

func (s *recordingSink) reset() {
	s.events = nil
	s.feedback = nil
	s.stats = nil
	s.expand = nil
}

// fixedSelection is a SelectionSource that never changes.
type fixedSelection Selection

func (f fixedSelection) Selection() Selection { return Selection(f) }

// memPersist is an in-memory PrestigePersistence with optional failures.
type memPersist struct {
	mu      sync.Mutex
	rec     PrestigeRecord
	ok      bool
	loadErr error
	saveErr error
	saves   int
}

func (m *memPersist) LoadPrestigeRecord() (PrestigeRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return PrestigeRecord{}, false, m.loadErr
	}
	return m.rec.clone(), m.ok, nil
}

func (m *memPersist) SavePrestigeRecord(rec PrestigeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rec = rec.clone()
	m.ok = true
	return nil
}

// testCatalog is the embedded catalog with a different starting Light.
func testCatalog(t *testing.T, startingLight float64) *Catalog {
	t.Helper()
	data := bytes.Replace(defaultCatalogYAML,
		[]byte("starting_light: 0"),
		[]byte(fmt.Sprintf("starting_light: %g", startingLight)), 1)
	cat, err := ParseCatalog(data)
	if err != nil {
		t.Fatalf("Failed to parse test catalog: %v", err)
	}
	return cat
}

// newTestRun builds a run with a seeded RNG and a recording sink.
func newTestRun(t *testing.T, startingLight float64, sel Selection) (*Run, *recordingSink) {
	t.Helper()
	if sel.Archetype == "" {
		sel.Archetype = ArchetypeNone
	}
	sink := &recordingSink{}
	r := NewRun(testCatalog(t, startingLight), fixedSelection(sel), sink, rand.New(rand.NewSource(1)))
	return r, sink
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
