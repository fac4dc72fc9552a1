/*
Package game
File: prestige.go
Description:
    PrestigeStore owns the permanent record that survives full resets:
    Aether balance, unlocked/active archetype, unlocked/active relics.

    Every mutation is persisted immediately through the PrestigePersistence
    collaborator. Persistence is best effort: a failed save is logged and the
    in-memory record stays authoritative.
*/

package game

import (
	"log"
	"math"
	"sort"
	"sync"
)

// PrestigeKey names the persisted record.
const PrestigeKey = "lighthouse_idle_prestige"

// PrestigeRecord is the persisted layout.
type PrestigeRecord struct {
	MetaCurrency       int      `json:"metaCurrency"`
	UnlockedArchetypes []string `json:"unlockedArchetypes"`
	ActiveArchetype    string   `json:"activeArchetype"`
	UnlockedRelics     []string `json:"unlockedRelics"`
	ActiveRelics       []string `json:"activeRelics"`
}

func (p PrestigeRecord) clone() PrestigeRecord {
	p.UnlockedArchetypes = append([]string(nil), p.UnlockedArchetypes...)
	p.UnlockedRelics = append([]string(nil), p.UnlockedRelics...)
	p.ActiveRelics = append([]string(nil), p.ActiveRelics...)
	return p
}

// PrestigePersistence loads and saves the record. ok is false when nothing is stored yet.
type PrestigePersistence interface {
	LoadPrestigeRecord() (rec PrestigeRecord, ok bool, err error)
	SavePrestigeRecord(rec PrestigeRecord) error
}

// PrestigeStore is the meta-progression state shared across resets.
type PrestigeStore struct {
	mu      sync.Mutex
	catalog *Catalog
	persist PrestigePersistence
	log     *log.Logger
	rec     PrestigeRecord
}

// NewPrestigeStore loads the record from persist. Load failures are logged and
// the store starts from an empty record.
func NewPrestigeStore(cat *Catalog, persist PrestigePersistence, logger *log.Logger) *PrestigeStore {
	if logger == nil {
		logger = log.Default()
	}
	s := &PrestigeStore{catalog: cat, persist: persist, log: logger}
	if persist != nil {
		rec, ok, err := persist.LoadPrestigeRecord()
		switch {
		case err != nil:
			logger.Printf("STORE: load prestige record: %v (starting fresh)", err)
		case ok:
			s.rec = rec
		}
	}
	s.normalize()
	return s
}

// normalize drops unknown ids and enforces active ⊆ unlocked.
func (s *PrestigeStore) normalize() {
	r := &s.rec
	if r.MetaCurrency < 0 {
		r.MetaCurrency = 0
	}

	seen := map[string]bool{}
	var arch []string
	for _, id := range r.UnlockedArchetypes {
		aid := ArchetypeID(id)
		if _, ok := s.catalog.Archetype(aid); !ok || aid == ArchetypeNone || seen[id] {
			continue
		}
		seen[id] = true
		arch = append(arch, id)
	}
	r.UnlockedArchetypes = arch

	if r.ActiveArchetype == "" || !s.archetypeUnlocked(ArchetypeID(r.ActiveArchetype)) {
		r.ActiveArchetype = string(ArchetypeNone)
	}

	seen = map[string]bool{}
	var relics []string
	for _, id := range r.UnlockedRelics {
		if _, ok := s.catalog.Relic(id); !ok || seen[id] {
			continue
		}
		seen[id] = true
		relics = append(relics, id)
	}
	r.UnlockedRelics = relics

	active := map[string]bool{}
	var act []string
	for _, id := range r.ActiveRelics {
		if !seen[id] || active[id] {
			continue
		}
		active[id] = true
		act = append(act, id)
	}
	r.ActiveRelics = act
}

func (s *PrestigeStore) save() {
	if s.persist == nil {
		return
	}
	if err := s.persist.SavePrestigeRecord(s.rec.clone()); err != nil {
		s.log.Printf("STORE: save prestige record: %v", err)
	}
}

func (s *PrestigeStore) archetypeUnlocked(id ArchetypeID) bool {
	if id == ArchetypeNone {
		return true
	}
	for _, u := range s.rec.UnlockedArchetypes {
		if u == string(id) {
			return true
		}
	}
	return false
}

func (s *PrestigeStore) relicUnlocked(id string) bool {
	for _, u := range s.rec.UnlockedRelics {
		if u == id {
			return true
		}
	}
	return false
}

// UnlockArchetype buys an archetype with Aether. Already unlocked is a success.
func (s *PrestigeStore) UnlockArchetype(id ArchetypeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.catalog.Archetype(id)
	if !ok {
		return false
	}
	if s.archetypeUnlocked(id) {
		return true
	}
	if s.rec.MetaCurrency < a.Cost {
		return false
	}
	s.rec.MetaCurrency -= a.Cost
	s.rec.UnlockedArchetypes = append(s.rec.UnlockedArchetypes, string(id))
	s.save()
	return true
}

// SetActiveArchetype selects an unlocked archetype. Locked or unknown ids are rejected.
func (s *PrestigeStore) SetActiveArchetype(id ArchetypeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Archetype(id); !ok || !s.archetypeUnlocked(id) {
		return false
	}
	s.rec.ActiveArchetype = string(id)
	s.save()
	return true
}

// UnlockRelic buys a relic with Aether. Already unlocked is a success.
func (s *PrestigeStore) UnlockRelic(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.catalog.Relic(id)
	if !ok {
		return false
	}
	if s.relicUnlocked(id) {
		return true
	}
	if s.rec.MetaCurrency < r.Cost {
		return false
	}
	s.rec.MetaCurrency -= r.Cost
	s.rec.UnlockedRelics = append(s.rec.UnlockedRelics, id)
	s.save()
	return true
}

// ToggleActiveRelic flips an unlocked relic between active and inactive.
// ok is false (and nothing changes) when the relic is not unlocked.
func (s *PrestigeStore) ToggleActiveRelic(id string) (active, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.relicUnlocked(id) {
		return false, false
	}
	for i, a := range s.rec.ActiveRelics {
		if a == id {
			s.rec.ActiveRelics = append(s.rec.ActiveRelics[:i:i], s.rec.ActiveRelics[i+1:]...)
			s.save()
			return false, true
		}
	}
	s.rec.ActiveRelics = append(s.rec.ActiveRelics, id)
	s.save()
	return true, true
}

// AddMetaCurrency credits Aether directly.
func (s *PrestigeStore) AddMetaCurrency(amount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.MetaCurrency += amount
	if s.rec.MetaCurrency < 0 {
		s.rec.MetaCurrency = 0
	}
	s.save()
}

// PendingMetaCurrency is the Aether a prestige would grant right now.
// Formula: floor((floor(light/1000) + floor(wave*2)) * factor)
func (s *PrestigeStore) PendingMetaCurrency(light float64, waveNumber int) int {
	return PendingMetaCurrency(light, waveNumber, s.catalog.Balance.MetaCurrencyFactor)
}

// PendingMetaCurrency is the pure prestige formula.
func PendingMetaCurrency(light float64, waveNumber int, factor float64) int {
	lightGain := math.Floor(light / 1000)
	waveGain := math.Floor(float64(waveNumber) * 2)
	gain := math.Floor((lightGain + waveGain) * factor)
	if gain < 0 {
		return 0
	}
	return int(gain)
}

// Prestige banks the pending Aether. The caller must then fully restart the run.
func (s *PrestigeStore) Prestige(light float64, waveNumber int) int {
	gain := s.PendingMetaCurrency(light, waveNumber)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.MetaCurrency += gain
	s.save()
	return gain
}

// MetaCurrency returns the current Aether balance.
func (s *PrestigeStore) MetaCurrency() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.MetaCurrency
}

// Record returns a copy of the persisted record.
func (s *PrestigeStore) Record() PrestigeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.clone()
}

// Selection returns the active archetype and active relics in canonical order.
func (s *PrestigeStore) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	relics := append([]string(nil), s.rec.ActiveRelics...)
	sort.SliceStable(relics, func(i, j int) bool {
		return s.catalog.relicOrder(relics[i]) < s.catalog.relicOrder(relics[j])
	})
	return Selection{Archetype: ArchetypeID(s.rec.ActiveArchetype), Relics: relics}
}

// SetCatalog swaps the catalog after a hot reload.
func (s *PrestigeStore) SetCatalog(cat *Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = cat
}
