/*
Package game
File: catalog.go
Description:
    Loads the static game data (balance, upgrades, archetypes, relics) from YAML
    and resolves every entry into its typed form.

    The catalog is read-only once constructed. Upgrade declaration order in the
    YAML file is significant: Recompute folds purchases in that order.
*/

package game

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Balance stores global tuning variables loaded from the catalog.
// Zero values are replaced by the documented defaults (see withDefaults).
type Balance struct {
	StartingLight        float64 `yaml:"starting_light" json:"starting_light"`
	WaveDurationSeconds  float64 `yaml:"wave_duration_seconds" json:"wave_duration_seconds"`
	WaveDelaySeconds     float64 `yaml:"wave_delay_seconds" json:"wave_delay_seconds"`
	WaveBaseReward       float64 `yaml:"wave_base_reward" json:"wave_base_reward"`
	SpawnIntervalMs      float64 `yaml:"spawn_interval_ms" json:"spawn_interval_ms"`
	SpawnIntervalStepMs  float64 `yaml:"spawn_interval_step_ms" json:"spawn_interval_step_ms"`
	SpawnIntervalFloorMs float64 `yaml:"spawn_interval_floor_ms" json:"spawn_interval_floor_ms"`
	LighthouseHitDamage  float64 `yaml:"lighthouse_hit_damage" json:"lighthouse_hit_damage"`
	AutoBuilderMs        float64 `yaml:"auto_builder_interval_ms" json:"auto_builder_interval_ms"`
	OverchargeFraction   float64 `yaml:"overcharge_fraction" json:"overcharge_fraction"`
	MetaCurrencyFactor   float64 `yaml:"meta_currency_factor" json:"meta_currency_factor"`
}

// DefaultBalance returns the tuning used when the catalog leaves a value out.
func DefaultBalance() Balance {
	return Balance{
		StartingLight:        0,
		WaveDurationSeconds:  30,
		WaveDelaySeconds:     10,
		WaveBaseReward:       100,
		SpawnIntervalMs:      1000,
		SpawnIntervalStepMs:  100,
		SpawnIntervalFloorMs: 100,
		LighthouseHitDamage:  10,
		AutoBuilderMs:        3000,
		OverchargeFraction:   0.1,
		MetaCurrencyFactor:   1,
	}
}

func (b Balance) withDefaults() Balance {
	d := DefaultBalance()
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&b.WaveDurationSeconds, d.WaveDurationSeconds)
	fill(&b.WaveDelaySeconds, d.WaveDelaySeconds)
	fill(&b.WaveBaseReward, d.WaveBaseReward)
	fill(&b.SpawnIntervalMs, d.SpawnIntervalMs)
	fill(&b.SpawnIntervalStepMs, d.SpawnIntervalStepMs)
	fill(&b.SpawnIntervalFloorMs, d.SpawnIntervalFloorMs)
	fill(&b.LighthouseHitDamage, d.LighthouseHitDamage)
	fill(&b.AutoBuilderMs, d.AutoBuilderMs)
	fill(&b.OverchargeFraction, d.OverchargeFraction)
	fill(&b.MetaCurrencyFactor, d.MetaCurrencyFactor)
	return b
}

// --- YAML schema ---

type effectYAML struct {
	Stat  string   `yaml:"stat"`
	Flag  string   `yaml:"flag"`
	Op    EffectOp `yaml:"op"`
	Value *float64 `yaml:"value"`
	Min   float64  `yaml:"min"`
}

type upgradeYAML struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Category    Category     `yaml:"category"`
	Cost        float64      `yaml:"cost"`
	CostGrowth  float64      `yaml:"cost_growth"`
	Value       float64      `yaml:"value"`
	Action      Action       `yaml:"action"`
	Effects     []effectYAML `yaml:"effects"`
}

type archetypeYAML struct {
	ID          ArchetypeID  `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Cost        int          `yaml:"cost"`
	Effects     []effectYAML `yaml:"effects"`
}

type relicYAML struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Cost        int          `yaml:"cost"`
	Effects     []effectYAML `yaml:"effects"`
}

type catalogYAML struct {
	Balance    Balance         `yaml:"balance"`
	Upgrades   []upgradeYAML   `yaml:"upgrades"`
	Archetypes []archetypeYAML `yaml:"archetypes"`
	Relics     []relicYAML     `yaml:"relics"`
}

// Catalog is the immutable, resolved game data.
type Catalog struct {
	Balance Balance

	upgrades   []UpgradeDefinition
	index      map[string]int
	archetypes map[ArchetypeID]Archetype
	relics     []Relic
	relicIndex map[string]int
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads a catalog file from disk.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(f)
}

// ParseCatalog unmarshals and resolves a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw catalogYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		Balance:    raw.Balance.withDefaults(),
		index:      make(map[string]int, len(raw.Upgrades)),
		archetypes: make(map[ArchetypeID]Archetype),
		relicIndex: make(map[string]int),
	}

	// 1. Upgrades, in declaration order
	for _, u := range raw.Upgrades {
		if u.ID == "" {
			return nil, fmt.Errorf("upgrade without id")
		}
		if _, dup := c.index[u.ID]; dup {
			return nil, fmt.Errorf("duplicate upgrade %q", u.ID)
		}
		def := UpgradeDefinition{
			ID:          u.ID,
			Name:        u.Name,
			Description: u.Description,
			Category:    u.Category,
			BaseCost:    u.Cost,
			CostGrowth:  u.CostGrowth,
			Magnitude:   u.Value,
		}
		if def.CostGrowth == 0 {
			def.CostGrowth = SinglePurchase
		}
		switch {
		case u.Action != "":
			if u.Action != ActionIslandRebuild && u.Action != ActionIslandExpand {
				return nil, fmt.Errorf("upgrade %q: unknown action %q", u.ID, u.Action)
			}
			def.Kind = InstantAction
			def.Action = u.Action
		default:
			effects, err := resolveEffects(u.Effects, u.Value)
			if err != nil {
				return nil, fmt.Errorf("upgrade %q: %w", u.ID, err)
			}
			def.Kind = StatModifier
			def.Effects = effects
		}
		c.index[def.ID] = len(c.upgrades)
		c.upgrades = append(c.upgrades, def)
	}

	// 2. Archetypes. "none" always exists and never carries effects.
	c.archetypes[ArchetypeNone] = Archetype{ID: ArchetypeNone, Name: "The Keeper"}
	for _, a := range raw.Archetypes {
		if !a.ID.Valid() {
			return nil, fmt.Errorf("unknown archetype %q", a.ID)
		}
		if a.ID == ArchetypeNone {
			continue
		}
		effects, err := resolveEffects(a.Effects, 0)
		if err != nil {
			return nil, fmt.Errorf("archetype %q: %w", a.ID, err)
		}
		c.archetypes[a.ID] = Archetype{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Cost:        a.Cost,
			Effects:     effects,
		}
	}

	// 3. Relics, in canonical list order
	for _, r := range raw.Relics {
		if _, dup := c.relicIndex[r.ID]; dup {
			return nil, fmt.Errorf("duplicate relic %q", r.ID)
		}
		effects, err := resolveEffects(r.Effects, 0)
		if err != nil {
			return nil, fmt.Errorf("relic %q: %w", r.ID, err)
		}
		c.relicIndex[r.ID] = len(c.relics)
		c.relics = append(c.relics, Relic{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Cost:        r.Cost,
			Effects:     effects,
		})
	}

	return c, nil
}

func resolveEffects(raw []effectYAML, fallback float64) ([]Effect, error) {
	out := make([]Effect, 0, len(raw))
	for _, e := range raw {
		value := fallback
		if e.Value != nil {
			value = *e.Value
		}
		name, op := e.Stat, e.Op
		if e.Flag != "" {
			name, op = e.Flag, OpUnlock
		}
		if op == "" {
			op = OpAdd
		}
		eff, err := resolveEffect(name, op, value, e.Min)
		if err != nil {
			return nil, err
		}
		out = append(out, eff)
	}
	return out, nil
}

// Get returns the upgrade with the given id.
func (c *Catalog) Get(id string) (UpgradeDefinition, bool) {
	i, ok := c.index[id]
	if !ok {
		return UpgradeDefinition{}, false
	}
	return c.upgrades[i], true
}

// Upgrades returns all upgrades in declaration order.
func (c *Catalog) Upgrades() []UpgradeDefinition {
	out := make([]UpgradeDefinition, len(c.upgrades))
	copy(out, c.upgrades)
	return out
}

// Archetype returns the archetype definition.
func (c *Catalog) Archetype(id ArchetypeID) (Archetype, bool) {
	a, ok := c.archetypes[id]
	return a, ok
}

// Archetypes lists the purchasable archetypes (excluding "none") in a fixed order.
func (c *Catalog) Archetypes() []Archetype {
	var out []Archetype
	for _, id := range []ArchetypeID{ArchetypeChronomancer, ArchetypeStormbringer, ArchetypeArchitect} {
		if a, ok := c.archetypes[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Relic returns the relic definition.
func (c *Catalog) Relic(id string) (Relic, bool) {
	i, ok := c.relicIndex[id]
	if !ok {
		return Relic{}, false
	}
	return c.relics[i], true
}

// Relics returns all relics in canonical order.
func (c *Catalog) Relics() []Relic {
	out := make([]Relic, len(c.relics))
	copy(out, c.relics)
	return out
}

// relicOrder returns the canonical position of a relic, or -1.
func (c *Catalog) relicOrder(id string) int {
	if i, ok := c.relicIndex[id]; ok {
		return i
	}
	return -1
}
