/*
Package game
File: economy.go
Description:
    Handles the Light economy of a run.
    This includes:
    1. Upgrade pricing (cost curve + Sale discount) and the shop listing.
    2. Purchasing upgrades and instant island actions.
    3. Reward formulas for destroyed waves and completed wave phases.
    4. The once-per-second passive income heartbeats.
*/

package game

import "math"

// saleExempt is never discounted by its own effect.
const saleExempt = "sale"

// UpgradeCost returns the price of the next rank of u.
// Formula: ceil(BaseCost * CostGrowth^owned * SaleModifier)
func UpgradeCost(u UpgradeDefinition, owned int, saleModifier float64) float64 {
	cost := u.BaseCost * math.Pow(u.CostGrowth, float64(owned))
	if u.ID != saleExempt {
		cost *= saleModifier
	}
	return math.Ceil(cost)
}

// WaveKillReward is the Light granted for destroying one wave.
// Formula: floor((basis/10 + fragments) * lightMultiplier * killRewardMultiplier)
func WaveKillReward(basis float64, s DerivedStats) float64 {
	return math.Floor((basis/10 + s.WaveFragmentsModifier) * s.LightMultiplier * s.KillRewardMultiplier)
}

// WaveCompletionReward is the Light granted when an in-wave phase ends.
func WaveCompletionReward(baseReward float64, waveNumber int, s DerivedStats) float64 {
	return math.Floor(baseReward * float64(waveNumber) * s.LightMultiplier)
}

// PassiveIncome is the Light produced by one passive heartbeat.
func PassiveIncome(s DerivedStats, light float64, activeWaves int) float64 {
	tidal := float64(activeWaves) * s.TidalForceModifier
	interest := light * s.LightInterestRate
	return (s.LightPerSecond + tidal + interest) * s.LightMultiplier
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PurchaseResult reports the outcome of Purchase.
type PurchaseResult struct {
	ID     string  `json:"id"`
	OK     bool    `json:"ok"`
	Reason string  `json:"reason,omitempty"`
	Cost   float64 `json:"cost,omitempty"`
	Rank   int     `json:"rank"`
	Kind   string  `json:"kind,omitempty"`
}

// Offer is one row of the shop listing.
type Offer struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Kind        string   `json:"kind"`
	Rank        int      `json:"rank"`
	Cost        float64  `json:"cost"`
	SoldOut     bool     `json:"sold_out"`
	Affordable  bool     `json:"affordable"`
}

func (r *Run) owned(u UpgradeDefinition) int {
	if u.Kind == InstantAction {
		return r.instantUses[u.ID]
	}
	return r.purchased[u.ID]
}

// Offers lists every upgrade with its current rank and price.
func (r *Run) Offers() []Offer {
	out := make([]Offer, 0, len(r.catalog.upgrades))
	for _, u := range r.catalog.upgrades {
		rank := r.owned(u)
		o := Offer{
			ID:          u.ID,
			Name:        u.Name,
			Description: u.Description,
			Category:    u.Category,
			Kind:        u.Kind.String(),
			Rank:        rank,
		}
		if u.SingleUse() && rank >= 1 {
			o.SoldOut = true
		} else {
			o.Cost = UpgradeCost(u, rank, r.stats.SaleModifier)
			o.Affordable = r.light >= o.Cost
		}
		out = append(out, o)
	}
	return out
}

// Purchase buys the next rank of an upgrade with Light.
// Unknown ids, sold-out entries and missing funds are rejected without side effects.
func (r *Run) Purchase(id string) PurchaseResult {
	res := PurchaseResult{ID: id}

	u, ok := r.catalog.Get(id)
	if !ok {
		res.Reason = ReasonUnknown
		return res
	}
	res.Kind = u.Kind.String()
	if r.gameOver {
		res.Reason = ReasonGameOver
		return res
	}

	// 1. Availability and price
	rank := r.owned(u)
	res.Rank = rank
	if u.SingleUse() && rank >= 1 {
		res.Reason = ReasonSoldOut
		return res
	}
	cost := UpgradeCost(u, rank, r.stats.SaleModifier)
	res.Cost = cost
	if r.light < cost {
		res.Reason = ReasonInsufficientFunds
		return res
	}

	// 2. Pay
	r.light -= cost
	r.sink.NotifyResourceChanged(ResourceLight, r.light, 0)

	// 3. Instant actions run once, here, and never enter the purchase ledger
	if u.Kind == InstantAction {
		r.instantUses[u.ID]++
		res.Rank = r.instantUses[u.ID]
		switch u.Action {
		case ActionIslandRebuild:
			r.sink.RequestIslandRebuild()
		case ActionIslandExpand:
			r.sink.RequestIslandExpand(u.Magnitude)
		}
		res.OK = true
		return res
	}

	// 4. Stat modifiers trigger a full recompute
	r.purchased[u.ID]++
	res.Rank = r.purchased[u.ID]
	r.recompute()
	res.OK = true
	return res
}

// PassiveIncomeTick is driven once per second by an external heartbeat.
func (r *Run) PassiveIncomeTick(activeWaves int) float64 {
	if r.gameOver {
		return 0
	}
	amount := PassiveIncome(r.stats, r.light, activeWaves)
	if amount != 0 {
		r.addLight(amount)
	}
	return amount
}

// AutoEnergyTick adds the auto energy collector output, once per second.
func (r *Run) AutoEnergyTick() {
	if r.gameOver || r.stats.AutoEnergyCollectorRate <= 0 {
		return
	}
	r.energy = clamp(r.energy+r.stats.AutoEnergyCollectorRate, 0, r.stats.MaxEnergy)
	r.sink.NotifyResourceChanged(ResourceEnergy, r.energy, r.stats.MaxEnergy)
}

// AutoLightTick adds the auto light collector output, once per second.
func (r *Run) AutoLightTick() {
	if r.gameOver || r.stats.AutoLightCollectorRate <= 0 {
		return
	}
	r.addLight(r.stats.AutoLightCollectorRate * r.stats.LightMultiplier)
}

func (r *Run) addLight(amount float64) {
	r.light += amount
	if amount > 0 {
		r.tally.LightEarned += amount
	}
	r.sink.NotifyResourceChanged(ResourceLight, r.light, 0)
}
