/*
Package game
File: sink.go
Description:
    EventSink is the outward boundary of the engine: display refreshes and
    one-shot effect requests for the renderer/physics collaborator.
    The engine calls it synchronously from inside its own operations.
*/

package game

// EventSink receives every observable effect produced by a Run.
type EventSink interface {
	NotifyResourceChanged(kind ResourceKind, value, max float64)
	NotifyWaveProgress(secondsRemaining, phaseTotalSeconds float64)
	NotifyWaveNumber(n int)
	NotifyAbilityFeedback(message string)
	NotifySpawnInterval(ms float64)
	NotifyStatsChanged(revision uint64, stats DerivedStats)
	NotifyGameOver()

	RequestTileRepair()
	RequestIslandRebuild()
	RequestIslandExpand(by float64)
	RequestSlowPulseEffect()
	RequestBombEffect(kind AbilityKind)
	RequestLightningStrike()
	RequestInvulnerabilityVisual(on bool)
}

// NopSink discards everything. Used for headless runs.
type NopSink struct{}

func (NopSink) NotifyResourceChanged(ResourceKind, float64, float64) {}
func (NopSink) NotifyWaveProgress(float64, float64)                  {}
func (NopSink) NotifyWaveNumber(int)                                 {}
func (NopSink) NotifyAbilityFeedback(string)                         {}
func (NopSink) NotifySpawnInterval(float64)                          {}
func (NopSink) NotifyStatsChanged(uint64, DerivedStats)              {}
func (NopSink) NotifyGameOver()                                      {}
func (NopSink) RequestTileRepair()                                   {}
func (NopSink) RequestIslandRebuild()                                {}
func (NopSink) RequestIslandExpand(float64)                          {}
func (NopSink) RequestSlowPulseEffect()                              {}
func (NopSink) RequestBombEffect(AbilityKind)                        {}
func (NopSink) RequestLightningStrike()                              {}
func (NopSink) RequestInvulnerabilityVisual(bool)                    {}
