/*
Package api
File: sink.go
Description:
    Broadcaster is the EventSink the server hands to the Run.

    The engine emits many notifications per frame (energy and health on every
    Update, wave progress every frame). Broadcaster coalesces them: resource
    and wave readings keep only the latest value, one-shot requests and
    feedback messages are queued in order. Flush packs everything since the
    previous flush into a single "frame" message for the Hub.
*/

package api

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/everforgeworks/lighthouse-keeper/internal/game"
)

// Resource is the latest reading of one consumable.
type Resource struct {
	Value float64 `json:"value"`
	Max   float64 `json:"max,omitempty"`
}

// WaveProgress is the latest reading of the wave timer.
type WaveProgress struct {
	SecondsRemaining  float64 `json:"seconds_remaining"`
	PhaseTotalSeconds float64 `json:"phase_total_seconds"`
}

// StatsUpdate carries a recomputed stat block.
type StatsUpdate struct {
	Revision uint64            `json:"revision"`
	Stats    game.DerivedStats `json:"stats"`
}

// Event is a one-shot notification or effect request.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Frame is everything that happened between two flushes.
type Frame struct {
	Resources       map[game.ResourceKind]Resource `json:"resources,omitempty"`
	Wave            *WaveProgress                  `json:"wave,omitempty"`
	WaveNumber      *int                           `json:"wave_number,omitempty"`
	SpawnIntervalMs *float64                       `json:"spawn_interval_ms,omitempty"`
	Stats           *StatsUpdate                   `json:"stats,omitempty"`
	Events          []Event                        `json:"events,omitempty"`
}

func (f *Frame) empty() bool {
	return len(f.Resources) == 0 && f.Wave == nil && f.WaveNumber == nil &&
		f.SpawnIntervalMs == nil && f.Stats == nil && len(f.Events) == 0
}

// Publisher receives encoded frames. *Hub implements it.
type Publisher interface {
	Publish(msg []byte) bool
}

var _ game.EventSink = (*Broadcaster)(nil)

// Broadcaster buffers engine events and publishes them as batched frames.
type Broadcaster struct {
	mu      sync.Mutex
	session string
	out     Publisher
	frame   Frame
	dropped int
}

// NewBroadcaster creates a sink for the given session. out may be nil (events are discarded on flush).
func NewBroadcaster(session string, out Publisher) *Broadcaster {
	return &Broadcaster{session: session, out: out}
}

func (b *Broadcaster) event(typ string, payload interface{}) {
	b.mu.Lock()
	b.frame.Events = append(b.frame.Events, Event{Type: typ, Payload: payload})
	b.mu.Unlock()
}

func (b *Broadcaster) NotifyResourceChanged(kind game.ResourceKind, value, max float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame.Resources == nil {
		b.frame.Resources = make(map[game.ResourceKind]Resource)
	}
	b.frame.Resources[kind] = Resource{Value: value, Max: max}
}

func (b *Broadcaster) NotifyWaveProgress(secondsRemaining, phaseTotalSeconds float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame.Wave = &WaveProgress{SecondsRemaining: secondsRemaining, PhaseTotalSeconds: phaseTotalSeconds}
}

func (b *Broadcaster) NotifyWaveNumber(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame.WaveNumber = &n
}

func (b *Broadcaster) NotifySpawnInterval(ms float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame.SpawnIntervalMs = &ms
}

func (b *Broadcaster) NotifyStatsChanged(revision uint64, stats game.DerivedStats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame.Stats = &StatsUpdate{Revision: revision, Stats: stats}
}

func (b *Broadcaster) NotifyAbilityFeedback(message string) { b.event("ability_feedback", message) }
func (b *Broadcaster) NotifyGameOver()                      { b.event("game_over", nil) }
func (b *Broadcaster) RequestTileRepair()                   { b.event("tile_repair", nil) }
func (b *Broadcaster) RequestIslandRebuild()                { b.event("island_rebuild", nil) }
func (b *Broadcaster) RequestIslandExpand(by float64)       { b.event("island_expand", by) }
func (b *Broadcaster) RequestSlowPulseEffect()              { b.event("slow_pulse", nil) }
func (b *Broadcaster) RequestBombEffect(kind game.AbilityKind) {
	b.event("bomb", kind)
}
func (b *Broadcaster) RequestLightningStrike() { b.event("lightning_strike", nil) }
func (b *Broadcaster) RequestInvulnerabilityVisual(on bool) {
	b.event("invulnerability", on)
}

// Pending returns a copy of the events queued since the last flush.
func (b *Broadcaster) Pending() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.frame.Events...)
}

// Flush publishes the buffered frame and clears it. Returns false when
// there was nothing to send or the hub dropped the message.
func (b *Broadcaster) Flush() bool {
	b.mu.Lock()
	f := b.frame
	b.frame = Frame{}
	b.mu.Unlock()

	if f.empty() || b.out == nil {
		return false
	}
	msg, err := json.Marshal(Message{Type: "frame", Payload: f, Sender: b.session})
	if err != nil {
		log.Printf("WS: encode frame: %v", err)
		return false
	}
	if !b.out.Publish(msg) {
		b.mu.Lock()
		b.dropped++
		if b.dropped%100 == 1 {
			log.Printf("WS: hub backlog, %d frames dropped", b.dropped)
		}
		b.mu.Unlock()
		return false
	}
	return true
}
