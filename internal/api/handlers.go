/*
Package api
File: handlers.go
Description:
    Contains the HTTP handlers for the REST API.
    These functions decode JSON requests, validate them, drive the session's
    Run and PrestigeStore (imported from internal/game), and return JSON.

    Key Responsibilities:
    - Input Validation (Is the JSON valid? Does the upgrade/archetype/relic exist?)
    - State Modification (player input and physics reports become Run calls)
    - Thread Safety (every mutation holds Server.mu, the frame loop included)
    - Fan-out (the Broadcaster is flushed after each mutation)
*/

package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sync"

	"github.com/everforgeworks/lighthouse-keeper/internal/game"
)

// Request DTOs (Data Transfer Objects)

type AbilityRequest struct {
	Kind string `json:"kind"`
}

type PurchaseRequest struct {
	UpgradeID string `json:"upgrade_id"`
}

type WaveDestroyedRequest struct {
	RewardBasis float64 `json:"reward_basis"`
}

type IDRequest struct {
	ID string `json:"id"`
}

type AscendRequest struct {
	Confirm bool `json:"confirm"`
}

// Response DTOs

// ActionResponse pairs the outcome of an operation with the state after it.
type ActionResponse struct {
	Result interface{}   `json:"result"`
	State  game.Snapshot `json:"state"`
}

type ClickResult struct {
	Overcharged bool `json:"overcharged"`
}

type WaveDestroyedResult struct {
	Reward float64 `json:"reward"`
}

type WaveHitResult struct {
	Damaged bool `json:"damaged"`
}

type WaveSpawnedResult struct {
	Lightning bool `json:"lightning"`
}

type ArchetypeView struct {
	game.Archetype
	Unlocked bool `json:"unlocked"`
	Active   bool `json:"active"`
}

type RelicView struct {
	game.Relic
	Unlocked bool `json:"unlocked"`
	Active   bool `json:"active"`
}

// PrestigeView is the prestige screen: balance, pending gain and every unlockable.
type PrestigeView struct {
	Record     game.PrestigeRecord `json:"record"`
	Pending    int                 `json:"pending"`
	Archetypes []ArchetypeView     `json:"archetypes"`
	Relics     []RelicView         `json:"relics"`
}

type AscendResult struct {
	Gained   int          `json:"gained"`
	Prestige PrestigeView `json:"prestige"`
}

// Server is one play session exposed over HTTP.
type Server struct {
	mu      sync.Mutex
	catalog *game.Catalog
	run     *game.Run
	store   *game.PrestigeStore
	sink    *Broadcaster
	hub     *Hub
	session string
}

// NewServer wires a session. hub may be nil when no websocket endpoint is wanted.
func NewServer(session string, cat *game.Catalog, run *game.Run, store *game.PrestigeStore, sink *Broadcaster, hub *Hub) *Server {
	return &Server{session: session, catalog: cat, run: run, store: store, sink: sink, hub: hub}
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Information Endpoints
	mux.HandleFunc("GET /api/state", s.handleGetState)
	mux.HandleFunc("GET /api/shop", s.handleGetShop)
	mux.HandleFunc("GET /api/prestige", s.handleGetPrestige)

	// Player Input
	mux.HandleFunc("POST /api/click", s.handleClick)
	mux.HandleFunc("POST /api/ability", s.handleAbility)
	mux.HandleFunc("POST /api/purchase", s.handlePurchase)
	mux.HandleFunc("POST /api/reset", s.handleReset)

	// Physics Collaborator Reports
	mux.HandleFunc("POST /api/wave/spawned", s.handleWaveSpawned)
	mux.HandleFunc("POST /api/wave/destroyed", s.handleWaveDestroyed)
	mux.HandleFunc("POST /api/wave/hit", s.handleWaveHit)

	// Prestige
	mux.HandleFunc("POST /api/prestige/archetype/unlock", s.handleUnlockArchetype)
	mux.HandleFunc("POST /api/prestige/archetype/select", s.handleSelectArchetype)
	mux.HandleFunc("POST /api/prestige/relic/unlock", s.handleUnlockRelic)
	mux.HandleFunc("POST /api/prestige/relic/toggle", s.handleToggleRelic)
	mux.HandleFunc("POST /api/prestige/ascend", s.handleAscend)

	// Real-Time WebSocket Endpoint
	if s.hub != nil {
		mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			welcome := Message{Type: "welcome", Payload: s.run.Snapshot(), Sender: s.session}
			s.mu.Unlock()
			ServeWs(s.hub, welcome, w, r)
		})
	}
	return mux
}

// Frame advances the simulation by deltaMs and publishes the resulting events.
// Flushing under s.mu keeps frames in the order their events were produced.
func (s *Server) Frame(deltaMs float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.Update(deltaMs)
	s.sink.Flush()
}

// Heartbeat runs the once-per-second income effects.
func (s *Server) Heartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.PassiveIncomeTick(s.run.ActiveWaves())
	s.run.AutoEnergyTick()
	s.run.AutoLightTick()
	s.sink.Flush()
}

// Reload swaps in a new catalog. Purchases and the prestige record are kept.
func (s *Server) Reload(cat *game.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = cat
	s.store.SetCatalog(cat)
	s.run.SetCatalog(cat)
	s.sink.Flush()
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// respond writes the result with a fresh snapshot and flushes the sink.
// Callers hold s.mu.
func (s *Server) respond(w http.ResponseWriter, result interface{}) {
	writeJSON(w, ActionResponse{Result: result, State: s.run.Snapshot()})
	s.sink.Flush()
}

// prestigeView builds the prestige screen. Callers hold s.mu.
func (s *Server) prestigeView() PrestigeView {
	rec := s.store.Record()
	v := PrestigeView{
		Record:     rec,
		Pending:    s.store.PendingMetaCurrency(s.run.Light(), s.run.WaveNumber()),
		Archetypes: []ArchetypeView{},
		Relics:     []RelicView{},
	}
	for _, a := range s.catalog.Archetypes() {
		v.Archetypes = append(v.Archetypes, ArchetypeView{
			Archetype: a,
			Unlocked:  contains(rec.UnlockedArchetypes, string(a.ID)),
			Active:    rec.ActiveArchetype == string(a.ID),
		})
	}
	for _, r := range s.catalog.Relics() {
		v.Relics = append(v.Relics, RelicView{
			Relic:    r,
			Unlocked: contains(rec.UnlockedRelics, r.ID),
			Active:   contains(rec.ActiveRelics, r.ID),
		})
	}
	return v
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// --- Information ---

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.run.Snapshot())
}

func (s *Server) handleGetShop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.run.Offers())
}

func (s *Server) handleGetPrestige(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.prestigeView())
}

// --- Player Input ---

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run.IsGameOver() {
		http.Error(w, "Game over", http.StatusConflict)
		return
	}
	s.respond(w, ClickResult{Overcharged: s.run.HandleClick()})
}

func (s *Server) handleAbility(w http.ResponseWriter, r *http.Request) {
	var req AbilityRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.run.ActivateAbility(game.AbilityKind(req.Kind))
	switch res.Reason {
	case game.ReasonUnknown:
		http.Error(w, "Ability not found", http.StatusNotFound)
		return
	case game.ReasonLocked:
		http.Error(w, "Ability locked", http.StatusConflict)
		return
	case game.ReasonCooldown:
		// The cooldown feedback message still goes out to renderers.
		s.sink.Flush()
		http.Error(w, fmt.Sprintf("Ability on cooldown for %ds", int(math.Ceil(res.RemainingMs/1000))), http.StatusConflict)
		return
	case game.ReasonGameOver:
		http.Error(w, "Game over", http.StatusConflict)
		return
	}
	s.respond(w, res)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.run.Purchase(req.UpgradeID)
	switch res.Reason {
	case game.ReasonUnknown:
		http.Error(w, "Upgrade not found", http.StatusNotFound)
		return
	case game.ReasonInsufficientFunds:
		http.Error(w, fmt.Sprintf("Insufficient Light: need %.0f", res.Cost), http.StatusPaymentRequired)
		return
	case game.ReasonSoldOut:
		http.Error(w, "Upgrade already owned", http.StatusConflict)
		return
	case game.ReasonGameOver:
		http.Error(w, "Game over", http.StatusConflict)
		return
	}
	s.respond(w, res)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run.FullReset()
	s.respond(w, nil)
}

// --- Physics Collaborator Reports ---

func (s *Server) handleWaveSpawned(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respond(w, WaveSpawnedResult{Lightning: s.run.OnWaveSpawned()})
}

func (s *Server) handleWaveDestroyed(w http.ResponseWriter, r *http.Request) {
	var req WaveDestroyedRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if req.RewardBasis < 0 || math.IsNaN(req.RewardBasis) {
		http.Error(w, "reward_basis must be non-negative", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.respond(w, WaveDestroyedResult{Reward: s.run.OnWaveDestroyed(req.RewardBasis)})
}

func (s *Server) handleWaveHit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respond(w, WaveHitResult{Damaged: s.run.OnWaveReachedLighthouse()})
}

// --- Prestige ---

func (s *Server) handleUnlockArchetype(w http.ResponseWriter, r *http.Request) {
	var req IDRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Archetype(game.ArchetypeID(req.ID)); !ok {
		http.Error(w, "Archetype not found", http.StatusNotFound)
		return
	}
	if !s.store.UnlockArchetype(game.ArchetypeID(req.ID)) {
		http.Error(w, "Insufficient Aether", http.StatusPaymentRequired)
		return
	}
	writeJSON(w, s.prestigeView())
}

func (s *Server) handleSelectArchetype(w http.ResponseWriter, r *http.Request) {
	var req IDRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Archetype(game.ArchetypeID(req.ID)); !ok {
		http.Error(w, "Archetype not found", http.StatusNotFound)
		return
	}
	if !s.store.SetActiveArchetype(game.ArchetypeID(req.ID)) {
		http.Error(w, "Archetype locked", http.StatusConflict)
		return
	}
	s.run.RefreshPrestige()
	writeJSON(w, s.prestigeView())
	s.sink.Flush()
}

func (s *Server) handleUnlockRelic(w http.ResponseWriter, r *http.Request) {
	var req IDRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Relic(req.ID); !ok {
		http.Error(w, "Relic not found", http.StatusNotFound)
		return
	}
	if !s.store.UnlockRelic(req.ID) {
		http.Error(w, "Insufficient Aether", http.StatusPaymentRequired)
		return
	}
	writeJSON(w, s.prestigeView())
}

func (s *Server) handleToggleRelic(w http.ResponseWriter, r *http.Request) {
	var req IDRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Relic(req.ID); !ok {
		http.Error(w, "Relic not found", http.StatusNotFound)
		return
	}
	if _, ok := s.store.ToggleActiveRelic(req.ID); !ok {
		http.Error(w, "Relic locked", http.StatusConflict)
		return
	}
	s.run.RefreshPrestige()
	writeJSON(w, s.prestigeView())
	s.sink.Flush()
}

// handleAscend banks the pending Aether and restarts the run. It is
// irreversible, so the body must carry {"confirm": true}.
func (s *Server) handleAscend(w http.ResponseWriter, r *http.Request) {
	var req AscendRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if !req.Confirm {
		http.Error(w, "Prestige requires confirmation", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	gained := s.store.Prestige(s.run.Light(), s.run.WaveNumber())
	s.run.FullReset()
	s.respond(w, AscendResult{Gained: gained, Prestige: s.prestigeView()})
}
