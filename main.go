/*
Package main
File: main.go
Description: Server entry point. Loads the catalog and the prestige record, builds the
play session, starts the real-time WebSocket hub, and runs the frame loop and the
once-per-second income heartbeat that keep the lighthouse alive.
*/

package main

import (
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/everforgeworks/lighthouse-keeper/internal/api"
	"github.com/everforgeworks/lighthouse-keeper/internal/config"
	"github.com/everforgeworks/lighthouse-keeper/internal/game"
	"github.com/everforgeworks/lighthouse-keeper/internal/storage"
	"github.com/google/uuid"
)

func loadCatalog(path string) (*game.Catalog, error) {
	if path == "" {
		return game.DefaultCatalog()
	}
	return game.LoadCatalog(path)
}

func main() {
	cfg := config.FromEnv()

	// 1. Load the upgrade catalog (embedded default or LIGHTHOUSE_CATALOG)
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Catalog Fail: %v", err)
	}

	// 2. Prestige persistence
	var persist game.PrestigePersistence
	switch cfg.Store {
	case "memory":
		persist = storage.NewMemoryStore()
		log.Println("STORE: in-memory, prestige will not survive a restart")
	default:
		db, err := storage.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatalf("Store Fail: %v", err)
		}
		defer db.Close()
		persist = db
		log.Printf("STORE: sqlite at %s", cfg.DBPath)
	}
	store := game.NewPrestigeStore(cat, persist, log.Default())

	// 3. Real-Time WebSocket Hub and the session that feeds it
	hub := api.NewHub()
	go hub.Run()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	session := uuid.NewString()
	sink := api.NewBroadcaster(session, hub)
	run := game.NewRun(cat, store, sink, rand.New(rand.NewSource(seed)))
	srv := api.NewServer(session, cat, run, store, sink, hub)
	log.Printf("Session %s started (seed %d, %d Aether banked)", session, seed, store.MetaCurrency())

	// 4. THE FRAME LOOP
	// Advances the simulation by the measured wall-clock delta.
	go func() {
		ticker := time.NewTicker(cfg.FrameInterval())
		defer ticker.Stop()
		last := time.Now()
		for now := range ticker.C {
			srv.Frame(float64(now.Sub(last)) / float64(time.Millisecond))
			last = now
		}
	}()

	// 5. THE INCOME HEARTBEAT
	// Interest, auto-energy and auto-light, once per second.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			srv.Heartbeat()
		}
	}()

	// 6. Hot-reload logic: Listen for SIGHUP to refresh the catalog without restart
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGHUP)
		for {
			<-sigChan
			log.Println("SIGNAL: Reloading catalog...")
			next, err := loadCatalog(cfg.CatalogPath)
			if err != nil {
				log.Printf("SIGNAL: reload failed, keeping current catalog: %v", err)
				continue
			}
			srv.Reload(next)
		}
	}()

	// 7. Start the Server
	limiter := api.NewIPLimiter(cfg.RateLimit, cfg.RateBurst)
	handler := api.CORSMiddleware(limiter.Middleware(srv.Routes()))

	log.Printf("LIGHTHOUSE KEEPER Server live on %s", cfg.Addr)
	log.Printf("Real-time Hub: Online (%d fps)", cfg.FPS)

	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal(err)
	}
}
