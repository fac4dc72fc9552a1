/*
Package config
File: config.go
Description:
    Server configuration, read from LIGHTHOUSE_* environment variables.
    Unset or malformed values fall back to the defaults below.
*/

package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the runtime settings of the server.
type Config struct {
	Addr        string  // HTTP listen address
	DBPath      string  // sqlite file for the prestige record
	Store       string  // "sqlite" or "memory"
	CatalogPath string  // optional catalog override, empty = embedded catalog
	FPS         int     // frame loop rate
	Seed        int64   // RNG seed, 0 = clock
	RateLimit   float64 // requests per second per IP
	RateBurst   int
}

// Default returns the settings used when no environment is set.
func Default() Config {
	return Config{
		Addr:      ":8081",
		DBPath:    "./data/lighthouse.db",
		Store:     "sqlite",
		FPS:       30,
		RateLimit: 20,
		RateBurst: 40,
	}
}

// FromEnv reads the LIGHTHOUSE_* variables over the defaults.
func FromEnv() Config {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) Config {
	c := Default()
	if v, ok := lookup("LIGHTHOUSE_ADDR"); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup("LIGHTHOUSE_DB"); ok && v != "" {
		c.DBPath = v
	}
	if v, ok := lookup("LIGHTHOUSE_STORE"); ok && (v == "sqlite" || v == "memory") {
		c.Store = v
	}
	if v, ok := lookup("LIGHTHOUSE_CATALOG"); ok {
		c.CatalogPath = v
	}
	if v, ok := lookup("LIGHTHOUSE_FPS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 240 {
			c.FPS = n
		}
	}
	if v, ok := lookup("LIGHTHOUSE_SEED"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
	if v, ok := lookup("LIGHTHOUSE_RATE"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.RateLimit = f
		}
	}
	if v, ok := lookup("LIGHTHOUSE_BURST"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateBurst = n
		}
	}
	return c
}

// FrameInterval is the wall-clock period of one simulation frame.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}
