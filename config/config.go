package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
)

// Config holds all configurable server parameters.
type Config struct {
	ListenAddr            string `json:"listen_addr"`
	ListenPort            int    `json:"listen_port"`
	SnapshotDir           string `json:"snapshot_dir"`
	IdleTurnTimeoutSec    int    `json:"idle_turn_timeout_sec"`
	RestartVoteTimeoutSec int    `json:"restart_vote_timeout_sec"`
	SpectatorIdleSec      int    `json:"spectator_idle_sec"`
	DatabaseURL           string `json:"database_url"`
}

// Defaults returns a Config with every default named in the external
// interface surface.
func Defaults() *Config {
	return &Config{
		ListenAddr:            "0.0.0.0",
		ListenPort:            9999,
		SnapshotDir:           "./data/tables",
		IdleTurnTimeoutSec:    60,
		RestartVoteTimeoutSec: 30,
		SpectatorIdleSec:      600,
	}
}

// Load reads configuration from an optional config.json file, then
// applies environment variable overrides. Fields not set in either
// source retain their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	}

	overrideString(&cfg.ListenAddr, "LISTEN_ADDR")
	overrideInt(&cfg.ListenPort, "LISTEN_PORT")
	overrideString(&cfg.SnapshotDir, "SNAPSHOT_DIR")
	overrideInt(&cfg.IdleTurnTimeoutSec, "IDLE_TURN_TIMEOUT_SEC")
	overrideInt(&cfg.RestartVoteTimeoutSec, "RESTART_VOTE_TIMEOUT_SEC")
	overrideInt(&cfg.SpectatorIdleSec, "SPECTATOR_IDLE_SECONDS")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")

	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
