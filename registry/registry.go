// Package registry maps table names to live table.Sessions, persists
// their snapshots to disk, and restores them on startup.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/tomikazi/play9/config"
	"github.com/tomikazi/play9/game"
	"github.com/tomikazi/play9/matcherrors"
	"github.com/tomikazi/play9/table"
)

var (
	tableNameRe  = regexp.MustCompile(`^[a-z0-9_-]{1,20}$`)
	playerNameRe = regexp.MustCompile(`^[A-Za-z0-9 ]{1,20}$`)
)

// ValidTableName reports whether name satisfies the table-name grammar.
func ValidTableName(name string) bool { return tableNameRe.MatchString(name) }

// ValidPlayerName reports whether name satisfies the player-name grammar.
func ValidPlayerName(name string) bool { return playerNameRe.MatchString(name) }

// Registry owns the table-name -> Session map. The lock guards only
// creation and removal; a Session's own single-writer loop is never held
// under this lock.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*table.Session

	cfg         *config.Config
	broadcast   table.Broadcaster
	leaderboard table.LeaderboardRecorder
	log         *slog.Logger
}

// New creates an empty Registry.
func New(cfg *config.Config, b table.Broadcaster, lb table.LeaderboardRecorder, logger *slog.Logger) *Registry {
	return &Registry{
		sessions:    make(map[string]*table.Session),
		cfg:         cfg,
		broadcast:   b,
		leaderboard: lb,
		log:         logger,
	}
}

// Restore scans the snapshot directory and restores each valid file as a
// running Session. Unknown schema versions are skipped with a logged
// warning; the scan never fails the process.
func (r *Registry) Restore(ctx context.Context) {
	entries, err := os.ReadDir(r.cfg.SnapshotDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		name := e.Name()[:len(e.Name())-len(".json")]
		if !ValidTableName(name) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.cfg.SnapshotDir, e.Name()))
		if err != nil {
			if r.log != nil {
				r.log.Warn("snapshot read failed", "tag", "registry", "table", name, "err", err)
			}
			continue
		}
		var st game.State
		if err := json.Unmarshal(data, &st); err != nil {
			if r.log != nil {
				r.log.Warn("snapshot parse failed", "tag", "registry", "table", name, "err", err)
			}
			continue
		}
		if st.Version != game.CurrentSchemaVersion {
			if r.log != nil {
				r.log.Warn("snapshot unknown version, skipped", "tag", "registry", "table", name, "version", st.Version)
			}
			continue
		}
		st.ActivePlayerIDs = make(map[game.PlayerID]bool)
		r.start(ctx, name, &st)
	}
}

// GetOrCreate returns the Session for name, creating a fresh empty one if
// none exists. The table/player name grammar is validated by the caller
// (the HTTP/ws boundary) before this is reached.
func (r *Registry) GetOrCreate(ctx context.Context, name string) *table.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[name]; ok {
		return s
	}
	return r.start(ctx, name, game.NewState())
}

// Get returns the Session for name, or nil if the table does not exist.
func (r *Registry) Get(name string) *table.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[name]
}

func (r *Registry) start(ctx context.Context, name string, st *game.State) *table.Session {
	sess := table.NewSession(name, r.cfg, st, r.broadcast, r, r.leaderboard, r.log)
	r.sessions[name] = sess
	go func() {
		sess.Run(ctx)
		r.mu.Lock()
		delete(r.sessions, name)
		r.mu.Unlock()
	}()
	return sess
}

// Save implements table.Persister: atomic write-temp-then-rename of the
// full State as JSON.
func (r *Registry) Save(name string, st *game.State) error {
	if err := os.MkdirAll(r.cfg.SnapshotDir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	final := filepath.Join(r.cfg.SnapshotDir, name+".json")
	tmp := fmt.Sprintf("%s.%x.tmp", final, rand.Int63())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

// Delete implements table.Persister: removes a destroyed table's file.
func (r *Registry) Delete(name string) error {
	err := os.Remove(filepath.Join(r.cfg.SnapshotDir, name+".json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ErrTableNotFound is returned by callers that look a table up without
// creating it and find nothing.
var ErrTableNotFound = matcherrors.ErrTableNotFound
