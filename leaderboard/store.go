// Package leaderboard persists cumulative per-player standings across
// tables. It is purely additive telemetry: a nil *Store is a fully
// functional no-op, so the table session never needs to branch on
// whether persistence is configured.
package leaderboard

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS player_standings (
    player_name  TEXT PRIMARY KEY,
    games_played INT NOT NULL DEFAULT 0,
    games_won    INT NOT NULL DEFAULT 0,
    total_score  INT NOT NULL DEFAULT 0,
    best_round   INT,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Store is a Postgres-backed leaderboard. Every method is a nil-receiver
// safe no-op so callers never need to check whether a database is
// configured.
type Store struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewStore connects to databaseURL and ensures the schema exists. An
// empty databaseURL returns (nil, nil): a valid, inert store.
func NewStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, log: logger}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Entry is one row of the leaderboard.
type Entry struct {
	PlayerName  string  `json:"player_name"`
	GamesPlayed int     `json:"games_played"`
	GamesWon    int     `json:"games_won"`
	TotalScore  int     `json:"total_score"`
	BestRound   *int    `json:"best_round,omitempty"`
	AverageScore float64 `json:"average_score"`
}

// RecordGameEnd upserts one row per player in finalScores, incrementing
// games_played, games_won (for winner), and total_score. A player's entry
// in bestRounds, when present, is folded in only if it improves (lowers)
// the stored value.
func (s *Store) RecordGameEnd(ctx context.Context, finalScores map[string]int, winner string, bestRounds map[string]int) error {
	if s == nil || s.pool == nil {
		return nil
	}
	for name, score := range finalScores {
		won := 0
		if name == winner {
			won = 1
		}
		var best any
		if br, ok := bestRounds[name]; ok {
			best = br
		}
		_, err := s.pool.Exec(ctx, `
			INSERT INTO player_standings (player_name, games_played, games_won, total_score, best_round, updated_at)
			VALUES ($1, 1, $2, $3, $4, now())
			ON CONFLICT (player_name) DO UPDATE SET
				games_played = player_standings.games_played + 1,
				games_won    = player_standings.games_won + $2,
				total_score  = player_standings.total_score + $3,
				best_round   = LEAST(COALESCE(player_standings.best_round, $4), COALESCE($4, player_standings.best_round)),
				updated_at   = now()
		`, name, won, score, best)
		if err != nil {
			if s.log != nil {
				s.log.Error("record game end failed", "tag", "leaderboard", "player", name, "err", err)
			}
			return err
		}
	}
	return nil
}

// ListLeaderboard returns entries ordered by average score ascending
// (lowest wins in golf), then games played descending.
func (s *Store) ListLeaderboard(ctx context.Context, limit, offset int) ([]Entry, error) {
	if s == nil || s.pool == nil {
		return []Entry{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT player_name, games_played, games_won, total_score, best_round
		FROM player_standings
		WHERE games_played > 0
		ORDER BY (total_score::float / games_played) ASC, games_played DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.PlayerName, &e.GamesPlayed, &e.GamesWon, &e.TotalScore, &e.BestRound); err != nil {
			return nil, err
		}
		if e.GamesPlayed > 0 {
			e.AverageScore = float64(e.TotalScore) / float64(e.GamesPlayed)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
