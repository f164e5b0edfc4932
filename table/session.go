// Package table owns a single authoritative game.State and serializes
// every intent applied to it through one logical writer, per the
// single-writer concurrency discipline: at most one engine transition is
// ever in flight for a given table.
package table

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tomikazi/play9/config"
	"github.com/tomikazi/play9/game"
)

// Broadcaster fans a table's snapshot out to every subscriber.
type Broadcaster interface {
	Broadcast(table string, snap *game.Snapshot)
}

// Persister durably stores (or removes) a table's committed state.
type Persister interface {
	Save(table string, state *game.State) error
	Delete(table string) error
}

// LeaderboardRecorder records a completed game's final standings. A nil
// implementation is a legal, silent no-op.
type LeaderboardRecorder interface {
	RecordGameEnd(ctx context.Context, finalScores map[string]int, winner string, bestRounds map[string]int) error
}

type request struct {
	intent game.Intent
	reply  chan response
}

type response struct {
	event *game.Event
	rej   *game.Rejection
}

// Session is the single-writer owner of one table's state, timers, and
// broadcast set.
type Session struct {
	Name string

	cfg         *config.Config
	broadcast   Broadcaster
	persist     Persister
	leaderboard LeaderboardRecorder
	log         *slog.Logger
	now         func() time.Time

	state *game.State

	createdAt             time.Time
	spectatorCount        int
	lastNonEmptyOrSpecAct time.Time

	reqCh       chan request
	spectCh     chan int // delta, +1 on connect / -1 on disconnect
	destroyCh   chan struct{}
	destroyOnce sync.Once
}

// NewSession creates a Session over an initial state (fresh or restored
// from a snapshot).
func NewSession(name string, cfg *config.Config, st *game.State, b Broadcaster, p Persister, lb LeaderboardRecorder, logger *slog.Logger) *Session {
	now := time.Now()
	return &Session{
		Name:                  name,
		cfg:                   cfg,
		broadcast:             b,
		persist:               p,
		leaderboard:           lb,
		log:                   logger,
		now:                   time.Now,
		state:                 st,
		createdAt:             now,
		lastNonEmptyOrSpecAct: now,
		reqCh:                 make(chan request),
		spectCh:               make(chan int),
		destroyCh:             make(chan struct{}),
	}
}

// Submit enqueues an intent and blocks for its result. Safe for
// concurrent callers; the session loop applies at most one at a time.
func (s *Session) Submit(in game.Intent) (*game.Event, *game.Rejection) {
	reply := make(chan response, 1)
	s.reqCh <- request{intent: in, reply: reply}
	r := <-reply
	return r.event, r.rej
}

// NotifySpectator adjusts the live spectator-connection count, used for
// the spectator-only idle destruction rule.
func (s *Session) NotifySpectator(delta int) {
	s.spectCh <- delta
}

// Destroyed signals when the session should be torn down (either by the
// normal last-player-left rule or spectator-only idle timeout); the
// registry should stop routing to this session after receiving on it.
func (s *Session) Destroyed() <-chan struct{} {
	return s.destroyCh
}

// Snapshot returns the current wire-ready snapshot (for the HTTP GET
// surface); safe to call from any goroutine, but is eventually consistent
// with the session loop — it reads under no lock, so callers that need a
// committed-transition boundary should use Submit instead.
func (s *Session) Snapshot() *game.Snapshot {
	return game.BuildSnapshot(s.state, "")
}

// Run drives the session's single-writer loop until ctx is cancelled or
// the table is destroyed.
func (s *Session) Run(ctx context.Context) {
	idleTimer := time.NewTimer(s.idleTurnDuration())
	if !s.idleArmed() {
		stopTimer(idleTimer)
	}
	restartTimer := time.NewTimer(time.Hour)
	stopTimer(restartTimer)
	janitor := time.NewTicker(30 * time.Second)
	defer janitor.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case req := <-s.reqCh:
			if s.handle(req, idleTimer, restartTimer) {
				return
			}

		case delta := <-s.spectCh:
			s.spectatorCount += delta
			if s.spectatorCount < 0 {
				s.spectatorCount = 0
			}
			if s.spectatorCount > 0 || len(s.state.Players) > 0 {
				s.lastNonEmptyOrSpecAct = s.now()
			}

		case <-idleTimer.C:
			s.fireIdleTurn(idleTimer)

		case <-restartTimer.C:
			s.fireRestartTimeout(restartTimer)

		case <-janitor.C:
			if s.shouldDestroy() {
				s.destroy()
				return
			}
		}
	}
}

// handle applies req.intent and reports whether the table should now be
// torn down (Run must return immediately rather than wait for the janitor).
func (s *Session) handle(req request, idleTimer, restartTimer *time.Timer) bool {
	prevPhase := s.state.Phase
	prevRound := s.state.RoundNum
	var prevCurrent game.PlayerID
	if cur := s.state.CurrentPlayer(); cur != nil {
		prevCurrent = cur.ID
	}
	out, ev, rej := game.Apply(s.state, req.intent)
	if rej != nil {
		req.reply <- response{rej: rej}
		return false
	}
	s.state = out
	destroyed := s.afterCommit(prevPhase, prevRound, prevCurrent, req.intent, ev, idleTimer, restartTimer)
	req.reply <- response{event: ev}
	return destroyed
}

// afterCommit persists, broadcasts, re-arms timers, and fires the
// leaderboard hook for a freshly committed state. It reports whether the
// table emptied out and should be destroyed.
//
// A heartbeat changes nothing observers care about, so it skips the
// broadcast entirely. The idle-turn timer only belongs to the player whose
// turn it is: it is only reset when that player is the one who just acted
// (or play was just entered), never by some other seated player's or
// spectator's heartbeat. Likewise the restart-vote timer is only (re)armed
// by the intents that actually move the vote along, not by unrelated
// traffic, so a stalled vote can still lapse on schedule.
func (s *Session) afterCommit(prevPhase game.Phase, prevRound int, prevCurrent game.PlayerID, in game.Intent, ev *game.Event, idleTimer, restartTimer *time.Timer) bool {
	heartbeatOnly := ev != nil && ev.Kind == game.EventHeartbeatOnly

	if s.persist != nil {
		if err := s.persist.Save(s.Name, s.state); err != nil && s.log != nil {
			s.log.Error("snapshot save failed", "tag", "table", "table", s.Name, "err", err)
		}
	}
	if s.broadcast != nil && !heartbeatOnly {
		s.broadcast.Broadcast(s.Name, game.BuildSnapshot(s.state, ""))
	}

	phaseEnteredPlay := s.state.Phase == game.PhasePlay && prevPhase != game.PhasePlay
	actorIsPrevCurrent := prevCurrent != "" && in.Actor == prevCurrent
	switch {
	case s.state.Phase != game.PhasePlay:
		stopTimer(idleTimer)
	case phaseEnteredPlay || actorIsPrevCurrent:
		idleTimer.Reset(s.idleTurnDuration())
	}

	if s.state.Restart.Pending() {
		if in.Type == game.IntentRequestRestart || in.Type == game.IntentVoteRestart {
			restartTimer.Reset(s.restartVoteDuration())
		}
	} else {
		stopTimer(restartTimer)
	}

	if prevPhase != game.PhaseScoring && s.state.Phase == game.PhaseScoring && prevRound == 9 {
		s.recordGameEnd()
	}

	if len(s.state.Players) == 0 && s.state.Phase == game.PhaseEmpty {
		if s.persist != nil {
			_ = s.persist.Delete(s.Name)
		}
		s.destroy()
		return true
	}
	return false
}

// destroy closes destroyCh exactly once; both the janitor's spectator-idle
// check and afterCommit's empty-table check may race to call this.
func (s *Session) destroy() {
	s.destroyOnce.Do(func() { close(s.destroyCh) })
}

func (s *Session) recordGameEnd() {
	if s.leaderboard == nil {
		return
	}
	finalScores := make(map[string]int, len(s.state.Players))
	bestRounds := make(map[string]int, len(s.state.Players))
	winner := ""
	lowest := 0
	for i, p := range s.state.Players {
		finalScores[p.Name] = s.state.Scores[p.ID]
		bestRounds[p.Name] = s.state.BestRoundScore[p.ID]
		if i == 0 || s.state.Scores[p.ID] < lowest {
			lowest = s.state.Scores[p.ID]
			winner = p.Name
		}
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.leaderboard.RecordGameEnd(ctx, finalScores, winner, bestRounds); err != nil && s.log != nil {
			s.log.Error("leaderboard record failed", "tag", "table", "table", s.Name, "err", err)
		}
	}()
}

// fireIdleTurn synthesizes the minimum legal action for the current
// player: draw from draw, discard it, flip a face-down card if required.
func (s *Session) fireIdleTurn(idleTimer *time.Timer) {
	if s.state.Phase != game.PhasePlay {
		return
	}
	cur := s.state.CurrentPlayer()
	if cur == nil {
		return
	}
	name := cur.Name
	now := s.now().Unix()
	prevPhase, prevRound := s.state.Phase, s.state.RoundNum

	out, _, rej := game.Apply(s.state, game.Intent{Type: game.IntentDrawFromDraw, Actor: cur.ID, NowEpoch: now})
	if rej != nil {
		return
	}
	s.state = out
	out, _, rej = game.Apply(s.state, game.Intent{Type: game.IntentPlayDiscardOnly, Actor: cur.ID, NowEpoch: now})
	if rej != nil {
		return
	}
	s.state = out
	if s.state.MustFlipAfterDiscard {
		p, _ := s.state.PlayerByID(cur.ID)
		out, _, rej = game.Apply(s.state, game.Intent{Type: game.IntentPlayFlipAfterDiscard, Actor: cur.ID, CardIndex: p.Hand.FirstFaceDown(), NowEpoch: now})
		if rej == nil {
			s.state = out
		}
	}

	if s.persist != nil {
		_ = s.persist.Save(s.Name, s.state)
	}
	if s.broadcast != nil {
		s.broadcast.Broadcast(s.Name, game.BuildSnapshot(s.state, name))
	}
	if s.state.Phase == game.PhasePlay {
		idleTimer.Reset(s.idleTurnDuration())
	} else {
		stopTimer(idleTimer)
	}
	if prevPhase != game.PhaseScoring && s.state.Phase == game.PhaseScoring && prevRound == 9 {
		s.recordGameEnd()
	}
}

// fireRestartTimeout clears a lapsed restart vote without error.
func (s *Session) fireRestartTimeout(restartTimer *time.Timer) {
	if !s.state.Restart.Pending() {
		return
	}
	out := s.state.Clone()
	out.Restart = nil
	s.state = out
	if s.persist != nil {
		_ = s.persist.Save(s.Name, s.state)
	}
	if s.broadcast != nil {
		s.broadcast.Broadcast(s.Name, game.BuildSnapshot(s.state, ""))
	}
	stopTimer(restartTimer)
}

func (s *Session) shouldDestroy() bool {
	if len(s.state.Players) != 0 || s.state.Phase != game.PhaseEmpty {
		return false
	}
	if s.spectatorCount > 0 {
		return false
	}
	return s.now().Sub(s.lastNonEmptyOrSpecAct) >= s.spectatorIdleDuration()
}

func (s *Session) idleArmed() bool { return s.state.Phase == game.PhasePlay }

func (s *Session) idleTurnDuration() time.Duration {
	return time.Duration(s.cfg.IdleTurnTimeoutSec) * time.Second
}

func (s *Session) restartVoteDuration() time.Duration {
	return time.Duration(s.cfg.RestartVoteTimeoutSec) * time.Second
}

func (s *Session) spectatorIdleDuration() time.Duration {
	return time.Duration(s.cfg.SpectatorIdleSec) * time.Second
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
