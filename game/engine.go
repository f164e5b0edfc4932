package game

const (
	minPlayers = 2
	maxPlayers = 8
)

// Apply is the pure state-transition function: given a State and an
// Intent it returns either a new State and the Event describing what
// happened, or a Rejection that leaves the input State's meaning
// untouched (the caller must not use the returned state on rejection).
//
// Apply never mutates its input; every handler works on a Clone.
func Apply(s *State, in Intent) (*State, *Event, *Rejection) {
	switch in.Type {
	case IntentJoin:
		return applyJoin(s, in)
	case IntentReconnect:
		return applyReconnect(s, in)
	case IntentDisconnect:
		return applyDisconnect(s, in)
	case IntentLeave:
		return applyLeave(s, in)
	case IntentHeartbeat:
		return applyHeartbeat(s, in)
	case IntentStart:
		return applyStart(s, in)
	case IntentReveal:
		return applyReveal(s, in)
	case IntentDrawFromDraw:
		return applyDrawFromDraw(s, in)
	case IntentDrawFromDiscard:
		return applyDrawFromDiscard(s, in)
	case IntentPlayReplace:
		return applyPlayReplace(s, in)
	case IntentPlayDiscardOnly:
		return applyPlayDiscardOnly(s, in)
	case IntentPlayFlipAfterDiscard:
		return applyPlayFlipAfterDiscard(s, in)
	case IntentPlayPutBack:
		return applyPlayPutBack(s, in)
	case IntentAdvanceScoring:
		return applyAdvanceScoring(s, in)
	case IntentRequestRestart:
		return applyRequestRestart(s, in)
	case IntentVoteRestart:
		return applyVoteRestart(s, in)
	case IntentVoteRestartNo:
		return applyVoteRestartNo(s, in)
	default:
		return nil, nil, reject(ErrInvalidInput, "unknown intent type")
	}
}

// Describe renders an intent as a short string for logging; it is never
// used on a decision path.
func Describe(in Intent) string {
	if in.Actor != "" {
		return string(in.Type) + " actor=" + string(in.Actor)
	}
	return string(in.Type)
}

func requireCurrentPlayer(s *State, actor PlayerID) (*Player, int, *Rejection) {
	p, idx := s.PlayerByID(actor)
	if p == nil {
		return nil, -1, reject(ErrNotAPlayer, "actor is not seated at this table")
	}
	cur := s.CurrentPlayer()
	if cur == nil || cur.ID != actor {
		return nil, -1, reject(ErrNotYourTurn, "it is not actor's turn")
	}
	return p, idx, nil
}

func applyJoin(s *State, in Intent) (*State, *Event, *Rejection) {
	if in.Name == "" {
		return nil, nil, reject(ErrInvalidName, "player name is empty")
	}
	if existing, _ := s.PlayerByName(in.Name); existing != nil {
		out := s.Clone()
		p, _ := out.PlayerByName(in.Name)
		p.LastActiveEpoch = in.NowEpoch
		out.ActivePlayerIDs[p.ID] = true
		out.PlayerLastActive[p.ID] = in.NowEpoch
		return out, &Event{Kind: EventPlayerSeated, PlayerID: p.ID}, nil
	}
	if s.Phase != PhaseEmpty && s.Phase != PhaseWaiting {
		return nil, nil, reject(ErrGameAlreadyStarted, "game already started")
	}
	if len(s.Players) >= maxPlayers {
		return nil, nil, reject(ErrTableFull, "table is full")
	}
	out := s.Clone()
	np := NewPlayer(in.Actor, in.Name, in.NowEpoch)
	out.Players = append(out.Players, np)
	out.ActivePlayerIDs[np.ID] = true
	out.PlayerLastActive[np.ID] = in.NowEpoch
	out.Scores[np.ID] = 0
	if out.Phase == PhaseEmpty {
		out.Phase = PhaseWaiting
	}
	return out, &Event{Kind: EventPlayerJoined, PlayerID: np.ID}, nil
}

// applyReconnect restores presence for a connection that reopens against
// an already-seated player, without the client having to replay IntentJoin
// (which needs the display name the websocket boundary never carries). A
// websocket connection submits this once, on open, for every non-spectator
// client. An actor id that isn't actually seated (a stale or forged id) is
// a silent no-op: ServeWS has no cheaper way to know in advance, and this
// must never be a path to seating a new player.
func applyReconnect(s *State, in Intent) (*State, *Event, *Rejection) {
	p, _ := s.PlayerByID(in.Actor)
	if p == nil {
		return s.Clone(), &Event{Kind: EventHeartbeatOnly}, nil
	}
	out := s.Clone()
	out.ActivePlayerIDs[in.Actor] = true
	out.PlayerLastActive[in.Actor] = in.NowEpoch
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}

func applyDisconnect(s *State, in Intent) (*State, *Event, *Rejection) {
	p, _ := s.PlayerByID(in.Actor)
	if p == nil {
		return nil, nil, reject(ErrNotAPlayer, "actor is not seated at this table")
	}
	out := s.Clone()
	delete(out.ActivePlayerIDs, in.Actor)
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}

func applyLeave(s *State, in Intent) (*State, *Event, *Rejection) {
	p, idx := s.PlayerByID(in.Actor)
	if p == nil {
		// Idempotent: leaving twice is a no-op, not a rejection.
		return s.Clone(), &Event{Kind: EventStateChanged}, nil
	}
	out := s.Clone()
	out.Players = append(out.Players[:idx], out.Players[idx+1:]...)
	delete(out.ActivePlayerIDs, in.Actor)
	delete(out.PlayerLastActive, in.Actor)
	delete(out.Scores, in.Actor)
	delete(out.RoundScores, in.Actor)
	delete(out.BestRoundScore, in.Actor)
	if len(out.Players) == 0 {
		out.Phase = PhaseEmpty
	} else if out.CurrentPlayerIdx >= len(out.Players) {
		out.CurrentPlayerIdx = 0
	}
	return out, &Event{Kind: EventStateChanged}, nil
}

// applyHeartbeat is a no-op for spectators (in.Actor == ""): they aren't
// seated, so there is nothing to mark active. A seated player's heartbeat
// updates their last-active timestamp only.
func applyHeartbeat(s *State, in Intent) (*State, *Event, *Rejection) {
	if in.Actor == "" {
		return s.Clone(), &Event{Kind: EventHeartbeatOnly}, nil
	}
	if _, idx := s.PlayerByID(in.Actor); idx == -1 {
		return nil, nil, reject(ErrNotAPlayer, "actor is not seated at this table")
	}
	out := s.Clone()
	out.PlayerLastActive[in.Actor] = in.NowEpoch
	return out, &Event{Kind: EventHeartbeatOnly, PlayerID: in.Actor}, nil
}

func applyStart(s *State, in Intent) (*State, *Event, *Rejection) {
	if s.Phase != PhaseWaiting {
		return nil, nil, reject(ErrWrongPhase, "start is only legal in waiting")
	}
	if len(s.Players) < minPlayers {
		return nil, nil, reject(ErrInvalidInput, "need at least 2 players to start")
	}
	out := s.Clone()
	out.DealerIdx = len(out.Players) - 1
	deal(out)
	out.RoundNum = 1
	out.CurrentPlayerIdx = (out.DealerIdx + 1) % len(out.Players)
	out.Phase = PhaseReveal
	return out, &Event{Kind: EventStateChanged}, nil
}

func applyReveal(s *State, in Intent) (*State, *Event, *Rejection) {
	if s.Phase != PhaseReveal {
		return nil, nil, reject(ErrWrongPhase, "reveal is only legal during reveal")
	}
	p, _ := s.PlayerByID(in.Actor)
	if p == nil {
		return nil, nil, reject(ErrNotAPlayer, "actor is not seated at this table")
	}
	if p.RevealedCount >= 2 {
		return nil, nil, reject(ErrIllegalTarget, "actor has already revealed 2 cards")
	}
	if in.CardIndex < 0 || in.CardIndex > 7 {
		return nil, nil, reject(ErrInvalidInput, "card_index out of range")
	}
	out := s.Clone()
	op, _ := out.PlayerByID(in.Actor)
	if op.Hand[in.CardIndex].FaceUp {
		return nil, nil, reject(ErrIllegalTarget, "card is already face-up")
	}
	op.Hand[in.CardIndex].FaceUp = true
	op.RevealedCount++
	out.LastAffectedCard = &LastAffectedCard{PlayerID: in.Actor, CardIndex: in.CardIndex}

	allReady := true
	for _, pl := range out.Players {
		if pl.RevealedCount < 2 {
			allReady = false
			break
		}
	}
	if allReady {
		out.Phase = PhasePlay
	}
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}

func applyDrawFromDraw(s *State, in Intent) (*State, *Event, *Rejection) {
	if s.Phase != PhasePlay {
		return nil, nil, reject(ErrWrongPhase, "draw is only legal during play")
	}
	_, _, rej := requireCurrentPlayer(s, in.Actor)
	if rej != nil {
		return nil, nil, rej
	}
	if s.DrawnCard != nil {
		return nil, nil, reject(ErrIllegalTarget, "a card has already been drawn this turn")
	}
	if s.MustFlipAfterDiscard {
		return nil, nil, reject(ErrIllegalTarget, "must flip a face-down card first")
	}
	out := s.Clone()
	reshuffleDrawPileIfEmpty(out)
	if len(out.DrawPile) == 0 {
		return nil, nil, reject(ErrIllegalTarget, "draw pile is empty and cannot be reshuffled")
	}
	n := len(out.DrawPile)
	card := out.DrawPile[n-1]
	out.DrawPile = out.DrawPile[:n-1]
	out.DrawnCard = &card
	out.DrawnFrom = DrawnFromDraw
	reshuffleDrawPileIfEmpty(out)
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}

func applyDrawFromDiscard(s *State, in Intent) (*State, *Event, *Rejection) {
	if s.Phase != PhasePlay {
		return nil, nil, reject(ErrWrongPhase, "draw is only legal during play")
	}
	if _, _, rej := requireCurrentPlayer(s, in.Actor); rej != nil {
		return nil, nil, rej
	}
	if s.DrawnCard != nil {
		return nil, nil, reject(ErrIllegalTarget, "a card has already been drawn this turn")
	}
	if s.MustFlipAfterDiscard {
		return nil, nil, reject(ErrIllegalTarget, "must flip a face-down card first")
	}
	if len(s.DiscardPile) == 0 {
		return nil, nil, reject(ErrIllegalTarget, "discard pile is empty")
	}
	out := s.Clone()
	n := len(out.DiscardPile)
	card := out.DiscardPile[n-1]
	out.DiscardPile = out.DiscardPile[:n-1]
	out.DrawnCard = &card
	out.DrawnFrom = DrawnFromDiscard
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}

func applyPlayReplace(s *State, in Intent) (*State, *Event, *Rejection) {
	if s.Phase != PhasePlay {
		return nil, nil, reject(ErrWrongPhase, "play is only legal during play")
	}
	_, idx, rej := requireCurrentPlayer(s, in.Actor)
	if rej != nil {
		return nil, nil, rej
	}
	if s.DrawnCard == nil {
		return nil, nil, reject(ErrIllegalTarget, "no drawn card to place")
	}
	if in.CardIndex < 0 || in.CardIndex > 7 {
		return nil, nil, reject(ErrInvalidInput, "card_index out of range")
	}
	out := s.Clone()
	op := out.Players[idx]
	old := op.Hand[in.CardIndex]
	old.FaceUp = true
	op.Hand[in.CardIndex] = *out.DrawnCard
	op.Hand[in.CardIndex].FaceUp = true
	out.DiscardPile = append(out.DiscardPile, old)
	out.LastAffectedCard = &LastAffectedCard{PlayerID: in.Actor, CardIndex: in.CardIndex}
	completeTurn(out, idx)
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}

func applyPlayDiscardOnly(s *State, in Intent) (*State, *Event, *Rejection) {
	if s.Phase != PhasePlay {
		return nil, nil, reject(ErrWrongPhase, "play is only legal during play")
	}
	_, idx, rej := requireCurrentPlayer(s, in.Actor)
	if rej != nil {
		return nil, nil, rej
	}
	if s.DrawnCard == nil || s.DrawnFrom != DrawnFromDraw {
		return nil, nil, reject(ErrIllegalTarget, "discard-only is only legal after drawing from the draw pile")
	}
	out := s.Clone()
	op := out.Players[idx]
	card := *out.DrawnCard
	card.FaceUp = true
	out.DiscardPile = append(out.DiscardPile, card)
	out.DrawnCard = nil
	out.DrawnFrom = DrawnFromNone

	if op.Hand.FaceDownCount() > 0 {
		out.MustFlipAfterDiscard = true
		return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
	}
	completeTurn(out, idx)
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}

func applyPlayFlipAfterDiscard(s *State, in Intent) (*State, *Event, *Rejection) {
	_, idx, rej := requireCurrentPlayer(s, in.Actor)
	if rej != nil {
		return nil, nil, rej
	}
	if !s.MustFlipAfterDiscard {
		return nil, nil, reject(ErrIllegalTarget, "no forced flip pending")
	}
	if in.CardIndex < 0 || in.CardIndex > 7 {
		return nil, nil, reject(ErrInvalidInput, "card_index out of range")
	}
	out := s.Clone()
	op := out.Players[idx]
	if op.Hand[in.CardIndex].FaceUp {
		return nil, nil, reject(ErrIllegalTarget, "card is already face-up")
	}
	op.Hand[in.CardIndex].FaceUp = true
	out.LastAffectedCard = &LastAffectedCard{PlayerID: in.Actor, CardIndex: in.CardIndex}
	out.MustFlipAfterDiscard = false
	completeTurn(out, idx)
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}

// applyPlayPutBack returns a drawn-from-discard card to the discard pile
// without ending the turn, per the implementation's resolution of the
// put-back open question.
func applyPlayPutBack(s *State, in Intent) (*State, *Event, *Rejection) {
	_, _, rej := requireCurrentPlayer(s, in.Actor)
	if rej != nil {
		return nil, nil, rej
	}
	if s.DrawnCard == nil || s.DrawnFrom != DrawnFromDiscard {
		return nil, nil, reject(ErrIllegalTarget, "put-back is only legal for a card drawn from discard")
	}
	out := s.Clone()
	out.DiscardPile = append(out.DiscardPile, *out.DrawnCard)
	out.DrawnCard = nil
	out.DrawnFrom = DrawnFromNone
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}

func applyAdvanceScoring(s *State, in Intent) (*State, *Event, *Rejection) {
	if s.Phase != PhaseScoring {
		return nil, nil, reject(ErrWrongPhase, "advance_scoring is only legal during scoring")
	}
	if _, idx := s.PlayerByID(in.Actor); idx == -1 {
		return nil, nil, reject(ErrNotAPlayer, "actor is not seated at this table")
	}
	out := s.Clone()
	if out.RoundNum < 9 {
		out.RoundNum++
		out.DealerIdx = (out.DealerIdx + 1) % len(out.Players)
		deal(out)
		out.CurrentPlayerIdx = (out.DealerIdx + 1) % len(out.Players)
		out.Phase = PhaseReveal
	} else {
		resetToWaiting(out)
	}
	return out, &Event{Kind: EventStateChanged}, nil
}

func applyRequestRestart(s *State, in Intent) (*State, *Event, *Rejection) {
	if _, idx := s.PlayerByID(in.Actor); idx == -1 {
		return nil, nil, reject(ErrNotAPlayer, "actor is not seated at this table")
	}
	out := s.Clone()
	requestRestart(out, in.Actor, in.NowEpoch)
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}

func applyVoteRestart(s *State, in Intent) (*State, *Event, *Rejection) {
	if !s.Restart.Pending() {
		return nil, nil, reject(ErrIllegalTarget, "no restart vote is pending")
	}
	if _, idx := s.PlayerByID(in.Actor); idx == -1 {
		return nil, nil, reject(ErrNotAPlayer, "actor is not seated at this table")
	}
	out := s.Clone()
	voteRestartYes(out, in.Actor)
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}

func applyVoteRestartNo(s *State, in Intent) (*State, *Event, *Rejection) {
	if !s.Restart.Pending() {
		return nil, nil, reject(ErrIllegalTarget, "no restart vote is pending")
	}
	if _, idx := s.PlayerByID(in.Actor); idx == -1 {
		return nil, nil, reject(ErrNotAPlayer, "actor is not seated at this table")
	}
	out := s.Clone()
	out.Restart = nil
	return out, &Event{Kind: EventStateChanged, PlayerID: in.Actor}, nil
}
