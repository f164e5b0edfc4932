package game

// CardView is the wire form of a Card: face-down cards always carry
// HiddenValue, regardless of who is observing — the server never leaks a
// face-down value to anyone, including the card's own owner.
type CardView struct {
	Value  int  `json:"value"`
	FaceUp bool `json:"face_up"`
}

func cardView(c Card) CardView {
	if !c.FaceUp {
		return CardView{Value: HiddenValue, FaceUp: false}
	}
	return CardView{Value: c.Value, FaceUp: true}
}

// PlayerView is the wire form of a Player.
type PlayerView struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Hand           [8]CardView `json:"hand"`
	RevealedCount  int         `json:"revealed_count"`
	FinalTurnTaken bool        `json:"final_turn_taken"`
}

// Snapshot is the full outbound wire representation of a table's State.
// It carries no viewer-specific redaction: every subscriber, player or
// spectator, sees the identical snapshot.
type Snapshot struct {
	Phase                Phase             `json:"phase"`
	Players              []PlayerView      `json:"players"`
	DealerIdx            int               `json:"dealer_idx"`
	CurrentPlayerIdx     int               `json:"current_player_idx"`
	DrawPileCount        int               `json:"draw_pile_count"`
	DiscardTop           *CardView         `json:"discard_top,omitempty"`
	DrawnCard            *CardView         `json:"drawn_card,omitempty"`
	DrawnFrom            DrawnFrom         `json:"drawn_from,omitempty"`
	MustFlipAfterDiscard bool              `json:"must_flip_after_discard"`
	LastAffectedCard     *LastAffectedCard `json:"last_affected_card,omitempty"`
	RoundNum             int               `json:"round_num"`
	RoundScores          map[string]int    `json:"round_scores"`
	Scores               map[string]int    `json:"scores"`
	FinalLapTriggerIdx   int               `json:"final_lap_trigger_idx"`
	RestartRequestedBy   string            `json:"restart_requested_by,omitempty"`
	RestartRequestedAt   int64             `json:"restart_requested_at,omitempty"`
	RestartYesVotes      []string          `json:"restart_yes_votes,omitempty"`
	ActivePlayerIDs      []string          `json:"active_player_ids"`
	PlayerLastActive     map[string]int64  `json:"player_last_active"`
	InactiveTurnName     string            `json:"inactive_turn_name,omitempty"`
	Version              int               `json:"version"`
}

// BuildSnapshot renders s for the wire. inactiveTurnName, when non-empty,
// annotates an in-progress idle-turn countdown for observers.
func BuildSnapshot(s *State, inactiveTurnName string) *Snapshot {
	players := make([]PlayerView, len(s.Players))
	for i, p := range s.Players {
		var hand [8]CardView
		for j, c := range p.Hand {
			hand[j] = cardView(c)
		}
		players[i] = PlayerView{
			ID:             string(p.ID),
			Name:           p.Name,
			Hand:           hand,
			RevealedCount:  p.RevealedCount,
			FinalTurnTaken: p.FinalTurnTaken,
		}
	}

	snap := &Snapshot{
		Phase:                s.Phase,
		Players:              players,
		DealerIdx:            s.DealerIdx,
		CurrentPlayerIdx:     s.CurrentPlayerIdx,
		DrawPileCount:        len(s.DrawPile),
		MustFlipAfterDiscard: s.MustFlipAfterDiscard,
		LastAffectedCard:     s.LastAffectedCard,
		RoundNum:             s.RoundNum,
		RoundScores:          stringifyIntMap(s.RoundScores),
		Scores:               stringifyIntMap(s.Scores),
		FinalLapTriggerIdx:   s.FinalLapTriggerIdx,
		ActivePlayerIDs:      stringifyIDs(s.ActivePlayerIDs),
		PlayerLastActive:     stringifyInt64Map(s.PlayerLastActive),
		InactiveTurnName:     inactiveTurnName,
		Version:              s.Version,
	}
	if len(s.DiscardPile) > 0 {
		v := cardView(s.DiscardPile[len(s.DiscardPile)-1])
		snap.DiscardTop = &v
	}
	if s.DrawnCard != nil {
		v := cardView(*s.DrawnCard)
		v.Value = s.DrawnCard.Value
		v.FaceUp = true // the drawn card's value is visible to all observers once drawn
		snap.DrawnCard = &v
		snap.DrawnFrom = s.DrawnFrom
	}
	if s.Restart.Pending() {
		snap.RestartRequestedBy = string(s.Restart.RequestedBy)
		snap.RestartRequestedAt = s.Restart.RequestedAt
		for id, yes := range s.Restart.YesVotes {
			if yes {
				snap.RestartYesVotes = append(snap.RestartYesVotes, string(id))
			}
		}
	}
	return snap
}

func stringifyIntMap(m map[PlayerID]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func stringifyInt64Map(m map[PlayerID]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func stringifyIDs(m map[PlayerID]bool) []string {
	out := make([]string, 0, len(m))
	for id, active := range m {
		if active {
			out = append(out, string(id))
		}
	}
	return out
}
