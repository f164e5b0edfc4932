package game

// completeTurn clears mid-turn state, applies final-lap bookkeeping, and
// either advances the turn or ends the round into PhaseScoring.
func completeTurn(s *State, actorIdx int) {
	s.DrawnCard = nil
	s.DrawnFrom = DrawnFromNone
	s.MustFlipAfterDiscard = false

	actor := s.Players[actorIdx]
	switch {
	case s.FinalLapTriggerIdx == noFinalLapTrigger && actor.Hand.AllFaceUp():
		s.FinalLapTriggerIdx = actorIdx
	case s.FinalLapTriggerIdx != noFinalLapTrigger && actorIdx != s.FinalLapTriggerIdx:
		actor.FinalTurnTaken = true
	}

	s.CurrentPlayerIdx = (actorIdx + 1) % len(s.Players)

	if finalLapComplete(s) {
		endRound(s)
	}
}

// finalLapComplete reports whether every non-trigger player has taken
// their one extra final-lap turn.
func finalLapComplete(s *State) bool {
	if s.FinalLapTriggerIdx == noFinalLapTrigger {
		return false
	}
	for i, p := range s.Players {
		if i == s.FinalLapTriggerIdx {
			continue
		}
		if !p.FinalTurnTaken {
			return false
		}
	}
	return true
}

// endRound flips every remaining face-down card, scores every hand, adds
// the round scores to each player's cumulative total, and moves the table
// into PhaseScoring.
func endRound(s *State) {
	s.RoundScores = make(map[PlayerID]int, len(s.Players))
	for _, p := range s.Players {
		for i := range p.Hand {
			p.Hand[i].FaceUp = true
		}
		round := ScoreHand(&p.Hand)
		s.RoundScores[p.ID] = round
		s.Scores[p.ID] += round
		if best, ok := s.BestRoundScore[p.ID]; !ok || round < best {
			s.BestRoundScore[p.ID] = round
		}
	}
	s.Phase = PhaseScoring
}
