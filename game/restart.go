package game

// requestRestart opens a new restart vote, the requester counting as the
// first yes vote.
func requestRestart(s *State, actor PlayerID, nowEpoch int64) {
	s.Restart = &RestartVote{
		RequestedBy: actor,
		RequestedAt: nowEpoch,
		YesVotes:    map[PlayerID]bool{actor: true},
	}
}

// voteRestartYes adds a yes vote and, once every currently-connected
// player has voted yes, resets the table to a fresh waiting game with the
// same seats and cumulative scores cleared.
func voteRestartYes(s *State, actor PlayerID) {
	s.Restart.YesVotes[actor] = true
	for id := range s.ActivePlayerIDs {
		if !s.Restart.YesVotes[id] {
			return
		}
	}
	resetToWaiting(s)
}

// resetToWaiting clears a table back to PhaseWaiting with the same
// players seated, zeroing cumulative scores and round state: a restart
// is a new game, not a new round.
func resetToWaiting(s *State) {
	s.Phase = PhaseWaiting
	s.RoundNum = 0
	s.RoundScores = make(map[PlayerID]int)
	s.BestRoundScore = make(map[PlayerID]int)
	s.Scores = make(map[PlayerID]int)
	s.FinalLapTriggerIdx = noFinalLapTrigger
	s.DrawPile = nil
	s.DiscardPile = nil
	s.DrawnCard = nil
	s.DrawnFrom = DrawnFromNone
	s.MustFlipAfterDiscard = false
	s.LastAffectedCard = nil
	s.CurrentPlayerIdx = 0
	s.Restart = nil
	for _, p := range s.Players {
		p.Hand = Hand{}
		p.RevealedCount = 0
		p.FinalTurnTaken = false
	}
}
