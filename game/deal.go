package game

import "math/rand"

// deal shuffles a fresh deck sized for len(s.Players), deals 8 face-down
// cards to each player round-robin, flips the new draw pile's top card
// onto the discard pile, and clears all per-round mid-turn state.
func deal(s *State) {
	deck := NewShuffledDeck(len(s.Players))
	for _, p := range s.Players {
		p.Hand = Hand{}
		p.RevealedCount = 0
		p.FinalTurnTaken = false
	}
	idx := 0
	for round := 0; round < 8; round++ {
		for _, p := range s.Players {
			p.Hand[round] = deck[idx]
			idx++
		}
	}
	remaining := deck[idx:]
	top := remaining[len(remaining)-1]
	top.FaceUp = true
	s.DrawPile = remaining[:len(remaining)-1]
	s.DiscardPile = []Card{top}

	s.DrawnCard = nil
	s.DrawnFrom = DrawnFromNone
	s.MustFlipAfterDiscard = false
	s.LastAffectedCard = nil
	s.FinalLapTriggerIdx = noFinalLapTrigger
}

// reshuffleDrawPileIfEmpty rebuilds the draw pile from the discard pile
// (all but its top card) when the draw pile has run out, preserving the
// top discard exactly as spec.md's draw-pile-depletion note requires.
func reshuffleDrawPileIfEmpty(s *State) {
	if len(s.DrawPile) > 0 || len(s.DiscardPile) <= 1 {
		return
	}
	top := s.DiscardPile[len(s.DiscardPile)-1]
	rest := append([]Card(nil), s.DiscardPile[:len(s.DiscardPile)-1]...)
	for i := range rest {
		rest[i].FaceUp = false
	}
	rand.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	s.DrawPile = rest
	s.DiscardPile = []Card{top}
}
