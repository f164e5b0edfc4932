package game

// PlayerID is an opaque 128-bit token (rendered as a UUID string) that
// identifies a seat at a table across reconnects.
type PlayerID string

// Player is one seat at a table. Join order defines turn order via the
// index the player occupies in State.Players.
type Player struct {
	ID              PlayerID
	Name            string
	Hand            Hand
	RevealedCount   int // 0..2, only meaningful during the reveal phase
	LastActiveEpoch int64
	FinalTurnTaken  bool
}

// NewPlayer creates a new seated Player with an empty, all-face-down hand.
func NewPlayer(id PlayerID, name string, nowEpoch int64) *Player {
	return &Player{
		ID:              id,
		Name:            name,
		LastActiveEpoch: nowEpoch,
	}
}
