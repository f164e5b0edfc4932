package game

import "testing"

func TestNewShuffledDeckSize(t *testing.T) {
	for players, want := range map[int]int{2: 108, 6: 108, 7: 162, 8: 162} {
		deck := NewShuffledDeck(players)
		if len(deck) != want {
			t.Errorf("players=%d: expected %d cards, got %d", players, want, len(deck))
		}
	}
}

func TestNewShuffledDeckComposition(t *testing.T) {
	deck := NewShuffledDeck(2)
	counts := make(map[int]int)
	for _, c := range deck {
		if c.FaceUp {
			t.Fatalf("deck card dealt face-up")
		}
		counts[c.Value]++
	}
	if counts[HoleInOne] != 4 {
		t.Errorf("expected 4 hole-in-ones across 2 packs, got %d", counts[HoleInOne])
	}
	for v := 0; v <= MaxCardValue; v++ {
		if counts[v] != 8 {
			t.Errorf("expected 8 of value %d across 2 packs, got %d", v, counts[v])
		}
	}
}

func TestScoreHandPlainSum(t *testing.T) {
	h := Hand{
		{Value: 3, FaceUp: true}, {Value: 5, FaceUp: true}, {Value: 1, FaceUp: true}, {Value: 2, FaceUp: true},
		{Value: 4, FaceUp: true}, {Value: 6, FaceUp: true}, {Value: 0, FaceUp: true}, {Value: 7, FaceUp: true},
	}
	// columns: (3,4)=7 (5,6)=11 (1,0)=1 (2,7)=9 -> 28
	if got := ScoreHand(&h); got != 28 {
		t.Errorf("expected 28, got %d", got)
	}
}

func TestScoreHandMatchedColumnNonHole(t *testing.T) {
	h := Hand{
		{Value: 5, FaceUp: true}, {Value: 5, FaceUp: true}, {Value: 1, FaceUp: true}, {Value: 2, FaceUp: true},
		{Value: 5, FaceUp: true}, {Value: 6, FaceUp: true}, {Value: 0, FaceUp: true}, {Value: 7, FaceUp: true},
	}
	// column 0 matched (5,5) contributes 0; columns 1..3 as before = 11+1+9 = 21
	if got := ScoreHand(&h); got != 21 {
		t.Errorf("expected 21, got %d", got)
	}
}

func TestScoreHandHoleInOneColumn(t *testing.T) {
	h := Hand{
		{Value: HoleInOne, FaceUp: true}, {Value: 5, FaceUp: true}, {Value: 1, FaceUp: true}, {Value: 2, FaceUp: true},
		{Value: HoleInOne, FaceUp: true}, {Value: 6, FaceUp: true}, {Value: 0, FaceUp: true}, {Value: 7, FaceUp: true},
	}
	// column 0: (-5,-5) matched hole-in-one -> -10; column1 (5,6)=11; column2 (1,0)=1; column3 (2,7)=9
	if got := ScoreHand(&h); got != -10+11+1+9 {
		t.Errorf("expected %d, got %d", -10+11+1+9, got)
	}
}

func TestScoreHandTwoMatchedColumnsBonus(t *testing.T) {
	h := Hand{
		{Value: 3, FaceUp: true}, {Value: 3, FaceUp: true}, {Value: 7, FaceUp: true}, {Value: 7, FaceUp: true},
		{Value: 3, FaceUp: true}, {Value: 3, FaceUp: true}, {Value: 1, FaceUp: true}, {Value: 2, FaceUp: true},
	}
	// layout is column c = (idx c, idx c+4):
	// col0=(idx0,idx4)=(3,3) matched -> 0; col1=(idx1,idx5)=(3,3) matched -> 0 (same value 3, m counts twice)
	// col2=(idx2,idx6)=(7,1) sum 8; col3=(idx3,idx7)=(7,2) sum 9
	// pairedValueCounts[3]=2 -> m=2 -> bonus -10
	want := 0 + 0 + 8 + 9 - 10
	if got := ScoreHand(&h); got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestScoreHandAllFourColumnsMatchedCollapsesToThreeTier(t *testing.T) {
	h := Hand{
		{Value: 7, FaceUp: true}, {Value: 7, FaceUp: true}, {Value: 7, FaceUp: true}, {Value: 7, FaceUp: true},
		{Value: 7, FaceUp: true}, {Value: 7, FaceUp: true}, {Value: 7, FaceUp: true}, {Value: 7, FaceUp: true},
	}
	// all 4 columns matched on value 7 -> m=4, which this implementation collapses into the m>=3 tier (-15).
	if got := ScoreHand(&h); got != -15 {
		t.Errorf("expected -15 (collapsed m==4 tier), got %d", got)
	}
}

func TestHandFaceDownCountAndFirstFaceDown(t *testing.T) {
	h := Hand{
		{Value: 1, FaceUp: true}, {Value: 2}, {Value: 3}, {Value: 4, FaceUp: true},
		{Value: 5}, {Value: 6, FaceUp: true}, {Value: 7}, {Value: 8},
	}
	if n := h.FaceDownCount(); n != 5 {
		t.Errorf("expected 5 face-down, got %d", n)
	}
	if i := h.FirstFaceDown(); i != 1 {
		t.Errorf("expected first face-down at index 1, got %d", i)
	}
}
