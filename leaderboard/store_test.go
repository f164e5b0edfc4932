package leaderboard

import (
	"context"
	"testing"
)

func TestNewStoreWithEmptyURLIsInert(t *testing.T) {
	store, err := NewStore(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store != nil {
		t.Fatal("expected a nil store when no database URL is configured")
	}
}

func TestNilStoreRecordGameEndIsNoOp(t *testing.T) {
	var store *Store
	err := store.RecordGameEnd(context.Background(), map[string]int{"Alice": 12}, "Alice", map[string]int{"Alice": 3})
	if err != nil {
		t.Fatalf("expected a nil store to no-op without error, got %v", err)
	}
}

func TestNilStoreListLeaderboardReturnsEmpty(t *testing.T) {
	var store *Store
	list, err := store.ListLeaderboard(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected an empty leaderboard, got %d entries", len(list))
	}
}

func TestNilStoreCloseDoesNotPanic(t *testing.T) {
	var store *Store
	store.Close()
}
