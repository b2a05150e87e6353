package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStore_AppendAndList(t *testing.T) {
	s := NewMemoryStore(40)
	ctx := context.Background()

	err := s.Append(ctx, "s1",
		Turn{Role: RoleUser, Text: "hi"},
		Turn{Role: RoleBot, Text: "hello"},
	)
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	turns, err := s.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Text != "hi" {
		t.Errorf("unexpected first turn: %+v", turns[0])
	}
	if turns[1].Role != RoleBot || turns[1].Text != "hello" {
		t.Errorf("unexpected second turn: %+v", turns[1])
	}
	if turns[0].ID == "" || turns[0].CreatedAt.IsZero() {
		t.Errorf("turn missing assigned ID or timestamp: %+v", turns[0])
	}
}

func TestMemoryStore_UnknownSessionIsEmpty(t *testing.T) {
	s := NewMemoryStore(40)
	turns, err := s.List(context.Background(), "nope")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected empty history, got %d turns", len(turns))
	}
}

func TestMemoryStore_CapKeepsNewestTurns(t *testing.T) {
	const cap = 6
	s := NewMemoryStore(cap)
	ctx := context.Background()

	for i := range 10 {
		err := s.Append(ctx, "s1", Turn{Role: RoleUser, Text: fmt.Sprintf("turn-%d", i)})
		if err != nil {
			t.Fatal(err)
		}
	}

	turns, err := s.List(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != cap {
		t.Fatalf("expected %d turns, got %d", cap, len(turns))
	}
	for i, turn := range turns {
		want := fmt.Sprintf("turn-%d", 10-cap+i)
		if turn.Text != want {
			t.Errorf("turn %d: expected %q, got %q", i, want, turn.Text)
		}
	}
}

func TestMemoryStore_ListPage(t *testing.T) {
	s := NewMemoryStore(40)
	ctx := context.Background()
	for i := range 5 {
		if err := s.Append(ctx, "s1", Turn{Role: RoleUser, Text: fmt.Sprintf("t%d", i)}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := s.ListPage(ctx, "s1", 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Text != "t1" || page[1].Text != "t2" {
		t.Errorf("unexpected page: %+v", page)
	}

	tail, err := s.ListPage(ctx, "s1", 10, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 {
		t.Errorf("expected 2 trailing turns, got %d", len(tail))
	}

	empty, err := s.ListPage(ctx, "s1", 2, 99)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty page past the end, got %d", len(empty))
	}

	// No limit still honors the offset.
	unlimited, err := s.ListPage(ctx, "s1", 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(unlimited) != 2 || unlimited[0].Text != "t3" || unlimited[1].Text != "t4" {
		t.Errorf("offset without limit must skip turns: %+v", unlimited)
	}
}

func TestMemoryStore_DeleteTurn(t *testing.T) {
	s := NewMemoryStore(40)
	ctx := context.Background()
	if err := s.Append(ctx, "s1",
		Turn{Role: RoleUser, Text: "keep"},
		Turn{Role: RoleBot, Text: "remove"},
	); err != nil {
		t.Fatal(err)
	}

	turns, _ := s.List(ctx, "s1")
	if err := s.DeleteTurn(ctx, "s1", turns[1].ID); err != nil {
		t.Fatalf("DeleteTurn() error: %v", err)
	}

	remaining, _ := s.List(ctx, "s1")
	if len(remaining) != 1 || remaining[0].Text != "keep" {
		t.Errorf("unexpected remaining turns: %+v", remaining)
	}

	if err := s.DeleteTurn(ctx, "s1", "missing"); !errors.Is(err, ErrTurnNotFound) {
		t.Errorf("expected ErrTurnNotFound, got %v", err)
	}
}

func TestMemoryStore_DeleteSession(t *testing.T) {
	s := NewMemoryStore(40)
	ctx := context.Background()
	if err := s.Append(ctx, "s1", Turn{Role: RoleUser, Text: "hi"}); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	turns, _ := s.List(ctx, "s1")
	if len(turns) != 0 {
		t.Errorf("expected no turns after delete, got %d", len(turns))
	}

	// Deleting a nonexistent session is a no-op.
	if err := s.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("expected no-op delete, got %v", err)
	}
}

func TestMemoryStore_SessionsAreIsolated(t *testing.T) {
	s := NewMemoryStore(40)
	ctx := context.Background()
	if err := s.Append(ctx, "a", Turn{Role: RoleUser, Text: "for a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(ctx, "b", Turn{Role: RoleUser, Text: "for b"}); err != nil {
		t.Fatal(err)
	}

	turnsA, _ := s.List(ctx, "a")
	turnsB, _ := s.List(ctx, "b")
	if len(turnsA) != 1 || turnsA[0].Text != "for a" {
		t.Errorf("session a sees wrong turns: %+v", turnsA)
	}
	if len(turnsB) != 1 || turnsB[0].Text != "for b" {
		t.Errorf("session b sees wrong turns: %+v", turnsB)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	turnsB, _ = s.List(ctx, "b")
	if len(turnsB) != 1 {
		t.Errorf("deleting session a must not touch session b")
	}
}

func TestMemoryStore_ConcurrentAppendsAllSurvive(t *testing.T) {
	s := NewMemoryStore(100)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Append(ctx, "shared", Turn{Role: RoleUser, Text: fmt.Sprintf("m%d", i)})
			if err != nil {
				t.Errorf("Append() error: %v", err)
			}
		}()
	}
	wg.Wait()

	turns, err := s.List(ctx, "shared")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 20 {
		t.Errorf("expected all 20 concurrent appends to survive, got %d", len(turns))
	}
}
