package credits

import (
	"context"
	"errors"
	"sync"
	"testing"

	"slideforge/internal/core"
)

func TestReserveCommitRelease(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Grant("alice", 20)
	ledger := NewLedger(store)

	hold, err := ledger.Reserve(ctx, "alice", 5)
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}

	available, err := ledger.Available(ctx, "alice")
	if err != nil {
		t.Fatalf("Available failed: %v", err)
	}
	if available != 15 {
		t.Errorf("available after reserve = %d, want 15", available)
	}

	if err := ledger.Commit(ctx, hold); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	balance, err := store.ReadCreditBalance(ctx, "alice")
	if err != nil {
		t.Fatalf("ReadCreditBalance failed: %v", err)
	}
	if balance != 15 {
		t.Errorf("balance after commit = %d, want 15", balance)
	}

	available, _ = ledger.Available(ctx, "alice")
	if available != 15 {
		t.Errorf("available after commit = %d, want 15", available)
	}
}

func TestReserveInsufficientCredits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Grant("bob", 3)
	ledger := NewLedger(store)

	_, err := ledger.Reserve(ctx, "bob", 5)
	if err == nil {
		t.Fatal("reserve beyond balance should fail")
	}
	if !core.IsErrorType(err, core.ErrorTypeInsufficientCredits) {
		t.Errorf("expected insufficient_credits error, got %v", err)
	}
}

func TestReserveCountsInFlightHolds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Grant("carol", 10)
	ledger := NewLedger(store)

	hold, err := ledger.Reserve(ctx, "carol", 6)
	if err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}

	// 6 of 10 are held; a second 6 must be rejected even though the
	// committed balance is untouched.
	if _, err := ledger.Reserve(ctx, "carol", 6); err == nil {
		t.Fatal("second overlapping reserve should fail")
	}

	if err := ledger.Release(ctx, hold); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	// After release the same reserve succeeds.
	if _, err := ledger.Reserve(ctx, "carol", 6); err != nil {
		t.Fatalf("reserve after release failed: %v", err)
	}
}

func TestConcurrentReserves(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Grant("dave", 10)
	ledger := NewLedger(store)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	holds := make(chan *Hold, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hold, err := ledger.Reserve(ctx, "dave", 6)
			results <- err
			if err == nil {
				holds <- hold
			}
		}()
	}
	wg.Wait()
	close(results)
	close(holds)

	var succeeded, failed int
	for err := range results {
		if err == nil {
			succeeded++
		} else if core.IsErrorType(err, core.ErrorTypeInsufficientCredits) {
			failed++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || failed != 1 {
		t.Fatalf("got %d successes and %d failures, want exactly 1 each", succeeded, failed)
	}

	hold := <-holds
	if err := ledger.Commit(ctx, hold); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	balance, _ := store.ReadCreditBalance(ctx, "dave")
	if balance != 4 {
		t.Errorf("final balance = %d, want 4", balance)
	}
}

func TestHoldsAreTerminal(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Grant("erin", 10)
	ledger := NewLedger(store)

	hold, err := ledger.Reserve(ctx, "erin", 2)
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if err := ledger.Commit(ctx, hold); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if err := ledger.Commit(ctx, hold); !errors.Is(err, ErrInvalidHoldState) {
		t.Errorf("double commit = %v, want ErrInvalidHoldState", err)
	}
	if err := ledger.Release(ctx, hold); !errors.Is(err, ErrInvalidHoldState) {
		t.Errorf("release after commit = %v, want ErrInvalidHoldState", err)
	}

	hold2, _ := ledger.Reserve(ctx, "erin", 2)
	if err := ledger.Release(ctx, hold2); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := ledger.Commit(ctx, hold2); !errors.Is(err, ErrInvalidHoldState) {
		t.Errorf("commit after release = %v, want ErrInvalidHoldState", err)
	}
}

func TestUnknownPrincipalHasZeroCredits(t *testing.T) {
	ledger := NewLedger(NewMemoryStore())
	_, err := ledger.Reserve(context.Background(), "nobody", 1)
	if !core.IsErrorType(err, core.ErrorTypeInsufficientCredits) {
		t.Errorf("expected insufficient_credits for unknown principal, got %v", err)
	}
}
