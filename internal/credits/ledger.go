// Package credits implements admission control: a per-principal credit
// ledger with atomic reserve/commit/release semantics backed by a pluggable
// balance store.
package credits

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"slideforge/internal/core"
)

// ErrInvalidHoldState is returned on double-commit, commit-after-release, or
// any other use of a terminal hold. This indicates a programming error in the
// caller, not an environment condition.
var ErrInvalidHoldState = errors.New("credit hold is not active")

// Store is the persistence collaborator contract for credit balances.
// Implementations must be safe for concurrent use.
type Store interface {
	// ReadCreditBalance returns the committed balance for a principal.
	ReadCreditBalance(ctx context.Context, principal string) (int, error)

	// ApplyCreditDelta atomically adjusts a principal's balance. It returns
	// false (and no error) when the delta would drive the balance negative.
	ApplyCreditDelta(ctx context.Context, principal string, delta int) (bool, error)
}

type holdState int

const (
	holdActive holdState = iota
	holdCommitted
	holdReleased
)

// Hold is a provisional credit deduction. It is created by Reserve and must
// be finished with exactly one Commit or Release.
type Hold struct {
	ID        string
	Principal string
	Amount    int

	state holdState
}

// Ledger coordinates holds over a Store. Reserve is atomic with respect to
// concurrent callers on the same principal: two reserves that would jointly
// exceed the balance cannot both succeed.
type Ledger struct {
	store Store

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	reserved map[string]int
}

// NewLedger creates a ledger over the given balance store.
func NewLedger(store Store) *Ledger {
	return &Ledger{
		store:    store,
		locks:    make(map[string]*sync.Mutex),
		reserved: make(map[string]int),
	}
}

// principalLock returns the single-writer lock for a principal.
func (l *Ledger) principalLock(principal string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl, ok := l.locks[principal]
	if !ok {
		pl = &sync.Mutex{}
		l.locks[principal] = pl
	}
	return pl
}

func (l *Ledger) reservedFor(principal string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserved[principal]
}

func (l *Ledger) addReserved(principal string, delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reserved[principal] += delta
	if l.reserved[principal] <= 0 {
		delete(l.reserved, principal)
	}
}

// Reserve places a hold of amount credits on the principal. It fails with an
// insufficient-credits error when balance minus in-flight holds cannot cover
// the amount. Checked once per request before any external call is made.
func (l *Ledger) Reserve(ctx context.Context, principal string, amount int) (*Hold, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("reserve amount must be positive, got %d", amount)
	}

	pl := l.principalLock(principal)
	pl.Lock()
	defer pl.Unlock()

	balance, err := l.store.ReadCreditBalance(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("read credit balance: %w", err)
	}

	available := balance - l.reservedFor(principal)
	if available < amount {
		return nil, core.NewInsufficientCreditsError(amount, available)
	}

	l.addReserved(principal, amount)
	return &Hold{
		ID:        uuid.NewString(),
		Principal: principal,
		Amount:    amount,
	}, nil
}

// Commit finalizes a hold, decreasing the stored balance and the reserved
// amount together. The hold becomes terminal.
func (l *Ledger) Commit(ctx context.Context, h *Hold) error {
	pl := l.principalLock(h.Principal)
	pl.Lock()
	defer pl.Unlock()

	if h.state != holdActive {
		return ErrInvalidHoldState
	}

	ok, err := l.store.ApplyCreditDelta(ctx, h.Principal, -h.Amount)
	if err != nil {
		return fmt.Errorf("apply credit delta: %w", err)
	}
	if !ok {
		// A reserve preceded this commit, so the balance covered the hold;
		// a rejected delta means the store was mutated behind our back.
		return fmt.Errorf("credit commit rejected for principal %s", h.Principal)
	}

	l.addReserved(h.Principal, -h.Amount)
	h.state = holdCommitted
	return nil
}

// Release abandons a hold without charging it. The hold becomes terminal.
func (l *Ledger) Release(_ context.Context, h *Hold) error {
	pl := l.principalLock(h.Principal)
	pl.Lock()
	defer pl.Unlock()

	if h.state != holdActive {
		return ErrInvalidHoldState
	}
	l.addReserved(h.Principal, -h.Amount)
	h.state = holdReleased
	return nil
}

// Available returns balance minus in-flight holds for a principal.
func (l *Ledger) Available(ctx context.Context, principal string) (int, error) {
	balance, err := l.store.ReadCreditBalance(ctx, principal)
	if err != nil {
		return 0, err
	}
	return balance - l.reservedFor(principal), nil
}
