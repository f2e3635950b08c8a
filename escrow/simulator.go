package escrow

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type simEscrow struct {
	token     string
	amount    int64
	status    Status
	recipient string
}

// Simulator is the in-process custody backend, selected explicitly via
// ESCROW_BACKEND=sim. It enforces the same settle-once discipline as the
// real collaborator, which also makes it the referee for escrow-conservation
// checks in tests.
type Simulator struct {
	mu      sync.Mutex
	escrows map[string]*simEscrow
}

func NewSimulator() *Simulator {
	return &Simulator{escrows: make(map[string]*simEscrow)}
}

func (s *Simulator) CreateEscrow(ctx context.Context, token string, amount int64) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("escrow amount must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := "esc-" + uuid.NewString()
	s.escrows[ref] = &simEscrow{token: token, amount: amount, status: StatusLocked}
	return ref, nil
}

func (s *Simulator) Release(ctx context.Context, escrowRef, recipient string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	esc, ok := s.escrows[escrowRef]
	if !ok {
		return "", ErrUnknownEscrow
	}
	if esc.status != StatusLocked {
		return "", ErrAlreadySettled
	}
	esc.status = StatusReleased
	esc.recipient = recipient
	return "tx-" + uuid.NewString(), nil
}

func (s *Simulator) RefundOrClose(ctx context.Context, escrowRef string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	esc, ok := s.escrows[escrowRef]
	if !ok {
		return "", ErrUnknownEscrow
	}
	if esc.status != StatusLocked {
		return "", ErrAlreadySettled
	}
	esc.status = StatusRefunded
	return "tx-" + uuid.NewString(), nil
}

func (s *Simulator) Status(ctx context.Context, escrowRef string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	esc, ok := s.escrows[escrowRef]
	if !ok {
		return "", ErrUnknownEscrow
	}
	return esc.status, nil
}

// ReleasedTo reports the recipient and amount of a released escrow, or false
// if it has not been released.
func (s *Simulator) ReleasedTo(escrowRef string) (string, int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	esc, ok := s.escrows[escrowRef]
	if !ok || esc.status != StatusReleased {
		return "", 0, false
	}
	return esc.recipient, esc.amount, true
}
