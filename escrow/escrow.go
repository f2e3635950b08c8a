// Package escrow talks to the external fund-custody collaborator. The core
// instructs it to lock, release or refund reward funds; token transfer,
// signature verification and fee handling all live on the collaborator's
// side of the boundary.
package escrow

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means the custody collaborator failed transiently.
	ErrUnavailable = errors.New("escrow ledger unavailable")
	// ErrUnknownEscrow means the escrow reference is not recognized.
	ErrUnknownEscrow = errors.New("unknown escrow reference")
	// ErrAlreadySettled means the escrow was already released or refunded.
	ErrAlreadySettled = errors.New("escrow already settled")
)

// Status is the collaborator-side state of an escrow.
type Status string

const (
	StatusLocked   Status = "locked"
	StatusReleased Status = "released"
	StatusRefunded Status = "refunded"
)

// Ledger is the custody collaborator as seen by the core. CreateEscrow locks
// funds and returns an opaque escrow reference; Release and RefundOrClose
// settle it exactly once and return a transaction reference.
type Ledger interface {
	CreateEscrow(ctx context.Context, token string, amount int64) (string, error)
	Release(ctx context.Context, escrowRef, recipient string) (string, error)
	RefundOrClose(ctx context.Context, escrowRef string) (string, error)
}
