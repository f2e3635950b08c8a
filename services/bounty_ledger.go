package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bounty-escrow-system/escrow"
	"bounty-escrow-system/models"
	"bounty-escrow-system/store"

	"github.com/gosimple/slug"
)

// BountyLedger owns bounty and escrow state. Creation is all-or-nothing: the
// fund lock at the custody collaborator must succeed before a bounty record
// exists, so an Open bounty always has locked funds behind it.
type BountyLedger struct {
	Bounties store.BountyStore
	Mirrors  store.EscrowMirrorStore
	Custody  escrow.Ledger
}

func NewBountyLedger(bounties store.BountyStore, mirrors store.EscrowMirrorStore, custody escrow.Ledger) *BountyLedger {
	return &BountyLedger{Bounties: bounties, Mirrors: mirrors, Custody: custody}
}

// Create locks rewardAmount of rewardToken in escrow and records the bounty.
// If the fund lock fails, no record is produced. If the record write fails
// after the lock, the escrow is refunded best-effort.
func (l *BountyLedger) Create(ctx context.Context, creator, title, rewardToken string, rewardAmount int64) (uint64, error) {
	creator = CanonicalWallet(creator)
	if creator == "" {
		return 0, fmt.Errorf("%w: creator is required", ErrInvalidInput)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(rewardToken) == "" {
		return 0, fmt.Errorf("%w: reward token is required", ErrInvalidInput)
	}
	if rewardAmount <= 0 {
		return 0, fmt.Errorf("%w: reward amount must be positive", ErrInvalidInput)
	}

	escrowRef, err := l.Custody.CreateEscrow(ctx, rewardToken, rewardAmount)
	if err != nil {
		return 0, stageErr("escrow lock", err)
	}

	b := &models.Bounty{
		Creator:      creator,
		Title:        title,
		Slug:         slug.Make(title),
		RewardToken:  rewardToken,
		RewardAmount: rewardAmount,
		Status:       models.BountyStatusOpen,
		EscrowRef:    escrowRef,
	}
	if err := l.Bounties.Create(ctx, b); err != nil {
		// Funds are locked but no record exists; unwind the lock so the
		// creator is not left paying for a bounty that was never created.
		if _, refundErr := l.Custody.RefundOrClose(ctx, escrowRef); refundErr != nil {
			log.Printf("[ALERT] [LEDGER] escrow %s locked but bounty record failed and refund failed: create=%v refund=%v", escrowRef, err, refundErr)
			return 0, fmt.Errorf("%w: escrow %s locked without bounty record", ErrInconsistent, escrowRef)
		}
		return 0, stageErr("record bounty", err)
	}

	// Mirror is advisory; the sync worker repairs it if this write is lost.
	if l.Mirrors != nil {
		if err := l.Mirrors.Upsert(ctx, &models.EscrowMirror{
			EscrowRef:     escrowRef,
			BountyID:      b.ID,
			Token:         rewardToken,
			Amount:        rewardAmount,
			State:         models.EscrowStateLocked,
			LastCheckedAt: time.Now().UTC(),
		}); err != nil {
			log.Printf("[LEDGER] failed to mirror escrow %s: %v", escrowRef, err)
		}
	}

	return b.ID, nil
}

// Get loads a bounty by identifier.
func (l *BountyLedger) Get(ctx context.Context, id uint64) (*models.Bounty, error) {
	b, err := l.Bounties.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: bounty %d", ErrNotFound, id)
		}
		return nil, err
	}
	return b, nil
}

// List returns bounties matching the filter, most recent first.
func (l *BountyLedger) List(ctx context.Context, f store.BountyFilter) ([]models.Bounty, error) {
	if f.Creator != "" {
		f.Creator = CanonicalWallet(f.Creator)
	}
	return l.Bounties.List(ctx, f)
}

// Close transitions the bounty Open -> Closed. Fails with ErrInvalidState if
// it is already Closed.
func (l *BountyLedger) Close(ctx context.Context, id uint64) error {
	err := l.Bounties.UpdateStatus(ctx, id, models.BountyStatusOpen, models.BountyStatusClosed)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: bounty %d", ErrNotFound, id)
	case errors.Is(err, store.ErrStaleState):
		return fmt.Errorf("%w: bounty %d is not open", ErrInvalidState, id)
	}
	return err
}

// ReleaseFunds instructs the custody collaborator to transfer the escrowed
// amount to recipient. The bounty must still be Open at call time; closing
// follows as a separate step driven by the review engine.
func (l *BountyLedger) ReleaseFunds(ctx context.Context, id uint64, recipient string) error {
	b, err := l.Get(ctx, id)
	if err != nil {
		return err
	}
	if !b.IsOpen() {
		return fmt.Errorf("%w: bounty %d is not open", ErrInvalidState, id)
	}

	if _, err := l.Custody.Release(ctx, b.EscrowRef, CanonicalWallet(recipient)); err != nil {
		if errors.Is(err, escrow.ErrAlreadySettled) {
			return fmt.Errorf("%w: escrow %s already settled", ErrInvalidState, b.EscrowRef)
		}
		return stageErr("escrow release", err)
	}
	return nil
}

// Refund closes an Open bounty and refunds its escrow. Used by creator
// cancellation; the review engine gates who may call it and under what
// conditions.
func (l *BountyLedger) Refund(ctx context.Context, id uint64) error {
	b, err := l.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := l.Close(ctx, id); err != nil {
		return err
	}
	if _, err := l.Custody.RefundOrClose(ctx, b.EscrowRef); err != nil {
		log.Printf("[ALERT] [LEDGER] bounty %d closed but escrow %s refund failed: %v", id, b.EscrowRef, err)
		return fmt.Errorf("%w: bounty %d closed but escrow %s not refunded", ErrInconsistent, id, b.EscrowRef)
	}
	return nil
}
