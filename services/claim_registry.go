package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bounty-escrow-system/models"
	"bounty-escrow-system/store"
	"bounty-escrow-system/utils"
)

// ClaimRegistry owns claim records and their review status. Approve is the
// single serialization point for the one-winner-per-bounty invariant: all
// review transitions for a bounty run under that bounty's lock, and the
// store-level status update is itself a compare-and-set.
type ClaimRegistry struct {
	Claims   store.ClaimStore
	Bounties store.BountyStore
	locks    *utils.KeyMutex
}

func NewClaimRegistry(claims store.ClaimStore, bounties store.BountyStore) *ClaimRegistry {
	return &ClaimRegistry{
		Claims:   claims,
		Bounties: bounties,
		locks:    utils.NewKeyMutex(),
	}
}

// Submit registers a pending claim against an Open bounty. Many pending
// claims may coexist; no bounty lock is taken beyond the Open check.
func (r *ClaimRegistry) Submit(ctx context.Context, bountyID uint64, submitter, teaser, contentID string, encrypted bool) (uint64, error) {
	submitter = CanonicalWallet(submitter)
	if submitter == "" {
		return 0, fmt.Errorf("%w: submitter is required", ErrInvalidInput)
	}
	if strings.TrimSpace(teaser) == "" {
		return 0, fmt.Errorf("%w: teaser is required", ErrInvalidInput)
	}
	if strings.TrimSpace(contentID) == "" {
		return 0, fmt.Errorf("%w: content identifier is required", ErrInvalidInput)
	}

	b, err := r.Bounties.Get(ctx, bountyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, fmt.Errorf("%w: unknown bounty %d", ErrInvalidInput, bountyID)
		}
		return 0, err
	}
	if !b.IsOpen() {
		return 0, fmt.Errorf("%w: bounty %d is not open", ErrInvalidState, bountyID)
	}

	c := &models.Claim{
		BountyID:  bountyID,
		Submitter: submitter,
		Teaser:    strings.TrimSpace(teaser),
		ContentID: contentID,
		Encrypted: encrypted,
		Status:    models.ClaimStatusPending,
	}
	if err := r.Claims.Create(ctx, c); err != nil {
		return 0, fmt.Errorf("record claim: %w", err)
	}
	return c.ID, nil
}

// Get loads a claim by identifier.
func (r *ClaimRegistry) Get(ctx context.Context, id uint64) (*models.Claim, error) {
	c, err := r.Claims.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: claim %d", ErrNotFound, id)
		}
		return nil, err
	}
	return c, nil
}

// ListByBounty returns a bounty's claims in submission order.
func (r *ClaimRegistry) ListByBounty(ctx context.Context, bountyID uint64) ([]models.Claim, error) {
	return r.Claims.ListByBounty(ctx, bountyID)
}

// Approve transitions a pending claim to Approved. Under the bounty's lock
// it re-reads claim and bounty state and only proceeds if the claim is still
// Pending, the bounty still Open and no sibling claim already Approved. If
// two approvals race, exactly one observes that pre-state and wins; the
// loser fails with ErrInvalidState and must not be retried.
func (r *ClaimRegistry) Approve(ctx context.Context, id uint64) error {
	c, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	r.locks.Lock(c.BountyID)
	defer r.locks.Unlock(c.BountyID)

	// Re-read under the lock; the first read may be stale.
	c, err = r.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Resolved() {
		return fmt.Errorf("%w: claim %d is already %s", ErrInvalidState, id, c.Status)
	}

	b, err := r.Bounties.Get(ctx, c.BountyID)
	if err != nil {
		return fmt.Errorf("load bounty %d: %w", c.BountyID, err)
	}
	if !b.IsOpen() {
		return fmt.Errorf("%w: bounty %d is not open", ErrInvalidState, c.BountyID)
	}

	approved, err := r.Claims.CountByStatus(ctx, c.BountyID, models.ClaimStatusApproved)
	if err != nil {
		return err
	}
	if approved > 0 {
		return fmt.Errorf("%w: bounty %d already has an approved claim", ErrInvalidState, c.BountyID)
	}

	if err := r.Claims.UpdateStatus(ctx, id, models.ClaimStatusPending, models.ClaimStatusApproved); err != nil {
		if errors.Is(err, store.ErrStaleState) {
			return fmt.Errorf("%w: claim %d is no longer pending", ErrInvalidState, id)
		}
		return err
	}
	return nil
}

// Reject transitions a pending claim to Rejected. Permitted even after the
// owning bounty has closed: rejection moves no funds, so late bookkeeping
// is harmless.
func (r *ClaimRegistry) Reject(ctx context.Context, id uint64) error {
	c, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	r.locks.Lock(c.BountyID)
	defer r.locks.Unlock(c.BountyID)

	if err := r.Claims.UpdateStatus(ctx, id, models.ClaimStatusPending, models.ClaimStatusRejected); err != nil {
		if errors.Is(err, store.ErrStaleState) {
			return fmt.Errorf("%w: claim %d is not pending", ErrInvalidState, id)
		}
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: claim %d", ErrNotFound, id)
		}
		return err
	}
	return nil
}

// CountPending reports the number of unresolved claims against a bounty.
func (r *ClaimRegistry) CountPending(ctx context.Context, bountyID uint64) (int64, error) {
	return r.Claims.CountByStatus(ctx, bountyID, models.ClaimStatusPending)
}
