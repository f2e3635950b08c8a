package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bounty-escrow-system/models"
	"bounty-escrow-system/store"
)

// ReviewEngine drives claim review on behalf of bounty creators. Approval is
// claim-approve first (the serialization point), then fund release, then
// bounty close. A failure after the approve leaves an Approved claim on an
// Open bounty; that condition is surfaced as ErrInconsistent and repaired by
// Reconcile, never silently swallowed.
type ReviewEngine struct {
	Registry *ClaimRegistry
	Ledger   *BountyLedger
}

func NewReviewEngine(registry *ClaimRegistry, ledger *BountyLedger) *ReviewEngine {
	return &ReviewEngine{Registry: registry, Ledger: ledger}
}

// authorize loads the claim's bounty and checks that reviewer is its creator.
func (e *ReviewEngine) authorize(ctx context.Context, claimID uint64, reviewer string) (*models.Claim, *models.Bounty, error) {
	claim, err := e.Registry.Get(ctx, claimID)
	if err != nil {
		return nil, nil, err
	}
	bounty, err := e.Ledger.Get(ctx, claim.BountyID)
	if err != nil {
		return nil, nil, err
	}
	if CanonicalWallet(reviewer) != bounty.Creator {
		return nil, nil, fmt.Errorf("%w: only the bounty creator may review claims", ErrUnauthorized)
	}
	return claim, bounty, nil
}

// ApproveClaim marks the claim Approved, releases the escrowed reward to its
// submitter and closes the bounty. Exactly one approval per bounty can ever
// get past the registry; concurrent losers receive ErrInvalidState.
func (e *ReviewEngine) ApproveClaim(ctx context.Context, claimID uint64, reviewer string) error {
	claim, bounty, err := e.authorize(ctx, claimID, reviewer)
	if err != nil {
		return err
	}

	if err := e.Registry.Approve(ctx, claimID); err != nil {
		return stageErr("approve", err)
	}

	// From here on the claim is Approved; any failure below leaves the
	// system inconsistent until the reconciler repairs it.
	if err := e.Ledger.ReleaseFunds(ctx, bounty.ID, claim.Submitter); err != nil {
		log.Printf("[ALERT] [REVIEW] claim %d approved but release for bounty %d failed: %v", claimID, bounty.ID, err)
		return fmt.Errorf("%w: claim %d approved, funds not released: %v", ErrInconsistent, claimID, err)
	}
	if err := e.Ledger.Close(ctx, bounty.ID); err != nil {
		log.Printf("[ALERT] [REVIEW] claim %d approved and funds released but bounty %d not closed: %v", claimID, bounty.ID, err)
		return fmt.Errorf("%w: claim %d approved, bounty %d still open: %v", ErrInconsistent, claimID, bounty.ID, err)
	}
	return nil
}

// RejectClaim marks the claim Rejected. No ledger interaction.
func (e *ReviewEngine) RejectClaim(ctx context.Context, claimID uint64, reviewer string) error {
	if _, _, err := e.authorize(ctx, claimID, reviewer); err != nil {
		return err
	}
	if err := e.Registry.Reject(ctx, claimID); err != nil {
		return stageErr("reject", err)
	}
	return nil
}

// CancelBounty closes an Open bounty with no unresolved claims and refunds
// its escrow. Only the creator may cancel.
func (e *ReviewEngine) CancelBounty(ctx context.Context, bountyID uint64, caller string) error {
	bounty, err := e.Ledger.Get(ctx, bountyID)
	if err != nil {
		return err
	}
	if CanonicalWallet(caller) != bounty.Creator {
		return fmt.Errorf("%w: only the bounty creator may cancel", ErrUnauthorized)
	}
	pending, err := e.Registry.CountPending(ctx, bountyID)
	if err != nil {
		return err
	}
	if pending > 0 {
		return fmt.Errorf("%w: bounty %d has %d unresolved claims", ErrInvalidState, bountyID, pending)
	}
	return e.Ledger.Refund(ctx, bountyID)
}

// Reconcile scans Open bounties for an Approved claim — the detectable
// half-finished approval — and finishes the release and close. It returns
// how many bounties were repaired. Scheduled periodically; every sweep an
// inconsistency survives is logged as an operator alert.
func (e *ReviewEngine) Reconcile(ctx context.Context) (int, error) {
	open, err := e.Ledger.List(ctx, store.BountyFilter{Status: models.BountyStatusOpen})
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, b := range open {
		claims, err := e.Registry.ListByBounty(ctx, b.ID)
		if err != nil {
			return repaired, err
		}
		for _, c := range claims {
			if c.Status != models.ClaimStatusApproved {
				continue
			}
			log.Printf("[ALERT] [RECONCILER] bounty %d open with approved claim %d, repairing", b.ID, c.ID)
			relErr := e.Ledger.ReleaseFunds(ctx, b.ID, c.Submitter)
			if relErr != nil && !errors.Is(relErr, ErrInvalidState) {
				// Custody is still failing. The bounty must stay Open: the
				// Approved-claim-on-Open-bounty marker is the only thing a
				// later sweep can find, and closing now would strand the
				// locked escrow with the winner never paid.
				log.Printf("[ALERT] [RECONCILER] release for bounty %d still failing, will retry next sweep: %v", b.ID, relErr)
				break
			}
			if relErr != nil {
				// Already settled: the funds moved in the half-finished
				// approval and closing is what remains owed.
				log.Printf("[RECONCILER] escrow for bounty %d already settled: %v", b.ID, relErr)
			}
			if err := e.Ledger.Close(ctx, b.ID); err != nil {
				log.Printf("[ALERT] [RECONCILER] bounty %d still open: %v", b.ID, err)
				break
			}
			repaired++
			break
		}
	}
	return repaired, nil
}
