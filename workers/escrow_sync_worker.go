package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"bounty-escrow-system/escrow"
	"bounty-escrow-system/models"
	"bounty-escrow-system/store"
)

// EscrowStatusSource reports the custody collaborator's view of an escrow.
// Both the HTTP client and the simulator satisfy it.
type EscrowStatusSource interface {
	Status(ctx context.Context, escrowRef string) (escrow.Status, error)
}

// EscrowSyncClient mirrors custody-side escrow state into the local
// escrow_mirror table and flags drift between the collaborator and local
// bounty state.
type EscrowSyncClient struct {
	Bounties store.BountyStore
	Mirrors  store.EscrowMirrorStore
	Custody  EscrowStatusSource
}

func NewEscrowSyncClient(bounties store.BountyStore, mirrors store.EscrowMirrorStore, custody EscrowStatusSource) *EscrowSyncClient {
	return &EscrowSyncClient{Bounties: bounties, Mirrors: mirrors, Custody: custody}
}

// SyncOnce refreshes the mirror for every bounty's escrow. Funds that moved
// on the custody side while the local bounty is still Open indicate a
// half-finished settlement and are alert-logged for the reconciler.
func (c *EscrowSyncClient) SyncOnce(ctx context.Context) error {
	bounties, err := c.Bounties.List(ctx, store.BountyFilter{})
	if err != nil {
		return err
	}

	for _, b := range bounties {
		if b.EscrowRef == "" {
			continue
		}

		status, err := c.Custody.Status(ctx, b.EscrowRef)
		if err != nil {
			if errors.Is(err, escrow.ErrUnknownEscrow) {
				log.Printf("[ALERT] [ESCROW_SYNC] bounty %d references unknown escrow %s", b.ID, b.EscrowRef)
				continue
			}
			log.Printf("[ESCROW_SYNC] status check for escrow %s failed: %v", b.EscrowRef, err)
			continue
		}

		if err := c.Mirrors.Upsert(ctx, &models.EscrowMirror{
			EscrowRef:     b.EscrowRef,
			BountyID:      b.ID,
			Token:         b.RewardToken,
			Amount:        b.RewardAmount,
			State:         models.EscrowState(status),
			LastCheckedAt: time.Now().UTC(),
		}); err != nil {
			log.Printf("[ESCROW_SYNC] failed to mirror escrow %s: %v", b.EscrowRef, err)
			continue
		}

		if b.IsOpen() && status != escrow.StatusLocked {
			log.Printf("[ALERT] [ESCROW_SYNC] bounty %d is open but escrow %s is %s on the custody side", b.ID, b.EscrowRef, status)
		}
	}
	return nil
}

// PollEscrows runs SyncOnce on a fixed interval until ctx is cancelled.
func PollEscrows(ctx context.Context, client *EscrowSyncClient, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[ESCROW_SYNC] polling custody collaborator every %s", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[ESCROW_SYNC] stopping")
			return
		case <-ticker.C:
			if err := client.SyncOnce(ctx); err != nil {
				log.Printf("[ESCROW_SYNC] sweep failed: %v", err)
			}
		}
	}
}
