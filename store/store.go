// Package store defines the persistence boundary for bounty, claim,
// organization and submission-log records. Backends: gormstore (postgres)
// for production, memory for tests and local development. Both expose the
// same compare-and-set transition methods so the service layer's locking
// discipline behaves identically against either.
package store

import (
	"context"
	"errors"

	"bounty-escrow-system/models"
)

var (
	// ErrNotFound means the identifier is unknown. Terminal, not retryable.
	ErrNotFound = errors.New("record not found")
	// ErrStaleState means a compare-and-set transition observed a state other
	// than the expected pre-state and did nothing.
	ErrStaleState = errors.New("stale state: record not in expected status")
)

// BountyFilter narrows List. Zero values mean "no filter".
type BountyFilter struct {
	Creator string
	Status  models.BountyStatus
}

type BountyStore interface {
	// Create persists the bounty and assigns its monotonic numeric ID.
	Create(ctx context.Context, b *models.Bounty) error
	Get(ctx context.Context, id uint64) (*models.Bounty, error)
	// List returns bounties matching the filter, most recent first.
	List(ctx context.Context, f BountyFilter) ([]models.Bounty, error)
	// UpdateStatus transitions id from `from` to `to` atomically, returning
	// ErrStaleState if the bounty is not currently in `from`.
	UpdateStatus(ctx context.Context, id uint64, from, to models.BountyStatus) error
}

type ClaimStore interface {
	Create(ctx context.Context, c *models.Claim) error
	Get(ctx context.Context, id uint64) (*models.Claim, error)
	// ListByBounty returns claims for a bounty in submission order, oldest first.
	ListByBounty(ctx context.Context, bountyID uint64) ([]models.Claim, error)
	// UpdateStatus transitions id from `from` to `to` atomically, returning
	// ErrStaleState if the claim is not currently in `from`.
	UpdateStatus(ctx context.Context, id uint64, from, to models.ClaimStatus) error
	// CountByStatus counts a bounty's claims holding the given status.
	CountByStatus(ctx context.Context, bountyID uint64, status models.ClaimStatus) (int64, error)
}

type OrganizationStore interface {
	// Upsert writes the record, overwriting any prior registration under the
	// same wallet address (last write wins).
	Upsert(ctx context.Context, org *models.Organization) error
	Get(ctx context.Context, walletAddress string) (*models.Organization, error)
	List(ctx context.Context) ([]models.Organization, error)
}

type SubmissionLogStore interface {
	Append(ctx context.Context, contentID string) error
	// List returns logged content identifiers, most recent first.
	List(ctx context.Context) ([]string, error)
}

type EscrowMirrorStore interface {
	Upsert(ctx context.Context, m *models.EscrowMirror) error
	Get(ctx context.Context, escrowRef string) (*models.EscrowMirror, error)
	List(ctx context.Context) ([]models.EscrowMirror, error)
}
