package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bounty-escrow-system/pgp"
	"bounty-escrow-system/storage"
	"bounty-escrow-system/store"

	"github.com/cenkalti/backoff/v5"
)

// EncryptionGateway turns a plaintext payload into ciphertext only the
// holder of the recipient key can read. Implemented by pgp.Engine.
type EncryptionGateway interface {
	Encrypt(plaintext []byte, armoredKey string) ([]byte, error)
}

// SubmissionPipeline orchestrates encrypt -> store -> register for one claim
// submission. It holds no state of its own. Storage puts are retried with
// exponential backoff; the claim registration is not, because re-registering
// after an ambiguous failure could produce two claims for one submission.
type SubmissionPipeline struct {
	Registry *ClaimRegistry
	Gateway  EncryptionGateway
	Blobs    storage.Store

	// MaxPutAttempts caps storage retries before the failure surfaces.
	MaxPutAttempts uint
	// RetryInterval is the initial backoff interval. Shortened in tests.
	RetryInterval time.Duration
}

func NewSubmissionPipeline(registry *ClaimRegistry, gateway EncryptionGateway, blobs storage.Store) *SubmissionPipeline {
	return &SubmissionPipeline{
		Registry:       registry,
		Gateway:        gateway,
		Blobs:          blobs,
		MaxPutAttempts: 3,
		RetryInterval:  500 * time.Millisecond,
	}
}

// SubmitClaim encrypts fullMessage for the recipient key, stores the
// ciphertext, and registers a pending claim referencing it. With no
// recipient key the payload gets the labeled fallback encoding and the claim
// is marked unencrypted. Validation and the bounty Open check run before any
// encryption or storage work.
//
// If storage succeeds but registration fails, the blob stays behind as an
// orphan; a retry re-derives the same content identifier, so nothing
// duplicates at the storage layer.
func (p *SubmissionPipeline) SubmitClaim(ctx context.Context, bountyID uint64, submitter, teaser, fullMessage, recipientKey string) (uint64, error) {
	if strings.TrimSpace(teaser) == "" {
		return 0, fmt.Errorf("%w: teaser is required", ErrInvalidInput)
	}
	if strings.TrimSpace(fullMessage) == "" {
		return 0, fmt.Errorf("%w: full message is required", ErrInvalidInput)
	}

	// Fail fast before paying for encryption and storage.
	b, err := p.Registry.Bounties.Get(ctx, bountyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, stageErr("validate", fmt.Errorf("%w: unknown bounty %d", ErrInvalidInput, bountyID))
		}
		return 0, stageErr("validate", err)
	}
	if !b.IsOpen() {
		return 0, stageErr("validate", fmt.Errorf("%w: bounty %d is not open", ErrInvalidState, bountyID))
	}

	var payload []byte
	encrypted := true
	if strings.TrimSpace(recipientKey) == "" {
		payload = pgp.EncodeFallback([]byte(fullMessage))
		encrypted = false
	} else {
		payload, err = p.Gateway.Encrypt([]byte(fullMessage), recipientKey)
		if err != nil {
			if errors.Is(err, pgp.ErrInvalidKey) {
				return 0, stageErr("encrypt", fmt.Errorf("%w: %v", ErrInvalidInput, err))
			}
			return 0, stageErr("encrypt", err)
		}
	}

	contentID, err := p.putWithRetry(ctx, payload)
	if err != nil {
		return 0, stageErr("store", err)
	}

	claimID, err := p.Registry.Submit(ctx, bountyID, submitter, teaser, contentID, encrypted)
	if err != nil {
		return 0, stageErr("register", err)
	}
	return claimID, nil
}

// putWithRetry retries transient storage failures with exponential backoff,
// capped at MaxPutAttempts. Non-transient errors abort immediately.
func (p *SubmissionPipeline) putWithRetry(ctx context.Context, payload []byte) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.RetryInterval

	return backoff.Retry(ctx, func() (string, error) {
		cid, err := p.Blobs.Put(ctx, payload)
		if err != nil {
			if errors.Is(err, storage.ErrUnavailable) {
				return "", err
			}
			return "", backoff.Permanent(err)
		}
		return cid, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(p.MaxPutAttempts))
}
