package services

import (
	"context"
	"fmt"
	"strings"

	"bounty-escrow-system/store"
)

// SubmissionLog is the legacy append-only log of free-form anonymous
// submissions: bare content identifiers with no bounty, no status.
type SubmissionLog struct {
	Store store.SubmissionLogStore
}

func NewSubmissionLog(st store.SubmissionLogStore) *SubmissionLog {
	return &SubmissionLog{Store: st}
}

// Append records a content identifier at the head of the log.
func (l *SubmissionLog) Append(ctx context.Context, contentID string) error {
	if strings.TrimSpace(contentID) == "" {
		return fmt.Errorf("%w: content identifier is required", ErrInvalidInput)
	}
	return l.Store.Append(ctx, strings.TrimSpace(contentID))
}

// List returns logged content identifiers, most recent first.
func (l *SubmissionLog) List(ctx context.Context) ([]string, error) {
	return l.Store.List(ctx)
}
