package services

import (
	"errors"
	"fmt"

	"bounty-escrow-system/escrow"
	"bounty-escrow-system/storage"
)

// Error taxonomy shared by the core services. Handlers map these onto HTTP
// statuses; orchestrators annotate them with the stage that failed so a
// caller can tell "storage put failed" apart from "claim already resolved".
var (
	// ErrInvalidInput: malformed or missing request fields. Never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidState: operation not valid for the record's current
	// lifecycle state. Retry only after re-reading state.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnauthorized: caller is not the bounty's creator.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound: identifier unknown.
	ErrNotFound = errors.New("not found")
	// ErrInconsistent: fund settlement and local state disagree. Fatal but
	// recoverable; the reconciler picks it up and it must never be shown as
	// an ordinary failure.
	ErrInconsistent = errors.New("inconsistent escrow state")

	// Transient upstream failures, re-exported so callers can match without
	// importing the leaf packages.
	ErrStorageUnavailable = storage.ErrUnavailable
	ErrLedgerUnavailable  = escrow.ErrUnavailable
)

// stageErr annotates err with the pipeline stage that produced it.
func stageErr(stage string, err error) error {
	return fmt.Errorf("%s: %w", stage, err)
}
