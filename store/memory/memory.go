// Package memory is the in-memory store backend. It backs tests and local
// development; production uses gormstore. The two backends expose identical
// semantics so service code never branches on which one it got.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bounty-escrow-system/models"
	"bounty-escrow-system/store"
)

// Bounties implements store.BountyStore. IDs are monotonic per instance,
// mirroring the postgres sequence.
type Bounties struct {
	mu   sync.Mutex
	seq  uint64
	recs map[uint64]models.Bounty
}

func NewBounties() *Bounties {
	return &Bounties{recs: make(map[uint64]models.Bounty)}
}

func (s *Bounties) Create(ctx context.Context, b *models.Bounty) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	b.ID = s.seq
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	s.recs[b.ID] = *b
	return nil
}

func (s *Bounties) Get(ctx context.Context, id uint64) (*models.Bounty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.recs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (s *Bounties) List(ctx context.Context, f store.BountyFilter) ([]models.Bounty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bounty
	for _, b := range s.recs {
		if f.Creator != "" && !strings.EqualFold(b.Creator, f.Creator) {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Bounties) UpdateStatus(ctx context.Context, id uint64, from, to models.BountyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.recs[id]
	if !ok {
		return store.ErrNotFound
	}
	if b.Status != from {
		return store.ErrStaleState
	}
	b.Status = to
	s.recs[id] = b
	return nil
}

// Claims implements store.ClaimStore.
type Claims struct {
	mu   sync.Mutex
	seq  uint64
	recs map[uint64]models.Claim
}

func NewClaims() *Claims {
	return &Claims{recs: make(map[uint64]models.Claim)}
}

func (s *Claims) Create(ctx context.Context, c *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	c.ID = s.seq
	if c.SubmittedAt.IsZero() {
		c.SubmittedAt = time.Now().UTC()
	}
	s.recs[c.ID] = *c
	return nil
}

func (s *Claims) Get(ctx context.Context, id uint64) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.recs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Claims) ListByBounty(ctx context.Context, bountyID uint64) ([]models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Claim
	for _, c := range s.recs {
		if c.BountyID == bountyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Claims) UpdateStatus(ctx context.Context, id uint64, from, to models.ClaimStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.recs[id]
	if !ok {
		return store.ErrNotFound
	}
	if c.Status != from {
		return store.ErrStaleState
	}
	c.Status = to
	s.recs[id] = c
	return nil
}

func (s *Claims) CountByStatus(ctx context.Context, bountyID uint64, status models.ClaimStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, c := range s.recs {
		if c.BountyID == bountyID && c.Status == status {
			n++
		}
	}
	return n, nil
}

// Organizations implements store.OrganizationStore. Keys are canonical
// (lowercased) wallet addresses; the directory service canonicalizes before
// calling in.
type Organizations struct {
	mu   sync.Mutex
	recs map[string]models.Organization
}

func NewOrganizations() *Organizations {
	return &Organizations{recs: make(map[string]models.Organization)}
}

func (s *Organizations) Upsert(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if org.RegisteredAt.IsZero() {
		org.RegisteredAt = time.Now().UTC()
	}
	s.recs[org.WalletAddress] = *org
	return nil
}

func (s *Organizations) Get(ctx context.Context, walletAddress string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.recs[walletAddress]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &org, nil
}

func (s *Organizations) List(ctx context.Context) ([]models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Organization, 0, len(s.recs))
	for _, org := range s.recs {
		out = append(out, org)
	}
	return out, nil
}

// SubmissionLog implements store.SubmissionLogStore.
type SubmissionLog struct {
	mu   sync.Mutex
	seq  uint64
	recs []models.SubmissionRecord
}

func NewSubmissionLog() *SubmissionLog {
	return &SubmissionLog{}
}

func (s *SubmissionLog) Append(ctx context.Context, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.recs = append(s.recs, models.SubmissionRecord{
		ID:        s.seq,
		ContentID: contentID,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *SubmissionLog) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.recs))
	for i := len(s.recs) - 1; i >= 0; i-- {
		out = append(out, s.recs[i].ContentID)
	}
	return out, nil
}

// EscrowMirrors implements store.EscrowMirrorStore.
type EscrowMirrors struct {
	mu   sync.Mutex
	recs map[string]models.EscrowMirror
}

func NewEscrowMirrors() *EscrowMirrors {
	return &EscrowMirrors{recs: make(map[string]models.EscrowMirror)}
}

func (s *EscrowMirrors) Upsert(ctx context.Context, m *models.EscrowMirror) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := s.recs[m.EscrowRef]; ok {
		m.CreatedAt = prev.CreatedAt
	} else if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	s.recs[m.EscrowRef] = *m
	return nil
}

func (s *EscrowMirrors) Get(ctx context.Context, escrowRef string) (*models.EscrowMirror, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.recs[escrowRef]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (s *EscrowMirrors) List(ctx context.Context) ([]models.EscrowMirror, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.EscrowMirror, 0, len(s.recs))
	for _, m := range s.recs {
		out = append(out, m)
	}
	return out, nil
}
