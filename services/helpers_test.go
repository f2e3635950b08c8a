package services_test

import (
	"context"
	"testing"

	"bounty-escrow-system/escrow"
	"bounty-escrow-system/services"
	"bounty-escrow-system/storage"
	"bounty-escrow-system/store/memory"
)

const (
	orgWallet = "0xAbCd000000000000000000000000000000000001"
	subWallet = "0x9876000000000000000000000000000000000002"
	rewardTok = "0x5425890298aed601595a70ab815c96711a31bc65"
)

// fixture wires the core against memory backends and the escrow simulator.
type fixture struct {
	bounties *memory.Bounties
	claims   *memory.Claims
	orgs     *memory.Organizations
	mirrors  *memory.EscrowMirrors
	sim      *escrow.Simulator

	directory *services.OrganizationDirectory
	ledger    *services.BountyLedger
	registry  *services.ClaimRegistry
	engine    *services.ReviewEngine
}

func newFixture() *fixture {
	f := &fixture{
		bounties: memory.NewBounties(),
		claims:   memory.NewClaims(),
		orgs:     memory.NewOrganizations(),
		mirrors:  memory.NewEscrowMirrors(),
		sim:      escrow.NewSimulator(),
	}
	f.directory = services.NewOrganizationDirectory(f.orgs)
	f.ledger = services.NewBountyLedger(f.bounties, f.mirrors, f.sim)
	f.registry = services.NewClaimRegistry(f.claims, f.bounties)
	f.engine = services.NewReviewEngine(f.registry, f.ledger)
	return f
}

func (f *fixture) openBounty(t *testing.T, amount int64) uint64 {
	t.Helper()
	id, err := f.ledger.Create(context.Background(), orgWallet, "Corporate Tax Evasion Evidence", rewardTok, amount)
	if err != nil {
		t.Fatalf("create bounty: %v", err)
	}
	return id
}

func (f *fixture) pendingClaim(t *testing.T, bountyID uint64, submitter, teaser string) uint64 {
	t.Helper()
	id, err := f.registry.Submit(context.Background(), bountyID, submitter, teaser, storage.ContentID([]byte(teaser)), true)
	if err != nil {
		t.Fatalf("submit claim: %v", err)
	}
	return id
}

// fakeGateway records encrypt calls; prefixes instead of encrypting.
type fakeGateway struct {
	calls int
	fail  error
}

func (g *fakeGateway) Encrypt(plaintext []byte, armoredKey string) ([]byte, error) {
	g.calls++
	if g.fail != nil {
		return nil, g.fail
	}
	return append([]byte("sealed:"), plaintext...), nil
}

// flakyBlobStore fails the first failures puts with ErrUnavailable, then
// delegates to a real memory store.
type flakyBlobStore struct {
	inner    *storage.MemoryStore
	failures int
	puts     int
}

func newFlakyBlobStore(failures int) *flakyBlobStore {
	return &flakyBlobStore{inner: storage.NewMemoryStore(), failures: failures}
}

func (s *flakyBlobStore) Put(ctx context.Context, data []byte) (string, error) {
	s.puts++
	if s.puts <= s.failures {
		return "", storage.ErrUnavailable
	}
	return s.inner.Put(ctx, data)
}

func (s *flakyBlobStore) Get(ctx context.Context, contentID string) ([]byte, error) {
	return s.inner.Get(ctx, contentID)
}

// failingCustody is the simulator with release forced to fail, for driving
// the approved-but-open inconsistency.
type failingCustody struct {
	*escrow.Simulator
	failRelease bool
}

func (f *failingCustody) Release(ctx context.Context, escrowRef, recipient string) (string, error) {
	if f.failRelease {
		return "", escrow.ErrUnavailable
	}
	return f.Simulator.Release(ctx, escrowRef, recipient)
}
