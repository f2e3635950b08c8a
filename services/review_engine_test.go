package services_test

import (
	"context"
	"errors"
	"testing"

	"bounty-escrow-system/escrow"
	"bounty-escrow-system/models"
	"bounty-escrow-system/services"
	"bounty-escrow-system/store/memory"
)

// Full review cycle: two competing claims, one approval. The winner gets the
// escrowed amount exactly once, the bounty closes, and the loser can still
// be rejected afterwards.
func TestApproveReleasesFundsAndClosesBounty(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bountyID := f.openBounty(t, 1000)
	winner := f.pendingClaim(t, bountyID, subWallet, "board minutes, Q3")
	loser := f.pendingClaim(t, bountyID, "0x3333000000000000000000000000000000000003", "shipping manifests")

	if err := f.engine.ApproveClaim(ctx, winner, orgWallet); err != nil {
		t.Fatalf("approve: %v", err)
	}

	b, err := f.ledger.Get(ctx, bountyID)
	if err != nil {
		t.Fatalf("get bounty: %v", err)
	}
	if b.Status != models.BountyStatusClosed {
		t.Fatalf("bounty status = %s, want closed", b.Status)
	}

	recipient, amount, released := f.sim.ReleasedTo(b.EscrowRef)
	if !released {
		t.Fatal("escrow not released")
	}
	if recipient != services.CanonicalWallet(subWallet) {
		t.Fatalf("released to %s, want %s", recipient, services.CanonicalWallet(subWallet))
	}
	if amount != 1000 {
		t.Fatalf("released %d, want exactly 1000", amount)
	}

	// Second approval on the now-closed bounty must lose.
	if err := f.engine.ApproveClaim(ctx, loser, orgWallet); !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("second approve: got %v, want ErrInvalidState", err)
	}
	// Rejection remains available for bookkeeping after close.
	if err := f.engine.RejectClaim(ctx, loser, orgWallet); err != nil {
		t.Fatalf("reject after close: %v", err)
	}
	c, _ := f.registry.Get(ctx, loser)
	if c.Status != models.ClaimStatusRejected {
		t.Fatalf("loser status = %s, want rejected", c.Status)
	}
}

func TestReviewRequiresBountyCreator(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bountyID := f.openBounty(t, 500)
	claimID := f.pendingClaim(t, bountyID, subWallet, "teaser")

	stranger := "0xdead000000000000000000000000000000000bad"
	if err := f.engine.ApproveClaim(ctx, claimID, stranger); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("approve by stranger: got %v, want ErrUnauthorized", err)
	}
	if err := f.engine.RejectClaim(ctx, claimID, stranger); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("reject by stranger: got %v, want ErrUnauthorized", err)
	}

	// Unauthorized attempts must not move the claim.
	c, _ := f.registry.Get(ctx, claimID)
	if c.Status != models.ClaimStatusPending {
		t.Fatalf("claim status = %s, want pending", c.Status)
	}
}

func TestReviewerAddressIsCanonicalized(t *testing.T) {
	f := newFixture()
	bountyID := f.openBounty(t, 500)
	claimID := f.pendingClaim(t, bountyID, subWallet, "teaser")

	// Same creator wallet in different casing.
	shouted := "0XABCD000000000000000000000000000000000001"
	if err := f.engine.ApproveClaim(context.Background(), claimID, shouted); err != nil {
		t.Fatalf("approve with uppercased creator wallet: %v", err)
	}
}

// A release failure after the claim is approved surfaces as ErrInconsistent
// and leaves an Approved claim on an Open bounty. Reconcile finishes the
// release and close once the custody collaborator recovers.
func TestReleaseFailureSurfacesInconsistencyAndReconcileRepairs(t *testing.T) {
	ctx := context.Background()
	custody := &failingCustody{Simulator: escrow.NewSimulator(), failRelease: true}

	bounties := memory.NewBounties()
	claims := memory.NewClaims()
	ledger := services.NewBountyLedger(bounties, memory.NewEscrowMirrors(), custody)
	registry := services.NewClaimRegistry(claims, bounties)
	engine := services.NewReviewEngine(registry, ledger)

	bountyID, err := ledger.Create(ctx, orgWallet, "Procurement Fraud Records", rewardTok, 750)
	if err != nil {
		t.Fatalf("create bounty: %v", err)
	}
	claimID, err := registry.Submit(ctx, bountyID, subWallet, "invoices", "QmClaimContent0000000000000000000000000000000", true)
	if err != nil {
		t.Fatalf("submit claim: %v", err)
	}

	if err := engine.ApproveClaim(ctx, claimID, orgWallet); !errors.Is(err, services.ErrInconsistent) {
		t.Fatalf("approve with failing release: got %v, want ErrInconsistent", err)
	}

	// The half-finished state: approved claim, open bounty, funds locked.
	c, _ := registry.Get(ctx, claimID)
	if c.Status != models.ClaimStatusApproved {
		t.Fatalf("claim status = %s, want approved", c.Status)
	}
	b, _ := ledger.Get(ctx, bountyID)
	if b.Status != models.BountyStatusOpen {
		t.Fatalf("bounty status = %s, want open", b.Status)
	}

	// A sweep while custody is still down must not repair anything and,
	// above all, must not close the bounty: that marker is the only way a
	// later sweep can find the stranded escrow.
	repaired, err := engine.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile with custody down: %v", err)
	}
	if repaired != 0 {
		t.Fatalf("repaired = %d while custody down, want 0", repaired)
	}
	b, _ = ledger.Get(ctx, bountyID)
	if b.Status != models.BountyStatusOpen {
		t.Fatalf("bounty status after failed sweep = %s, want still open", b.Status)
	}
	if status, _ := custody.Simulator.Status(ctx, b.EscrowRef); status != escrow.StatusLocked {
		t.Fatalf("escrow status after failed sweep = %s, want still locked", status)
	}

	// Custody recovers; the sweep finishes the settlement.
	custody.failRelease = false
	repaired, err = engine.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("repaired = %d, want 1", repaired)
	}

	b, _ = ledger.Get(ctx, bountyID)
	if b.Status != models.BountyStatusClosed {
		t.Fatalf("bounty status after reconcile = %s, want closed", b.Status)
	}
	recipient, amount, released := custody.Simulator.ReleasedTo(b.EscrowRef)
	if !released || amount != 750 {
		t.Fatalf("escrow released=%v amount=%d, want released 750", released, amount)
	}
	if recipient != services.CanonicalWallet(subWallet) {
		t.Fatalf("released to %s, want submitter", recipient)
	}
}

// The funds moved before the close failed: a sweep must tolerate the
// already-settled escrow and still finish the close.
func TestReconcileClosesWhenEscrowAlreadySettled(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bountyID := f.openBounty(t, 400)
	claimID := f.pendingClaim(t, bountyID, subWallet, "teaser")

	// Half-finished approval with only the close missing.
	if err := f.registry.Approve(ctx, claimID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := f.ledger.ReleaseFunds(ctx, bountyID, subWallet); err != nil {
		t.Fatalf("release: %v", err)
	}

	repaired, err := f.engine.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("repaired = %d, want 1", repaired)
	}
	b, _ := f.ledger.Get(ctx, bountyID)
	if b.Status != models.BountyStatusClosed {
		t.Fatalf("bounty status = %s, want closed", b.Status)
	}
	if _, amount, released := f.sim.ReleasedTo(b.EscrowRef); !released || amount != 400 {
		t.Fatalf("escrow released=%v amount=%d, want single release of 400", released, amount)
	}
}

func TestReconcileIgnoresHealthyBounties(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bountyID := f.openBounty(t, 300)
	f.pendingClaim(t, bountyID, subWallet, "teaser")

	repaired, err := f.engine.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if repaired != 0 {
		t.Fatalf("repaired = %d, want 0", repaired)
	}
	b, _ := f.ledger.Get(ctx, bountyID)
	if b.Status != models.BountyStatusOpen {
		t.Fatalf("reconcile must not touch bounty without approved claim")
	}
}

func TestCancelBountyRefundsEscrow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bountyID := f.openBounty(t, 2000)
	if err := f.engine.CancelBounty(ctx, bountyID, orgWallet); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	b, _ := f.ledger.Get(ctx, bountyID)
	if b.Status != models.BountyStatusClosed {
		t.Fatalf("bounty status = %s, want closed", b.Status)
	}
	status, err := f.sim.Status(ctx, b.EscrowRef)
	if err != nil {
		t.Fatalf("escrow status: %v", err)
	}
	if status != escrow.StatusRefunded {
		t.Fatalf("escrow status = %s, want refunded", status)
	}
}

func TestCancelBountyRequiresCreator(t *testing.T) {
	f := newFixture()
	bountyID := f.openBounty(t, 2000)

	err := f.engine.CancelBounty(context.Background(), bountyID, subWallet)
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("cancel by non-creator: got %v, want ErrUnauthorized", err)
	}
}

func TestCancelBountyBlockedByPendingClaims(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	bountyID := f.openBounty(t, 2000)
	claimID := f.pendingClaim(t, bountyID, subWallet, "teaser")

	if err := f.engine.CancelBounty(ctx, bountyID, orgWallet); !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("cancel with pending claim: got %v, want ErrInvalidState", err)
	}

	// Resolving the claim unblocks cancellation.
	if err := f.engine.RejectClaim(ctx, claimID, orgWallet); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := f.engine.CancelBounty(ctx, bountyID, orgWallet); err != nil {
		t.Fatalf("cancel after resolving claims: %v", err)
	}
}
