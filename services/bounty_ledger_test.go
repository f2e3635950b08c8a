package services_test

import (
	"context"
	"errors"
	"testing"

	"bounty-escrow-system/escrow"
	"bounty-escrow-system/models"
	"bounty-escrow-system/services"
	"bounty-escrow-system/store"
	"bounty-escrow-system/store/memory"
)

func TestCreateBountyValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cases := []struct {
		name    string
		creator string
		title   string
		token   string
		amount  int64
	}{
		{"empty creator", "", "Title", rewardTok, 100},
		{"empty title", orgWallet, "   ", rewardTok, 100},
		{"empty token", orgWallet, "Title", "", 100},
		{"zero amount", orgWallet, "Title", rewardTok, 0},
		{"negative amount", orgWallet, "Title", rewardTok, -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.Create(ctx, tc.creator, tc.title, tc.token, tc.amount)
			if !errors.Is(err, services.ErrInvalidInput) {
				t.Fatalf("got %v, want ErrInvalidInput", err)
			}
		})
	}

	// No escrow was locked for any of the rejected inputs.
	bounties, err := f.ledger.List(ctx, store.BountyFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bounties) != 0 {
		t.Fatalf("expected no bounties, got %d", len(bounties))
	}
}

func TestCreateBountyRecordsEscrowAndSlug(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	id, err := f.ledger.Create(ctx, orgWallet, "Offshore Shell Accounts!", rewardTok, 1234)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	b, err := f.ledger.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.Creator != services.CanonicalWallet(orgWallet) {
		t.Fatalf("creator = %s, want canonical form", b.Creator)
	}
	if b.Slug != "offshore-shell-accounts" {
		t.Fatalf("slug = %q", b.Slug)
	}
	if b.EscrowRef == "" {
		t.Fatal("bounty missing escrow reference")
	}
	status, err := f.sim.Status(ctx, b.EscrowRef)
	if err != nil {
		t.Fatalf("escrow status: %v", err)
	}
	if status != escrow.StatusLocked {
		t.Fatalf("escrow status = %s, want locked", status)
	}

	// The advisory mirror tracks the lock.
	m, err := f.mirrors.Get(ctx, b.EscrowRef)
	if err != nil {
		t.Fatalf("mirror: %v", err)
	}
	if m.State != models.EscrowStateLocked || m.Amount != 1234 {
		t.Fatalf("mirror = %+v", m)
	}
}

type refusingCustody struct {
	*escrow.Simulator
}

func (r *refusingCustody) CreateEscrow(ctx context.Context, token string, amount int64) (string, error) {
	return "", escrow.ErrUnavailable
}

// All-or-nothing creation: when the fund lock fails, no bounty record
// appears.
func TestCreateBountyEscrowFailureLeavesNoRecord(t *testing.T) {
	ctx := context.Background()
	bounties := memory.NewBounties()
	ledger := services.NewBountyLedger(bounties, memory.NewEscrowMirrors(), &refusingCustody{Simulator: escrow.NewSimulator()})

	_, err := ledger.Create(ctx, orgWallet, "Title", rewardTok, 100)
	if !errors.Is(err, services.ErrLedgerUnavailable) {
		t.Fatalf("got %v, want ErrLedgerUnavailable", err)
	}

	all, _ := ledger.List(ctx, store.BountyFilter{})
	if len(all) != 0 {
		t.Fatalf("expected no bounty records, got %d", len(all))
	}
}

func TestListBountiesNewestFirstAndFiltered(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	otherOrg := "0x7777000000000000000000000000000000000007"
	first, _ := f.ledger.Create(ctx, orgWallet, "First", rewardTok, 100)
	second, _ := f.ledger.Create(ctx, otherOrg, "Second", rewardTok, 200)
	third, _ := f.ledger.Create(ctx, orgWallet, "Third", rewardTok, 300)
	if err := f.ledger.Close(ctx, first); err != nil {
		t.Fatalf("close: %v", err)
	}

	all, err := f.ledger.List(ctx, store.BountyFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != third || all[2].ID != first {
		t.Fatalf("unexpected order: %+v", all)
	}

	// Creator filter accepts any casing.
	mine, err := f.ledger.List(ctx, store.BountyFilter{Creator: "0XABCD000000000000000000000000000000000001"})
	if err != nil {
		t.Fatalf("list by creator: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("creator filter returned %d, want 2", len(mine))
	}

	open, err := f.ledger.List(ctx, store.BountyFilter{Status: models.BountyStatusOpen})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 2 || open[0].ID != third || open[1].ID != second {
		t.Fatalf("open filter: %+v", open)
	}
}

func TestCloseBountyIsOneWay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.openBounty(t, 100)

	if err := f.ledger.Close(ctx, id); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.ledger.Close(ctx, id); !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("second close: got %v, want ErrInvalidState", err)
	}
	if err := f.ledger.Close(ctx, 999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("close unknown: got %v, want ErrNotFound", err)
	}
}

func TestReleaseFundsRequiresOpenBounty(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.openBounty(t, 100)

	if err := f.ledger.Close(ctx, id); err != nil {
		t.Fatalf("close: %v", err)
	}
	err := f.ledger.ReleaseFunds(ctx, id, subWallet)
	if !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("release on closed bounty: got %v, want ErrInvalidState", err)
	}
}

func TestReleaseFundsSettlesOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.openBounty(t, 100)

	if err := f.ledger.ReleaseFunds(ctx, id, subWallet); err != nil {
		t.Fatalf("release: %v", err)
	}
	// Bounty is still open (close is a separate step), but the escrow has
	// settled; a repeated release must not double-pay.
	err := f.ledger.ReleaseFunds(ctx, id, subWallet)
	if !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("second release: got %v, want ErrInvalidState", err)
	}
}
