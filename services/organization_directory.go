package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bounty-escrow-system/models"
	"bounty-escrow-system/pgp"
	"bounty-escrow-system/store"

	gocache "github.com/patrickmn/go-cache"
)

// OrganizationDirectory maps wallet identities to display names and armored
// public encryption keys. Lookups are cached briefly because the submission
// pipeline resolves the recipient key on every claim.
type OrganizationDirectory struct {
	Store store.OrganizationStore
	cache *gocache.Cache
}

func NewOrganizationDirectory(st store.OrganizationStore) *OrganizationDirectory {
	return &OrganizationDirectory{
		Store: st,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// CanonicalWallet normalizes a wallet address to its canonical lowercased
// form. All identity comparisons in the core go through this.
func CanonicalWallet(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// Register stores an organization record. Re-registration under the same
// wallet address overwrites the prior record (last write wins).
func (d *OrganizationDirectory) Register(ctx context.Context, walletAddress, name, armoredKey string) error {
	wallet := CanonicalWallet(walletAddress)
	if wallet == "" {
		return fmt.Errorf("%w: wallet address is required", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: organization name is required", ErrInvalidInput)
	}
	key := strings.TrimSpace(armoredKey)
	if key == "" {
		return fmt.Errorf("%w: PGP public key is required", ErrInvalidInput)
	}
	if !pgp.ValidKeyBlock(key) {
		return fmt.Errorf("%w: PGP key must carry BEGIN and END key block delimiters", ErrInvalidInput)
	}

	org := &models.Organization{
		WalletAddress: wallet,
		Name:          strings.TrimSpace(name),
		PGPPublicKey:  key,
	}
	if err := d.Store.Upsert(ctx, org); err != nil {
		return fmt.Errorf("upsert organization: %w", err)
	}
	d.cache.Set(wallet, *org, gocache.DefaultExpiration)
	return nil
}

// Get resolves an organization by wallet address.
func (d *OrganizationDirectory) Get(ctx context.Context, walletAddress string) (*models.Organization, error) {
	wallet := CanonicalWallet(walletAddress)
	if cached, ok := d.cache.Get(wallet); ok {
		org := cached.(models.Organization)
		return &org, nil
	}

	org, err := d.Store.Get(ctx, wallet)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: organization %s", ErrNotFound, wallet)
		}
		return nil, err
	}
	d.cache.Set(wallet, *org, gocache.DefaultExpiration)
	return org, nil
}

// List returns all registered organizations. Order is not significant.
func (d *OrganizationDirectory) List(ctx context.Context) ([]models.Organization, error) {
	return d.Store.List(ctx)
}
