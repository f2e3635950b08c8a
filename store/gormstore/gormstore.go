// Package gormstore is the postgres store backend. Status transitions use
// conditional UPDATEs (WHERE status = expected), so each individual
// transition is atomic in the database. The one-winner decision spans a
// count plus a transition on another record and is serialized by the claim
// registry's per-bounty mutex; the service runs as a single instance.
package gormstore

import (
	"context"
	"errors"

	"bounty-escrow-system/models"
	"bounty-escrow-system/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Bounties struct {
	DB *gorm.DB
}

func NewBounties(db *gorm.DB) *Bounties { return &Bounties{DB: db} }

func (s *Bounties) Create(ctx context.Context, b *models.Bounty) error {
	return s.DB.WithContext(ctx).Create(b).Error
}

func (s *Bounties) Get(ctx context.Context, id uint64) (*models.Bounty, error) {
	var b models.Bounty
	if err := s.DB.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *Bounties) List(ctx context.Context, f store.BountyFilter) ([]models.Bounty, error) {
	q := s.DB.WithContext(ctx).Model(&models.Bounty{})
	if f.Creator != "" {
		q = q.Where("creator = ?", f.Creator)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.Bounty
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Bounties) UpdateStatus(ctx context.Context, id uint64, from, to models.BountyStatus) error {
	res := s.DB.WithContext(ctx).Model(&models.Bounty{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.DB.WithContext(ctx).Model(&models.Bounty{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return store.ErrStaleState
	}
	return nil
}

type Claims struct {
	DB *gorm.DB
}

func NewClaims(db *gorm.DB) *Claims { return &Claims{DB: db} }

func (s *Claims) Create(ctx context.Context, c *models.Claim) error {
	return s.DB.WithContext(ctx).Create(c).Error
}

func (s *Claims) Get(ctx context.Context, id uint64) (*models.Claim, error) {
	var c models.Claim
	if err := s.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Claims) ListByBounty(ctx context.Context, bountyID uint64) ([]models.Claim, error) {
	var out []models.Claim
	err := s.DB.WithContext(ctx).
		Where("bounty_id = ?", bountyID).
		Order("submitted_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Claims) UpdateStatus(ctx context.Context, id uint64, from, to models.ClaimStatus) error {
	res := s.DB.WithContext(ctx).Model(&models.Claim{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.DB.WithContext(ctx).Model(&models.Claim{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return store.ErrStaleState
	}
	return nil
}

func (s *Claims) CountByStatus(ctx context.Context, bountyID uint64, status models.ClaimStatus) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Claim{}).
		Where("bounty_id = ? AND status = ?", bountyID, status).
		Count(&n).Error
	return n, err
}

type Organizations struct {
	DB *gorm.DB
}

func NewOrganizations(db *gorm.DB) *Organizations { return &Organizations{DB: db} }

func (s *Organizations) Upsert(ctx context.Context, org *models.Organization) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		UpdateAll: true,
	}).Create(org).Error
}

func (s *Organizations) Get(ctx context.Context, walletAddress string) (*models.Organization, error) {
	var org models.Organization
	if err := s.DB.WithContext(ctx).First(&org, "wallet_address = ?", walletAddress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (s *Organizations) List(ctx context.Context) ([]models.Organization, error) {
	var out []models.Organization
	if err := s.DB.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type SubmissionLog struct {
	DB *gorm.DB
}

func NewSubmissionLog(db *gorm.DB) *SubmissionLog { return &SubmissionLog{DB: db} }

func (s *SubmissionLog) Append(ctx context.Context, contentID string) error {
	return s.DB.WithContext(ctx).Create(&models.SubmissionRecord{ContentID: contentID}).Error
}

func (s *SubmissionLog) List(ctx context.Context) ([]string, error) {
	var recs []models.SubmissionRecord
	if err := s.DB.WithContext(ctx).Order("id DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ContentID)
	}
	return out, nil
}

type EscrowMirrors struct {
	DB *gorm.DB
}

func NewEscrowMirrors(db *gorm.DB) *EscrowMirrors { return &EscrowMirrors{DB: db} }

func (s *EscrowMirrors) Upsert(ctx context.Context, m *models.EscrowMirror) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "escrow_ref"}},
		UpdateAll: true,
	}).Create(m).Error
}

func (s *EscrowMirrors) Get(ctx context.Context, escrowRef string) (*models.EscrowMirror, error) {
	var m models.EscrowMirror
	if err := s.DB.WithContext(ctx).First(&m, "escrow_ref = ?", escrowRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *EscrowMirrors) List(ctx context.Context) ([]models.EscrowMirror, error) {
	var out []models.EscrowMirror
	if err := s.DB.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
