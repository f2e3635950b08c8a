package models

import "time"

// BountyStatus is the lifecycle state of a bounty. A bounty transitions
// Open -> Closed exactly once, either through an approved claim or an
// explicit creator cancellation.
type BountyStatus string

const (
	BountyStatusOpen   BountyStatus = "open"
	BountyStatusClosed BountyStatus = "closed"
)

// Bounty is a standing offer of escrowed reward funds for specific
// information. The reward amount is a fixed-point integer in the token's
// smallest unit; the escrowed amount is immutable once created.
type Bounty struct {
	ID           uint64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Creator      string       `gorm:"type:varchar(128);not null;index" json:"creator"`
	Title        string       `gorm:"not null" json:"title"`
	Slug         string       `gorm:"index" json:"slug"`
	RewardToken  string       `gorm:"type:varchar(128);not null" json:"reward_token"`
	RewardAmount int64        `gorm:"not null" json:"reward_amount"`
	Status       BountyStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	EscrowRef    string       `gorm:"type:varchar(128)" json:"escrow_ref"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// IsOpen reports whether claims may still be submitted or approved.
func (b *Bounty) IsOpen() bool {
	return b.Status == BountyStatusOpen
}
