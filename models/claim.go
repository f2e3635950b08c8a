package models

import "time"

// ClaimStatus is the review state of a claim. Transitions are monotonic and
// terminal: Pending -> Approved or Pending -> Rejected, nothing further.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// Claim is a submitter's response to a bounty: a public teaser plus a content
// identifier pointing at the encrypted full message. At most one claim per
// bounty ever reaches Approved.
type Claim struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	BountyID    uint64      `gorm:"not null;index" json:"bounty_id"`
	Submitter   string      `gorm:"type:varchar(128);not null;index" json:"submitter"`
	Teaser      string      `gorm:"type:text;not null" json:"teaser"`
	ContentID   string      `gorm:"type:varchar(128);not null" json:"encrypted_data_cid"`
	// Encrypted is false when the submitter supplied no recipient key and the
	// payload carries the labeled fallback encoding instead of PGP ciphertext.
	// Surfaced to the reviewer so degraded mode is never mistaken for
	// confidentiality.
	Encrypted   bool        `gorm:"not null" json:"encrypted"`
	Status      ClaimStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	SubmittedAt time.Time   `gorm:"autoCreateTime" json:"submitted_at"`
}

// Resolved reports whether the claim has reached a terminal review state.
func (c *Claim) Resolved() bool {
	return c.Status != ClaimStatusPending
}
