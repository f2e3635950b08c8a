package models

import "time"

// SubmissionRecord is one entry of the legacy free-form submission log:
// a content identifier not tied to any bounty. Append-only, insertion order
// significant, no review status.
type SubmissionRecord struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ContentID string    `gorm:"type:varchar(128);not null" json:"cid"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
