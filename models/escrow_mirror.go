// models/escrow_mirror.go
package models

import "time"

// EscrowState mirrors the custody collaborator's view of an escrow.
type EscrowState string

const (
	EscrowStateLocked   EscrowState = "locked"
	EscrowStateReleased EscrowState = "released"
	EscrowStateRefunded EscrowState = "refunded"
)

// EscrowMirror mirrors escrow records from the fund-custody collaborator.
// The sync worker keeps it fresh; the reconciler compares it against local
// bounty state to detect drift. Table name: escrow_mirror.
type EscrowMirror struct {
	EscrowRef     string      `gorm:"primaryKey;type:varchar(128)" json:"escrow_ref"`
	BountyID      uint64      `gorm:"not null;index" json:"bounty_id"`
	Token         string      `gorm:"type:varchar(128);not null" json:"token"`
	Amount        int64       `gorm:"not null" json:"amount"`
	State         EscrowState `gorm:"type:varchar(16);not null" json:"state"`
	LastCheckedAt time.Time   `gorm:"not null" json:"last_checked_at"`
	CreatedAt     time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"not null" json:"updated_at"`
}
