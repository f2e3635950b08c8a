package models

import "time"

// Organization is a registered reviewer entity keyed by its wallet address.
// The wallet address is stored in canonical (lowercased) form; re-registration
// under the same address overwrites the prior record.
type Organization struct {
	WalletAddress string    `gorm:"primaryKey;type:varchar(128)" json:"wallet_address"`
	Name          string    `gorm:"not null" json:"org_name"`
	PGPPublicKey  string    `gorm:"type:text;not null" json:"pgp_key"`
	RegisteredAt  time.Time `gorm:"autoCreateTime" json:"registered_at"`
}
