package model

import "time"

// LedgerRecord is one key-value ledger entry. Keys carry the contract and
// tier prefix, values are JSON.
type LedgerRecord struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte `gorm:"type:bytea;not null"`
	LiveUntil uint64 `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (LedgerRecord) TableName() string {
	return "ledger_records"
}
