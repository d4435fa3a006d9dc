package domain

import "time"

// JackpotPoolID is the primary key of the single shared pool row.
const JackpotPoolID uint = 1

// JackpotPool Model. There is exactly one row; ledger records reference it on read.
type JackpotPool struct {
	ID            uint      `gorm:"primaryKey" json:"-"`                      // Always JackpotPoolID
	Amount        int64     `gorm:"not null;default:0" json:"amount"`         // Current pool in XD
	LastAccrualAt time.Time `gorm:"not null" json:"last_accrual_at"`          // Start of the pending partial minute
	Version       int64     `gorm:"not null;default:0" json:"version"`        // Optimistic concurrency token
	UpdatedAt     time.Time `json:"updated_at"`                               // Last write time
}

// TableName pins the table name.
func (JackpotPool) TableName() string {
	return "jackpot_pools"
}
