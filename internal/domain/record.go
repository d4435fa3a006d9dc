package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles a record can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Notification is one entry of a record's activity log.
type Notification struct {
	Message   string    `json:"message"`   // Text shown to the user
	Timestamp time.Time `json:"timestamp"` // When the entry was written
}

// LedgerRecord Model, one per user.
type LedgerRecord struct {
	UserID        string         `gorm:"primaryKey;size:36" json:"user_id"`                  // Stable opaque identity
	Username      *string        `gorm:"uniqueIndex;size:64" json:"username,omitempty"`      // Optional login name
	PasswordHash  string         `gorm:"size:72" json:"-"`                                   // bcrypt hash, empty for anonymous users
	Role          string         `gorm:"size:16;not null;default:user" json:"role"`          // Role: user or admin
	Balance       int64          `gorm:"not null;default:0" json:"balance"`                  // XD balance
	Jackpot       int64          `gorm:"-" json:"jackpot"`                                   // Mirror of the shared pool, filled on read
	Notifications []Notification `gorm:"serializer:json;type:longtext" json:"notifications"` // Most recent first
	ReferralCode  string         `gorm:"uniqueIndex;size:16;not null" json:"referral_code"`  // Generated once
	ReferredBy    *string        `gorm:"index;size:36" json:"referred_by,omitempty"`         // Referrer user ID, weak reference
	CreatedAt     time.Time      `json:"created_at"`                                         // Creation time
	UpdatedAt     time.Time      `json:"updated_at"`                                         // Last write time
}

// TableName pins the table name.
func (LedgerRecord) TableName() string {
	return "ledger_records"
}

// Clone returns a copy whose notification log can be mutated independently.
func (r LedgerRecord) Clone() LedgerRecord {
	out := r
	if r.Notifications != nil {
		out.Notifications = make([]Notification, len(r.Notifications))
		copy(out.Notifications, r.Notifications)
	}
	return out
}

// Prepend adds a notification at the head of the log. The stored timestamp
// never precedes the current head so the log stays most-recent-first.
func (r *LedgerRecord) Prepend(message string, now time.Time) Notification {
	if len(r.Notifications) > 0 && r.Notifications[0].Timestamp.After(now) {
		now = r.Notifications[0].Timestamp
	}
	n := Notification{Message: message, Timestamp: now}
	r.Notifications = append([]Notification{n}, r.Notifications...)
	return n
}

// CapNotifications drops the oldest entries beyond max. A max of zero or
// less keeps everything.
func (r *LedgerRecord) CapNotifications(max int) {
	if max > 0 && len(r.Notifications) > max {
		r.Notifications = r.Notifications[:max]
	}
}

// RecordPatch is a change to one ledger record expressed as deltas, so two
// patches for the same user can be applied in either order without losing
// either one. The store applies a patch while holding the record's row lock.
type RecordPatch struct {
	ID           string         `json:"id"`                      // Idempotency key, written once per patch
	BalanceDelta int64          `json:"balance_delta,omitempty"` // Added to the balance
	NoOverdraft  bool           `json:"no_overdraft,omitempty"`  // Reject when the balance would go negative
	Clear        bool           `json:"clear,omitempty"`         // Empty the log before prepending
	Notify       []Notification `json:"notify,omitempty"`        // Prepended in order, last one ends up first
	Cap          int            `json:"cap,omitempty"`           // Notification cap, zero for none
}

// NewPatch returns a patch with a fresh idempotency key.
func NewPatch() RecordPatch {
	return RecordPatch{ID: uuid.NewString()}
}

// Credit adds delta to the balance and queues message.
func (p RecordPatch) Credit(delta int64, message string, now time.Time) RecordPatch {
	p.BalanceDelta += delta
	p.Notify = append(p.Notify, Notification{Message: message, Timestamp: now})
	return p
}

// Empty reports whether the patch changes nothing.
func (p RecordPatch) Empty() bool {
	return p.BalanceDelta == 0 && !p.Clear && len(p.Notify) == 0
}

// ApplyTo applies the patch to r. With NoOverdraft set, a debit larger than
// the current balance returns an InsufficientBalanceError and leaves r as it
// was.
func (p RecordPatch) ApplyTo(r *LedgerRecord) error {
	next := r.Balance + p.BalanceDelta
	if p.NoOverdraft && next < 0 {
		return &InsufficientBalanceError{Required: -p.BalanceDelta, Balance: r.Balance}
	}
	r.Balance = next
	if p.Clear {
		r.Notifications = []Notification{}
	}
	for _, n := range p.Notify {
		r.Prepend(n.Message, n.Timestamp)
	}
	if r.Notifications == nil {
		r.Notifications = []Notification{}
	}
	r.CapNotifications(p.Cap)
	return nil
}

// AppliedWrite Model. One row per applied patch ID, so a replayed patch is
// recognised and skipped.
type AppliedWrite struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"` // RecordPatch.ID
	UserID    string    `gorm:"index;size:36" json:"user_id"` // Record the patch was applied to
	CreatedAt time.Time `gorm:"index" json:"created_at"`      // When it was applied
}

// TableName pins the table name.
func (AppliedWrite) TableName() string {
	return "applied_writes"
}
