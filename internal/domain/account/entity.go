package account

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account roles. It is fixed at registration.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleHR       Role = "hr"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleHR
}

// Account represents an identity record in the domain.
//
// The verification and reset pairs are pointer fields: nil means no code is
// outstanding. A code whose expiry has passed is treated as absent even if
// the columns still hold values.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         Role
	IsVerified   bool

	VerificationCode       *string
	VerificationCodeExpiry *time.Time

	ResetCode       *string
	ResetCodeExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SetVerificationCode overwrites any pending verification code, invalidating
// the previous one.
func (a *Account) SetVerificationCode(code string, expiry time.Time) {
	a.VerificationCode = &code
	a.VerificationCodeExpiry = &expiry
}

// SetResetCode overwrites any pending reset code, invalidating the previous
// one.
func (a *Account) SetResetCode(code string, expiry time.Time) {
	a.ResetCode = &code
	a.ResetCodeExpiry = &expiry
}

// VerificationCodeMatches reports whether code matches the pending
// verification code and that code has not expired.
func (a *Account) VerificationCodeMatches(code string, now time.Time) bool {
	if a.VerificationCode == nil || a.VerificationCodeExpiry == nil {
		return false
	}
	return *a.VerificationCode == code && a.VerificationCodeExpiry.After(now)
}

// ResetCodeMatches reports whether code matches the pending reset code and
// that code has not expired.
func (a *Account) ResetCodeMatches(code string, now time.Time) bool {
	if a.ResetCode == nil || a.ResetCodeExpiry == nil {
		return false
	}
	return *a.ResetCode == code && a.ResetCodeExpiry.After(now)
}

// MarkVerified flips the account to verified and clears the pending
// verification pair. Verification happens exactly once.
func (a *Account) MarkVerified() {
	a.IsVerified = true
	a.VerificationCode = nil
	a.VerificationCodeExpiry = nil
}

// ClearResetCode clears the pending reset pair after a successful reset.
func (a *Account) ClearResetCode() {
	a.ResetCode = nil
	a.ResetCodeExpiry = nil
}
