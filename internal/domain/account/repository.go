package account

import "context"

// Repository is the credential store. Every mutation is a read-modify-write
// against a single account keyed by email; last writer wins on the OTP
// fields, which is acceptable because codes are short-lived and driven by a
// single user.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Save(ctx context.Context, a *Account) error
}
