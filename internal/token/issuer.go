package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"hrms-backend/internal/domain/account"
	apperrors "hrms-backend/pkg/errors"
)

// Purpose distinguishes what a token may be used for. An access token is
// never accepted where a refresh token is expected and vice versa.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
)

// Claims carried by every issued token.
type Claims struct {
	Role    account.Role `json:"role"`
	Purpose Purpose      `json:"purpose"`
	jwt.RegisteredClaims
}

// Issuer mints and validates signed, expiring tokens. Its configuration is
// immutable after construction; there is no revocation store, expiry is the
// only invalidation mechanism.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token issuer requires access and refresh secrets")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token issuer requires positive TTLs")
	}
	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

// IssueAccess mints a short-lived access token for the subject.
func (i *Issuer) IssueAccess(subjectID uuid.UUID, role account.Role) (string, error) {
	return i.sign(subjectID, role, PurposeAccess, i.accessSecret, i.accessTTL)
}

// IssueRefresh mints a long-lived refresh token for the subject.
func (i *Issuer) IssueRefresh(subjectID uuid.UUID, role account.Role) (string, error) {
	return i.sign(subjectID, role, PurposeRefresh, i.refreshSecret, i.refreshTTL)
}

func (i *Issuer) sign(subjectID uuid.UUID, role account.Role, purpose Purpose, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify validates signature, expiry and purpose, and returns the subject id
// and role. It returns ErrExpiredToken for expired tokens and ErrInvalidToken
// for anything else that fails validation.
func (i *Issuer) Verify(tokenString string, expected Purpose) (uuid.UUID, account.Role, error) {
	secret := i.accessSecret
	if expected == PurposeRefresh {
		secret = i.refreshSecret
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, "", apperrors.ErrExpiredToken
		}
		return uuid.Nil, "", apperrors.ErrInvalidToken
	}
	if !parsed.Valid {
		return uuid.Nil, "", apperrors.ErrInvalidToken
	}

	if claims.Purpose != expected {
		return uuid.Nil, "", apperrors.ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return uuid.Nil, "", apperrors.ErrInvalidToken
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", apperrors.ErrInvalidToken
	}

	return subjectID, claims.Role, nil
}
