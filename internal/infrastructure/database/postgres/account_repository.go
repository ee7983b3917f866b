package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"hrms-backend/internal/domain/account"
	"hrms-backend/internal/infrastructure/database/postgres/models"
)

// AccountRepository implements account.Repository
type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) account.Repository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()

	dbModel := toAccountModel(a)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		errStr := strings.ToLower(err.Error())
		if strings.Contains(errStr, "duplicate key") && strings.Contains(errStr, "email") {
			return account.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	a.ID = dbModel.ID
	a.CreatedAt = dbModel.CreatedAt
	a.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	var dbModel models.AccountModel
	err := r.db.DB.WithContext(ctx).Where("email = ?", email).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return toAccountEntity(&dbModel), nil
}

// Save upserts the full record. The OTP columns are written unconditionally
// so a cleared code (nil) actually clears the column.
func (r *AccountRepository) Save(ctx context.Context, a *account.Account) error {
	a.UpdatedAt = time.Now()

	result := r.db.DB.WithContext(ctx).Model(&models.AccountModel{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"password_hash":            a.PasswordHash,
			"is_verified":              a.IsVerified,
			"verification_code":        a.VerificationCode,
			"verification_code_expiry": a.VerificationCodeExpiry,
			"reset_code":               a.ResetCode,
			"reset_code_expiry":        a.ResetCodeExpiry,
			"updated_at":               a.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to save account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

func toAccountModel(a *account.Account) *models.AccountModel {
	return &models.AccountModel{
		ID:                     a.ID,
		Email:                  a.Email,
		PasswordHash:           a.PasswordHash,
		Role:                   string(a.Role),
		IsVerified:             a.IsVerified,
		VerificationCode:       a.VerificationCode,
		VerificationCodeExpiry: a.VerificationCodeExpiry,
		ResetCode:              a.ResetCode,
		ResetCodeExpiry:        a.ResetCodeExpiry,
		CreatedAt:              a.CreatedAt,
		UpdatedAt:              a.UpdatedAt,
	}
}

func toAccountEntity(m *models.AccountModel) *account.Account {
	return &account.Account{
		ID:                     m.ID,
		Email:                  m.Email,
		PasswordHash:           m.PasswordHash,
		Role:                   account.Role(m.Role),
		IsVerified:             m.IsVerified,
		VerificationCode:       m.VerificationCode,
		VerificationCodeExpiry: m.VerificationCodeExpiry,
		ResetCode:              m.ResetCode,
		ResetCodeExpiry:        m.ResetCodeExpiry,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}
