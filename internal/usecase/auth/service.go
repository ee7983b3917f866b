package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hrms-backend/internal/domain/account"
	"hrms-backend/internal/logger"
	"hrms-backend/internal/mailer"
	"hrms-backend/internal/otp"
	"hrms-backend/internal/token"
	apperrors "hrms-backend/pkg/errors"
	"hrms-backend/pkg/utils"
)

// Service drives the account lifecycle: registration, email verification,
// login, password recovery and token refresh. All business failures are
// returned as sentinel errors from pkg/errors; store and notifier calls are
// attempted at most once per request.
type Service struct {
	accounts account.Repository
	notifier mailer.Notifier
	issuer   *token.Issuer
}

func NewService(accounts account.Repository, notifier mailer.Notifier, issuer *token.Issuer) *Service {
	return &Service{
		accounts: accounts,
		notifier: notifier,
		issuer:   issuer,
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AccountResponse, error) {
	role := account.Role(req.Role)
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewAppError("WEAK_PASSWORD", err.Error(), nil)
	}

	existing, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, account.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		logger.Warn("Registration attempt with existing email",
			zap.String("email", req.Email),
			zap.String("event", "registration_failed_duplicate_email"),
		)
		return nil, apperrors.ErrAccountAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, expiry := otp.Generate()

	acct := &account.Account{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         role,
		IsVerified:   false,
	}
	acct.SetVerificationCode(code, expiry)

	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, account.ErrAccountAlreadyExists) {
			return nil, apperrors.ErrAccountAlreadyExists
		}
		return nil, err
	}

	s.notify(acct.Email, "Email Verification",
		fmt.Sprintf("Your OTP for email verification is: %s. It is valid for 15 minutes.", code))

	logger.Info("Account registered",
		zap.String("account_id", acct.ID.String()),
		zap.String("email", acct.Email),
		zap.String("role", string(acct.Role)),
		zap.String("event", "account_registered"),
	)

	return ToAccountResponse(acct), nil
}

func (s *Service) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return apperrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	acct, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return apperrors.ErrAccountNotFound
		}
		return fmt.Errorf("failed to retrieve account: %w", err)
	}

	if !acct.VerificationCodeMatches(req.Code, time.Now()) {
		logger.Warn("Verification attempt with invalid or expired code",
			zap.String("account_id", acct.ID.String()),
			zap.String("event", "verification_failed"),
		)
		return apperrors.ErrInvalidOrExpiredCode
	}

	acct.MarkVerified()
	if err := s.accounts.Save(ctx, acct); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account verified",
		zap.String("account_id", acct.ID.String()),
		zap.String("email", acct.Email),
		zap.String("event", "account_verified"),
	)

	return nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	acct, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			logger.Warn("Login attempt with non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "login_failed_unknown_email"),
			)
			// Same error as a wrong password so callers cannot probe
			// which emails are registered.
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !acct.IsVerified {
		// Unverified accounts get a fresh code on every login attempt,
		// replacing whatever code was pending. Any in-flight password
		// reset code is left untouched.
		code, expiry := otp.Generate()
		acct.SetVerificationCode(code, expiry)
		if err := s.accounts.Save(ctx, acct); err != nil {
			return nil, fmt.Errorf("failed to save account: %w", err)
		}

		s.notify(acct.Email, "Email Verification",
			fmt.Sprintf("Your new OTP for email verification is: %s. It is valid for 15 minutes.", code))

		logger.Info("Login attempt for unverified account, verification code resent",
			zap.String("account_id", acct.ID.String()),
			zap.String("event", "login_failed_unverified"),
		)
		return nil, apperrors.ErrAccountNotVerified
	}

	if !utils.CheckPassword(acct.PasswordHash, req.Password) {
		logger.Warn("Login attempt with invalid password",
			zap.String("account_id", acct.ID.String()),
			zap.String("event", "login_failed_invalid_password"),
		)
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, err := s.issuer.IssueAccess(acct.ID, acct.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refreshToken, err := s.issuer.IssueRefresh(acct.ID, acct.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	logger.Info("Login successful",
		zap.String("account_id", acct.ID.String()),
		zap.String("role", string(acct.Role)),
		zap.String("event", "login_success"),
	)

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         acct.Role,
	}, nil
}

func (s *Service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return apperrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	acct, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return apperrors.ErrAccountNotFound
		}
		return fmt.Errorf("failed to retrieve account: %w", err)
	}

	// A new request overwrites any prior pending reset code.
	code, expiry := otp.Generate()
	acct.SetResetCode(code, expiry)
	if err := s.accounts.Save(ctx, acct); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	s.notify(acct.Email, "Password Reset OTP",
		fmt.Sprintf("Your OTP for password reset is: %s. It is valid for 15 minutes.", code))

	logger.Info("Password reset code generated",
		zap.String("account_id", acct.ID.String()),
		zap.Time("expires_at", expiry),
		zap.String("event", "password_reset_requested"),
	)

	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return apperrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.NewAppError("WEAK_PASSWORD", err.Error(), nil)
	}

	acct, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return apperrors.ErrAccountNotFound
		}
		return fmt.Errorf("failed to retrieve account: %w", err)
	}

	if !acct.ResetCodeMatches(req.Code, time.Now()) {
		logger.Warn("Password reset attempt with invalid or expired code",
			zap.String("account_id", acct.ID.String()),
			zap.String("event", "password_reset_failed"),
		)
		return apperrors.ErrInvalidOrExpiredCode
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	acct.PasswordHash = hashedPassword
	acct.ClearResetCode()
	if err := s.accounts.Save(ctx, acct); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Password reset",
		zap.String("account_id", acct.ID.String()),
		zap.String("event", "password_reset_success"),
	)

	return nil
}

// Refresh validates a refresh token and issues a new access token. The
// refresh token itself is not rotated; it stays valid until its own expiry.
func (s *Service) Refresh(refreshToken string) (*RefreshResponse, error) {
	subjectID, role, err := s.issuer.Verify(refreshToken, token.PurposeRefresh)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	accessToken, err := s.issuer.IssueAccess(subjectID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &RefreshResponse{AccessToken: accessToken}, nil
}

// Logout is a no-op server-side: there is no session registry to invalidate.
// Discarding the tokens is the caller's responsibility.
func (s *Service) Logout() {
}

// notify dispatches mail off the request path. Delivery failures are logged
// and discarded, never surfaced to the caller.
func (s *Service) notify(to, subject, body string) {
	go func() {
		if err := s.notifier.Send(to, subject, body); err != nil {
			logger.Error("Failed to send notification email",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
	}()
}
