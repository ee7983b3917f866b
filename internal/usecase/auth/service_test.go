package auth

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hrms-backend/internal/domain/account"
	"hrms-backend/internal/logger"
	"hrms-backend/internal/token"
	apperrors "hrms-backend/pkg/errors"
	"hrms-backend/pkg/utils"
)

func TestMain(m *testing.M) {
	logger.Logger = zap.NewNop()
	os.Exit(m.Run())
}

// fakeRepo is an in-memory credential store. It hands out copies so that
// mutations only become visible through Save, like a real store round trip.
type fakeRepo struct {
	mu       sync.Mutex
	accounts map[string]*account.Account
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: make(map[string]*account.Account)}
}

func (r *fakeRepo) Create(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[a.Email]; exists {
		return account.ErrAccountAlreadyExists
	}

	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()

	clone := *a
	r.accounts[a.Email] = &clone
	return nil
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.accounts[email]
	if !exists {
		return nil, account.ErrAccountNotFound
	}

	clone := *stored
	return &clone, nil
}

func (r *fakeRepo) Save(_ context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.accounts[a.Email]
	if !exists || stored.ID != a.ID {
		return account.ErrAccountNotFound
	}

	a.UpdatedAt = time.Now()
	clone := *a
	r.accounts[a.Email] = &clone
	return nil
}

func (r *fakeRepo) stored(t *testing.T, email string) *account.Account {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.accounts[email]
	if !exists {
		t.Fatalf("no stored account for %s", email)
	}
	clone := *stored
	return &clone
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

// fakeNotifier records deliveries on a channel because the service sends
// mail off the request goroutine.
type fakeNotifier struct {
	sent chan sentMail
	err  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan sentMail, 16)}
}

func (n *fakeNotifier) Send(to, subject, body string) error {
	n.sent <- sentMail{To: to, Subject: subject, Body: body}
	return n.err
}

func (n *fakeNotifier) await(t *testing.T) sentMail {
	t.Helper()

	select {
	case m := <-n.sent:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return sentMail{}
	}
}

func newTestService(t *testing.T, notifier *fakeNotifier) (*Service, *fakeRepo, *token.Issuer) {
	t.Helper()

	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	repo := newFakeRepo()
	return NewService(repo, notifier, issuer), repo, issuer
}

func registerAndVerify(t *testing.T, svc *Service, repo *fakeRepo, email, password string, role string) *account.Account {
	t.Helper()

	ctx := context.Background()
	_, err := svc.Register(ctx, &RegisterRequest{Email: email, Password: password, Role: role})
	require.NoError(t, err)

	code := *repo.stored(t, email).VerificationCode
	require.NoError(t, svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: email, Code: code}))

	return repo.stored(t, email)
}

func TestRegister_CreatesPendingVerification(t *testing.T) {
	for _, role := range []string{"employee", "hr"} {
		t.Run(role, func(t *testing.T) {
			notifier := newFakeNotifier()
			svc, repo, _ := newTestService(t, notifier)

			resp, err := svc.Register(context.Background(), &RegisterRequest{
				Email:    "a@x.com",
				Password: "pw123456",
				Role:     role,
			})
			require.NoError(t, err)
			require.Equal(t, "a@x.com", resp.Email)
			require.Equal(t, account.Role(role), resp.Role)
			require.False(t, resp.IsVerified)
			require.NotEqual(t, uuid.Nil, resp.ID)

			stored := repo.stored(t, "a@x.com")
			require.False(t, stored.IsVerified)
			require.NotNil(t, stored.VerificationCode)
			require.Len(t, *stored.VerificationCode, 6)
			require.NotNil(t, stored.VerificationCodeExpiry)
			require.True(t, stored.VerificationCodeExpiry.After(time.Now()))
			require.Nil(t, stored.ResetCode)

			// Password is stored hashed, never in plaintext.
			require.NotEqual(t, "pw123456", stored.PasswordHash)
			require.True(t, utils.CheckPassword(stored.PasswordHash, "pw123456"))

			mail := notifier.await(t)
			require.Equal(t, "a@x.com", mail.To)
			require.Contains(t, mail.Body, *stored.VerificationCode)
		})
	}
}

func TestRegister_InvalidRole(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "a@x.com",
		Password: "pw123456",
		Role:     "admin",
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidRole)
	require.Equal(t, 0, repo.count())
}

func TestRegister_Duplicate(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Email: "a@x.com", Password: "pw123456", Role: "employee"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterRequest{Email: "a@x.com", Password: "other-pw1", Role: "hr"})
	require.ErrorIs(t, err, apperrors.ErrAccountAlreadyExists)
	require.Equal(t, 1, repo.count())
}

func TestRegister_WeakPassword(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "a@x.com",
		Password: "short",
		Role:     "employee",
	})
	require.Error(t, err)
	require.Equal(t, 0, repo.count())
}

func TestRegister_SucceedsWhenNotifierFails(t *testing.T) {
	notifier := newFakeNotifier()
	notifier.err = errors.New("smtp unreachable")
	svc, repo, _ := newTestService(t, notifier)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "a@x.com",
		Password: "pw123456",
		Role:     "employee",
	})
	require.NoError(t, err)
	require.Equal(t, 1, repo.count())
}

func TestVerifyOTP_SuccessThenReplayFails(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Email: "a@x.com", Password: "pw123456", Role: "employee"})
	require.NoError(t, err)

	code := *repo.stored(t, "a@x.com").VerificationCode

	require.NoError(t, svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@x.com", Code: code}))

	stored := repo.stored(t, "a@x.com")
	require.True(t, stored.IsVerified)
	require.Nil(t, stored.VerificationCode)
	require.Nil(t, stored.VerificationCodeExpiry)

	// The old code is gone; replaying it must fail.
	err = svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@x.com", Code: code})
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode)
}

func TestVerifyOTP_ExpiredCode(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Email: "a@x.com", Password: "pw123456", Role: "employee"})
	require.NoError(t, err)

	// Age the code past its validity window directly in the store.
	repo.mu.Lock()
	code := *repo.accounts["a@x.com"].VerificationCode
	past := time.Now().Add(-time.Minute)
	repo.accounts["a@x.com"].VerificationCodeExpiry = &past
	repo.mu.Unlock()

	err = svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@x.com", Code: code})
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode)
	require.False(t, repo.stored(t, "a@x.com").IsVerified)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Email: "a@x.com", Password: "pw123456", Role: "employee"})
	require.NoError(t, err)

	wrong := "000000"
	if *repo.stored(t, "a@x.com").VerificationCode == wrong {
		wrong = "111111"
	}

	err = svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@x.com", Code: wrong})
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode)
}

func TestVerifyOTP_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t, newFakeNotifier())

	err := svc.VerifyOTP(context.Background(), &VerifyOTPRequest{Email: "nobody@x.com", Code: "123456"})
	require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}

func TestLogin_UnverifiedResendsFreshCode(t *testing.T) {
	notifier := newFakeNotifier()
	svc, repo, _ := newTestService(t, notifier)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Email: "a@x.com", Password: "pw123456", Role: "employee"})
	require.NoError(t, err)
	notifier.await(t) // registration mail

	before := repo.stored(t, "a@x.com")

	// Password correctness does not matter for an unverified account.
	_, err = svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "totally-wrong"})
	require.ErrorIs(t, err, apperrors.ErrAccountNotVerified)

	after := repo.stored(t, "a@x.com")
	require.NotNil(t, after.VerificationCode)
	require.False(t, after.IsVerified)

	// The pending code was churned: new value or at least a later expiry.
	if *after.VerificationCode == *before.VerificationCode {
		require.True(t, after.VerificationCodeExpiry.After(*before.VerificationCodeExpiry))
	}

	mail := notifier.await(t)
	require.Contains(t, mail.Body, *after.VerificationCode)
}

func TestLogin_UnverifiedLeavesResetCodeUntouched(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Email: "a@x.com", Password: "pw123456", Role: "employee"})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "a@x.com"}))
	resetCode := *repo.stored(t, "a@x.com").ResetCode
	resetExpiry := *repo.stored(t, "a@x.com").ResetCodeExpiry

	_, err = svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "pw123456"})
	require.ErrorIs(t, err, apperrors.ErrAccountNotVerified)

	after := repo.stored(t, "a@x.com")
	require.Equal(t, resetCode, *after.ResetCode)
	require.True(t, resetExpiry.Equal(*after.ResetCodeExpiry))
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	registerAndVerify(t, svc, repo, "a@x.com", "pw123456", "employee")

	_, errWrongPassword := svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "wrong-pw1"})
	_, errUnknownEmail := svc.Login(ctx, &LoginRequest{Email: "nobody@x.com", Password: "pw123456"})

	require.ErrorIs(t, errWrongPassword, apperrors.ErrInvalidCredentials)
	require.ErrorIs(t, errUnknownEmail, apperrors.ErrInvalidCredentials)
	require.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
}

func TestLogin_Success(t *testing.T) {
	svc, repo, issuer := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	verified := registerAndVerify(t, svc, repo, "a@x.com", "pw123456", "hr")

	resp, err := svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)
	require.Equal(t, account.RoleHR, resp.Role)

	subjectID, role, err := issuer.Verify(resp.AccessToken, token.PurposeAccess)
	require.NoError(t, err)
	require.Equal(t, verified.ID, subjectID)
	require.Equal(t, account.RoleHR, role)

	subjectID, role, err = issuer.Verify(resp.RefreshToken, token.PurposeRefresh)
	require.NoError(t, err)
	require.Equal(t, verified.ID, subjectID)
	require.Equal(t, account.RoleHR, role)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t, newFakeNotifier())

	err := svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: "nobody@x.com"})
	require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}

func TestForgotPassword_OverwritesPendingCode(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	registerAndVerify(t, svc, repo, "a@x.com", "pw123456", "employee")

	require.NoError(t, svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "a@x.com"}))
	first := *repo.stored(t, "a@x.com").ResetCode
	firstExpiry := *repo.stored(t, "a@x.com").ResetCodeExpiry

	require.NoError(t, svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "a@x.com"}))
	second := *repo.stored(t, "a@x.com").ResetCode
	secondExpiry := *repo.stored(t, "a@x.com").ResetCodeExpiry

	if first == second {
		require.True(t, secondExpiry.After(firstExpiry))
		return
	}

	// Only the latest code works.
	err := svc.ResetPassword(ctx, &ResetPasswordRequest{Email: "a@x.com", Code: first, NewPassword: "newpw1234"})
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode)
	require.NoError(t, svc.ResetPassword(ctx, &ResetPasswordRequest{Email: "a@x.com", Code: second, NewPassword: "newpw1234"}))
}

func TestForgotThenResetPassword_RoundTrip(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	registerAndVerify(t, svc, repo, "a@x.com", "pw123456", "employee")

	require.NoError(t, svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "a@x.com"}))
	code := *repo.stored(t, "a@x.com").ResetCode

	require.NoError(t, svc.ResetPassword(ctx, &ResetPasswordRequest{
		Email:       "a@x.com",
		Code:        code,
		NewPassword: "newpw1234",
	}))

	stored := repo.stored(t, "a@x.com")
	require.Nil(t, stored.ResetCode)
	require.Nil(t, stored.ResetCodeExpiry)

	_, err := svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "pw123456"})
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "newpw1234"})
	require.NoError(t, err)
}

func TestResetPassword_StaleCodeLeavesHashUnchanged(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	registerAndVerify(t, svc, repo, "a@x.com", "pw123456", "employee")

	require.NoError(t, svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "a@x.com"}))
	hashBefore := repo.stored(t, "a@x.com").PasswordHash

	wrong := "000000"
	if *repo.stored(t, "a@x.com").ResetCode == wrong {
		wrong = "111111"
	}

	err := svc.ResetPassword(ctx, &ResetPasswordRequest{Email: "a@x.com", Code: wrong, NewPassword: "newpw1234"})
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode)
	require.Equal(t, hashBefore, repo.stored(t, "a@x.com").PasswordHash)
}

func TestResetPassword_ExpiredCode(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	registerAndVerify(t, svc, repo, "a@x.com", "pw123456", "employee")
	require.NoError(t, svc.ForgotPassword(ctx, &ForgotPasswordRequest{Email: "a@x.com"}))

	repo.mu.Lock()
	code := *repo.accounts["a@x.com"].ResetCode
	past := time.Now().Add(-time.Minute)
	repo.accounts["a@x.com"].ResetCodeExpiry = &past
	repo.mu.Unlock()

	err := svc.ResetPassword(ctx, &ResetPasswordRequest{Email: "a@x.com", Code: code, NewPassword: "newpw1234"})
	require.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredCode)
}

func TestRefresh_IssuesNewAccessToken(t *testing.T) {
	svc, repo, issuer := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	verified := registerAndVerify(t, svc, repo, "a@x.com", "pw123456", "employee")

	login, err := svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)

	resp, err := svc.Refresh(login.RefreshToken)
	require.NoError(t, err)

	subjectID, role, err := issuer.Verify(resp.AccessToken, token.PurposeAccess)
	require.NoError(t, err)
	require.Equal(t, verified.ID, subjectID)
	require.Equal(t, account.RoleEmployee, role)

	// The refresh token is not rotated; it keeps working.
	_, err = svc.Refresh(login.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	registerAndVerify(t, svc, repo, "a@x.com", "pw123456", "employee")
	login, err := svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)

	_, err = svc.Refresh(login.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestRefresh_RejectsTamperedToken(t *testing.T) {
	svc, repo, _ := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	registerAndVerify(t, svc, repo, "a@x.com", "pw123456", "employee")
	login, err := svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)

	tampered := strings.TrimSuffix(login.RefreshToken, login.RefreshToken[len(login.RefreshToken)-4:]) + "AAAA"
	_, err = svc.Refresh(tampered)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestRefresh_RejectsExpiredToken(t *testing.T) {
	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Nanosecond,
	})
	require.NoError(t, err)

	svc := NewService(newFakeRepo(), newFakeNotifier(), issuer)

	expired, err := issuer.IssueRefresh(uuid.New(), account.RoleEmployee)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	_, err = svc.Refresh(expired)
	require.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

// The concrete end-to-end scenario: register, verify with the stored code,
// log in, and come out the other side with matching token claims.
func TestLifecycle_EndToEnd(t *testing.T) {
	svc, repo, issuer := newTestService(t, newFakeNotifier())
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{Email: "a@x.com", Password: "pw123456", Role: "employee"})
	require.NoError(t, err)
	require.Equal(t, 1, repo.count())
	require.False(t, resp.IsVerified)

	code := *repo.stored(t, "a@x.com").VerificationCode
	require.NoError(t, svc.VerifyOTP(ctx, &VerifyOTPRequest{Email: "a@x.com", Code: code}))
	require.True(t, repo.stored(t, "a@x.com").IsVerified)

	login, err := svc.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)
	require.Equal(t, account.RoleEmployee, login.Role)

	_, role, err := issuer.Verify(login.AccessToken, token.PurposeAccess)
	require.NoError(t, err)
	require.Equal(t, account.RoleEmployee, role)

	svc.Logout() // engine-side no-op; tokens are discarded client-side
}
