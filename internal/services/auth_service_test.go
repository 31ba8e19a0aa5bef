package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub/internal/models"
	"estatehub/internal/repositories"
)

func signupReq(email string) models.SignupRequest {
	return models.SignupRequest{Email: email, Username: "a", Password: "pw123456"}
}

func TestSignup_CreatesUnverifiedAndMailsCode(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	u, err := f.auth.Signup(ctx, signupReq("a@b.com"))
	require.NoError(t, err)
	assert.False(t, u.IsVerified)
	assert.Empty(t, u.PasswordHash)
	assert.Nil(t, u.VerificationCode)

	stored, err := f.users.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, stored.VerificationCode)
	assert.Equal(t, "111111", *stored.VerificationCode)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), *stored.VerificationCodeExpiresAt)
	assert.NotEqual(t, "pw123456", stored.PasswordHash)

	mail := f.mailer.Last()
	assert.Equal(t, "a@b.com", mail.To)
	assert.Contains(t, mail.Body, "111111")
}

func TestSignup_RepeatOnUnverifiedUpdatesSameRecord(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	first, err := f.auth.Signup(ctx, signupReq("a@b.com"))
	require.NoError(t, err)

	f.auth.newCode = fixedCode("222222")
	req := signupReq("a@b.com")
	req.Username = "renamed"
	second, err := f.auth.Signup(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.users.Count())

	stored, err := f.users.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
	assert.Equal(t, "222222", *stored.VerificationCode)
	assert.Equal(t, "renamed", stored.Username)
}

func TestSignup_RejectsVerifiedDuplicateWithoutMutation(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.auth.Signup(ctx, signupReq("a@b.com"))
	require.NoError(t, err)
	_, err = f.auth.VerifyEmail(ctx, "111111")
	require.NoError(t, err)

	before, err := f.users.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	sent := len(f.mailer.Sent)

	f.auth.newCode = fixedCode("999999")
	req := signupReq("a@b.com")
	req.Password = "other-password"
	_, err = f.auth.Signup(ctx, req)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	after, err := f.users.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, f.mailer.Sent, sent)
}

func TestSignup_MissingFields(t *testing.T) {
	f := newAuthFixture()

	_, err := f.auth.Signup(context.Background(), models.SignupRequest{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, f.users.Count())
}

func TestSignup_PasswordOverBcryptLimit(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	req := signupReq("a@b.com")
	req.Password = strings.Repeat("x", MaxPasswordBytes+1)
	_, err := f.auth.Signup(ctx, req)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, f.users.Count())
	assert.Empty(t, f.mailer.Sent)

	// ровно 72 байта ещё допустимо
	req.Password = strings.Repeat("x", MaxPasswordBytes)
	_, err = f.auth.Signup(ctx, req)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "a@b.com", strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestSignup_MailFailureIsReportedAfterPersisting(t *testing.T) {
	f := newAuthFixture()
	f.mailer.Fail = true

	_, err := f.auth.Signup(context.Background(), signupReq("a@b.com"))
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, errSMTPDown)
	assert.Equal(t, 1, f.users.Count())
}

func TestVerifyEmail_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "just before expiry", elapsed: 23*time.Hour + 59*time.Minute},
		{name: "one second after expiry", elapsed: 24*time.Hour + time.Second, wantErr: ErrInvalidOrExpiredCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			ctx := context.Background()
			_, err := f.auth.Signup(ctx, signupReq("a@b.com"))
			require.NoError(t, err)

			f.clock.Advance(tt.elapsed)
			res, err := f.auth.VerifyEmail(ctx, "111111")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.User.IsVerified)
		})
	}
}

func TestVerifyEmail_ClearsCodeAndIssuesSession(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	created, err := f.auth.Signup(ctx, signupReq("a@b.com"))
	require.NoError(t, err)

	res, err := f.auth.VerifyEmail(ctx, "111111")
	require.NoError(t, err)

	uid, err := f.tokens.VerifySession(res.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, uid)

	stored, err := f.users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.VerificationCode)
	assert.Nil(t, stored.VerificationCodeExpiresAt)
	assert.Contains(t, f.mailer.Last().Subject, "Welcome")

	// код одноразовый
	_, err = f.auth.VerifyEmail(ctx, "111111")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestVerifyEmail_UnknownOrEmptyCode(t *testing.T) {
	f := newAuthFixture()

	_, err := f.auth.VerifyEmail(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
	_, err = f.auth.VerifyEmail(context.Background(), "000000")
	assert.ErrorIs(t, err, ErrInvalidOrExpiredCode)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	created, err := f.auth.Signup(ctx, signupReq("a@b.com"))
	require.NoError(t, err)

	t.Run("unverified account can log in", func(t *testing.T) {
		res, err := f.auth.Login(ctx, "a@b.com", "pw123456")
		require.NoError(t, err)
		assert.Equal(t, created.ID, res.User.ID)
		require.NotNil(t, res.User.LastLoginAt)
		assert.Equal(t, f.clock.Now(), *res.User.LastLoginAt)
		assert.NotEmpty(t, res.SessionToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "a@b.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "x@y.com", "pw123456")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := f.auth.Login(ctx, "", "pw123456")
		assert.ErrorIs(t, err, ErrMissingCredentials)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestGoogleLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	res, err := f.auth.GoogleLogin(ctx, models.GoogleLoginRequest{Email: "g@mail.com", Avatar: "http://img"})
	require.NoError(t, err)
	assert.True(t, res.User.IsVerified)
	assert.Equal(t, "g", res.User.Username)
	assert.Equal(t, "http://img", res.User.Avatar)

	again, err := f.auth.GoogleLogin(ctx, models.GoogleLoginRequest{Email: "g@mail.com", Username: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID)
	assert.Equal(t, 1, f.users.Count())

	_, err = f.auth.GoogleLogin(ctx, models.GoogleLoginRequest{})
	assert.ErrorIs(t, err, ErrMissingEmail)
}

// rivalCreateRepo inserts a competing account right before the caller's Create,
// as a parallel first sign-in would.
type rivalCreateRepo struct {
	*repositories.MemoryUserRepository
	rival *models.User
}

func (r *rivalCreateRepo) Create(ctx context.Context, u *models.User) error {
	if r.rival != nil {
		rival := r.rival
		r.rival = nil
		if err := r.MemoryUserRepository.Create(ctx, rival); err != nil {
			return err
		}
	}
	return r.MemoryUserRepository.Create(ctx, u)
}

func TestGoogleLogin_LosesCreateRace(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	repo := &rivalCreateRepo{
		MemoryUserRepository: f.users,
		rival:                &models.User{Email: "g@mail.com", Username: "g", PasswordHash: "x", IsVerified: true},
	}
	f.auth.users = repo

	res, err := f.auth.GoogleLogin(ctx, models.GoogleLoginRequest{Email: "g@mail.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.users.Count())

	stored, err := f.users.FindByEmail(ctx, "g@mail.com")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, res.User.ID)
	uid, err := f.tokens.VerifySession(res.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, uid)
}

func TestGoogleLogin_ConcurrentFirstSignIn(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	const n = 8
	ids := make([]int, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.auth.GoogleLogin(ctx, models.GoogleLoginRequest{Email: "g@mail.com"})
			errs[i] = err
			if err == nil {
				ids[i] = res.User.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, f.users.Count())
}

func TestCheckAuth(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	created, err := f.auth.Signup(ctx, signupReq("a@b.com"))
	require.NoError(t, err)

	u, err := f.auth.CheckAuth(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Empty(t, u.PasswordHash)

	_, err = f.auth.CheckAuth(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

// signup → verify → forgot → verify otp → reset → login with the new password.
func TestAuthFlow_EndToEnd(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	created, err := f.auth.Signup(ctx, signupReq("a@b.com"))
	require.NoError(t, err)
	assert.False(t, created.IsVerified)
	assert.Contains(t, f.mailer.Last().Body, "111111")

	verified, err := f.auth.VerifyEmail(ctx, "111111")
	require.NoError(t, err)
	assert.True(t, verified.User.IsVerified)
	assert.NotEmpty(t, verified.SessionToken)

	require.NoError(t, f.reset.ForgotPassword(ctx, "a@b.com"))
	assert.Contains(t, f.mailer.Last().Body, "654321")
	stored, err := f.users.FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetOTPHash)
	require.NotNil(t, stored.ResetOTPExpiresAt)

	resetToken, err := f.reset.VerifyResetOTP(ctx, "a@b.com", "654321")
	require.NoError(t, err)

	require.NoError(t, f.reset.ResetPassword(ctx, resetToken, "newpw1", "newpw1"))
	assert.Equal(t, "Your password has been changed", f.mailer.Last().Subject)

	_, err = f.auth.Login(ctx, "a@b.com", "newpw1")
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, "a@b.com", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}
