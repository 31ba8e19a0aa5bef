package models

import "time"

type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // не отдаём наружу

	Avatar  string `json:"avatar"`
	Address string `json:"address"`
	Phone   string `json:"phone"`

	// email verification: the code is stored as sent
	IsVerified                bool       `json:"is_verified"`
	VerificationCode          *string    `json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`

	// password reset: only the SHA-256 of the OTP is kept
	ResetOTPHash      *string    `json:"-"`
	ResetOTPExpiresAt *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Scrubbed returns a copy that is safe to hand to clients.
func (u *User) Scrubbed() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	cp.VerificationCode = nil
	cp.VerificationCodeExpiresAt = nil
	cp.ResetOTPHash = nil
	cp.ResetOTPExpiresAt = nil
	return &cp
}

// UserUpdate is a partial update of a user record. Nil pointers leave the column
// untouched. The nullable verification and reset columns are only written when
// the matching Set flag is true, so a nil value together with the flag clears them.
type UserUpdate struct {
	Username     *string
	PasswordHash *string
	Avatar       *string
	Address      *string
	Phone        *string
	IsVerified   *bool
	LastLoginAt  *time.Time

	SetVerification           bool
	VerificationCode          *string
	VerificationCodeExpiresAt *time.Time

	SetResetOTP       bool
	ResetOTPHash      *string
	ResetOTPExpiresAt *time.Time
}

// Apply writes the update onto u. UpdatedAt is left to the caller.
func (upd UserUpdate) Apply(u *User) {
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.IsVerified != nil {
		u.IsVerified = *upd.IsVerified
	}
	if upd.LastLoginAt != nil {
		t := *upd.LastLoginAt
		u.LastLoginAt = &t
	}
	if upd.SetVerification {
		u.VerificationCode = cloneString(upd.VerificationCode)
		u.VerificationCodeExpiresAt = cloneTime(upd.VerificationCodeExpiresAt)
	}
	if upd.SetResetOTP {
		u.ResetOTPHash = cloneString(upd.ResetOTPHash)
		u.ResetOTPExpiresAt = cloneTime(upd.ResetOTPExpiresAt)
	}
}

// ClearResetOTP drops both reset columns together.
func (upd *UserUpdate) ClearResetOTP() {
	upd.SetResetOTP = true
	upd.ResetOTPHash = nil
	upd.ResetOTPExpiresAt = nil
}

// ClearVerification drops both verification columns together.
func (upd *UserUpdate) ClearVerification() {
	upd.SetVerification = true
	upd.VerificationCode = nil
	upd.VerificationCodeExpiresAt = nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyEmailRequest struct {
	Code string `json:"code"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ResetPasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type GoogleLoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type UpdateProfileRequest struct {
	Username        *string `json:"username"`
	Avatar          *string `json:"avatar"`
	Address         *string `json:"address"`
	Phone           *string `json:"phone"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
}
