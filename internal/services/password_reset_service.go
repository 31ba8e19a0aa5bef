package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"estatehub/internal/models"
	"estatehub/internal/repositories"
	"estatehub/internal/utils"
)

// PasswordResetService runs forgot-password → OTP → reset capability → new password.
type PasswordResetService interface {
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetOTP(ctx context.Context, email, otp string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword, confirmPassword string) error
}

type passwordResetService struct {
	users  repositories.UserRepository
	emails EmailService
	hasher PasswordHasher
	tokens *TokenService
	otpTTL time.Duration
	now    func() time.Time
	newOTP func() (string, error)
}

func NewPasswordResetService(users repositories.UserRepository, emails EmailService, hasher PasswordHasher, tokens *TokenService, settings AuthSettings) PasswordResetService {
	if settings.ResetOTPTTL <= 0 {
		settings.ResetOTPTTL = DefaultResetOTPTTL
	}
	return &passwordResetService{
		users:  users,
		emails: emails,
		hasher: hasher,
		tokens: tokens,
		otpTTL: settings.ResetOTPTTL,
		now:    time.Now,
		newOTP: utils.GenerateNumericCode,
	}
}

// ForgotPassword persists the OTP hash before mailing the raw OTP, so a code
// is never announced unless it was stored.
func (s *passwordResetService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingEmail
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return upstream("find user", err)
	}
	if user == nil {
		log.Printf("[password-reset][forgot] user not found email=%q", email)
		return ErrNotFound
	}

	otp, err := s.newOTP()
	if err != nil {
		return err
	}
	hash := utils.HashOTP(otp)
	expires := s.now().Add(s.otpTTL)

	updated, err := s.users.UpdateByID(ctx, user.ID, models.UserUpdate{
		SetResetOTP:       true,
		ResetOTPHash:      &hash,
		ResetOTPExpiresAt: &expires,
	})
	if err != nil {
		return upstream("store reset otp", err)
	}
	if updated == nil {
		return ErrNotFound
	}

	if err := s.emails.SendPasswordResetOTP(user.Email, user.Username, otp); err != nil {
		log.Printf("[password-reset][forgot] failed to send otp to user_id=%d: %v", user.ID, err)
		return upstream("send reset otp", err)
	}
	log.Printf("[password-reset][forgot] otp issued user_id=%d expires_at=%s", user.ID, expires.Format(time.RFC3339))
	return nil
}

// VerifyResetOTP exchanges a valid OTP for a short-lived reset token. A wrong
// code and an expired one fail identically.
func (s *passwordResetService) VerifyResetOTP(ctx context.Context, email, otp string) (string, error) {
	email = strings.TrimSpace(email)
	otp = strings.TrimSpace(otp)
	if email == "" || otp == "" {
		return "", ErrMissingFields
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", upstream("find user", err)
	}
	if user == nil || user.ResetOTPHash == nil || user.ResetOTPExpiresAt == nil {
		return "", ErrInvalidOrExpiredOTP
	}

	provided := utils.HashOTP(otp)
	matches := subtle.ConstantTimeCompare([]byte(provided), []byte(*user.ResetOTPHash)) == 1
	if !matches || !user.ResetOTPExpiresAt.After(s.now()) {
		log.Printf("[password-reset][verify-otp] rejected user_id=%d", user.ID)
		return "", ErrInvalidOrExpiredOTP
	}

	token, err := s.tokens.IssueResetToken(user.ID, resetOTPKey(user))
	if err != nil {
		return "", err
	}
	log.Printf("[password-reset][verify-otp] ok user_id=%d", user.ID)
	return token, nil
}

// ResetPassword consumes the reset token: the new hash and the cleared OTP
// fields are written in one update.
func (s *passwordResetService) ResetPassword(ctx context.Context, resetToken, newPassword, confirmPassword string) error {
	resetToken = strings.TrimSpace(resetToken)
	if resetToken == "" {
		return ErrMissingToken
	}
	if newPassword == "" || confirmPassword == "" {
		return ErrPasswordsRequired
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	userID, binding, err := s.tokens.VerifyReset(resetToken)
	if err != nil {
		return errors.Join(ErrInvalidOrExpiredToken, err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return upstream("find user", err)
	}
	if user == nil {
		return ErrNotFound
	}
	// токен годен только для OTP, под который выпущен: после сброса или
	// нового forgot-password хэш другой (или пуст)
	if user.ResetOTPHash == nil || user.ResetOTPExpiresAt == nil ||
		subtle.ConstantTimeCompare([]byte(binding), []byte(s.tokens.OTPBinding(resetOTPKey(user)))) != 1 {
		log.Printf("[password-reset][reset] stale reset token user_id=%d", user.ID)
		return ErrInvalidOrExpiredToken
	}

	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}
	upd := models.UserUpdate{PasswordHash: &hash}
	upd.ClearResetOTP()
	if _, err := s.users.UpdateByID(ctx, user.ID, upd); err != nil {
		return upstream("update password", err)
	}

	if err := s.emails.SendPasswordChangedEmail(user.Email, user.Username); err != nil {
		log.Printf("[password-reset][reset] confirmation email failed user_id=%d: %v", user.ID, err)
		return upstream("send password changed email", err)
	}
	log.Printf("[password-reset][reset] password changed user_id=%d", user.ID)
	return nil
}

// resetOTPKey identifies one forgot-password round; the same six digits issued
// twice still differ by expiry.
func resetOTPKey(u *models.User) string {
	return *u.ResetOTPHash + "|" + strconv.FormatInt(u.ResetOTPExpiresAt.UnixMicro(), 10)
}
