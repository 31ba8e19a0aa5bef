package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"estatehub/internal/models"
	"estatehub/internal/repositories"
	"estatehub/internal/utils"
)

const (
	DefaultVerificationTTL = 24 * time.Hour
	DefaultResetOTPTTL     = 15 * time.Minute
)

// AuthResult is what a successful sign-in style operation hands back: the
// scrubbed account and, when one was issued, a session token.
type AuthResult struct {
	User         *models.User
	SessionToken string
}

type AuthService interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.User, error)
	VerifyEmail(ctx context.Context, code string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GoogleLogin(ctx context.Context, req models.GoogleLoginRequest) (*AuthResult, error)
	CheckAuth(ctx context.Context, userID int) (*models.User, error)
}

type AuthSettings struct {
	VerificationTTL time.Duration
	ResetOTPTTL     time.Duration
}

type authService struct {
	users           repositories.UserRepository
	emails          EmailService
	hasher          PasswordHasher
	tokens          *TokenService
	verificationTTL time.Duration
	now             func() time.Time
	newCode         func() (string, error)
}

func NewAuthService(users repositories.UserRepository, emails EmailService, hasher PasswordHasher, tokens *TokenService, settings AuthSettings) AuthService {
	if settings.VerificationTTL <= 0 {
		settings.VerificationTTL = DefaultVerificationTTL
	}
	return &authService{
		users:           users,
		emails:          emails,
		hasher:          hasher,
		tokens:          tokens,
		verificationTTL: settings.VerificationTTL,
		now:             time.Now,
		newCode:         utils.GenerateNumericCode,
	}
}

type signupOutcome int

const (
	signupCreate signupOutcome = iota
	signupUpdateUnverified
	signupRejectVerified
)

func decideSignup(existing *models.User) signupOutcome {
	switch {
	case existing == nil:
		return signupCreate
	case existing.IsVerified:
		return signupRejectVerified
	default:
		return signupUpdateUnverified
	}
}

// Signup registers a new account or refreshes a pending one. Verified
// accounts are never touched. Two concurrent signups for the same pending
// email race and the later write wins.
func (s *authService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" || req.Password == "" {
		return nil, validationError("email, username and password are required")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, upstream("find user", err)
	}
	outcome := decideSignup(existing)
	if outcome == signupRejectVerified {
		log.Printf("[auth][signup] rejected: email=%q already verified", email)
		return nil, ErrAlreadyExists
	}

	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(s.verificationTTL)

	var user *models.User
	switch outcome {
	case signupCreate:
		user = &models.User{
			Email:                     email,
			Username:                  username,
			PasswordHash:              hash,
			Avatar:                    req.Avatar,
			Address:                   req.Address,
			Phone:                     req.Phone,
			IsVerified:                false,
			VerificationCode:          &code,
			VerificationCodeExpiresAt: &expires,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrDuplicateEmail) {
				return nil, ErrAlreadyExists
			}
			return nil, upstream("create user", err)
		}
	case signupUpdateUnverified:
		upd := models.UserUpdate{
			Username:                  &username,
			PasswordHash:              &hash,
			SetVerification:           true,
			VerificationCode:          &code,
			VerificationCodeExpiresAt: &expires,
		}
		if req.Avatar != "" {
			upd.Avatar = &req.Avatar
		}
		if req.Address != "" {
			upd.Address = &req.Address
		}
		if req.Phone != "" {
			upd.Phone = &req.Phone
		}
		user, err = s.users.UpdateByEmail(ctx, email, upd)
		if err != nil {
			return nil, upstream("update pending user", err)
		}
		if user == nil {
			return nil, ErrNotFound
		}
	}

	if err := s.emails.SendVerificationEmail(user.Email, user.Username, code); err != nil {
		// запись уже сохранена; ошибку отдаём вызывающему
		log.Printf("[auth][signup] verification email failed user_id=%d: %v", user.ID, err)
		return nil, upstream("send verification email", err)
	}

	log.Printf("[auth][signup] ok user_id=%d pending_verification=true updated=%v", user.ID, outcome == signupUpdateUnverified)
	return user.Scrubbed(), nil
}

func (s *authService) VerifyEmail(ctx context.Context, code string) (*AuthResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidOrExpiredCode
	}

	user, err := s.users.FindByVerificationCode(ctx, code, s.now())
	if err != nil {
		return nil, upstream("find by verification code", err)
	}
	if user == nil {
		return nil, ErrInvalidOrExpiredCode
	}

	verified := true
	upd := models.UserUpdate{IsVerified: &verified}
	upd.ClearVerification()
	user, err = s.users.UpdateByID(ctx, user.ID, upd)
	if err != nil {
		return nil, upstream("mark verified", err)
	}
	if user == nil {
		return nil, ErrInvalidOrExpiredCode
	}

	if err := s.emails.SendWelcomeEmail(user.Email, user.Username); err != nil {
		log.Printf("[auth][verify-email] welcome email failed user_id=%d: %v", user.ID, err)
		return nil, upstream("send welcome email", err)
	}

	token, err := s.tokens.IssueSessionToken(user.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("[auth][verify-email] ok user_id=%d", user.ID)
	return &AuthResult{User: user.Scrubbed(), SessionToken: token}, nil
}

// Login does not require a verified email.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, upstream("find user", err)
	}
	if user == nil {
		log.Printf("[auth][login] user not found email=%q", email)
		return nil, ErrNotFound
	}

	ok, err := s.hasher.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Printf("[auth][login] password mismatch user_id=%d", user.ID)
		return nil, ErrInvalidPassword
	}

	now := s.now()
	updated, err := s.users.UpdateByID(ctx, user.ID, models.UserUpdate{LastLoginAt: &now})
	if err != nil {
		return nil, upstream("record login", err)
	}
	if updated != nil {
		user = updated
	}

	token, err := s.tokens.IssueSessionToken(user.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("[auth][login] success user_id=%d verified=%v", user.ID, user.IsVerified)
	return &AuthResult{User: user.Scrubbed(), SessionToken: token}, nil
}

// GoogleLogin signs in with an identity already asserted by the OAuth
// provider. Unknown emails get a pre-verified account whose password is random
// and never disclosed.
func (s *authService) GoogleLogin(ctx context.Context, req models.GoogleLoginRequest) (*AuthResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, upstream("find user", err)
	}

	if user == nil {
		hash, err := s.hasher.HashPassword(uuid.NewString() + uuid.NewString())
		if err != nil {
			return nil, err
		}
		user = &models.User{
			Email:        email,
			Username:     oauthUsername(req.Username, email),
			PasswordHash: hash,
			Avatar:       req.Avatar,
			IsVerified:   true,
		}
		err = s.users.Create(ctx, user)
		switch {
		case errors.Is(err, repositories.ErrDuplicateEmail):
			// параллельный первый вход уже создал аккаунт
			user, err = s.users.FindByEmail(ctx, email)
			if err != nil {
				return nil, upstream("find user", err)
			}
			if user == nil {
				return nil, upstream("create oauth user", repositories.ErrDuplicateEmail)
			}
			log.Printf("[auth][google] lost create race, using user_id=%d", user.ID)
		case err != nil:
			return nil, upstream("create oauth user", err)
		default:
			log.Printf("[auth][google] created user_id=%d", user.ID)
		}
	}

	token, err := s.tokens.IssueSessionToken(user.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("[auth][google] success user_id=%d", user.ID)
	return &AuthResult{User: user.Scrubbed(), SessionToken: token}, nil
}

func oauthUsername(name, email string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func (s *authService) CheckAuth(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, upstream("find user", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user.Scrubbed(), nil
}
