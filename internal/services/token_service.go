package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeSession = "session"
	PurposeReset   = "reset"

	DefaultSessionTTL    = 7 * 24 * time.Hour
	DefaultResetTokenTTL = 10 * time.Minute
)

type Claims struct {
	UserID     int    `json:"user_id"`
	Purpose    string `json:"purpose"`
	OTPBinding string `json:"otp_binding,omitempty"` // только у reset-токенов
	jwt.RegisteredClaims
}

// TokenService signs and checks the HS256 session and reset-capability tokens.
type TokenService struct {
	secret     []byte
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewTokenService(secret string, sessionTTL, resetTTL time.Duration) *TokenService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTokenTTL
	}
	return &TokenService{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

func (s *TokenService) SessionTTL() time.Duration { return s.sessionTTL }
func (s *TokenService) ResetTTL() time.Duration   { return s.resetTTL }

func (s *TokenService) IssueSessionToken(userID int) (string, error) {
	return s.issue(userID, PurposeSession, "", s.sessionTTL)
}

// IssueResetToken mints a reset token bound to the stored OTP hash; it stops
// verifying as soon as that hash is cleared or replaced.
func (s *TokenService) IssueResetToken(userID int, otpHash string) (string, error) {
	return s.issue(userID, PurposeReset, s.OTPBinding(otpHash), s.resetTTL)
}

// OTPBinding is a keyed digest of the stored OTP hash. The raw hash of a
// six-digit code is not put into the token since it is cheap to invert.
func (s *TokenService) OTPBinding(otpHash string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte("reset-otp:" + otpHash))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *TokenService) issue(userID int, purpose, binding string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:     userID,
		Purpose:    purpose,
		OTPBinding: binding,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return token, nil
}

// Verify checks signature, expiry and purpose and returns the user id.
// Failures are ErrTokenExpired or ErrTokenInvalid so callers can tell them apart.
func (s *TokenService) Verify(tokenStr, purpose string) (int, error) {
	claims, err := s.parse(tokenStr, purpose)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func (s *TokenService) parse(tokenStr, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// принимаем только HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Purpose != purpose || claims.UserID <= 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) VerifySession(tokenStr string) (int, error) {
	return s.Verify(tokenStr, PurposeSession)
}

// VerifyReset returns the user id and the OTP binding of a reset token.
func (s *TokenService) VerifyReset(tokenStr string) (int, string, error) {
	claims, err := s.parse(tokenStr, PurposeReset)
	if err != nil {
		return 0, "", err
	}
	if claims.OTPBinding == "" {
		return 0, "", ErrTokenInvalid
	}
	return claims.UserID, claims.OTPBinding, nil
}
