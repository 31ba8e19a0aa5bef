package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit; longer input is rejected, not truncated.
const MaxPasswordBytes = 72

type PasswordHasher interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) (bool, error)
}

type bcryptHasher struct {
	cost int
}

// NewPasswordHasher returns a bcrypt hasher; cost <= 0 uses bcrypt.DefaultCost.
func NewPasswordHasher(cost int) PasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) HashPassword(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("bcrypt generate: %w", err)
	}
	return string(b), nil
}

func (h *bcryptHasher) CheckPassword(hash, plain string) (bool, error) {
	// такой пароль не мог быть захэширован
	if len(plain) > MaxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("bcrypt compare: %w", err)
}
