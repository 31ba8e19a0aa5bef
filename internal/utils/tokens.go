package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// GenerateNumericCode returns a 6-digit code drawn uniformly from [100000, 999999].
// Used for email verification codes and password-reset OTPs.
func GenerateNumericCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}

// HashOTP — hex SHA-256 кода; в БД сырой OTP не попадает.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
