// internal/app/system/authutil/password.go
// Package authutil checks and hashes login keys, the shared secrets stored
// in logs_login.
package authutil

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Key limits. bcrypt ignores input past 72 bytes.
const (
	MinKeyLength = 6
	MaxKeyLength = 72
	BcryptCost   = 12
)

// Key validation errors
var (
	ErrKeyTooShort = errors.New("login key must be at least 6 characters")
	ErrKeyTooLong  = errors.New("login key must be at most 72 bytes")
	ErrKeyCommon   = errors.New("login key is too common")
)

// commonKeys are refused when seeding a login.
var commonKeys = map[string]bool{
	"123456":    true,
	"12345678":  true,
	"123456789": true,
	"password":  true,
	"password1": true,
	"qwerty":    true,
	"abc123":    true,
	"111111":    true,
	"letmein":   true,
	"welcome":   true,
	"changeme":  true,
	"admin":     true,
	"secret":    true,
}

// ValidateKey checks a key before it is hashed and stored.
func ValidateKey(key string) error {
	if len(key) < MinKeyLength {
		return ErrKeyTooShort
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if commonKeys[strings.ToLower(key)] {
		return ErrKeyCommon
	}
	return nil
}

// HashKey hashes a key using bcrypt.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckKeyHash compares a presented key with a bcrypt hash.
func CheckKeyHash(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// EqualKey compares a presented key with a stored plain key in constant time.
func EqualKey(key, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(key)) == 1
}
