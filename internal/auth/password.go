package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the default bcrypt cost factor
const DefaultBcryptCost = 12

// MaxKeyLength bounds the input to bcrypt, which ignores bytes past 72
const MaxKeyLength = 72

// HashAPIKey hashes a shared API key using bcrypt
func HashAPIKey(key string, cost int) (string, error) {
	if key == "" {
		return "", fmt.Errorf("api key is empty")
	}
	if len(key) > MaxKeyLength {
		return "", fmt.Errorf("api key too long")
	}
	if cost < bcrypt.MinCost {
		cost = DefaultBcryptCost
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}

	return string(bytes), nil
}

// VerifyAPIKey verifies a key against a bcrypt hash
func VerifyAPIKey(key, hash string) bool {
	if key == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
