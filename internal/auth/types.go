package auth

import (
	"time"
)

// ClientClaims identifies the caller of the analysis API
type ClientClaims struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope,omitempty"`
}

// Token is an issued access token
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // Access token expiry in seconds
	TokenType   string `json:"token_type"` // Always "Bearer"
}

// DefaultAccessTokenDuration applies when the configured duration is zero
const DefaultAccessTokenDuration = 24 * time.Hour

// Error types for authentication
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e AuthError) Error() string {
	return e.Message
}

// Common authentication errors
var (
	ErrInvalidToken = AuthError{Code: "INVALID_TOKEN", Message: "invalid or expired token"}
	ErrTokenExpired = AuthError{Code: "TOKEN_EXPIRED", Message: "token has expired"}
	ErrInvalidKey   = AuthError{Code: "INVALID_API_KEY", Message: "invalid API key"}
	ErrUnauthorized = AuthError{Code: "UNAUTHORIZED", Message: "unauthorized access"}
)
