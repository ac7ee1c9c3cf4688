package auth

import "github.com/golang-jwt/jwt/v5"

// Authenticator verifies bearer tokens minted by the identity service.
// This service only consumes tokens, it never issues them.
type Authenticator interface {
	ValidateAccessToken(token string) (*jwt.Token, error)
}
