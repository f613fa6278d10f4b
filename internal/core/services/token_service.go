package services

import (
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/touristsafety/identity-access-service/internal/core/domain"
)

const tokenTTL = 24 * time.Hour

// TokenService signs short-lived RS256 tokens for authenticated identities.
// The token carries only non-secret claims; the middleware verifies it with
// the matching public key.
type TokenService struct {
	privateKey *rsa.PrivateKey
}

func NewTokenService(privateKey *rsa.PrivateKey) *TokenService {
	return &TokenService{privateKey: privateKey}
}

func (s *TokenService) IssueToken(identity *domain.Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  identity.ID,
		"role": string(identity.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(s.privateKey)
}
