package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// TokenVerifier resolves a bearer token to the authenticated user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// NewVerifier picks the identity provider named by AUTH_PROVIDER.
func NewVerifier(cfg *config.Config) (TokenVerifier, error) {
	switch cfg.AuthProvider {
	case "jwt", "":
		return NewJWTVerifier(cfg.JWTSecret), nil
	case "casdoor":
		return NewCasdoorVerifier(cfg.Casdoor), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.AuthProvider)
	}
}

func parseSubject(subject string) (uuid.UUID, error) {
	id, err := uuid.Parse(subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return id, nil
}
