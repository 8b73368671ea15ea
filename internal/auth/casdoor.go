package auth

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
)

type casdoorParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorVerifier validates tokens issued by a casdoor application against
// its certificate. The casdoor user id is the quiz-service user id.
type CasdoorVerifier struct {
	client casdoorParser
}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorVerifier{client: client}
}

func (v *CasdoorVerifier) Verify(_ context.Context, token string) (uuid.UUID, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	subject := claims.User.Id
	if subject == "" {
		subject = claims.RegisteredClaims.Subject
	}
	return parseSubject(subject)
}
