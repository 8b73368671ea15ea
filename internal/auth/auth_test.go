package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-test-secret-that-is-long-enough"

func TestJWTVerifier(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)
	userID := uuid.New()

	valid, err := verifier.Issue(userID, time.Minute)
	require.NoError(t, err)
	expired, err := verifier.Issue(userID, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewJWTVerifier("another-secret").Issue(userID, time.Minute)
	require.NoError(t, err)
	notUUID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: userID.String(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid", token: valid},
		{name: "expired", token: expired, wantErr: true},
		{name: "wrong secret", token: foreign, wantErr: true},
		{name: "subject is not a uuid", token: notUUID, wantErr: true},
		{name: "alg none", token: unsigned, wantErr: true},
		{name: "garbage", token: "not.a.token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := verifier.Verify(context.Background(), tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, got)
		})
	}
}

type fakeCasdoor struct {
	claims *casdoorsdk.Claims
	err    error
}

func (f fakeCasdoor) ParseJwtToken(string) (*casdoorsdk.Claims, error) {
	return f.claims, f.err
}

func TestCasdoorVerifier(t *testing.T) {
	userID := uuid.New()

	t.Run("user id from claims", func(t *testing.T) {
		claims := &casdoorsdk.Claims{}
		claims.User.Id = userID.String()
		verifier := &CasdoorVerifier{client: fakeCasdoor{claims: claims}}

		got, err := verifier.Verify(context.Background(), "token")
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("falls back to subject", func(t *testing.T) {
		claims := &casdoorsdk.Claims{}
		claims.RegisteredClaims.Subject = userID.String()
		verifier := &CasdoorVerifier{client: fakeCasdoor{claims: claims}}

		got, err := verifier.Verify(context.Background(), "token")
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("parse failure", func(t *testing.T) {
		verifier := &CasdoorVerifier{client: fakeCasdoor{err: errors.New("crypto/rsa: verification error")}}

		_, err := verifier.Verify(context.Background(), "token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	verifier := NewJWTVerifier(testSecret)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userID := uuid.New()
	token, err := verifier.Issue(userID, time.Minute)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/me", Middleware(verifier, logger), func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.String())
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: userID.String()},
		{name: "lower-case scheme", header: "bearer " + token, wantStatus: http.StatusOK, wantBody: userID.String()},
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantBody: "Authentication required"},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized, wantBody: "Authentication required"},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantBody: "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
