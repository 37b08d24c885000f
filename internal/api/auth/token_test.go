package auth

import (
	"testing"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	s := NewTokenService("secret", "booking-core", time.Hour)
	actor := domain.Actor{UserID: 42, Type: domain.UserTranslator}

	token, err := s.Issue(actor)
	require.NoError(t, err)

	got, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestTokenService_Rejects(t *testing.T) {
	s := NewTokenService("secret", "booking-core", time.Hour)
	valid, err := s.Issue(domain.Actor{UserID: 1, Type: domain.UserCustomer})
	require.NoError(t, err)

	expired := NewTokenService("secret", "booking-core", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Issue(domain.Actor{UserID: 1, Type: domain.UserCustomer})
	require.NoError(t, err)

	otherIssuer, err := NewTokenService("secret", "someone-else", time.Hour).Issue(domain.Actor{UserID: 1, Type: domain.UserCustomer})
	require.NoError(t, err)

	badType, err := s.Issue(domain.Actor{UserID: 1, Type: "superuser"})
	require.NoError(t, err)

	none, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, Claims{UserID: 1, UserType: "admin"}).
		SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "expired", token: old, want: ErrTokenExpired},
		{name: "wrong secret", token: mustIssue(t, NewTokenService("other", "booking-core", time.Hour)), want: ErrTokenInvalid},
		{name: "wrong issuer", token: otherIssuer, want: ErrTokenInvalid},
		{name: "unknown user type", token: badType, want: ErrTokenInvalid},
		{name: "unsigned", token: none, want: ErrTokenInvalid},
		{name: "garbage", token: "not-a-token", want: ErrTokenInvalid},
		{name: "tampered", token: valid + "x", want: ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Parse(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTokenService_EmptySecret(t *testing.T) {
	_, err := NewTokenService("", "", 0).Issue(domain.Actor{UserID: 1, Type: domain.UserAdmin})
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func mustIssue(t *testing.T, s *TokenService) string {
	t.Helper()
	token, err := s.Issue(domain.Actor{UserID: 1, Type: domain.UserAdmin})
	require.NoError(t, err)
	return token
}
