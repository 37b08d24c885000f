// Package auth issues and verifies the bearer tokens that identify API callers.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims identify the caller of a booking operation.
type Claims struct {
	UserID   int64  `json:"user_id"`
	UserType string `json:"user_type"`

	jwtlib.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for actor.
func (s *TokenService) Issue(actor domain.Actor) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: empty signing secret", ErrTokenInvalid)
	}
	now := s.now().UTC()
	c := Claims{
		UserID:   actor.UserID,
		UserType: string(actor.Type),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(actor.UserID, 10),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(s.secret)
}

// Parse verifies tokenString and returns the actor it names.
func (s *TokenService) Parse(tokenString string) (domain.Actor, error) {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(s.issuer))
	}

	var c Claims
	tok, err := jwtlib.NewParser(opts...).ParseWithClaims(tokenString, &c, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return domain.Actor{}, ErrTokenExpired
		}
		return domain.Actor{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid {
		return domain.Actor{}, ErrTokenInvalid
	}

	userType, err := domain.ParseUserType(c.UserType)
	if err != nil || c.UserID <= 0 {
		return domain.Actor{}, ErrTokenInvalid
	}
	return domain.Actor{UserID: c.UserID, Type: userType}, nil
}
