package auth

import (
	"errors"
	"fmt"
	"time"

	"philosophers-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenDuration is the lifetime of tokens issued by the CLI.
const DefaultTokenDuration = 12 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims identify the platform user behind a request.
type Claims struct {
	UserID int64  `json:"uid"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 viewer tokens signed with a shared secret.
type Tokens struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokens(secret, issuer string) *Tokens {
	return &Tokens{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for viewer valid for ttl.
func (t *Tokens) Issue(viewer domain.Viewer, ttl time.Duration) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: viewer.UserID,
		Name:   viewer.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   fmt.Sprint(viewer.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns the viewer it identifies.
func (t *Tokens) Parse(tokenString string) (domain.Viewer, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired()}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, opts...)
	if err != nil {
		return domain.Viewer{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return domain.Viewer{}, ErrInvalidToken
	}
	return domain.Viewer{UserID: claims.UserID, Name: claims.Name}, nil
}
