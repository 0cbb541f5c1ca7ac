package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ayush/task-manager-api/internal/models"
)

// tokenClaims binds a token to a user id. Tokens carry no expiry; they stay
// valid until removed from the user's token list.
type tokenClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	return &TokenIssuer{secret: []byte(secret), now: time.Now}, nil
}

// Sign returns a signed token for userID. Each call yields a distinct token.
func (ti *TokenIssuer) Sign(userID string) (string, error) {
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(ti.now()),
			ID:       uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature of token and returns the user id it binds.
func (ti *TokenIssuer) Parse(token string) (string, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return ti.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrAuthentication, err)
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("%w: token has no user id", models.ErrAuthentication)
	}
	return claims.UserID, nil
}
