package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayush/task-manager-api/internal/models"
)

// UserStore is the slice of persistence the credential service needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByToken(ctx context.Context, id, token string) (*models.User, error)
	PushToken(ctx context.Context, userID, token string) error
	PullToken(ctx context.Context, userID, token string) error
	ClearTokens(ctx context.Context, userID string) error
}

// Service checks credentials and manages the tokens registered on users.
type Service struct {
	users  UserStore
	tokens *TokenIssuer

	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash string
}

func NewService(users UserStore, tokens *TokenIssuer) (*Service, error) {
	dummy, err := HashPassword("dummy-credential-check")
	if err != nil {
		return nil, err
	}
	return &Service{users: users, tokens: tokens, dummyHash: dummy}, nil
}

// FindByCredentials returns the user with email and password. Unknown email
// and wrong password both yield models.ErrAuthentication.
func (s *Service) FindByCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, models.NormalizeEmail(email))
	switch {
	case errors.Is(err, models.ErrNotFound):
		CheckPassword(s.dummyHash, password)
		return nil, models.ErrAuthentication
	case err != nil:
		return nil, err
	}
	if !CheckPassword(user.Password, password) {
		return nil, models.ErrAuthentication
	}
	return user, nil
}

// GenerateAuthToken signs a token for u, registers it on the stored user and
// appends it to u.Tokens.
func (s *Service) GenerateAuthToken(ctx context.Context, u *models.User) (string, error) {
	token, err := s.tokens.Sign(u.ID)
	if err != nil {
		return "", err
	}
	if err := s.users.PushToken(ctx, u.ID, token); err != nil {
		return "", fmt.Errorf("register token: %w", err)
	}
	u.Tokens = append(u.Tokens, token)
	return token, nil
}

// RevokeToken removes exactly token from u.
func (s *Service) RevokeToken(ctx context.Context, u *models.User, token string) error {
	if err := s.users.PullToken(ctx, u.ID, token); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	kept := u.Tokens[:0]
	for _, t := range u.Tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
	return nil
}

// RevokeAllTokens removes every token from u.
func (s *Service) RevokeAllTokens(ctx context.Context, u *models.User) error {
	if err := s.users.ClearTokens(ctx, u.ID); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	u.Tokens = []string{}
	return nil
}

// Verify resolves a bearer token to its user. The signature must verify and
// the literal token must still be registered on the user.
func (s *Service) Verify(ctx context.Context, token string) (*models.User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByToken(ctx, id, token)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: token is not registered", models.ErrAuthentication)
	}
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	return user, nil
}
