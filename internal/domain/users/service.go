package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventpro/server/internal/auth"
	"github.com/eventpro/server/internal/validation"
	"github.com/rs/zerolog"
)

// TokenIssuer mints the bearer credential handed back after sign-up and login.
type TokenIssuer interface {
	Generate(userID string) (string, error)
}

type Service struct {
	repo   Repository
	tokens TokenIssuer
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, tokens TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger.With().Str("component", "users").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account and signs the new user in.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, CreateParams{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")
	return &Session{User: user, Token: token}, nil
}

// Login checks the credentials and issues a fresh token. Unknown email and
// wrong password produce the same error.
func (s *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if input.Email == "" || input.Password == "" {
		return nil, validation.FieldError{Field: "email", Message: "Email and password are required"}
	}

	user, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, input.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the name/phone allow-list to the caller's own record
// and always refreshes updated_at.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) error {
	if err := s.repo.UpdateProfile(ctx, userID, patch, s.now()); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
