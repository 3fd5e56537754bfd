package user

import (
	"context"
	"errors"
	"fmt"
)

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// Service contains business logic for user management.
type Service struct {
	repo Store
}

// NewService creates a new user Service.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Create registers a new user account with an already-hashed password.
func (s *Service) Create(ctx context.Context, username, passwordHash string) (*User, error) {
	u, err := s.repo.Create(ctx, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID returns a user by their UUID.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUsername returns a user by their username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// IsNotFound returns true when the error indicates a user was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
