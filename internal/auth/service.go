// Package auth handles account registration and username/password login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/filegate/service/internal/session"
	"github.com/filegate/service/internal/user"
)

const minPasswordLen = 8

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidUsername is returned when a username does not match the allowed pattern.
	ErrInvalidUsername = errors.New("username must be 3-64 characters of letters, digits, '.', '_' or '-'")
	// ErrWeakPassword is returned when a password is too short.
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", minPasswordLen)
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
)

// Users is the credential store used by the service.
type Users interface {
	Create(ctx context.Context, username, passwordHash string) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

// Service contains the business logic for registration and login.
type Service struct {
	users  Users
	issuer *session.Issuer
	verify func(password, encoded string) (bool, error)

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new auth Service.
func NewService(users Users, issuer *session.Issuer) *Service {
	return &Service{users: users, issuer: issuer, verify: VerifyPassword}
}

// Register creates an account with a salted password hash.
func (s *Service) Register(ctx context.Context, username, password string) (*user.User, error) {
	if !usernameRegex.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, username, hash)
	if errors.Is(err, user.ErrAlreadyExists) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", username, err)
	}

	log.Infof("auth: registered user %q", username)
	return u, nil
}

// Login verifies the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, *user.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, user.ErrNotFound) {
		// Unknown usernames cost the same argon2 work as a wrong password.
		_, _ = s.verify(password, s.fallbackHash())
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.verify(password, u.PasswordHash)
	if err != nil {
		log.Warnf("auth: stored hash for %q unreadable: %v", username, err)
		return "", nil, ErrInvalidCredentials
	}
	if !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(session.Principal{UserID: u.ID, Username: u.Username})
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// fallbackHash is a valid hash of a random password, built on first use.
func (s *Service) fallbackHash() string {
	s.dummyOnce.Do(func() {
		hash, err := HashPassword(uuid.NewString())
		if err != nil {
			log.Warnf("auth: build fallback hash: %v", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
