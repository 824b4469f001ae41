package core

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RepositoryAuthService implements AuthService over a UserRepository with bcrypt hashing.
type RepositoryAuthService struct {
	users UserRepository
}

func NewRepositoryAuthService(users UserRepository) *RepositoryAuthService {
	return &RepositoryAuthService{users: users}
}

// Authenticate checks the password against the stored bcrypt hash.
func (s *RepositoryAuthService) Authenticate(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil || u == nil {
		return User{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return User{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}, nil
}

// Register creates a new account with a bcrypt-hashed password.
func (s *RepositoryAuthService) Register(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)

	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	id, err := s.users.Create(ctx, username, string(hash))
	if err != nil {
		// The unique constraint can still fire under concurrent registration.
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{ID: id, Username: username}, nil
	}
	return User{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}, nil
}
