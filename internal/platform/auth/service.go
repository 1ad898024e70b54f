package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinica/clinica/internal/platform/db"
	"github.com/clinica/clinica/pkg/apperror"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID   int64
	Username string
	Role     Role
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

type Service struct {
	users     UserRepository
	tokens    *TokenManager
	passwords *PasswordHasher
}

func NewService(users UserRepository, tokens *TokenManager, passwords *PasswordHasher) *Service {
	return &Service{users: users, tokens: tokens, passwords: passwords}
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	ok, err := s.passwords.Verify(u.PasswordHash, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(u)
}

// Register creates a USER account and returns a token for it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (string, error) {
	u, err := s.createUser(ctx, req, RoleUser)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(u)
}

// CreateAdmin seeds an ADMIN account. It is not reachable over HTTP.
func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*User, error) {
	return s.createUser(ctx, RegisterRequest{Username: username, Password: password}, RoleAdmin)
}

func (s *Service) createUser(ctx context.Context, req RegisterRequest, role Role) (*User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return nil, apperror.IllegalOperation("username and password are required")
	}

	_, err := s.users.GetByUsername(ctx, req.Username)
	switch {
	case err == nil:
		return nil, apperror.IllegalOperation("username already taken")
	case !errors.Is(err, db.ErrNotFound):
		return nil, err
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, db.ErrUniqueViolation) {
			return nil, apperror.IllegalOperation("username already taken")
		}
		return nil, fmt.Errorf("register %q: %w", req.Username, err)
	}
	return u, nil
}

// Validate parses token and confirms its subject still exists.
func (s *Service) Validate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByUsername(ctx, claims.Subject)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return &Principal{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}
