package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/clinica/clinica/internal/platform/db"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte(strings.Repeat("k", 32))

type mockUserRepo struct {
	users  map[string]*User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if _, ok := m.users[u.Username]; ok {
		return db.ErrUniqueViolation
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	m.users[u.Username] = u
	return nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func newTestService(t *testing.T) (*Service, *mockUserRepo) {
	t.Helper()
	repo := newMockUserRepo()
	tokens := NewTokenManager(testSecret, "clinica-test", time.Hour)
	return NewService(repo, tokens, NewPasswordHasher(bcrypt.MinCost)), repo
}
