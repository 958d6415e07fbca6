package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bus-tracker/internal/auth/domain/model"
	"bus-tracker/internal/auth/domain/repository"

	"golang.org/x/crypto/bcrypt"
)

// UserFixture provides test data for the User model
type UserFixture struct{}

// NewUserFixture creates a new UserFixture instance
func NewUserFixture() *UserFixture {
	return &UserFixture{}
}

// Driver returns a driver account whose password is password
func (f *UserFixture) Driver(id, username, password string) *model.User {
	return f.user(id, username, password, model.RoleDriver)
}

// Student returns a student account whose password is password
func (f *UserFixture) Student(id, username, password string) *model.User {
	return f.user(id, username, password, model.RoleStudent)
}

func (f *UserFixture) user(id, username, password string, role model.Role) *model.User {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &model.User{
		ID:           id,
		Username:     username,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    time.Now(),
	}
}

// SessionFixture provides test data for the Session model
type SessionFixture struct{}

// NewSessionFixture creates a new SessionFixture instance
func NewSessionFixture() *SessionFixture {
	return &SessionFixture{}
}

// SessionFor returns a live session for user
func (f *SessionFixture) SessionFor(token string, user *model.User) *model.Session {
	return &model.Session{
		Token:     token,
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// MemoryUserRepository is an in-memory UserRepository for tests
type MemoryUserRepository struct {
	mu     sync.Mutex
	byName map[string]*model.User
	seq    int
}

// NewMemoryUserRepository creates an empty repository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{byName: make(map[string]*model.User)}
}

func (r *MemoryUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[user.Username]; ok {
		return model.ErrUsernameTaken
	}
	if user.ID == "" {
		r.seq++
		user.ID = fmt.Sprintf("user-%d", r.seq)
	}
	stored := *user
	r.byName[user.Username] = &stored
	return nil
}

func (r *MemoryUserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byName[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// Count returns the number of stored users
func (r *MemoryUserRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byName)
}

// MemorySessionStore is an in-memory SessionStore for tests
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

// NewMemorySessionStore creates an empty store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*model.Session)}
}

func (s *MemorySessionStore) Create(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.Token]; ok {
		return fmt.Errorf("session %s already exists", session.Token)
	}
	cp := *session
	s.sessions[session.Token] = &cp
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, token string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok || session.IsExpired(time.Now()) {
		return nil, model.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *MemorySessionStore) Destroy(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Len returns the number of stored sessions, expired ones included
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

var (
	_ repository.UserRepository = (*MemoryUserRepository)(nil)
	_ repository.SessionStore   = (*MemorySessionStore)(nil)
)
