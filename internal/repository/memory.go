package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/userauth/internal/models"
)

// MemoryStore keeps users and challenges in process memory. It is used by
// tests and by STORE=memory local runs.
type MemoryStore struct {
	mu         *sync.Mutex
	users      map[uuid.UUID]models.User
	challenges []models.OTPChallenge
	inTx       bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:    &sync.Mutex{},
		users: make(map[uuid.UUID]models.User),
	}
}

func (m *MemoryStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemoryStore) FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	defer m.lock()()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (m *MemoryStore) findActive(match func(models.User) bool) (models.User, error) {
	for _, user := range m.users {
		if !user.IsDeleted && match(user) {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *MemoryStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	defer m.lock()()
	return m.findActive(func(u models.User) bool { return u.Email == email })
}

func (m *MemoryStore) FindUserByNumber(ctx context.Context, number string) (models.User, error) {
	defer m.lock()()
	return m.findActive(func(u models.User) bool { return u.Number == number })
}

func (m *MemoryStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	defer m.lock()()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if _, exists := m.users[user.ID]; exists {
		return models.User{}, errors.New("create user: duplicate id")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) SaveUser(ctx context.Context, user models.User) error {
	defer m.lock()()
	if _, ok := m.users[user.ID]; !ok {
		return ErrNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStore) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (bool, error) {
	defer m.lock()()
	if token == "" || token == models.ConsumedTempToken {
		return false, nil
	}
	for id, user := range m.users {
		if user.TempToken == token && !user.Verified && !user.IsDeleted {
			user.TempToken = models.ConsumedTempToken
			user.Verified = true
			user.UpdatedAt = now
			m.users[id] = user
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CreateChallenge(ctx context.Context, challenge models.OTPChallenge) (models.OTPChallenge, error) {
	defer m.lock()()
	if challenge.ID == uuid.Nil {
		challenge.ID = uuid.New()
	}
	if challenge.CreatedAt.IsZero() {
		challenge.CreatedAt = time.Now()
	}
	if challenge.UpdatedAt.IsZero() {
		challenge.UpdatedAt = challenge.CreatedAt
	}
	m.challenges = append(m.challenges, challenge)
	return challenge, nil
}

func inScope(c models.OTPChallenge, scope ChallengeScope) bool {
	if scope.Number != "" {
		return c.Number == scope.Number
	}
	return c.UserID == scope.UserID
}

// latest returns the index of the newest challenge in scope; on equal
// timestamps the one inserted last wins.
func (m *MemoryStore) latest(scope ChallengeScope) int {
	idx := -1
	for i, c := range m.challenges {
		if !inScope(c, scope) {
			continue
		}
		if idx < 0 || !c.CreatedAt.Before(m.challenges[idx].CreatedAt) {
			idx = i
		}
	}
	return idx
}

func (m *MemoryStore) FindLatestChallenge(ctx context.Context, scope ChallengeScope) (models.OTPChallenge, error) {
	defer m.lock()()
	idx := m.latest(scope)
	if idx < 0 {
		return models.OTPChallenge{}, ErrNotFound
	}
	return m.challenges[idx], nil
}

func (m *MemoryStore) RedeemChallenge(ctx context.Context, challenge models.OTPChallenge, scope ChallengeScope, now time.Time) (bool, error) {
	defer m.lock()()
	idx := m.latest(scope)
	if idx < 0 || m.challenges[idx].ID != challenge.ID || m.challenges[idx].Redeemed {
		return false, nil
	}
	m.challenges[idx].Redeemed = true
	m.challenges[idx].UpdatedAt = now
	return true, nil
}

// WithTx serialises fn against the store. Changes made before fn fails are
// rolled back.
func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make(map[uuid.UUID]models.User, len(m.users))
	for id, u := range m.users {
		users[id] = u
	}
	challenges := append([]models.OTPChallenge(nil), m.challenges...)

	tx := &MemoryStore{mu: m.mu, users: users, challenges: challenges, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	m.users = tx.users
	m.challenges = tx.challenges
	return nil
}
