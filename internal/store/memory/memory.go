// Package memory provides a mutex-guarded in-process Store.
// Nothing survives a restart; it backs tests and DATA_BACKEND=memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"asesor/internal/core"
	"asesor/internal/store"

	"github.com/google/uuid"
)

type Store struct {
	mu      sync.Mutex
	items   []core.Transaction
	configs map[string]core.BudgetConfig
	users   map[string]core.User
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		configs: make(map[string]core.BudgetConfig),
		users:   make(map[string]core.User),
		now:     time.Now,
	}
}

// AppendTransaction stores a copy of t.
func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return t.ID, nil
}

// ListTransactions returns a snapshot of the owner's ledger.
func (s *Store) ListTransactions(_ context.Context, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0)
	for _, t := range s.items {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	s.mu.Unlock()
	// Stable sort keeps insertion order within a day.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.items {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) LoadBudgetConfig(_ context.Context, ownerID string) (core.BudgetConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg, ok := s.configs[ownerID]; ok {
		return cfg, nil
	}
	return core.BudgetConfig{OwnerID: ownerID}, nil
}

func (s *Store) SaveBudgetConfig(_ context.Context, cfg core.BudgetConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.OwnerID] = cfg
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	u.Username = strings.TrimSpace(u.Username)
	if err := core.ValidateUsername(u.Username); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return store.ErrUserExists
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	s.users[u.Username] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, username string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.TrimSpace(username)]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return u, nil
}

// ListUsers returns users ordered by username.
func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }
