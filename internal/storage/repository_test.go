package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"asesor/internal/core"
	"asesor/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "asesor.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTransactionsRoundTripAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	in := []core.Transaction{
		{OwnerID: "ana", Date: core.NewDate(2025, 6, 3), Kind: core.Expense, Category: "Comida", Label: "c", Amount: core.Money{Cents: 300}},
		{OwnerID: "ana", Date: core.NewDate(2025, 6, 1), Kind: core.Income, Category: "Otros", Label: "a", Amount: core.Money{Cents: 100000}},
		{OwnerID: "luis", Date: core.NewDate(2025, 6, 2), Kind: core.Expense, Category: "Ocio", Label: "x", Amount: core.Money{Cents: 1}},
		{OwnerID: "ana", Date: core.NewDate(2025, 6, 3), Kind: core.Expense, Category: "Ocio", Label: "d", Amount: core.Money{Cents: 400}},
	}
	var firstID string
	for i, tx := range in {
		id, err := repo.AppendTransaction(ctx, tx)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if i == 0 {
			firstID = id
		}
	}

	got, err := repo.ListTransactions(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	labels := []string{"a", "c", "d"}
	if len(got) != len(labels) {
		t.Fatalf("expected %d transactions, got %d", len(labels), len(got))
	}
	for i, l := range labels {
		if got[i].Label != l {
			t.Fatalf("position %d: expected %s, got %s", i, l, got[i].Label)
		}
	}
	if got[0].Kind != core.Income || !got[0].Date.Equal(core.NewDate(2025, 6, 1)) || got[0].Amount.Cents != 100000 {
		t.Fatalf("fields not preserved: %+v", got[0])
	}

	one, err := repo.GetTransaction(ctx, firstID)
	if err != nil || one.Label != "c" || one.OwnerID != "ana" {
		t.Fatalf("unexpected get: %+v err=%v", one, err)
	}
	if _, err := repo.GetTransaction(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	none, err := repo.ListTransactions(ctx, "nobody")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty list, got %v err=%v", none, err)
	}
}

func TestAppendKeepsProvidedID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	tx := core.Transaction{ID: "fixed-id", OwnerID: "ana", Date: core.NewDate(2025, 1, 1), Kind: core.Expense, Category: "Salud", Amount: core.Money{Cents: 5}}
	id, err := repo.AppendTransaction(ctx, tx)
	if err != nil || id != "fixed-id" {
		t.Fatalf("expected provided id, got %q err=%v", id, err)
	}
	if _, err := repo.AppendTransaction(ctx, tx); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}
}

func TestBudgetConfigUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	cfg, err := repo.LoadBudgetConfig(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if (cfg != core.BudgetConfig{OwnerID: "ana"}) {
		t.Fatalf("expected zero defaults, got %+v", cfg)
	}

	want := core.BudgetConfig{
		OwnerID:        "ana",
		MonthlyIncome:  core.Money{Cents: 200000},
		HousingBudget:  core.Money{Cents: 50000},
		MarketBudget:   core.Money{Cents: 30000},
		TransportDaily: core.Money{Cents: 1000},
	}
	if err := repo.SaveBudgetConfig(ctx, core.BudgetConfig{OwnerID: "ana", MonthlyIncome: core.Money{Cents: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveBudgetConfig(ctx, want); err != nil {
		t.Fatal(err)
	}
	cfg, err = repo.LoadBudgetConfig(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != want {
		t.Fatalf("expected %+v, got %+v", want, cfg)
	}

	if err := repo.SaveBudgetConfig(ctx, core.BudgetConfig{OwnerID: "ana", HousingBudget: core.Money{Cents: -1}}); !errors.Is(err, core.ErrNegativeBudget) {
		t.Fatalf("expected ErrNegativeBudget, got %v", err)
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	if err := repo.CreateUser(ctx, core.User{Username: "luis", PasswordHash: "h1", CreatedAt: created}); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateUser(ctx, core.User{Username: "ana", PasswordHash: "h2"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateUser(ctx, core.User{Username: "ana", PasswordHash: "h3"}); !errors.Is(err, store.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	u, err := repo.GetUser(ctx, "luis")
	if err != nil || u.PasswordHash != "h1" || !u.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user %+v err=%v", u, err)
	}
	if _, err := repo.GetUser(ctx, "pedro"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil || len(users) != 2 || users[0].Username != "ana" || users[1].Username != "luis" {
		t.Fatalf("unexpected users %+v err=%v", users, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "asesor.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateUser(ctx, core.User{Username: "ana", PasswordHash: "h"}); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	// Migrations must be a no-op the second time.
	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	if _, err := repo.GetUser(ctx, "ana"); err != nil {
		t.Fatalf("expected persisted user, got %v", err)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
