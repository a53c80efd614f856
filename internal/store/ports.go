// Package store declares the persistence ports the services depend on.
package store

import (
	"context"
	"errors"

	"asesor/internal/core"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user already exists")
)

// Ports for persistence adapters.
type (
	// TransactionStore is an append-only ledger partitioned by owner.
	TransactionStore interface {
		// AppendTransaction stores t and returns its id. An empty t.ID is
		// assigned by the store.
		AppendTransaction(ctx context.Context, t core.Transaction) (id string, err error)
		// ListTransactions returns the owner's transactions ordered by date,
		// then by insertion. It returns an empty slice when there are none.
		ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	// BudgetConfigStore keeps one configuration per owner, replaced wholesale.
	BudgetConfigStore interface {
		// LoadBudgetConfig returns all-zero amounts when the owner never saved one.
		LoadBudgetConfig(ctx context.Context, ownerID string) (core.BudgetConfig, error)
		SaveBudgetConfig(ctx context.Context, cfg core.BudgetConfig) error
	}

	UserStore interface {
		// CreateUser fails with ErrUserExists for a taken username.
		CreateUser(ctx context.Context, u core.User) error
		GetUser(ctx context.Context, username string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	// Store is the full persistence surface a backend provides.
	Store interface {
		TransactionStore
		BudgetConfigStore
		UserStore
		Ping(ctx context.Context) error
	}
)
