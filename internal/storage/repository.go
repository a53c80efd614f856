// Package storage implements store.Store on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"asesor/internal/core"
	"asesor/internal/store"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const timestampLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AppendTransaction implements store.TransactionStore.
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, date, kind, category, label, amount_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Date.String(), string(t.Kind), t.Category, t.Label, t.Amount.Cents,
		r.now().UTC().Format(timestampLayout))
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"owner", t.OwnerID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())

	return t.ID, nil
}

// ListTransactions implements store.TransactionStore.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, date, kind, category, label, amount_cents
		FROM transactions
		WHERE owner_id = ?
		ORDER BY date, seq`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetTransaction implements store.TransactionStore.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, date, kind, category, label, amount_cents
		FROM transactions
		WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	return t, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		date, kind string
	)
	if err := s.Scan(&t.ID, &t.OwnerID, &date, &kind, &t.Category, &t.Label, &t.Amount.Cents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return t, fmt.Errorf("parse transaction date %q: %w", date, err)
	}
	t.Date = d
	t.Kind = core.Kind(kind)
	return t, nil
}

// LoadBudgetConfig implements store.BudgetConfigStore.
func (r *SQLiteRepository) LoadBudgetConfig(ctx context.Context, ownerID string) (core.BudgetConfig, error) {
	cfg := core.BudgetConfig{OwnerID: ownerID}
	err := r.db.QueryRowContext(ctx, `
		SELECT monthly_income_cents, housing_cents, market_cents, transport_daily_cents
		FROM budget_configs
		WHERE owner_id = ?`, ownerID).
		Scan(&cfg.MonthlyIncome.Cents, &cfg.HousingBudget.Cents, &cfg.MarketBudget.Cents, &cfg.TransportDaily.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, nil
	}
	if err != nil {
		return core.BudgetConfig{}, fmt.Errorf("load budget config: %w", err)
	}
	return cfg, nil
}

// SaveBudgetConfig implements store.BudgetConfigStore.
func (r *SQLiteRepository) SaveBudgetConfig(ctx context.Context, cfg core.BudgetConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_configs (owner_id, monthly_income_cents, housing_cents, market_cents, transport_daily_cents, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id) DO UPDATE SET
			monthly_income_cents = excluded.monthly_income_cents,
			housing_cents = excluded.housing_cents,
			market_cents = excluded.market_cents,
			transport_daily_cents = excluded.transport_daily_cents,
			updated_at = excluded.updated_at`,
		cfg.OwnerID, cfg.MonthlyIncome.Cents, cfg.HousingBudget.Cents, cfg.MarketBudget.Cents,
		cfg.TransportDaily.Cents, r.now().UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("save budget config: %w", err)
	}
	return nil
}

// CreateUser implements store.UserStore.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	if err := core.ValidateUsername(u.Username); err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.now()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (username) DO NOTHING`,
		u.Username, u.PasswordHash, u.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n == 0 {
		return store.ErrUserExists
	}
	return nil
}

// GetUser implements store.UserStore.
func (r *SQLiteRepository) GetUser(ctx context.Context, username string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT username, password_hash, created_at FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	return u, err
}

// ListUsers implements store.UserStore.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT username, password_hash, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := make([]core.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

func scanUser(s scanner) (core.User, error) {
	var (
		u       core.User
		created string
	)
	if err := s.Scan(&u.Username, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, err
		}
		return u, fmt.Errorf("scan user: %w", err)
	}
	ts, err := time.Parse(timestampLayout, created)
	if err != nil {
		return u, fmt.Errorf("parse user created_at %q: %w", created, err)
	}
	u.CreatedAt = ts
	return u, nil
}
