package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"asesor/internal/budget"
	"asesor/internal/cache"
	"asesor/internal/core"
	"asesor/internal/store"
	"asesor/internal/store/memory"
)

var asOf = core.NewDate(2025, 6, 15)

func money(units int64) core.Money { return core.Money{Cents: units * 100} }

func tx(owner string, d core.Date, kind core.Kind, category string, units int64) core.Transaction {
	return core.Transaction{OwnerID: owner, Date: d, Kind: kind, Category: category, Amount: money(units)}
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (p *fakePublisher) PublishTransactionRecorded(_ context.Context, id, owner string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, owner+"/"+id)
	return p.err
}

// failingStore fails every read.
type failingStore struct{ *memory.Store }

func (failingStore) ListTransactions(context.Context, string) ([]core.Transaction, error) {
	return nil, errors.New("disk on fire")
}

func newAdvisor(st store.Store) *AdvisorService {
	return NewAdvisorService(st, st, nil, cache.NewLRUCache[Dashboard](10, time.Minute), nil)
}

func TestAdvisorDashboard(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	if err := st.SaveBudgetConfig(ctx, core.BudgetConfig{
		OwnerID:        "ana",
		MonthlyIncome:  money(2000),
		HousingBudget:  money(500),
		MarketBudget:   money(300),
		TransportDaily: money(10),
	}); err != nil {
		t.Fatal(err)
	}
	for _, x := range []core.Transaction{
		tx("ana", asOf, core.Expense, "Comida", 20),
		tx("ana", asOf.AddDays(-3), core.Expense, "Ocio", 30),
		tx("ana", asOf.AddDays(-1), core.Income, "Otros", 100),
		tx("bob", asOf, core.Expense, "Comida", 999),
	} {
		if _, err := st.AppendTransaction(ctx, x); err != nil {
			t.Fatal(err)
		}
	}

	svc := newAdvisor(st)
	d, err := svc.Dashboard(ctx, "ana", asOf)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Summary.DisposableIncome != money(900) {
		t.Fatalf("expected disposable 900, got %s", d.Summary.DisposableIncome)
	}
	if d.Summary.SpentToday != money(20) || d.Summary.SpentThisMonth != money(50) {
		t.Fatalf("unexpected spending %+v", d.Summary)
	}
	if d.Summary.LedgerBalance != money(50) {
		t.Fatalf("expected ledger balance 50, got %s", d.Summary.LedgerBalance)
	}
	if len(d.Notices) != 0 {
		t.Fatalf("expected no notices, got %+v", d.Notices)
	}
	if d.Month.Total != money(50) || len(d.Month.ByCategory) != 2 {
		t.Fatalf("unexpected month overview %+v", d.Month)
	}

	sum, err := svc.Summary(ctx, "ana", asOf)
	if err != nil || sum != d.Summary {
		t.Fatalf("Summary mismatch: %+v err=%v", sum, err)
	}
	if _, err := svc.Recommendations(ctx, "ana", asOf); err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
}

func TestAdvisorNotices(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := newAdvisor(st)

	d, err := svc.Dashboard(ctx, "ana", asOf)
	if err != nil {
		t.Fatal(err)
	}
	if got := noticeCodes(d.Notices); len(got) != 2 || got[0] != NoticeNoDisposableIncome || got[1] != NoticeNoTransactions {
		t.Fatalf("unexpected notices %v", got)
	}
	if d.Signals == nil || len(d.Signals) != 0 {
		t.Fatalf("expected empty non-nil signals, got %#v", d.Signals)
	}

	st.SaveBudgetConfig(ctx, core.BudgetConfig{OwnerID: "ana", MonthlyIncome: money(1000)})
	st.AppendTransaction(ctx, tx("ana", asOf, core.Income, "Otros", 1000))
	svc.Invalidate("ana")

	d, err = svc.Dashboard(ctx, "ana", asOf)
	if err != nil {
		t.Fatal(err)
	}
	if got := noticeCodes(d.Notices); len(got) != 1 || got[0] != NoticeNoExpenses {
		t.Fatalf("unexpected notices %v", got)
	}
}

func noticeCodes(ns []Notice) []NoticeCode {
	out := make([]NoticeCode, len(ns))
	for i, n := range ns {
		out[i] = n.Code
	}
	return out
}

func TestAdvisorCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	advisor := newAdvisor(st)
	txs := NewTransactionService(st, nil, advisor, nil)

	before, err := advisor.Dashboard(ctx, "ana", asOf)
	if err != nil {
		t.Fatal(err)
	}
	// Written behind the service's back: the cached dashboard is still served.
	st.AppendTransaction(ctx, tx("ana", asOf, core.Expense, "Comida", 5))
	cached, _ := advisor.Dashboard(ctx, "ana", asOf)
	if cached.Summary.SpentToday != before.Summary.SpentToday {
		t.Fatalf("expected cached dashboard")
	}

	if _, err := txs.Record(ctx, tx("ana", asOf, core.Expense, "Comida", 7)); err != nil {
		t.Fatal(err)
	}
	after, _ := advisor.Dashboard(ctx, "ana", asOf)
	if after.Summary.SpentToday != money(12) {
		t.Fatalf("expected refreshed dashboard with 12 spent, got %s", after.Summary.SpentToday)
	}
}

func TestAdvisorDashboardCopiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	st.AppendTransaction(ctx, tx("ana", asOf, core.Expense, "Comida", 5))
	advisor := newAdvisor(st)

	first, err := advisor.Dashboard(ctx, "ana", asOf)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Notices) == 0 || len(first.Month.ByCategory) == 0 {
		t.Fatalf("expected notices and a category breakdown, got %+v", first)
	}
	first.Notices[0].Message = "changed"
	first.Month.ByCategory[0].Name = "changed"
	first.Signals = append(first.Signals, budget.Signal{Rule: budget.RulePace})

	second, err := advisor.Dashboard(ctx, "ana", asOf)
	if err != nil {
		t.Fatal(err)
	}
	if second.Notices[0].Message == "changed" || second.Month.ByCategory[0].Name == "changed" {
		t.Fatalf("cached dashboard was modified through a returned copy: %+v", second)
	}
	if len(second.Signals) == len(first.Signals) {
		t.Fatalf("appending to a returned slice leaked into the cache: %d signals", len(second.Signals))
	}
}

func TestAdvisorErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewAdvisorService(failingStore{memory.New()}, memory.New(), nil, nil, nil)
	if _, err := svc.Dashboard(ctx, "ana", asOf); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := svc.Dashboard(ctx, "", asOf); !errors.Is(err, core.ErrEmptyOwner) {
		t.Fatalf("expected ErrEmptyOwner, got %v", err)
	}
	if _, err := svc.RecentTransactions(ctx, "ana", 5); err == nil {
		t.Fatal("expected store error")
	}
}

func TestRecentTransactions(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	first := tx("ana", asOf.AddDays(-2), core.Expense, "Comida", 1)
	first.Label = "first"
	sameDayA := tx("ana", asOf, core.Expense, "Comida", 2)
	sameDayA.Label = "a"
	sameDayB := tx("ana", asOf, core.Expense, "Comida", 3)
	sameDayB.Label = "b"
	for _, x := range []core.Transaction{sameDayA, first, sameDayB} {
		st.AppendTransaction(ctx, x)
	}
	svc := newAdvisor(st)

	all, err := svc.RecentTransactions(ctx, "ana", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b", "a", "first"}
	if len(all) != len(want) {
		t.Fatalf("expected %d transactions, got %d", len(want), len(all))
	}
	for i, w := range want {
		if all[i].Label != w {
			t.Fatalf("position %d: expected %s, got %s", i, w, all[i].Label)
		}
	}

	two, _ := svc.RecentTransactions(ctx, "ana", 2)
	if len(two) != 2 || two[0].Label != "b" {
		t.Fatalf("unexpected limited result %+v", two)
	}
}

func TestTransactionServiceRecord(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	pub := &fakePublisher{}
	svc := NewTransactionService(st, pub, nil, nil)

	in := tx("ana", asOf, core.Expense, "  Comida ", 12)
	in.Label = " pan "
	got, err := svc.Record(ctx, in)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if got.ID == "" || got.Category != "Comida" || got.Label != "pan" {
		t.Fatalf("unexpected stored transaction %+v", got)
	}
	stored, err := st.GetTransaction(ctx, got.ID)
	if err != nil || stored.Amount != money(12) {
		t.Fatalf("transaction not stored: %+v err=%v", stored, err)
	}
	if len(pub.calls) != 1 || pub.calls[0] != "ana/"+got.ID {
		t.Fatalf("unexpected publish calls %v", pub.calls)
	}
}

func TestTransactionServiceRecordValidation(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, nil, nil)
	bad := tx("ana", asOf, core.Expense, "Comida", 0)
	if _, err := svc.Record(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	bad = tx("ana", asOf, core.Expense, "   ", 3)
	if _, err := svc.Record(context.Background(), bad); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestTransactionServicePublishFailureIsNotFatal(t *testing.T) {
	st := memory.New()
	svc := NewTransactionService(st, &fakePublisher{err: errors.New("broker down")}, nil, nil)
	got, err := svc.Record(context.Background(), tx("ana", asOf, core.Income, "Otros", 50))
	if err != nil {
		t.Fatalf("publish failure should not fail the request: %v", err)
	}
	if _, err := st.GetTransaction(context.Background(), got.ID); err != nil {
		t.Fatalf("transaction should be stored: %v", err)
	}
}

func TestBudgetService(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := NewBudgetService(st, nil, nil, nil)

	v, err := svc.Get(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if v.OwnerID != "ana" || v.MonthlyIncome.Cents != 0 || v.TransportMonthly.Cents != 0 {
		t.Fatalf("expected zero defaults, got %+v", v)
	}

	v, err = svc.Save(ctx, core.BudgetConfig{OwnerID: "ana", MonthlyIncome: money(1500), TransportDaily: core.Money{Cents: 250}})
	if err != nil {
		t.Fatal(err)
	}
	if v.TransportMonthly.Cents != 7500 {
		t.Fatalf("expected monthly transport 75.00, got %s", v.TransportMonthly)
	}
	loaded, _ := svc.Get(ctx, "ana")
	if loaded != v {
		t.Fatalf("loaded %+v, saved %+v", loaded, v)
	}

	if _, err := svc.Save(ctx, core.BudgetConfig{OwnerID: "ana", HousingBudget: core.Money{Cents: -1}}); !errors.Is(err, core.ErrNegativeBudget) {
		t.Fatalf("expected ErrNegativeBudget, got %v", err)
	}
}

func TestBudgetServiceCustomPolicy(t *testing.T) {
	p := budget.DefaultPolicy()
	p.TransportDaysPerMonth = 22
	engine, err := budget.NewEngine(p)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewBudgetService(memory.New(), engine, nil, nil)
	v, err := svc.Save(context.Background(), core.BudgetConfig{OwnerID: "ana", TransportDaily: money(2)})
	if err != nil {
		t.Fatal(err)
	}
	if v.TransportMonthly != money(44) {
		t.Fatalf("expected 44, got %s", v.TransportMonthly)
	}
}

type fakeTokens struct{}

func (fakeTokens) Generate(owner string) (string, error) { return "token-for-" + owner, nil }
func (fakeTokens) TTL() time.Duration                    { return time.Hour }

func newAuth(st store.UserStore) *AuthService {
	svc := NewAuthService(st, fakeTokens{}, nil)
	svc.cost = 4 // bcrypt.MinCost keeps tests fast
	return svc
}

func TestAuthRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := newAuth(st)

	if err := svc.Register(ctx, "ana", "s3cret", "s3cret"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	u, err := st.GetUser(ctx, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cret" {
		t.Fatalf("password must be stored hashed, got %q", u.PasswordHash)
	}

	tok, err := svc.Login(ctx, "ana", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok.AccessToken != "token-for-ana" || tok.TokenType != "Bearer" || tok.ExpiresIn != 3600 {
		t.Fatalf("unexpected token %+v", tok)
	}
}

func TestAuthRegisterErrors(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := newAuth(st)
	if err := svc.Register(ctx, "ana", "pw", "pw"); err != nil {
		t.Fatal(err)
	}

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'x'
	}
	cases := []struct {
		name, user, pw, confirm string
		want                    error
	}{
		{"duplicate", "ana", "pw", "pw", store.ErrUserExists},
		{"mismatch", "bob", "pw", "other", ErrPasswordMismatch},
		{"empty password", "bob", "", "", ErrEmptyPassword},
		{"too long", "bob", string(long), string(long), ErrPasswordTooLong},
		{"bad username", "b ob", "pw", "pw", core.ErrInvalidUsername},
		{"empty username", "", "pw", "pw", core.ErrInvalidUsername},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := svc.Register(ctx, c.user, c.pw, c.confirm); !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}
}

func TestAuthLoginErrors(t *testing.T) {
	ctx := context.Background()
	svc := newAuth(memory.New())
	svc.Register(ctx, "ana", "pw", "pw")

	if _, err := svc.Login(ctx, "ana", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}
