package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"asesor/internal/budget"
	"asesor/internal/cache"
	"asesor/internal/core"
	applog "asesor/internal/log"
	"asesor/internal/store"
)

// NoticeCode identifies a contextual message shown next to the signals.
type NoticeCode string

const (
	NoticeNoDisposableIncome NoticeCode = "no_disposable_income"
	NoticeNoTransactions     NoticeCode = "no_transactions"
	NoticeNoExpenses         NoticeCode = "no_expenses"
)

// Notice explains why part of the dashboard is empty or what the owner can do about it.
type Notice struct {
	Code     NoticeCode      `json:"code"`
	Severity budget.Severity `json:"severity"`
	Message  string          `json:"message"`
}

const (
	msgNoDisposableIncome = "With the configured income and fixed costs there is no money left. Reduce fixed costs or increase income to be able to save."
	msgNoTransactions     = "There are not enough transactions yet to generate recommendations."
	msgNoExpenses         = "No expenses recorded yet. Once you record some, spending patterns can be analysed."
)

// Dashboard is everything the owner sees for one day.
type Dashboard struct {
	Summary budget.FinancialSummary `json:"summary"`
	Signals []budget.Signal         `json:"signals"`
	Notices []Notice                `json:"notices"`
	Month   core.MonthOverview      `json:"month"`
}

// clone copies the slices so callers cannot modify a cached dashboard.
func (d Dashboard) clone() Dashboard {
	d.Signals = slices.Clone(d.Signals)
	d.Notices = slices.Clone(d.Notices)
	d.Month.ByCategory = slices.Clone(d.Month.ByCategory)
	return d
}

// AdvisorService loads an owner's data and runs the budget engine over it.
// Dashboards are cached per owner and day until the owner records something new.
type AdvisorService struct {
	txs     store.TransactionStore
	configs store.BudgetConfigStore
	engine  *budget.Engine
	cache   cache.Cache[Dashboard]
	logger  *applog.Logger
	sl      *applog.StructuredLogger

	group singleflight.Group

	genMu       sync.Mutex
	generations map[string]uint64
}

// NewAdvisorService wires the service. A nil engine uses the default policy;
// a nil cache disables caching.
func NewAdvisorService(txs store.TransactionStore, configs store.BudgetConfigStore, engine *budget.Engine, c cache.Cache[Dashboard], logger *applog.Logger) *AdvisorService {
	if engine == nil {
		engine, _ = budget.NewEngine(budget.DefaultPolicy())
	}
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentAdvisor)
	}
	logger = logger.WithComponent(applog.ComponentAdvisor)
	return &AdvisorService{
		txs:         txs,
		configs:     configs,
		engine:      engine,
		cache:       c,
		logger:      logger,
		sl:          applog.NewStructuredLogger(logger),
		generations: make(map[string]uint64),
	}
}

// Engine returns the engine used for evaluations.
func (s *AdvisorService) Engine() *budget.Engine { return s.engine }

// Dashboard computes summary, signals, notices and the month breakdown as of asOf.
func (s *AdvisorService) Dashboard(ctx context.Context, owner string, asOf core.Date) (Dashboard, error) {
	if owner == "" {
		return Dashboard{}, core.ErrEmptyOwner
	}
	key := s.cacheKey(owner, asOf)
	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			return d.clone(), nil
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		d, err := s.compute(ctx, owner, asOf)
		if err != nil {
			return Dashboard{}, err
		}
		if s.cache != nil {
			s.cache.Set(key, d)
		}
		return d, nil
	})
	if err != nil {
		return Dashboard{}, err
	}
	return v.(Dashboard).clone(), nil
}

// Summary returns the financial summary as of asOf.
func (s *AdvisorService) Summary(ctx context.Context, owner string, asOf core.Date) (budget.FinancialSummary, error) {
	d, err := s.Dashboard(ctx, owner, asOf)
	if err != nil {
		return budget.FinancialSummary{}, err
	}
	return d.Summary, nil
}

// Recommendations returns the signals as of asOf, in rule order.
func (s *AdvisorService) Recommendations(ctx context.Context, owner string, asOf core.Date) ([]budget.Signal, error) {
	d, err := s.Dashboard(ctx, owner, asOf)
	if err != nil {
		return nil, err
	}
	return d.Signals, nil
}

// RecentTransactions returns up to limit transactions, newest first.
// A limit of zero or less returns all of them.
func (s *AdvisorService) RecentTransactions(ctx context.Context, owner string, limit int) ([]core.Transaction, error) {
	if owner == "" {
		return nil, core.ErrEmptyOwner
	}
	txs, err := s.txs.ListTransactions(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	// Stores order by date then insertion, so the reverse is newest first.
	out := make([]core.Transaction, len(txs))
	for i, t := range txs {
		out[len(txs)-1-i] = t
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Invalidate drops every cached dashboard of owner.
func (s *AdvisorService) Invalidate(owner string) {
	s.genMu.Lock()
	s.generations[owner]++
	s.genMu.Unlock()
}

func (s *AdvisorService) cacheKey(owner string, asOf core.Date) string {
	s.genMu.Lock()
	gen := s.generations[owner]
	s.genMu.Unlock()
	return owner + "|" + strconv.FormatUint(gen, 10) + "|" + asOf.String()
}

func (s *AdvisorService) compute(ctx context.Context, owner string, asOf core.Date) (Dashboard, error) {
	var (
		cfg core.BudgetConfig
		txs []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.configs.LoadBudgetConfig(gctx, owner)
		if err != nil {
			return fmt.Errorf("load budget config: %w", err)
		}
		cfg = c
		return nil
	})
	g.Go(func() error {
		t, err := s.txs.ListTransactions(gctx, owner)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		txs = t
		return nil
	})
	if err := g.Wait(); err != nil {
		s.sl.LogError(ctx, "Failed to load owner data", err, applog.ComponentAdvisor, applog.OpSummarize,
			applog.NewFields().WithOwner(owner))
		return Dashboard{}, err
	}

	d := Dashboard{
		Summary: s.engine.Summarize(cfg, txs, asOf),
		Signals: s.engine.Recommend(cfg, txs, asOf),
		Month:   budget.MonthOverview(txs, asOf),
	}
	d.Notices = notices(d.Summary, txs)

	rules := make([]string, len(d.Signals))
	for i, sig := range d.Signals {
		rules[i] = string(sig.Rule)
	}
	s.sl.LogSignals(ctx, owner, asOf.String(), rules)
	return d, nil
}

func notices(sum budget.FinancialSummary, txs []core.Transaction) []Notice {
	out := make([]Notice, 0, 2)
	if sum.DisposableIncome.Cents <= 0 {
		out = append(out, Notice{Code: NoticeNoDisposableIncome, Severity: budget.SeverityWarning, Message: msgNoDisposableIncome})
	}
	if len(txs) == 0 {
		return append(out, Notice{Code: NoticeNoTransactions, Severity: budget.SeverityInfo, Message: msgNoTransactions})
	}
	for _, t := range txs {
		if t.IsExpense() {
			return out
		}
	}
	return append(out, Notice{Code: NoticeNoExpenses, Severity: budget.SeverityInfo, Message: msgNoExpenses})
}
