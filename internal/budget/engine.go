package budget

import (
	"asesor/internal/core"
)

// Engine evaluates summaries and signals under one Policy.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	policy Policy
	f      factors
}

// NewEngine validates p and returns an Engine using it.
func NewEngine(p Policy) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: p, f: p.factors()}, nil
}

var defaultEngine = &Engine{policy: DefaultPolicy(), f: DefaultPolicy().factors()}

// Policy returns the policy the engine was built with.
func (e *Engine) Policy() Policy { return e.policy }

// Summarize computes the FinancialSummary with the default policy.
func Summarize(cfg core.BudgetConfig, txs []core.Transaction, asOf core.Date) FinancialSummary {
	return defaultEngine.Summarize(cfg, txs, asOf)
}

// Recommend evaluates the recommendation rules with the default policy.
func Recommend(cfg core.BudgetConfig, txs []core.Transaction, asOf core.Date) []Signal {
	return defaultEngine.Recommend(cfg, txs, asOf)
}

// fixedCosts returns the monthly transport estimate and the fixed cost total.
func (e *Engine) fixedCosts(cfg core.BudgetConfig) (transport, fixed core.Money) {
	transport = cfg.TransportDaily.Mul(e.f.transportDays)
	fixed = cfg.HousingBudget.Add(cfg.MarketBudget).Add(transport)
	return transport, fixed
}

// TransportMonthly is the monthly estimate shown when the budget is configured.
func (e *Engine) TransportMonthly(cfg core.BudgetConfig) core.Money {
	t, _ := e.fixedCosts(cfg.Normalize())
	return t
}

// variableBudget is max(0, income - fixed).
func (e *Engine) variableBudget(cfg core.BudgetConfig) core.Money {
	_, fixed := e.fixedCosts(cfg)
	v := cfg.MonthlyIncome.Sub(fixed)
	if v.Cents < 0 {
		return core.Money{}
	}
	return v
}

func expensesOnly(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.IsExpense() {
			out = append(out, t)
		}
	}
	return out
}

// within reports whether d lies in the closed range [from, to].
func within(d, from, to core.Date) bool {
	return !d.Before(from) && !d.After(to)
}
