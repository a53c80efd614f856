package budget

import (
	"sort"

	"asesor/internal/core"

	"github.com/shopspring/decimal"
)

// FinancialSummary is the derived budget picture of one owner on one day.
type FinancialSummary struct {
	AsOf                 core.Date  `json:"as_of"`
	MonthlyIncome        core.Money `json:"monthly_income"`
	HousingBudget        core.Money `json:"housing_budget"`
	MarketBudget         core.Money `json:"market_budget"`
	TransportMonthly     core.Money `json:"transport_monthly"`
	SpentToday           core.Money `json:"spent_today"`
	SpentLast7Days       core.Money `json:"spent_last_7_days"`
	SpentThisMonth       core.Money `json:"spent_this_calendar_month"`
	FixedCostsTotal      core.Money `json:"fixed_costs_total"`
	DisposableIncome     core.Money `json:"disposable_income"`
	SuggestedLeisure     core.Money `json:"suggested_leisure"`
	SuggestedSavings     core.Money `json:"suggested_savings"`
	SpendToIncomePercent float64    `json:"spend_to_income_percent"`
	// LedgerBalance is lifetime income minus lifetime expenses. It is a cash
	// position and is never reconciled against MonthlyIncome.
	LedgerBalance core.Money `json:"ledger_balance"`
}

var hundred = decimal.NewFromInt(100)

// Summarize computes the FinancialSummary of txs as of asOf.
// Negative config fields count as zero; txs must belong to a single owner.
func (e *Engine) Summarize(cfg core.BudgetConfig, txs []core.Transaction, asOf core.Date) FinancialSummary {
	cfg = cfg.Normalize()
	transport, fixed := e.fixedCosts(cfg)
	disposable := e.variableBudget(cfg)
	leisure := core.MoneyFromDecimal(disposable.Decimal().Mul(e.f.leisureShare))

	s := FinancialSummary{
		AsOf:             asOf,
		MonthlyIncome:    cfg.MonthlyIncome,
		HousingBudget:    cfg.HousingBudget,
		MarketBudget:     cfg.MarketBudget,
		TransportMonthly: transport,
		FixedCostsTotal:  fixed,
		DisposableIncome: disposable,
		SuggestedLeisure: leisure,
		SuggestedSavings: disposable.Sub(leisure),
	}

	weekStart := asOf.AddDays(-7)
	for _, t := range txs {
		if !t.IsExpense() {
			s.LedgerBalance = s.LedgerBalance.Add(t.Amount)
			continue
		}
		s.LedgerBalance = s.LedgerBalance.Sub(t.Amount)
		if t.Date.Equal(asOf) {
			s.SpentToday = s.SpentToday.Add(t.Amount)
		}
		if within(t.Date, weekStart, asOf) {
			s.SpentLast7Days = s.SpentLast7Days.Add(t.Amount)
		}
		if t.Date.SameMonth(asOf) {
			s.SpentThisMonth = s.SpentThisMonth.Add(t.Amount)
		}
	}

	if cfg.MonthlyIncome.Cents > 0 {
		pct := s.SpentThisMonth.Add(fixed).Decimal().
			Mul(hundred).
			Div(cfg.MonthlyIncome.Decimal())
		s.SpendToIncomePercent = pct.InexactFloat64()
	}
	return s
}

// MonthOverview breaks down the expenses of asOf's calendar month by category,
// largest first. Categories with equal totals are ordered by name.
func MonthOverview(txs []core.Transaction, asOf core.Date) core.MonthOverview {
	ov := core.MonthOverview{Year: asOf.Year(), Month: asOf.Month()}
	totals := make(map[string]core.Money)
	for _, t := range txs {
		if !t.IsExpense() || !t.Date.SameMonth(asOf) {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(t.Amount)
		ov.Total = ov.Total.Add(t.Amount)
	}
	for name, amount := range totals {
		ov.ByCategory = append(ov.ByCategory, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(ov.ByCategory, func(i, j int) bool {
		a, b := ov.ByCategory[i], ov.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Name < b.Name
	})
	return ov
}
