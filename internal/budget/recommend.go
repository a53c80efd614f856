package budget

import (
	"fmt"
	"math"

	"asesor/internal/core"

	"github.com/shopspring/decimal"
)

const (
	msgPace = "You are spending faster than expected this month. " +
		"At this pace you could run out of available money before the month ends. " +
		"Try to cut discretionary spending over the next few days."
	msgCategory = "This month your most demanding category is %s. " +
		"You are spending about %.1f%% more than your average in that category."
	msgDailyHigh = "You have spent more than usual today. " +
		"Consider holding off on further spending today to stay within your weekly budget."
	msgDailyLow = "You kept your spending under control today. " +
		"You are on track to meet your weekly goals."
	msgWeeklyUp = "This week you have spent %.1f%% more than last week. " +
		"Review optional expenses in particular."
	msgWeeklyDown = "This week you have spent %.1f%% less than last week. " +
		"Keep it up to get closer to your savings goals."
)

// Recommend evaluates the pace, category, daily and weekly rules in that
// order. A rule that does not apply contributes nothing, so the result holds
// between zero and four signals. Only expenses are considered.
func (e *Engine) Recommend(cfg core.BudgetConfig, txs []core.Transaction, asOf core.Date) []Signal {
	cfg = cfg.Normalize()
	expenses := expensesOnly(txs)
	signals := make([]Signal, 0, 4)
	if len(expenses) == 0 {
		return signals
	}
	for _, rule := range []func(core.BudgetConfig, []core.Transaction, core.Date) (Signal, bool){
		e.paceRule,
		e.categoryRule,
		e.dailyRule,
		e.weeklyRule,
	} {
		if s, ok := rule(cfg, expenses, asOf); ok {
			signals = append(signals, s)
		}
	}
	return signals
}

// paceRule warns when the share of the variable budget already spent this
// month outruns the share of the month elapsed, with a tolerance band.
func (e *Engine) paceRule(cfg core.BudgetConfig, expenses []core.Transaction, asOf core.Date) (Signal, bool) {
	variable := e.variableBudget(cfg)
	var month core.Money
	for _, t := range expenses {
		if t.Date.SameMonth(asOf) {
			month = month.Add(t.Amount)
		}
	}
	if variable.Cents <= 0 || month.Cents <= 0 {
		return Signal{}, false
	}
	// month/variable > day/days * tolerance, cross-multiplied to stay exact.
	spend := month.Decimal().Mul(decimal.NewFromInt(int64(asOf.DaysInMonth())))
	allowed := variable.Decimal().Mul(decimal.NewFromInt(int64(asOf.Day()))).Mul(e.f.paceTolerance)
	if !spend.GreaterThan(allowed) {
		return Signal{}, false
	}
	return Signal{Rule: RulePace, Severity: SeverityWarning, Message: msgPace}, true
}

// categoryRule reports the category of the current month whose spend is
// furthest above its lifetime monthly average. The average divides the
// lifetime category total by the number of distinct months with any expense.
func (e *Engine) categoryRule(_ core.BudgetConfig, expenses []core.Transaction, asOf core.Date) (Signal, bool) {
	type monthKey struct{ year, month int }
	months := make(map[monthKey]struct{})
	lifetime := make(map[string]core.Money)
	current := make(map[string]core.Money)
	var order []string
	for _, t := range expenses {
		months[monthKey{t.Date.Year(), t.Date.Month()}] = struct{}{}
		lifetime[t.Category] = lifetime[t.Category].Add(t.Amount)
		if t.Date.SameMonth(asOf) {
			if _, seen := current[t.Category]; !seen {
				order = append(order, t.Category)
			}
			current[t.Category] = current[t.Category].Add(t.Amount)
		}
	}
	n := decimal.NewFromInt(int64(max(1, len(months))))

	var (
		best      string
		bestRatio decimal.Decimal
		found     bool
	)
	for _, cat := range order {
		month, total := current[cat], lifetime[cat]
		if month.Cents <= 0 || total.Cents <= 0 {
			continue
		}
		// month / (total / n)
		ratio := month.Decimal().Mul(n).Div(total.Decimal())
		if !found || ratio.GreaterThan(bestRatio) {
			best, bestRatio, found = cat, ratio, true
		}
	}
	if !found || !bestRatio.GreaterThan(e.f.categoryLimit) {
		return Signal{}, false
	}
	pct := roundPercent(bestRatio.Sub(decimal.NewFromInt(1)).Mul(hundred))
	return Signal{
		Rule:     RuleCategory,
		Severity: SeverityInfo,
		Message:  fmt.Sprintf(msgCategory, best, pct),
		Category: best,
		Percent:  pct,
	}, true
}

// dailyRule compares today's spend with the average of all days that had
// any expense. It needs a minimum number of active days to say anything.
func (e *Engine) dailyRule(_ core.BudgetConfig, expenses []core.Transaction, asOf core.Date) (Signal, bool) {
	days := make(map[string]core.Money)
	var sum core.Money
	for _, t := range expenses {
		key := t.Date.String()
		days[key] = days[key].Add(t.Amount)
		sum = sum.Add(t.Amount)
	}
	if len(days) < e.f.dailyMinDays || sum.Cents <= 0 {
		return Signal{}, false
	}
	today := days[asOf.String()]
	if today.Cents <= 0 {
		return Signal{}, false
	}
	// today vs sum/count, cross-multiplied.
	scaled := today.Decimal().Mul(decimal.NewFromInt(int64(len(days))))
	switch {
	case scaled.GreaterThan(sum.Decimal().Mul(e.f.dailyHigh)):
		return Signal{Rule: RuleDaily, Severity: SeverityWarning, Message: msgDailyHigh}, true
	case scaled.LessThan(sum.Decimal().Mul(e.f.dailyLow)):
		return Signal{Rule: RuleDaily, Severity: SeveritySuccess, Message: msgDailyLow}, true
	}
	return Signal{}, false
}

// weeklyRule compares [asOf-7d, asOf] with the week before it, [asOf-14d, asOf-7d).
func (e *Engine) weeklyRule(_ core.BudgetConfig, expenses []core.Transaction, asOf core.Date) (Signal, bool) {
	weekStart, priorStart := asOf.AddDays(-7), asOf.AddDays(-14)
	var this, prior core.Money
	for _, t := range expenses {
		switch {
		case within(t.Date, weekStart, asOf):
			this = this.Add(t.Amount)
		case within(t.Date, priorStart, weekStart.AddDays(-1)):
			prior = prior.Add(t.Amount)
		}
	}
	if this.Cents <= 0 || prior.Cents <= 0 {
		return Signal{}, false
	}
	change := this.Sub(prior).Decimal().Mul(hundred).Div(prior.Decimal())
	switch {
	case change.GreaterThan(e.f.weeklyBand):
		pct := roundPercent(change)
		return Signal{
			Rule:     RuleWeekly,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf(msgWeeklyUp, pct),
			Percent:  pct,
		}, true
	case change.LessThan(e.f.weeklyBand.Neg()):
		pct := roundPercent(change)
		return Signal{
			Rule:     RuleWeekly,
			Severity: SeveritySuccess,
			Message:  fmt.Sprintf(msgWeeklyDown, math.Abs(pct)),
			Percent:  pct,
		}, true
	}
	return Signal{}, false
}

func roundPercent(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
