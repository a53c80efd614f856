// Package budget computes the financial summary and the advisory signals
// of one owner from a snapshot of their budget configuration and ledger.
//
// Everything here is a pure function of its inputs: the caller supplies the
// transactions, the configuration and the reference day (as of). Nothing in
// this package reads a clock, a store or any ambient state.
package budget

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Policy holds the tunable constants of the summary and the recommendation rules.
type Policy struct {
	// TransportDaysPerMonth converts the daily transport budget into a monthly cost.
	TransportDaysPerMonth int `yaml:"transport_days_per_month"`
	// LeisureShare is the fraction of disposable income suggested for leisure;
	// the remainder is suggested as savings.
	LeisureShare float64 `yaml:"leisure_share"`

	PaceTolerance      float64 `yaml:"pace_tolerance"`
	CategoryThreshold  float64 `yaml:"category_threshold"`
	DailyHighFactor    float64 `yaml:"daily_high_factor"`
	DailyLowFactor     float64 `yaml:"daily_low_factor"`
	DailyMinActiveDays int     `yaml:"daily_min_active_days"`
	WeeklyBandPercent  float64 `yaml:"weekly_band_percent"`
}

// DefaultPolicy returns the stock advisory policy.
func DefaultPolicy() Policy {
	return Policy{
		TransportDaysPerMonth: 30,
		LeisureShare:          0.4,
		PaceTolerance:         1.2,
		CategoryThreshold:     1.2,
		DailyHighFactor:       1.3,
		DailyLowFactor:        0.7,
		DailyMinActiveDays:    3,
		WeeklyBandPercent:     10,
	}
}

// Validate reports every nonsensical value at once.
func (p Policy) Validate() error {
	var errs []string
	if p.TransportDaysPerMonth <= 0 {
		errs = append(errs, "transport_days_per_month must be positive")
	}
	if p.LeisureShare < 0 || p.LeisureShare > 1 {
		errs = append(errs, "leisure_share must be between 0 and 1")
	}
	if p.PaceTolerance <= 0 {
		errs = append(errs, "pace_tolerance must be positive")
	}
	if p.CategoryThreshold <= 0 {
		errs = append(errs, "category_threshold must be positive")
	}
	if p.DailyHighFactor <= 0 || p.DailyLowFactor <= 0 {
		errs = append(errs, "daily factors must be positive")
	}
	if p.DailyLowFactor >= p.DailyHighFactor {
		errs = append(errs, "daily_low_factor must be below daily_high_factor")
	}
	if p.DailyMinActiveDays < 1 {
		errs = append(errs, "daily_min_active_days must be at least 1")
	}
	if p.WeeklyBandPercent < 0 {
		errs = append(errs, "weekly_band_percent cannot be negative")
	}
	if len(errs) > 0 {
		return errors.New("invalid budget policy:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

// LoadPolicy reads a YAML override file on top of DefaultPolicy.
// An empty path or a missing file yields the defaults.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Policy{}, fmt.Errorf("parse policy: %w", err)
		}
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// factors is the decimal form of a Policy, built once per Engine.
type factors struct {
	transportDays int64
	leisureShare  decimal.Decimal
	paceTolerance decimal.Decimal
	categoryLimit decimal.Decimal
	dailyHigh     decimal.Decimal
	dailyLow      decimal.Decimal
	dailyMinDays  int
	weeklyBand    decimal.Decimal
}

func (p Policy) factors() factors {
	return factors{
		transportDays: int64(p.TransportDaysPerMonth),
		leisureShare:  decimal.NewFromFloat(p.LeisureShare),
		paceTolerance: decimal.NewFromFloat(p.PaceTolerance),
		categoryLimit: decimal.NewFromFloat(p.CategoryThreshold),
		dailyHigh:     decimal.NewFromFloat(p.DailyHighFactor),
		dailyLow:      decimal.NewFromFloat(p.DailyLowFactor),
		dailyMinDays:  p.DailyMinActiveDays,
		weeklyBand:    decimal.NewFromFloat(p.WeeklyBandPercent),
	}
}
