package services

import (
	"context"
	"fmt"

	"asesor/internal/budget"
	"asesor/internal/core"
	applog "asesor/internal/log"
	"asesor/internal/store"
)

// BudgetView is a budget configuration plus the derived monthly transport estimate.
type BudgetView struct {
	OwnerID          string     `json:"owner_id"`
	MonthlyIncome    core.Money `json:"monthly_income"`
	HousingBudget    core.Money `json:"housing_budget"`
	MarketBudget     core.Money `json:"market_budget"`
	TransportDaily   core.Money `json:"transport_daily"`
	TransportMonthly core.Money `json:"transport_monthly"`
}

type BudgetService struct {
	store       store.BudgetConfigStore
	engine      *budget.Engine
	invalidator Invalidator
	logger      *applog.Logger
}

func NewBudgetService(s store.BudgetConfigStore, engine *budget.Engine, invalidator Invalidator, logger *applog.Logger) *BudgetService {
	if engine == nil {
		engine, _ = budget.NewEngine(budget.DefaultPolicy())
	}
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentBudget)
	}
	return &BudgetService{
		store:       s,
		engine:      engine,
		invalidator: invalidator,
		logger:      logger.WithComponent(applog.ComponentBudget),
	}
}

// Get returns the owner's configuration, all zero when never saved.
func (s *BudgetService) Get(ctx context.Context, owner string) (BudgetView, error) {
	if owner == "" {
		return BudgetView{}, core.ErrEmptyOwner
	}
	cfg, err := s.store.LoadBudgetConfig(ctx, owner)
	if err != nil {
		return BudgetView{}, fmt.Errorf("load budget config: %w", err)
	}
	return s.view(cfg), nil
}

// Save replaces the owner's configuration wholesale.
func (s *BudgetService) Save(ctx context.Context, cfg core.BudgetConfig) (BudgetView, error) {
	if err := cfg.Validate(); err != nil {
		return BudgetView{}, fmt.Errorf("validation failed: %w", err)
	}
	if err := s.store.SaveBudgetConfig(ctx, cfg); err != nil {
		return BudgetView{}, fmt.Errorf("save budget config: %w", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(cfg.OwnerID)
	}
	s.logger.InfoContext(ctx, "Budget configuration saved",
		applog.FieldOwner, cfg.OwnerID,
		applog.FieldOperation, applog.OpUpdate)
	return s.view(cfg), nil
}

func (s *BudgetService) view(cfg core.BudgetConfig) BudgetView {
	cfg = cfg.Normalize()
	return BudgetView{
		OwnerID:          cfg.OwnerID,
		MonthlyIncome:    cfg.MonthlyIncome,
		HousingBudget:    cfg.HousingBudget,
		MarketBudget:     cfg.MarketBudget,
		TransportDaily:   cfg.TransportDaily,
		TransportMonthly: s.engine.TransportMonthly(cfg),
	}
}
