package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"asesor/internal/core"
	applog "asesor/internal/log"
	"asesor/internal/store"
)

// Publisher announces stored transactions to downstream consumers.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, id, ownerID string) error
}

// Invalidator drops derived state of an owner after a write.
type Invalidator interface {
	Invalidate(owner string)
}

// TransactionService records transactions locally and announces them over AMQP.
type TransactionService struct {
	store       store.TransactionStore
	publisher   Publisher
	invalidator Invalidator
	logger      *applog.Logger
	sl          *applog.StructuredLogger
}

// NewTransactionService wires the service. publisher and invalidator may be nil.
func NewTransactionService(s store.TransactionStore, publisher Publisher, invalidator Invalidator, logger *applog.Logger) *TransactionService {
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentTransaction)
	}
	logger = logger.WithComponent(applog.ComponentTransaction)
	return &TransactionService{
		store:       s,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      logger,
		sl:          applog.NewStructuredLogger(logger),
	}
}

// Record validates t, stores it and returns it with its assigned id.
func (s *TransactionService) Record(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Category = strings.TrimSpace(t.Category)
	t.Label = strings.TrimSpace(t.Label)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validation failed: %w", err)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	// Save first; publishing is best effort.
	id, err := s.store.AppendTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	t.ID = id

	if s.invalidator != nil {
		s.invalidator.Invalidate(t.OwnerID)
	}
	s.sl.LogTransactionRecorded(ctx, t.OwnerID, t.ID, string(t.Kind), t.Category, t.Amount.Cents, t.Date.String())

	if err := s.publish(ctx, t); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction recorded message",
			applog.FieldTransactionID, t.ID,
			applog.FieldOwner, t.OwnerID,
			applog.FieldError, err)
	}
	return t, nil
}

func (s *TransactionService) publish(ctx context.Context, t core.Transaction) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not available, skipping export message")
		return nil
	}
	return s.publisher.PublishTransactionRecorded(ctx, t.ID, t.OwnerID)
}
