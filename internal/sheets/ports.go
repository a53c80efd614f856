package sheets

import (
	"context"

	"asesor/internal/core"
)

// Ports for outbound ledger export adapters.
type (
	// LedgerWriter appends transactions to an external ledger.
	LedgerWriter interface {
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// LedgerChecker reports whether a transaction was already exported.
	LedgerChecker interface {
		HasTransaction(ctx context.Context, t core.Transaction) (bool, error)
	}

	Ledger interface {
		LedgerWriter
		LedgerChecker
	}
)
