package google

import (
	"fmt"
	"strconv"
	"strings"

	"asesor/internal/core"
)

func ledgerHeader() []any {
	return []any{"ID", "Fecha", "Usuario", "Tipo", "Categoría", "Descripción", "Monto"}
}

// kindLabel renders a kind the way the spreadsheet's readers expect it.
func kindLabel(k core.Kind) string {
	if k == core.Income {
		return "Ingreso"
	}
	return "Gasto"
}

// transactionRow lays out one ledger row, matching ledgerHeader.
func transactionRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.String(),
		t.OwnerID,
		kindLabel(t.Kind),
		t.Category,
		t.Label,
		t.Amount.Units(),
	}
}

// exportedIDs collects the non-empty first cells of values, skipping the header.
func exportedIDs(values [][]interface{}) map[string]struct{} {
	ids := make(map[string]struct{}, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || (i == 0 && v == ledgerHeader()[0]) {
			continue
		}
		ids[v] = struct{}{}
	}
	return ids
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// quoteSheet quotes a sheet title for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
