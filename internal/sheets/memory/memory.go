package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"allowance/internal/core"
	"allowance/internal/sheets"
)

var _ sheets.Ledger = (*Ledger)(nil)

// Ledger is an in-process mirror keyed by transaction id, used in tests.
type Ledger struct {
	mu   sync.Mutex
	rows map[string]core.Transaction
	refs map[string]int
	next int
}

func New() *Ledger {
	return &Ledger{
		rows: make(map[string]core.Transaction),
		refs: make(map[string]int),
	}
}

// UpsertTransaction stores the row and returns a synthetic row reference.
// Writing the same id twice keeps the original reference.
func (l *Ledger) UpsertTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ref, ok := l.refs[tx.ID]
	if !ok {
		l.next++
		ref = l.next
		l.refs[tx.ID] = ref
	}
	l.rows[tx.ID] = tx
	return fmt.Sprintf("mem:%d", ref), nil
}

func (l *Ledger) DeleteTransaction(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rows[id]; !ok {
		return core.ErrNotFound
	}
	delete(l.rows, id)
	delete(l.refs, id)
	return nil
}

// Rows returns the mirrored transactions in row order.
func (l *Ledger) Rows() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Transaction, 0, len(l.rows))
	for _, tx := range l.rows {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return l.refs[out[i].ID] < l.refs[out[j].ID] })
	return out
}
