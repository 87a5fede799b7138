package position

import (
	"fmt"
	"time"

	"github.com/vdtran/position-guardian/pkg/types"
)

// Registry holds one account's open positions keyed by symbol and preserves
// insertion order so a cycle evaluates positions in a stable sequence. It is
// not safe for concurrent use; every account runs its own registry on its own
// goroutine.
type Registry struct {
	bySymbol map[string]*Position
	order    []string
}

// NewRegistry creates an empty position registry.
func NewRegistry() *Registry {
	return &Registry{
		bySymbol: make(map[string]*Position),
	}
}

// Register creates and tracks a new position for a filled entry.
func (r *Registry) Register(symbol string, side types.Side, entryPrice, size float64, now time.Time) (*Position, error) {
	if _, exists := r.bySymbol[symbol]; exists {
		return nil, fmt.Errorf("registry: position for %s already open", symbol)
	}
	pos, err := New(symbol, side, entryPrice, size, now)
	if err != nil {
		return nil, err
	}
	r.bySymbol[symbol] = pos
	r.order = append(r.order, symbol)
	return pos, nil
}

// Get looks up an open position. A miss is a normal condition: callers query
// symbols that may not have been registered yet in the same cycle.
func (r *Registry) Get(symbol string) (*Position, bool) {
	pos, ok := r.bySymbol[symbol]
	return pos, ok
}

// Unregister drops a position, e.g. after a full close or a manual removal.
func (r *Registry) Unregister(symbol string) {
	if _, ok := r.bySymbol[symbol]; !ok {
		return
	}
	delete(r.bySymbol, symbol)
	for i, s := range r.order {
		if s == symbol {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Symbols returns open symbols in insertion order.
func (r *Registry) Symbols() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of open positions.
func (r *Registry) Len() int {
	return len(r.bySymbol)
}
