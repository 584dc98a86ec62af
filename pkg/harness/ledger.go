package harness

import (
	"sync"

	"github.com/kylerisse/smokecheck/pkg/check"
)

// ledger is the append-only list of results for one run.
// Appends are serialized so a concurrent runner would stay correct;
// readers only ever receive copies.
type ledger struct {
	mu      sync.RWMutex
	results []check.Result
}

func (l *ledger) append(r check.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, r)
}

func (l *ledger) len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.results)
}

// snapshot returns a point-in-time copy of the results. Response bodies
// are shared, they are never modified after logging.
func (l *ledger) snapshot() []check.Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]check.Result, len(l.results))
	copy(out, l.results)
	return out
}
