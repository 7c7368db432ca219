// internal/clients/inflight.go
package clients

import "sync"

// actionGuard refuses a second mutating call for the same record while one
// is still outstanding. Keys are per record and per action, so one row's
// in-flight return does not block another row's.
type actionGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newActionGuard() *actionGuard {
	return &actionGuard{busy: make(map[string]struct{})}
}

func (g *actionGuard) begin(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, taken := g.busy[key]; taken {
		return false
	}
	g.busy[key] = struct{}{}
	return true
}

func (g *actionGuard) end(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, key)
}
