// internal/clients/token.go
package clients

import "sync"

// atomicToken holds the outbound bearer credential. The session manager is
// the only writer; every request is a reader.
type atomicToken struct {
	mu sync.RWMutex
	v  string
}

func (t *atomicToken) store(v string) {
	t.mu.Lock()
	t.v = v
	t.mu.Unlock()
}

func (t *atomicToken) load() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.v
}
