package loop

import "sync"

// sessionGuard is an ephemeral, process-local set of session IDs with an
// idle handler currently in flight. It is not persisted: it stands in for
// an OS-level lock and is only valid for a single controller process per
// workspace.
type sessionGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newSessionGuard() *sessionGuard {
	return &sessionGuard{active: make(map[string]struct{})}
}

// acquire marks the session as being handled. It returns false when a
// handler for the same session is already in flight, in which case the
// caller must drop the signal rather than queue it.
func (g *sessionGuard) acquire(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[sessionID]; busy {
		return false
	}
	g.active[sessionID] = struct{}{}
	return true
}

// release removes the session from the in-flight set. Callers must defer
// it immediately after a successful acquire so the entry is cleaned up on
// every exit path.
func (g *sessionGuard) release(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, sessionID)
}
