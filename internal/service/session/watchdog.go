package session

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Context is the activity record of one authenticated session.
type Context struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	LastActivity  time.Time `json:"lastActivity"`
	SuppressUntil time.Time `json:"suppressUntil,omitempty"`
}

// idle reports whether the session has outlived timeout at now. A suppress
// window in the future keeps it alive.
func (c Context) idle(now time.Time, timeout time.Duration) bool {
	if now.Before(c.SuppressUntil) {
		return false
	}
	return now.Sub(c.LastActivity) > timeout
}

// Watchdog expires sessions that stay idle longer than the timeout. It holds
// no timer of its own: the scheduler calls Sweep and requests call Touch.
type Watchdog struct {
	mu       sync.Mutex
	timeout  time.Duration
	sessions map[string]*Context
	// expired keeps tombstones so a late request on a swept session is
	// refused rather than silently revived.
	expired map[string]time.Time
	now     func() time.Time
	logger  *zap.Logger
}

// NewWatchdog builds a watchdog with the given idle timeout.
func NewWatchdog(timeout time.Duration, logger *zap.Logger) *Watchdog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watchdog{
		timeout:  timeout,
		sessions: make(map[string]*Context),
		expired:  make(map[string]time.Time),
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock overrides the time source.
func (w *Watchdog) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

// Touch records activity. It returns false when the session has expired or
// has gone idle since the last request; the caller must then re-authenticate.
func (w *Watchdog) Touch(id, userID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if _, gone := w.expired[id]; gone {
		return false
	}

	c, ok := w.sessions[id]
	if !ok {
		w.sessions[id] = &Context{ID: id, UserID: userID, LastActivity: now}
		return true
	}
	if c.idle(now, w.timeout) {
		w.expire(id, now)
		return false
	}
	c.LastActivity = now
	return true
}

// Suppress keeps a session alive for d regardless of activity, used while a
// long export is produced.
func (w *Watchdog) Suppress(id string, d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.sessions[id]; ok {
		until := w.now().Add(d)
		if until.After(c.SuppressUntil) {
			c.SuppressUntil = until
		}
	}
}

// Release ends a suppress window early and counts as activity.
func (w *Watchdog) Release(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.sessions[id]; ok {
		now := w.now()
		c.SuppressUntil = time.Time{}
		c.LastActivity = now
	}
}

// Active reports whether a session is known and not idle at now.
func (w *Watchdog) Active(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.sessions[id]
	return ok && !c.idle(w.now(), w.timeout)
}

// Lookup returns a copy of the session context.
func (w *Watchdog) Lookup(id string) (Context, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.sessions[id]
	if !ok {
		return Context{}, false
	}
	return *c, true
}

// End forgets a session on logout.
func (w *Watchdog) End(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expire(id, w.now())
}

// Sweep expires every idle session and drops tombstones older than
// tombstoneTTL. It returns the ids it expired.
func (w *Watchdog) Sweep(now time.Time, tombstoneTTL time.Duration) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var swept []string
	for id, c := range w.sessions {
		if c.idle(now, w.timeout) {
			w.expire(id, now)
			swept = append(swept, id)
		}
	}
	for id, at := range w.expired {
		if now.Sub(at) > tombstoneTTL {
			delete(w.expired, id)
		}
	}

	if len(swept) > 0 {
		w.logger.Info("idle sessions expired", zap.Int("count", len(swept)))
	}
	return swept
}

// expire must be called with mu held.
func (w *Watchdog) expire(id string, now time.Time) {
	delete(w.sessions, id)
	w.expired[id] = now
}
