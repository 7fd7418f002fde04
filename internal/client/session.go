package client

import (
	"context"
	"sync"
	"time"
)

// Refresher trades a valid token for a fresh one. *API satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, token string) (*TokenGrant, error)
}

// WatchdogConfig carries the client-side session tunables. WarningLead and
// Coalesce mirror the server's token TTL contract; they are not negotiated.
type WatchdogConfig struct {
	// WarningLead is how long before expiry the warning fires.
	WarningLead time.Duration
	// Coalesce is the minimum gap between activity-driven refreshes, so a
	// burst of keystrokes costs one request instead of hundreds.
	Coalesce time.Duration
	// OnWarning runs shortly before expiry. Returning true keeps the session
	// alive with one more refresh; false lets it run out.
	OnWarning func() bool
	// OnExpired runs when the session ends for any reason other than Stop.
	OnExpired func()
}

// Watchdog keeps a session alive while the user is active and ends it when
// they are not. Each adopted token arms two timers: a warning at expiry minus
// WarningLead and a hard stop at expiry. Every successful refresh rearms both
// from the new expiry.
type Watchdog struct {
	mu          sync.Mutex
	refresher   Refresher
	store       *CredStore
	cfg         WatchdogConfig
	token       string
	expiresAt   time.Time
	lastRefresh time.Time
	generation  uint64
	warnTimer   *time.Timer
	expireTimer *time.Timer
	active      bool
}

// NewWatchdog creates a watchdog. The store may be nil; when set, refreshed
// tokens are persisted to it.
func NewWatchdog(refresher Refresher, store *CredStore, cfg WatchdogConfig) *Watchdog {
	return &Watchdog{refresher: refresher, store: store, cfg: cfg}
}

// Start adopts a freshly minted token and arms the timers.
func (w *Watchdog) Start(grant *TokenGrant) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = true
	w.adoptLocked(grant)
}

// Token returns the current session token, empty when no session is active.
func (w *Watchdog) Token() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.active {
		return ""
	}
	return w.token
}

// Activity reports user interaction. At most one refresh per Coalesce window
// goes to the server; the rest are absorbed here.
func (w *Watchdog) Activity() {
	w.mu.Lock()
	if !w.active || time.Since(w.lastRefresh) < w.cfg.Coalesce {
		w.mu.Unlock()
		return
	}
	w.lastRefresh = time.Now()
	gen, token := w.generation, w.token
	w.mu.Unlock()

	w.refresh(gen, token)
}

// Stop ends the watchdog without treating it as an expiry. Navigating to a
// public route and logging out both land here; no callback fires.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopTimersLocked()
	w.generation++
	w.active = false
	w.token = ""
}

// adoptLocked installs a token and rearms both timers. Callers hold the mutex.
func (w *Watchdog) adoptLocked(grant *TokenGrant) {
	w.stopTimersLocked()
	w.token = grant.Token
	w.expiresAt = grant.ExpiresAt
	w.lastRefresh = time.Now()
	w.generation++
	gen := w.generation

	w.warnTimer = time.AfterFunc(time.Until(w.expiresAt.Add(-w.cfg.WarningLead)), func() { w.warn(gen) })
	w.expireTimer = time.AfterFunc(time.Until(w.expiresAt), func() { w.expire(gen) })

	if w.store != nil {
		_ = w.store.Save(&StoredSession{Token: w.token, ExpiresAt: w.expiresAt})
	}
}

func (w *Watchdog) stopTimersLocked() {
	if w.warnTimer != nil {
		w.warnTimer.Stop()
	}
	if w.expireTimer != nil {
		w.expireTimer.Stop()
	}
}

// warn fires at expiry minus WarningLead. A stale generation means the token
// was already replaced or the watchdog stopped; the timer is simply ignored.
func (w *Watchdog) warn(gen uint64) {
	w.mu.Lock()
	if !w.active || gen != w.generation {
		w.mu.Unlock()
		return
	}
	token := w.token
	cb := w.cfg.OnWarning
	w.mu.Unlock()

	if cb != nil && cb() {
		// The user asked to stay; this refresh skips coalescing.
		w.refresh(gen, token)
	}
}

// expire fires at the token's expiry instant and ends the session.
func (w *Watchdog) expire(gen uint64) {
	w.mu.Lock()
	if !w.active || gen != w.generation {
		w.mu.Unlock()
		return
	}
	cb := w.endLocked()
	w.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// refresh exchanges the token and adopts the replacement. A failed refresh
// ends the session immediately; there is no retry, the old token may already
// be near expiry.
func (w *Watchdog) refresh(gen uint64, token string) {
	grant, err := w.refresher.Refresh(context.Background(), token)

	w.mu.Lock()
	if !w.active || gen != w.generation {
		w.mu.Unlock()
		return
	}
	if err != nil {
		cb := w.endLocked()
		w.mu.Unlock()
		if cb != nil {
			cb()
		}
		return
	}
	w.adoptLocked(grant)
	w.mu.Unlock()
}

// endLocked tears the session down and returns the expiry callback to run
// outside the lock. Callers hold the mutex.
func (w *Watchdog) endLocked() func() {
	w.stopTimersLocked()
	w.generation++
	w.active = false
	w.token = ""
	if w.store != nil {
		_ = w.store.Clear()
	}
	return w.cfg.OnExpired
}
