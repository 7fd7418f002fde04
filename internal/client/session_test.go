package client

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
	fail  bool
	ttl   time.Duration
}

func (f *fakeRefresher) Refresh(ctx context.Context, token string) (*TokenGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, ErrUnauthorized
	}
	f.calls++
	return &TokenGrant{
		Token:     fmt.Sprintf("token-%d", f.calls),
		ExpiresAt: time.Now().Add(f.ttl),
	}, nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func grantFor(ttl time.Duration) *TokenGrant {
	return &TokenGrant{Token: "token-0", ExpiresAt: time.Now().Add(ttl)}
}

func TestWatchdog_ActivityCoalescing(t *testing.T) {
	refresher := &fakeRefresher{ttl: time.Second}
	w := NewWatchdog(refresher, nil, WatchdogConfig{
		WarningLead: 50 * time.Millisecond,
		Coalesce:    150 * time.Millisecond,
	})
	defer w.Stop()

	w.Start(grantFor(time.Second))

	// A burst right after Start lands inside the coalescing window.
	for i := 0; i < 20; i++ {
		w.Activity()
	}
	require.Equal(t, 0, refresher.callCount())
	require.Equal(t, "token-0", w.Token())

	time.Sleep(200 * time.Millisecond)
	for i := 0; i < 20; i++ {
		w.Activity()
	}
	require.Equal(t, 1, refresher.callCount())
	require.Equal(t, "token-1", w.Token())
}

func TestWatchdog_ExpiresWithoutActivity(t *testing.T) {
	expired := make(chan struct{})
	w := NewWatchdog(&fakeRefresher{ttl: time.Second}, nil, WatchdogConfig{
		WarningLead: 20 * time.Millisecond,
		Coalesce:    time.Hour,
		OnExpired:   func() { close(expired) },
	})

	w.Start(grantFor(80 * time.Millisecond))

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("session did not expire")
	}
	require.Empty(t, w.Token())
}

func TestWatchdog_WarningKeepsSessionAlive(t *testing.T) {
	refresher := &fakeRefresher{ttl: time.Second}
	warned := make(chan struct{}, 1)
	w := NewWatchdog(refresher, nil, WatchdogConfig{
		WarningLead: 100 * time.Millisecond,
		Coalesce:    time.Hour,
		OnWarning: func() bool {
			warned <- struct{}{}
			return true
		},
	})
	defer w.Stop()

	w.Start(grantFor(200 * time.Millisecond))

	select {
	case <-warned:
	case <-time.After(time.Second):
		t.Fatal("warning never fired")
	}

	// Past the original expiry the refreshed session must still be live.
	time.Sleep(300 * time.Millisecond)
	require.Equal(t, 1, refresher.callCount())
	require.NotEmpty(t, w.Token())
}

func TestWatchdog_WarningDeclinedLetsSessionExpire(t *testing.T) {
	refresher := &fakeRefresher{ttl: time.Second}
	expired := make(chan struct{})
	w := NewWatchdog(refresher, nil, WatchdogConfig{
		WarningLead: 100 * time.Millisecond,
		Coalesce:    time.Hour,
		OnWarning:   func() bool { return false },
		OnExpired:   func() { close(expired) },
	})

	w.Start(grantFor(200 * time.Millisecond))

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("session did not expire after declined warning")
	}
	require.Equal(t, 0, refresher.callCount())
}

func TestWatchdog_StopCancelsTimersSilently(t *testing.T) {
	expired := make(chan struct{}, 1)
	w := NewWatchdog(&fakeRefresher{ttl: time.Second}, nil, WatchdogConfig{
		WarningLead: 20 * time.Millisecond,
		Coalesce:    time.Hour,
		OnWarning:   func() bool { expired <- struct{}{}; return false },
		OnExpired:   func() { expired <- struct{}{} },
	})

	w.Start(grantFor(80 * time.Millisecond))
	w.Stop()

	select {
	case <-expired:
		t.Fatal("callback fired after Stop")
	case <-time.After(200 * time.Millisecond):
	}
	require.Empty(t, w.Token())
}

func TestWatchdog_RefreshFailureEndsSession(t *testing.T) {
	refresher := &fakeRefresher{fail: true}
	expired := make(chan struct{})
	w := NewWatchdog(refresher, nil, WatchdogConfig{
		WarningLead: 50 * time.Millisecond,
		Coalesce:    10 * time.Millisecond,
		OnExpired:   func() { close(expired) },
	})

	w.Start(grantFor(time.Second))

	time.Sleep(30 * time.Millisecond)
	w.Activity()

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("failed refresh did not end the session")
	}
	require.Empty(t, w.Token())
}

func TestWatchdog_RefreshPersistsToStore(t *testing.T) {
	store := NewCredStoreAt(t.TempDir() + "/session.json")
	refresher := &fakeRefresher{ttl: time.Second}
	w := NewWatchdog(refresher, store, WatchdogConfig{
		WarningLead: 50 * time.Millisecond,
		Coalesce:    10 * time.Millisecond,
	})
	defer w.Stop()

	w.Start(grantFor(time.Second))

	session, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "token-0", session.Token)

	time.Sleep(30 * time.Millisecond)
	w.Activity()

	session, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, "token-1", session.Token)
}
