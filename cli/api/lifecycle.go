package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// Lifecycle hands a server from the start hook to the stop hook,
// which humacli runs on different goroutines.
type Lifecycle struct {
	mu      sync.Mutex
	srv     *http.Server
	stopped bool
}

// Serve serves srv until [Lifecycle.Stop] is called. It returns nil when the
// server was stopped, even if Stop came first, and the listen error otherwise.
func (l *Lifecycle) Serve(srv *http.Server) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.srv = srv
	l.mu.Unlock()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully and prevents a later Serve from listening.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	if l.srv == nil {
		return nil
	}
	return l.srv.Shutdown(ctx)
}
