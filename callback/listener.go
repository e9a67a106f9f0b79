//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Local HTTP listener backing the Spotify OAuth redirect URL.
// It answers every GET with 200 so the authorization flow always finds a
// reachable endpoint. It holds no state.
//

package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// RouteBody is returned for requests to the registered callback route.
	RouteBody = "some data"

	// AckBody is returned for every other GET request.
	AckBody = "Callback called"

	shutdownTimeout = 5 * time.Second
)

// Listener serves the callback endpoint in a background goroutine.
type Listener struct {
	endpoint Endpoint
	log      logrus.FieldLogger

	server   *http.Server
	addr     net.Addr
	done     chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	err error
}

// New creates a listener for the given endpoint. Nothing is bound until Start.
func New(endpoint Endpoint, log logrus.FieldLogger) *Listener {
	return &Listener{
		endpoint: endpoint,
		log:      log,
		done:     make(chan struct{}),
	}
}

// loggingResponseWriter wraps http.ResponseWriter to capture the status code.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it.
func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware wraps an http.Handler and logs each request.
func (l *Listener) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)

		l.log.Debugf("%s %s %d %s", r.Method, r.URL.Path, lrw.statusCode, time.Since(start))
	})
}

// Handler returns the HTTP handler for the callback endpoint.
func (l *Listener) Handler() http.Handler {
	return l.loggingMiddleware(http.HandlerFunc(l.handleCallback))
}

// handleCallback answers GET requests. The registered route gets the
// placeholder payload, anything else a plain acknowledgement.
func (l *Listener) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Unsupported method", http.StatusNotImplemented)
		return
	}

	l.log.Info("Callback service called")
	l.log.Infof("callback service: request from %s for %s", r.RemoteAddr, r.URL.Path)

	body := AckBody
	if r.URL.Path == l.endpoint.Path() {
		body = RouteBody
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		l.log.Warnf("failed to write callback response: %v", err)
	}
}

// Start binds the listener and begins serving in the background. A bind
// failure is returned directly, so a nil error means the endpoint is up.
// Cancelling ctx stops the server.
func (l *Listener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.endpoint.Addr())
	if err != nil {
		return fmt.Errorf("failed to bind callback listener on %s: %w", l.endpoint.Addr(), err)
	}

	l.addr = ln.Addr()
	l.server = &http.Server{
		Handler:           l.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	l.log.Infof("Starting callback webserver on port %d", l.endpoint.Port)

	go func() {
		defer close(l.done)

		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Errorf("callback server stopped: %v", err)
			l.setErr(err)
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			l.Stop()
		case <-l.done:
		}
	}()

	return nil
}

// Addr returns the bound address, or nil before Start.
func (l *Listener) Addr() net.Addr {
	return l.addr
}

// Done is closed once the serve goroutine has exited.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Alive reports whether the server is still serving.
func (l *Listener) Alive() bool {
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// Err returns the error that terminated the server, if any.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *Listener) setErr(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

// Stop asks the server to shut down. It is safe to call more than once.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		if l.server == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := l.server.Shutdown(ctx); err != nil {
			l.log.Warnf("callback server shutdown error: %v", err)
		}
	})
}

// Wait blocks until the serve goroutine has exited.
func (l *Listener) Wait() {
	<-l.done
}
