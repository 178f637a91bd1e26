package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	httpServer *http.Server

	// RequestTimeout is the handler deadline; the write timeout leaves room for
	// the response after it fires.
	RequestTimeout time.Duration
}

const (
	maxHeaderBytes      = 1 << 20 // 1 MB
	readHeaderTimeout   = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	writeTimeoutSlack   = 5 * time.Second
	idleTimeout         = 60 * time.Second
	defaultPort         = "5100"
)

func (s *Server) writeTimeout() time.Duration {
	if s.RequestTimeout <= 0 {
		return defaultWriteTimeout
	}
	return s.RequestTimeout + writeTimeoutSlack
}

// newHTTPServer builds a configured *http.Server for the given address and handler.
func (s *Server) newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      s.writeTimeout(),
		IdleTimeout:       idleTimeout,
	}
}

// normalizeAddr ensures the provided port is a valid address (accepts "8080" or ":8080").
func normalizeAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		port = defaultPort
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

// Run starts the HTTP server on the given port using the provided handler.
// It returns nil once Shutdown has been called.
func (s *Server) Run(port string, handler http.Handler) error {
	s.httpServer = s.newHTTPServer(normalizeAddr(port), handler)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
