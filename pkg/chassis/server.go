// Package chassis runs the textprep HTTP surface.
//
// One TCP listener serves HTTP/1.1 (plain) or HTTP/1.1 + HTTP/2 (TLS).
// With TLS and HTTP3 enabled, a UDP listener on the same port serves
// HTTP/3 with the same handler, advertised through Alt-Svc.
package chassis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
)

// Config holds configuration for the chassis server.
type Config struct {
	Addr     string // listen address, TCP and UDP share the port
	CertFile string // production cert path
	KeyFile  string // production key path
	DevTLS   bool   // self-signed cert when no cert files are given
	HTTP3    bool   // also serve HTTP/3 over QUIC, requires TLS
	Handler  http.Handler
	Logger   *slog.Logger
}

// Server is the chassis.
type Server struct {
	addr    string
	logger  *slog.Logger
	tlsCfg  *tls.Config
	http3   bool
	handler http.Handler

	mu        sync.Mutex
	tcpLn     net.Listener
	udpConn   net.PacketConn
	tcpServer *http.Server
	h3Server  *http3.Server
}

// New validates cfg and loads TLS material.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Handler == nil {
		return nil, errors.New("chassis: handler is required")
	}

	var tlsCfg *tls.Config
	switch {
	case cfg.CertFile != "" && cfg.KeyFile != "":
		var err error
		if tlsCfg, err = ProductionTLSConfig(cfg.CertFile, cfg.KeyFile); err != nil {
			return nil, fmt.Errorf("load TLS cert: %w", err)
		}
		cfg.Logger.Info("TLS: production certs loaded")
	case cfg.DevTLS:
		var err error
		if tlsCfg, err = DevelopmentTLSConfig(); err != nil {
			return nil, fmt.Errorf("generate dev TLS: %w", err)
		}
		cfg.Logger.Info("TLS: self-signed dev cert generated")
	}
	if cfg.HTTP3 && tlsCfg == nil {
		return nil, errors.New("chassis: HTTP/3 requires TLS")
	}

	return &Server{
		addr:    cfg.Addr,
		logger:  cfg.Logger,
		tlsCfg:  tlsCfg,
		http3:   cfg.HTTP3,
		handler: cfg.Handler,
	}, nil
}

// securityHeaders wraps an http.Handler and adds standard security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// altSvcMiddleware advertises HTTP/3 on the given port.
func altSvcMiddleware(port string, next http.Handler) http.Handler {
	altSvc := fmt.Sprintf(`h3=":%s"; ma=86400`, port)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", altSvc)
		next.ServeHTTP(w, r)
	})
}

// Addr returns the bound TCP address once listening, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tcpLn != nil {
		return s.tcpLn.Addr().String()
	}
	return s.addr
}

// listen binds the TCP listener, and the UDP socket when HTTP/3 is on.
func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("TCP listen: %w", err)
	}
	handler := securityHeaders(s.handler)

	if s.http3 {
		_, port, _ := net.SplitHostPort(ln.Addr().String())
		pc, err := net.ListenPacket("udp", net.JoinHostPort(hostOf(s.addr), port))
		if err != nil {
			ln.Close()
			return fmt.Errorf("UDP listen: %w", err)
		}
		s.udpConn = pc
		s.h3Server = &http3.Server{
			Handler:   handler,
			TLSConfig: http3.ConfigureTLSConfig(s.tlsCfg.Clone()),
			QUICConfig: &quic.Config{
				MaxIdleTimeout:  30 * time.Second,
				KeepAlivePeriod: 10 * time.Second,
			},
		}
		handler = altSvcMiddleware(port, handler)
	}

	if s.tlsCfg != nil {
		ln = tls.NewListener(ln, s.tlsCfg)
	}
	s.tcpLn = ln
	s.tcpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

func hostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	return host
}

// Start binds the listeners and serves until ctx is done or a listener
// fails. Call Stop to shut down.
func (s *Server) Start(ctx context.Context) error {
	if err := s.listen(); err != nil {
		return err
	}
	return s.serve(ctx)
}

func (s *Server) serve(ctx context.Context) error {
	s.mu.Lock()
	tcpLn, tcpServer, h3Server, udpConn := s.tcpLn, s.tcpServer, s.h3Server, s.udpConn
	s.mu.Unlock()

	proto := "HTTP/1.1"
	if s.tlsCfg != nil {
		proto = "HTTP/1.1+HTTP/2 (TLS)"
	}
	s.logger.Info("chassis started", "addr", tcpLn.Addr().String(), "tcp", proto, "http3", h3Server != nil)

	errCh := make(chan error, 2)
	go func() {
		if err := tcpServer.Serve(tcpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("TCP: %w", err)
		}
	}()
	if h3Server != nil {
		go func() {
			if err := h3Server.Serve(udpConn); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
				errCh <- fmt.Errorf("HTTP/3: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop gracefully shuts down the listeners.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("chassis stopping")

	var firstErr error
	if s.tcpServer != nil {
		if err := s.tcpServer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.h3Server != nil {
		if err := s.h3Server.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.udpConn != nil {
		s.udpConn.Close()
	}

	s.logger.Info("chassis stopped")
	return firstErr
}
