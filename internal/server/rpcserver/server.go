package rpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator"
	"github.com/gorilla/rpc/v2"

	"github.com/yndnr/mixrelay-go/internal/telemetry/logger"
	"github.com/yndnr/mixrelay-go/internal/telemetry/metric"
)

// Config configures the RPC transport.
type Config struct {
	// Addr is the bind address (host:port). Port 0 picks a free port.
	Addr string

	// MaxBodyBytes caps request bodies. Default: 1MB.
	MaxBodyBytes int64

	// RateLimitRPS is the per-client request rate. 0 disables limiting.
	RateLimitRPS float64

	// RateLimitBurst is the per-client burst size.
	RateLimitBurst int

	// TrustedProxies lists proxies (CIDRs or IPs) whose X-Forwarded-For
	// and X-Real-IP headers identify the client for rate limiting.
	TrustedProxies []string
}

// Server is the JSON-RPC transport of the relay.
type Server struct {
	cfg        Config
	handler    http.Handler
	httpServer *http.Server
	log        logger.Logger

	mu       sync.Mutex
	listener net.Listener
	serveErr error
	done     chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// New creates a server dispatching swap requests to swapper.
// metrics may be nil.
func New(cfg Config, swapper Swapper, metrics *metric.Registry, log logger.Logger) (*Server, error) {
	if swapper == nil {
		return nil, errors.New("rpcserver: swapper is required")
	}
	if log == nil {
		log = logger.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	trusted, err := ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("rpcserver: %w", err)
	}
	log = log.With("component", "rpc")

	rpcServer := rpc.NewServer()
	rpcServer.RegisterCodec(NewCodec(), "application/json")
	rpcServer.RegisterValidateRequestFunc(validateArgs)
	if err := rpcServer.RegisterService(&RelayService{swapper: swapper, metrics: metrics}, serviceName); err != nil {
		return nil, fmt.Errorf("rpcserver: register service: %w", err)
	}

	handler := Chain(rpcServer,
		RequestID(log),
		Audit(),
		Recover(),
		V1Only(),
		RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, trusted),
		MaxBytes(cfg.MaxBodyBytes),
		JSONBody(),
	)

	s := &Server{
		cfg:     cfg,
		handler: handler,
		log:     log,
		done:    make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slogErrorLog(log),
	}
	return s, nil
}

// Handler returns the full middleware chain, for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("rpcserver: listen %s: %w", s.cfg.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Info("rpc server listening", "addr", ln.Addr().String(), "path", RPCPath)

	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.mu.Lock()
		s.serveErr = err
		s.mu.Unlock()
		close(s.done)
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting requests and waits, up to ctx, for in-flight
// requests to finish. It is safe to call more than once.
func (s *Server) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.log.Info("rpc server closing")
		s.closeErr = s.httpServer.Shutdown(ctx)
		if s.closeErr != nil {
			// Deadline hit: drop remaining connections.
			_ = s.httpServer.Close()
		}
	})
	return s.closeErr
}

// Done is closed once the server has stopped serving.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the server stops serving. It returns nil after Close
// and the serve error otherwise.
func (s *Server) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serveErr
}

var argsValidator = newArgsValidator()

func newArgsValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// validateArgs checks decoded arguments against their validate tags.
func validateArgs(_ *rpc.RequestInfo, args any) error {
	err := argsValidator.Struct(args)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if verrs[0].Tag() == "required" {
			return invalidParams(fmt.Sprintf("missing field `%s`", verrs[0].Field()))
		}
		return invalidParams(fmt.Sprintf("invalid value for field `%s`", verrs[0].Field()))
	}
	return invalidParams(err.Error())
}
