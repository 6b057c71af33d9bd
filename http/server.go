package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	acceptBackoffMin = 5 * time.Millisecond
	acceptBackoffMax = time.Second
)

// Server accepts connections and serves one request per connection on a
// fixed pool of workers. Routes and middleware must be registered before the
// server starts serving; afterwards they are shared read-only by all workers.
type Server struct {
	cfg         serverConfig
	router      *Router
	middleware  []Middleware
	pool        *Pool
	logger      *slog.Logger
	tracer      trace.Tracer
	instruments *instruments

	mu       sync.Mutex
	listener net.Listener
	started  bool
	closing  atomic.Bool
}

func NewServer(opts ...Option) (*Server, error) {
	cfg := serverConfig{
		name:        "github.com/freekieb7/httpcore/http",
		workers:     DefaultWorkers,
		readTimeout: DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}
	if cfg.meterProvider == nil {
		cfg.meterProvider = otel.GetMeterProvider()
	}
	if cfg.notFound == nil {
		cfg.notFound = NotFoundHandler
	}

	pool, err := NewPool(cfg.workers, cfg.logger)
	if err != nil {
		return nil, err
	}

	inst, err := newInstruments(cfg.meterProvider.Meter(cfg.name), pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("http: creating instruments: %w", err)
	}

	return &Server{
		cfg:         cfg,
		router:      NewRouter(),
		pool:        pool,
		logger:      cfg.logger,
		tracer:      cfg.tracerProvider.Tracer(cfg.name),
		instruments: inst,
	}, nil
}

// Handle registers handler for method and pattern. Patterns are compiled
// here, so an invalid pattern is reported immediately.
func (s *Server) Handle(method Method, pattern string, handler Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrServerStarted
	}
	return s.router.Handle(method, pattern, handler)
}

func (s *Server) Get(pattern string, handler HandlerFunc) error {
	return s.Handle(MethodGet, pattern, handler)
}

func (s *Server) Post(pattern string, handler HandlerFunc) error {
	return s.Handle(MethodPost, pattern, handler)
}

// Use appends middleware to the chain. The first registered middleware is the
// outermost one.
func (s *Server) Use(middleware ...Middleware) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrServerStarted
	}
	s.middleware = append(s.middleware, middleware...)
	return nil
}

// Routes returns a copy of the registered routes.
func (s *Server) Routes() []Route {
	return s.router.Routes()
}

// Bind opens the listening socket. Failures are returned as *BindError.
func (s *Server) Bind(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return &BindError{Addr: addr, Err: ErrAlreadyBound}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return &BindError{Addr: addr, Err: err}
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or nil before Bind.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) ListenAndServe(addr string) error {
	if err := s.Bind(addr); err != nil {
		return err
	}
	return s.Run()
}

// Serve runs the accept loop on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return ErrAlreadyBound
	}
	s.listener = listener
	s.mu.Unlock()

	return s.Run()
}

// Run blocks in the accept loop until the server is shut down, in which case
// it returns ErrServerClosed. The loop only hands connections to the pool.
func (s *Server) Run() error {
	s.mu.Lock()
	listener := s.listener
	if listener == nil {
		s.mu.Unlock()
		return ErrNotBound
	}
	if s.closing.Load() {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info("server listening", "addr", listener.Addr().String(), "workers", s.pool.Size(), "routes", len(s.router.routes))

	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closing.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			if delay == 0 {
				delay = acceptBackoffMin
			} else {
				delay = min(2*delay, acceptBackoffMax)
			}
			s.logger.Error("accepting connection failed", "error", err, "retry_in", delay)
			time.Sleep(delay)
			continue
		}
		delay = 0

		s.instruments.connections.Add(context.Background(), 1)
		if err := s.pool.Submit(func() { s.ServeConn(conn) }); err != nil {
			conn.Close()
			if s.closing.Load() {
				return ErrServerClosed
			}
			return err
		}
	}
}

// Shutdown stops accepting connections and waits for every queued and
// in-flight connection to be finished, or for ctx to be done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	listener := s.listener
	s.mu.Unlock()

	if !s.closing.Swap(true) && listener != nil {
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("closing listener failed", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.pool.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) Close() error {
	return s.Shutdown(context.Background())
}

// ServeConn reads one request from conn, dispatches it and writes the
// response. The connection is always closed on return.
func (s *Server) ServeConn(conn net.Conn) {
	start := time.Now()
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Debug("closing connection failed", "error", err)
		}
	}()

	if s.cfg.readTimeout > 0 {
		if err := conn.SetReadDeadline(start.Add(s.cfg.readTimeout)); err != nil {
			s.logger.Debug("setting read deadline failed", "error", err)
		}
	}

	var res *Response
	req, err := ReadRequest(conn)
	if err != nil {
		s.logger.Debug("decoding request failed", "remote", remoteAddr(conn), "error", err)
		s.instruments.decodeErrors.Add(context.Background(), 1)
		res = BadRequest()
		s.instruments.record(context.Background(), nil, nil, res.Status, time.Since(start))
	} else {
		res = s.dispatch(req, start)
	}

	if s.cfg.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.writeTimeout)); err != nil {
			s.logger.Debug("setting write deadline failed", "error", err)
		}
	}
	if _, err := res.WriteTo(conn); err != nil {
		s.logger.Warn("writing response failed", "remote", remoteAddr(conn), "error", err)
	}
}

func (s *Server) dispatch(req *Request, start time.Time) (res *Response) {
	route, vars, found := s.router.Match(req.Method, req.Target)

	spanName := req.Method.String()
	if found {
		spanName += " " + route.Pattern
	}
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.MapCarrier(req.Headers))
	ctx, span := s.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.Method.String()),
			semconv.URLPath(req.Target),
		))
	if found {
		span.SetAttributes(semconv.HTTPRoute(route.Pattern))
	}
	defer span.End()

	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.ErrorContext(ctx, "handler panicked",
				"method", req.Method, "target", req.Target, "panic", recovered, "stack", string(debug.Stack()))
			span.SetStatus(codes.Error, "handler panicked")
			res = InternalServerError()
		}

		span.SetAttributes(semconv.HTTPResponseStatusCode(int(res.Status.Code)))
		if res.Status.Code >= 500 {
			span.SetStatus(codes.Error, res.Status.Reason)
		}
		s.instruments.record(ctx, req, route, res.Status, time.Since(start))
		s.logger.InfoContext(ctx, "request served",
			"method", req.Method, "target", req.Target, "status", res.Status.Code, "duration", time.Since(start))
	}()

	if !found {
		if res = s.cfg.notFound.Serve(newRequestCtx(ctx, req, nil, nil)); res == nil {
			res = NotFound()
		}
		return res
	}

	reqCtx := newRequestCtx(ctx, req, route, vars)
	res = newChain(s.middleware, route.Handler).Run(reqCtx)
	if res == nil {
		s.logger.ErrorContext(ctx, "handler returned no response", "route", route.Pattern)
		res = InternalServerError()
	}
	return res
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
