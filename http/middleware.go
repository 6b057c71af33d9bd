package http

import (
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
)

// Middleware intercepts a request on its way to the handler. Calling
// next.Run continues down the chain and returns the inner response, which the
// middleware may inspect or replace before returning it.
type Middleware interface {
	Handle(ctx *RequestCtx, next Next) *Response
}

type MiddlewareFunc func(ctx *RequestCtx, next Next) *Response

func (f MiddlewareFunc) Handle(ctx *RequestCtx, next Next) *Response {
	return f(ctx, next)
}

// Next is the remainder of a middleware chain, ending in the handler.
type Next struct {
	middleware []Middleware
	handler    Handler
}

func newChain(middleware []Middleware, handler Handler) Next {
	return Next{middleware: middleware, handler: handler}
}

// Run invokes the next middleware, or the handler once the chain is exhausted.
func (next Next) Run(ctx *RequestCtx) *Response {
	if len(next.middleware) == 0 {
		if next.handler == nil {
			return NotFound()
		}
		return next.handler.Serve(ctx)
	}

	head, rest := next.middleware[0], next.middleware[1:]
	return head.Handle(ctx, Next{middleware: rest, handler: next.handler})
}

// RequestID is the typed extension set by NewRequestID.
type RequestID string

const HeaderRequestID = "X-Request-Id"

// NewRequestID tags every request with a UUID. A well-formed incoming
// X-Request-Id is reused. The ID is stored as a RequestID extension and echoed
// in the response header.
func NewRequestID() Middleware {
	return MiddlewareFunc(func(ctx *RequestCtx, next Next) *Response {
		id, found := ctx.Header(HeaderRequestID)
		if _, err := uuid.Parse(id); !found || err != nil {
			id = uuid.NewString()
		}
		SetExtension(ctx, RequestID(id))

		res := next.Run(ctx)
		if res != nil {
			res.Headers.Set(HeaderRequestID, id)
		}
		return res
	})
}

// NewRecovery turns a panic further down the chain into a 500 response.
func NewRecovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return MiddlewareFunc(func(ctx *RequestCtx, next Next) (res *Response) {
		defer func() {
			if recovered := recover(); recovered != nil {
				attrs := []any{
					"panic", recovered,
					"method", ctx.Request.Method,
					"target", ctx.Request.Target,
					"stack", string(debug.Stack()),
				}
				if id, ok := Extension[RequestID](ctx); ok {
					attrs = append(attrs, "request_id", string(id))
				}
				logger.ErrorContext(ctx.Context(), "handler panicked", attrs...)

				res = InternalServerError()
			}
		}()

		return next.Run(ctx)
	})
}
