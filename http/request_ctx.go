package http

import (
	"context"
	"maps"
	"reflect"
)

// RequestCtx carries one request through the middleware chain and into its
// handler. It is created per dispatch and must not be retained after the
// response has been returned.
type RequestCtx struct {
	Request *Request

	ctx        context.Context
	route      *Route
	vars       map[string]string
	extensions map[reflect.Type]any
}

func newRequestCtx(ctx context.Context, req *Request, route *Route, vars map[string]string) *RequestCtx {
	if vars == nil {
		vars = map[string]string{}
	}
	return &RequestCtx{
		Request: req,
		ctx:     ctx,
		route:   route,
		vars:    vars,
	}
}

// NewRequestCtx builds a context for req outside of a running server, which
// is mostly useful for exercising handlers and middleware directly.
func NewRequestCtx(req *Request, vars map[string]string) *RequestCtx {
	return newRequestCtx(context.Background(), req, nil, vars)
}

// Context returns the context of the request, carrying the server span.
func (c *RequestCtx) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Route returns the matched route, or nil when the context was built outside
// of a server.
func (c *RequestCtx) Route() *Route {
	return c.route
}

// Var returns the value captured for the named path variable.
func (c *RequestCtx) Var(name string) (string, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Vars returns a copy of all captured path variables.
func (c *RequestCtx) Vars() map[string]string {
	return maps.Clone(c.vars)
}

func (c *RequestCtx) Header(name string) (string, bool) {
	return c.Request.Header(name)
}

// SetExtension attaches v to the context under its type, replacing any
// previous value of the same type.
func SetExtension[T any](c *RequestCtx, v T) {
	if c.extensions == nil {
		c.extensions = make(map[reflect.Type]any)
	}
	c.extensions[reflect.TypeFor[T]()] = v
}

// Extension returns the value of type T attached by SetExtension.
func Extension[T any](c *RequestCtx) (T, bool) {
	v, ok := c.extensions[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}
