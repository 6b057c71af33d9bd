package http

import (
	"regexp"
	"strings"
)

// Handler produces the response for a request.
type Handler interface {
	Serve(ctx *RequestCtx) *Response
}

type HandlerFunc func(ctx *RequestCtx) *Response

func (f HandlerFunc) Serve(ctx *RequestCtx) *Response {
	return f(ctx)
}

// Router holds routes in registration order. It is not safe for concurrent
// registration; once serving starts it is only read.
type Router struct {
	routes   []Route
	variable *regexp.Regexp
}

func NewRouter() *Router {
	return &Router{
		routes:   make([]Route, 0),
		variable: regexp.MustCompile(`<([a-z][a-z0-9]*)>`),
	}
}

func (router *Router) Get(pattern string, handler HandlerFunc) error {
	return router.Handle(MethodGet, pattern, handler)
}

func (router *Router) Post(pattern string, handler HandlerFunc) error {
	return router.Handle(MethodPost, pattern, handler)
}

// Handle compiles pattern and appends the route. Each <name> in the pattern
// matches one non-empty path segment; everything else matches literally and
// the whole path must match.
func (router *Router) Handle(method Method, pattern string, handler Handler) error {
	matcher, vars, err := router.compile(pattern)
	if err != nil {
		return err
	}

	router.routes = append(router.routes, Route{
		Method:  method,
		Pattern: pattern,
		Handler: handler,
		matcher: matcher,
		vars:    vars,
	})
	return nil
}

func (router *Router) compile(pattern string) (*regexp.Regexp, []string, error) {
	var (
		expr strings.Builder
		vars []string
		seen = map[string]bool{}
		last = 0
	)

	expr.WriteByte('^')
	for _, loc := range router.variable.FindAllStringSubmatchIndex(pattern, -1) {
		literal := pattern[last:loc[0]]
		if strings.ContainsAny(literal, "<>") {
			return nil, nil, &PatternError{Pattern: pattern, Reason: "invalid variable placeholder"}
		}

		name := pattern[loc[2]:loc[3]]
		if seen[name] {
			return nil, nil, &PatternError{Pattern: pattern, Reason: "duplicate variable " + name}
		}
		seen[name] = true
		vars = append(vars, name)

		expr.WriteString(regexp.QuoteMeta(literal))
		expr.WriteString(`(?P<` + name + `>[^/?]+)`)
		last = loc[1]
	}

	tail := pattern[last:]
	if strings.ContainsAny(tail, "<>") {
		return nil, nil, &PatternError{Pattern: pattern, Reason: "invalid variable placeholder"}
	}
	expr.WriteString(regexp.QuoteMeta(tail))
	expr.WriteByte('$')

	matcher, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, nil, &PatternError{Pattern: pattern, Reason: err.Error()}
	}
	return matcher, vars, nil
}

// Match returns the first registered route for method whose pattern matches
// the full path, together with the captured variables.
func (router *Router) Match(method Method, path string) (*Route, map[string]string, bool) {
	for i := range router.routes {
		if vars, ok := router.routes[i].match(method, path); ok {
			return &router.routes[i], vars, true
		}
	}
	return nil, nil, false
}

// Routes returns a copy of the route table.
func (router *Router) Routes() []Route {
	out := make([]Route, len(router.routes))
	copy(out, router.routes)
	return out
}
