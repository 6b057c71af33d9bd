package http

import "regexp"

// Route binds a method and a compiled path pattern to a handler.
type Route struct {
	Method  Method
	Pattern string
	Handler Handler

	matcher *regexp.Regexp
	vars    []string
}

// Vars returns the variable names declared by the pattern, in order.
func (route *Route) Vars() []string {
	out := make([]string, len(route.vars))
	copy(out, route.vars)
	return out
}

func (route *Route) match(method Method, path string) (map[string]string, bool) {
	if route.Method != method {
		return nil, false
	}

	m := route.matcher.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}

	vars := make(map[string]string, len(route.vars))
	for i, name := range route.matcher.SubexpNames() {
		if name != "" {
			vars[name] = m[i]
		}
	}
	return vars, true
}

// NotFoundHandler answers requests that match no route with an empty 404.
var NotFoundHandler Handler = HandlerFunc(func(ctx *RequestCtx) *Response {
	return NotFound()
})
