package http

// Method is a request method understood by the server.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// ParseMethod returns the Method for s. Only GET and POST are recognised.
func ParseMethod(s string) (Method, bool) {
	switch Method(s) {
	case MethodGet, MethodPost:
		return Method(s), true
	}
	return "", false
}

func (m Method) String() string {
	return string(m)
}
