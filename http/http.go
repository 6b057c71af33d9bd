// Package http implements a small HTTP/1.1 server core: a fixed-size task
// pool, a wire codec for requests and responses, Accept-Encoding
// negotiation, a pattern router with path variables and a middleware chain
// wrapped around the matched handler.
//
// A server handles exactly one request per accepted connection and closes
// the connection after responding.
package http

import "time"

const (
	// ReadBufferSize is the chunk size used while reading request bodies.
	ReadBufferSize = 1024

	DefaultWorkers     = 10
	DefaultReadTimeout = 5 * time.Second
)

var (
	protocolHTTP11 = "HTTP/1.1"
	crlf           = []byte("\r\n")
)
