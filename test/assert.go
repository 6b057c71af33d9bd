// Package test holds helpers shared by the wire-level tests.
package test

import (
	"bufio"
	"io"
	"net"
	nethttp "net/http"
	"strings"
	"testing"
	"time"
)

const exchangeTimeout = 5 * time.Second

// Exchange writes raw to a fresh connection to addr and returns everything
// the server sends back before closing the connection.
func Exchange(t *testing.T, addr, raw string) string {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, exchangeTimeout)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(exchangeTimeout)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	if _, err := io.WriteString(conn, raw); err != nil {
		t.Fatalf("write request: %v", err)
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return string(reply)
}

// ParseResponse parses a raw reply with the standard library client parser
// and returns the response with its body fully read.
func ParseResponse(t *testing.T, raw string) (*nethttp.Response, []byte) {
	t.Helper()

	res, err := nethttp.ReadResponse(bufio.NewReader(strings.NewReader(raw)), nil)
	if err != nil {
		t.Fatalf("parse response %q: %v", raw, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return res, body
}
