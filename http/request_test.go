package http

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRequest(t *testing.T) {
	raw := "POST /files/a.txt HTTP/1.1\r\nHost: localhost:4221\r\nContent-Length: 5\r\nX-Custom:  spaced  \r\n\r\nhello"

	req, err := ReadRequest(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, MethodPost, req.Method)
	assert.Equal(t, "/files/a.txt", req.Target)
	assert.Equal(t, []byte("hello"), req.Body)

	host, ok := req.Header("HOST")
	assert.True(t, ok)
	assert.Equal(t, "localhost:4221", host)

	custom, _ := req.Header("x-custom")
	assert.Equal(t, "spaced", custom)
}

func TestReadRequestWithoutBody(t *testing.T) {
	req, err := ReadRequest(strings.NewReader("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	assert.NotNil(t, req.Body)
	assert.Empty(t, req.Body)
	assert.Empty(t, req.Headers)
}

func TestReadRequestRepeatedHeaderKeepsLast(t *testing.T) {
	req, err := ReadRequest(strings.NewReader("GET / HTTP/1.1\r\nAccept: a\r\naccept: b\r\n\r\n"))
	require.NoError(t, err)

	v, _ := req.Header("Accept")
	assert.Equal(t, "b", v)
}

func TestReadRequestTruncatedBody(t *testing.T) {
	req, err := ReadRequest(strings.NewReader("POST /x HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), req.Body)
}

func TestReadRequestLargeBody(t *testing.T) {
	body := strings.Repeat("x", 3*ReadBufferSize+7)
	raw := "POST /x HTTP/1.1\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	req, err := ReadRequest(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, body, string(req.Body))
}

func TestReadRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
	}{
		{"missing version", "GET /\r\n\r\n", ErrMalformedRequestLine},
		{"too many tokens", "GET / HTTP/1.1 extra\r\n\r\n", ErrMalformedRequestLine},
		{"unsupported version", "GET / HTTP/1.0\r\n\r\n", ErrUnsupportedVersion},
		{"unknown method", "DELETE / HTTP/1.1\r\n\r\n", ErrUnknownMethod},
		{"malformed header", "GET / HTTP/1.1\r\nno-colon-here\r\n\r\n", ErrMalformedHeader},
		{"bad content length", "POST / HTTP/1.1\r\nContent-Length: ten\r\n\r\n", ErrInvalidContentLength},
		{"negative content length", "POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\n", ErrInvalidContentLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ReadRequest(strings.NewReader(tt.raw))
			assert.Nil(t, req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			var decodeErr *DecodeError
			assert.True(t, errors.As(err, &decodeErr))
		})
	}
}

func TestReadRequestEmptyStream(t *testing.T) {
	_, err := ReadRequest(strings.NewReader(""))

	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestParseMethod(t *testing.T) {
	m, ok := ParseMethod("GET")
	assert.True(t, ok)
	assert.Equal(t, MethodGet, m)

	_, ok = ParseMethod("get")
	assert.False(t, ok)
}
