package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freekieb7/httpcore/config"
	"github.com/freekieb7/httpcore/filesystem"
	"github.com/freekieb7/httpcore/http"
	"github.com/freekieb7/httpcore/telemetry"
	"github.com/freekieb7/httpcore/test"
)

func startApp(t *testing.T, dir string) string {
	t.Helper()

	cfg := config.Default()
	cfg.Directory = dir

	tel, err := telemetry.Setup(context.Background(), telemetry.Config{ServiceName: "httpcore-test"})
	require.NoError(t, err)

	var files filesystem.Filesystem
	if dir != "" {
		files, err = filesystem.NewLocalFileSystem(dir)
		require.NoError(t, err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server, err := newServer(cfg, tel, logger, files)
	require.NoError(t, err)
	require.NoError(t, server.Bind("127.0.0.1:0"))

	done := make(chan error, 1)
	go func() { done <- server.Run() }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, server.Shutdown(ctx))
		assert.ErrorIs(t, <-done, http.ErrServerClosed)
		assert.NoError(t, tel.Shutdown(ctx))
	})

	return server.Addr().String()
}

func TestIndex(t *testing.T) {
	addr := startApp(t, "")

	res, body := test.ParseResponse(t, test.Exchange(t, addr, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	assert.Equal(t, 200, res.StatusCode)
	assert.Empty(t, body)
	assert.NotEmpty(t, res.Header.Get(http.HeaderRequestID))
}

func TestEcho(t *testing.T) {
	addr := startApp(t, "")

	res, body := test.ParseResponse(t, test.Exchange(t, addr, "GET /echo/abc HTTP/1.1\r\n\r\n"))
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "text/plain", res.Header.Get("Content-Type"))
	assert.Equal(t, "abc", string(body))
}

func TestEchoGzip(t *testing.T) {
	addr := startApp(t, "")

	raw := test.Exchange(t, addr, "GET /echo/abc HTTP/1.1\r\nAccept-Encoding: invalid-encoding-1, gzip, invalid-encoding-2\r\n\r\n")
	res, body := test.ParseResponse(t, raw)
	require.Equal(t, "gzip", res.Header.Get("Content-Encoding"))

	zr, err := gzip.NewReader(bytes.NewReader(body))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(plain))
}

func TestEchoUnsupportedEncoding(t *testing.T) {
	addr := startApp(t, "")

	res, body := test.ParseResponse(t, test.Exchange(t, addr, "GET /echo/abc HTTP/1.1\r\nAccept-Encoding: invalid-encoding\r\n\r\n"))
	assert.Empty(t, res.Header.Get("Content-Encoding"))
	assert.Equal(t, "abc", string(body))
}

func TestUserAgent(t *testing.T) {
	addr := startApp(t, "")

	_, body := test.ParseResponse(t, test.Exchange(t, addr, "GET /user-agent HTTP/1.1\r\nUser-Agent: foobar/1.2.3\r\n\r\n"))
	assert.Equal(t, "foobar/1.2.3", string(body))
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo"), []byte("Hello, World!"), 0o644))
	addr := startApp(t, dir)

	res, body := test.ParseResponse(t, test.Exchange(t, addr, "GET /files/foo HTTP/1.1\r\n\r\n"))
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "application/octet-stream", res.Header.Get("Content-Type"))
	assert.Equal(t, "Hello, World!", string(body))

	res, _ = test.ParseResponse(t, test.Exchange(t, addr, "GET /files/missing HTTP/1.1\r\n\r\n"))
	assert.Equal(t, 404, res.StatusCode)

	res, _ = test.ParseResponse(t, test.Exchange(t, addr, "POST /files/new HTTP/1.1\r\nContent-Length: 5\r\n\r\n12345"))
	assert.Equal(t, 201, res.StatusCode)

	content, err := os.ReadFile(filepath.Join(dir, "new"))
	require.NoError(t, err)
	assert.Equal(t, "12345", string(content))

	res, _ = test.ParseResponse(t, test.Exchange(t, addr, "GET /files/.. HTTP/1.1\r\n\r\n"))
	assert.Equal(t, 404, res.StatusCode)
}

func TestFilesWithoutDirectory(t *testing.T) {
	addr := startApp(t, "")

	res, _ := test.ParseResponse(t, test.Exchange(t, addr, "GET /files/foo HTTP/1.1\r\n\r\n"))
	assert.Equal(t, 404, res.StatusCode)

	res, _ = test.ParseResponse(t, test.Exchange(t, addr, "POST /files/foo HTTP/1.1\r\nContent-Length: 1\r\n\r\nx"))
	assert.Equal(t, 404, res.StatusCode)
}

func TestMetrics(t *testing.T) {
	addr := startApp(t, "")

	test.Exchange(t, addr, "GET /echo/warmup HTTP/1.1\r\n\r\n")

	res, body := test.ParseResponse(t, test.Exchange(t, addr, "GET /metrics HTTP/1.1\r\n\r\n"))
	assert.Equal(t, 200, res.StatusCode)
	assert.True(t, strings.Contains(string(body), "http_server_request_count"), string(body))
}

func TestUnknownRoute(t *testing.T) {
	addr := startApp(t, "")

	raw := test.Exchange(t, addr, "GET /nope HTTP/1.1\r\n\r\n")
	assert.Equal(t, "HTTP/1.1 404 Not Found\r\n\r\n", raw)
}
