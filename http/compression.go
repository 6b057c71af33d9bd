package http

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

const (
	DefaultGzipLevel   = gzip.DefaultCompression
	DefaultBrotliLevel = 4
)

type CompressionOption func(*compressionConfig)

type compressionConfig struct {
	logger      *slog.Logger
	gzipLevel   int
	brotliLevel int
	minSize     int
	encodings   []Encoding
}

func defaultCompressionConfig() *compressionConfig {
	return &compressionConfig{
		logger:      slog.Default(),
		gzipLevel:   DefaultGzipLevel,
		brotliLevel: DefaultBrotliLevel,
		encodings:   []Encoding{EncodingGzip},
	}
}

func WithCompressionLogger(logger *slog.Logger) CompressionOption {
	return func(cfg *compressionConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithGzipLevel sets the gzip level, which is also used for deflate.
func WithGzipLevel(level int) CompressionOption {
	return func(cfg *compressionConfig) {
		cfg.gzipLevel = level
	}
}

func WithBrotliLevel(level int) CompressionOption {
	return func(cfg *compressionConfig) {
		cfg.brotliLevel = level
	}
}

// WithMinSize leaves bodies smaller than size uncompressed.
func WithMinSize(size int) CompressionOption {
	return func(cfg *compressionConfig) {
		cfg.minSize = size
	}
}

// WithEncodings sets the encodings the middleware may produce, in order of
// server preference. Only gzip, br, zstd and deflate can be produced; other
// tokens are ignored.
func WithEncodings(encodings ...Encoding) CompressionOption {
	return func(cfg *compressionConfig) {
		cfg.encodings = cfg.encodings[:0]
		for _, enc := range encodings {
			switch enc {
			case EncodingGzip, EncodingBrotli, EncodingZstd, EncodingDeflate:
				cfg.encodings = append(cfg.encodings, enc)
			}
		}
	}
}

// Compression compresses response bodies according to the request's
// Accept-Encoding preferences.
type Compression struct {
	cfg    *compressionConfig
	parser *EncodingParser

	gzipPool   sync.Pool
	brotliPool sync.Pool
	zstd       *zstd.Encoder
}

func NewCompression(opts ...CompressionOption) (*Compression, error) {
	cfg := defaultCompressionConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if _, err := gzip.NewWriterLevel(io.Discard, cfg.gzipLevel); err != nil {
		return nil, fmt.Errorf("compression: gzip level: %w", err)
	}

	c := &Compression{cfg: cfg, parser: NewEncodingParser()}
	c.gzipPool.New = func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, cfg.gzipLevel)
		return w
	}
	c.brotliPool.New = func() any {
		return brotli.NewWriterLevel(io.Discard, cfg.brotliLevel)
	}

	// Only EncodeAll is used.
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("compression: zstd encoder: %w", err)
	}
	c.zstd = encoder

	return c, nil
}

// Negotiate returns the client's preferences. A missing header means
// identity only; an unparseable one is logged and treated the same way.
func (c *Compression) Negotiate(ctx *RequestCtx) Preferences {
	header, found := ctx.Header("Accept-Encoding")
	if !found {
		return DefaultPreferences()
	}

	prefs, err := c.parser.Parse(header)
	if err != nil {
		c.cfg.logger.WarnContext(ctx.Context(), "accept-encoding negotiation failed", "header", header, "error", err)
		return DefaultPreferences()
	}
	return prefs
}

func (c *Compression) Handle(ctx *RequestCtx, next Next) *Response {
	encoding := c.Negotiate(ctx).Select(c.cfg.encodings)
	SetExtension(ctx, encoding)

	res := next.Run(ctx)
	if res == nil || encoding == EncodingIdentity || len(res.Body) == 0 || len(res.Body) < c.cfg.minSize {
		return res
	}
	if _, encoded := res.Headers.Get("Content-Encoding"); encoded {
		return res
	}

	body, err := c.compress(encoding, res.Body)
	if err != nil {
		c.cfg.logger.ErrorContext(ctx.Context(), "compressing response body failed", "encoding", encoding, "error", err)
		return res
	}

	res.Body = body
	res.Headers.Set("Content-Encoding", string(encoding))
	res.Headers.Set("Vary", "Accept-Encoding")
	return res
}

func (c *Compression) compress(encoding Encoding, body []byte) ([]byte, error) {
	var buf bytes.Buffer

	switch encoding {
	case EncodingGzip:
		w := c.gzipPool.Get().(*gzip.Writer)
		defer c.gzipPool.Put(w)
		w.Reset(&buf)
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case EncodingBrotli:
		w := c.brotliPool.Get().(*brotli.Writer)
		defer c.brotliPool.Put(w)
		w.Reset(&buf)
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case EncodingDeflate:
		// HTTP deflate is the zlib container.
		w, err := zlib.NewWriterLevel(&buf, c.cfg.gzipLevel)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case EncodingZstd:
		return c.zstd.EncodeAll(body, make([]byte, 0, len(body))), nil
	default:
		return nil, fmt.Errorf("compression: unsupported encoding %q", encoding)
	}

	return buf.Bytes(), nil
}
