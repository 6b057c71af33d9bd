package http

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Encoding is a content-coding token as it appears in Accept-Encoding.
type Encoding string

const (
	EncodingGzip     Encoding = "gzip"
	EncodingCompress Encoding = "compress"
	EncodingDeflate  Encoding = "deflate"
	EncodingBrotli   Encoding = "br"
	EncodingZstd     Encoding = "zstd"
	EncodingDCB      Encoding = "dcb"
	EncodingDCZ      Encoding = "dcz"
	EncodingIdentity Encoding = "identity"
	EncodingAny      Encoding = "*"
)

var knownEncodings = map[Encoding]struct{}{
	EncodingGzip:     {},
	EncodingCompress: {},
	EncodingDeflate:  {},
	EncodingBrotli:   {},
	EncodingZstd:     {},
	EncodingDCB:      {},
	EncodingDCZ:      {},
	EncodingIdentity: {},
	EncodingAny:      {},
}

// EncodingPreference is one entry of an Accept-Encoding header.
type EncodingPreference struct {
	Encoding Encoding
	Quality  float64
}

// Preferences holds the negotiated preferences of one request, keyed by
// encoding token.
type Preferences map[Encoding]EncodingPreference

// DefaultPreferences is what a request without Accept-Encoding negotiates to.
func DefaultPreferences() Preferences {
	return Preferences{
		EncodingIdentity: {Encoding: EncodingIdentity, Quality: 1.0},
	}
}

// Quality reports the quality the client assigned to enc, falling back to
// the wildcard entry.
func (p Preferences) Quality(enc Encoding) (float64, bool) {
	if pref, ok := p[enc]; ok {
		return pref.Quality, true
	}
	if pref, ok := p[EncodingAny]; ok {
		return pref.Quality, true
	}
	return 0, false
}

// Select picks the acceptable non-identity encoding with the highest quality
// among supported. Ties go to the encoding listed first in supported. When
// nothing qualifies the result is EncodingIdentity.
func (p Preferences) Select(supported []Encoding) Encoding {
	best, bestQ := EncodingIdentity, 0.0
	for _, enc := range supported {
		if enc == EncodingIdentity || enc == EncodingAny {
			continue
		}
		q, ok := p.Quality(enc)
		if !ok || q <= 0 {
			continue
		}
		if q > bestQ {
			best, bestQ = enc, q
		}
	}
	return best
}

// EncodingParser parses Accept-Encoding header values. Its expressions are
// compiled once by NewEncodingParser; a parser is safe for concurrent use.
type EncodingParser struct {
	entry   *regexp.Regexp
	quality *regexp.Regexp
}

func NewEncodingParser() *EncodingParser {
	return &EncodingParser{
		entry:   regexp.MustCompile(`^([\w*-]+)(?:\s*;\s*q=(\S*))?$`),
		quality: regexp.MustCompile(`^(?:0(?:\.\d+)?|1(?:\.0+)?)$`),
	}
}

// Parse parses header into a set of preferences. Unknown tokens are skipped;
// a malformed entry or quality value fails the whole header with
// ErrNegotiation.
func (p *EncodingParser) Parse(header string) (Preferences, error) {
	prefs := make(Preferences)

	for _, raw := range strings.Split(header, ",") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}

		m := p.entry.FindStringSubmatch(entry)
		if m == nil {
			return nil, fmt.Errorf("%w: entry %q", ErrNegotiation, entry)
		}

		quality := 1.0
		if strings.Contains(entry, ";") {
			if !p.quality.MatchString(m[2]) {
				return nil, fmt.Errorf("%w: quality %q", ErrNegotiation, m[2])
			}
			q, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: quality %q: %w", ErrNegotiation, m[2], err)
			}
			quality = q
		}

		enc := Encoding(strings.ToLower(m[1]))
		if _, known := knownEncodings[enc]; !known {
			continue
		}
		prefs[enc] = EncodingPreference{Encoding: enc, Quality: quality}
	}

	return prefs, nil
}
