package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodingParserParse(t *testing.T) {
	parser := NewEncodingParser()

	prefs, err := parser.Parse("gzip, br;q=0.8, ZSTD ; q=0.5, identity;q=0")
	require.NoError(t, err)

	assert.Equal(t, Preferences{
		EncodingGzip:     {Encoding: EncodingGzip, Quality: 1},
		EncodingBrotli:   {Encoding: EncodingBrotli, Quality: 0.8},
		EncodingZstd:     {Encoding: EncodingZstd, Quality: 0.5},
		EncodingIdentity: {Encoding: EncodingIdentity, Quality: 0},
	}, prefs)
}

func TestEncodingParserSkipsUnknown(t *testing.T) {
	prefs, err := NewEncodingParser().Parse("invalid-encoding-1, gzip, x-custom;q=0.3")
	require.NoError(t, err)

	assert.Len(t, prefs, 1)
	assert.Contains(t, prefs, EncodingGzip)
}

func TestEncodingParserErrors(t *testing.T) {
	parser := NewEncodingParser()

	for _, header := range []string{
		"gzip;q=2",
		"gzip;q=",
		"gzip;q=abc",
		"gzip;level=1",
		"gzip br",
		"gzip;q=1.5",
	} {
		t.Run(header, func(t *testing.T) {
			_, err := parser.Parse(header)
			assert.ErrorIs(t, err, ErrNegotiation)
		})
	}
}

func TestEncodingParserEmpty(t *testing.T) {
	prefs, err := NewEncodingParser().Parse(" , ")
	require.NoError(t, err)
	assert.Empty(t, prefs)
}

func TestPreferencesSelect(t *testing.T) {
	supported := []Encoding{EncodingGzip, EncodingBrotli, EncodingZstd, EncodingDeflate}

	tests := []struct {
		name  string
		prefs Preferences
		want  Encoding
	}{
		{"defaults", DefaultPreferences(), EncodingIdentity},
		{"single", Preferences{EncodingBrotli: {EncodingBrotli, 1}}, EncodingBrotli},
		{"highest quality", Preferences{EncodingGzip: {EncodingGzip, 0.5}, EncodingZstd: {EncodingZstd, 0.9}}, EncodingZstd},
		{"tie goes to server order", Preferences{EncodingZstd: {EncodingZstd, 1}, EncodingGzip: {EncodingGzip, 1}}, EncodingGzip},
		{"zero quality refused", Preferences{EncodingGzip: {EncodingGzip, 0}}, EncodingIdentity},
		{"wildcard", Preferences{EncodingAny: {EncodingAny, 0.1}}, EncodingGzip},
		{"explicit beats wildcard", Preferences{EncodingAny: {EncodingAny, 1}, EncodingGzip: {EncodingGzip, 0}}, EncodingBrotli},
		{"unsupported only", Preferences{EncodingCompress: {EncodingCompress, 1}}, EncodingIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.prefs.Select(supported))
		})
	}
}
