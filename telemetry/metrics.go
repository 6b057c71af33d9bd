package telemetry

import (
	"bytes"

	"github.com/prometheus/common/expfmt"

	"github.com/freekieb7/httpcore/http"
)

// MetricsHandler renders the Prometheus registry in the text exposition format.
func (tel *Telemetry) MetricsHandler() http.HandlerFunc {
	return func(ctx *http.RequestCtx) *http.Response {
		families, err := tel.registry.Gather()
		if err != nil {
			return http.InternalServerError().WithText(err.Error())
		}

		format := expfmt.NewFormat(expfmt.TypeTextPlain)
		var buf bytes.Buffer
		enc := expfmt.NewEncoder(&buf, format)
		for _, family := range families {
			if err := enc.Encode(family); err != nil {
				return http.InternalServerError().WithText(err.Error())
			}
		}

		return http.OK().
			WithHeader("Content-Type", string(format)).
			WithBody(buf.Bytes())
	}
}
