package spotify

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"playlist-importer/internal/shared"
)

// throttleTransport converts throttle and server-error responses into
// typed errors so the retry layer can classify them. The catalog client
// library surfaces transport errors wrapped in *url.Error, which errors.As
// unwraps back to *shared.HTTPError.
type throttleTransport struct {
	base http.RoundTripper
}

func newThrottleTransport(base http.RoundTripper) *throttleTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &throttleTransport{base: base}
}

func (t *throttleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		herr := &shared.HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, herr
	}
	return resp, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
