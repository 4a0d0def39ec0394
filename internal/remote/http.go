package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/quotesync/internal/model"
)

// MaxPayloadBytes caps how much of a response body is read.
const MaxPayloadBytes = 16 << 20

// HTTPFetcher GETs the remote record set from URL.
type HTTPFetcher struct {
	URL     string
	Client  *http.Client
	Headers map[string]string

	// Now stamps results. Defaults to time.Now in UTC.
	Now func() time.Time
}

// Fetch implements engine.Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) model.RemoteResult {
	now := f.now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return model.Failed(now, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range f.Headers {
		req.Header.Set(k, v)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return model.Failed(now, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Failed(now, fmt.Sprintf("remote returned %s", resp.Status), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPayloadBytes+1))
	if err != nil {
		return model.Failed(now, "read response", err)
	}
	if len(body) > MaxPayloadBytes {
		return model.Failed(now, fmt.Sprintf("response exceeds %d bytes", MaxPayloadBytes), nil)
	}

	return result(now, body, f.URL)
}

func (f *HTTPFetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now().UTC()
}

// result turns a raw payload into a RemoteResult.
func result(now time.Time, body []byte, source string) model.RemoteResult {
	p, err := Decode(body)
	return toResult(now, p, err, source)
}

func toResult(now time.Time, p Payload, err error, source string) model.RemoteResult {
	if errors.Is(err, ErrMalformed) {
		return model.Malformed(now, err)
	}
	if err != nil {
		return model.Failed(now, "decode payload", err)
	}
	if p.Dropped > 0 {
		slog.Warn("remote payload contained invalid records",
			"source", source,
			"dropped", p.Dropped,
			"kept", len(p.Records),
		)
	}
	return model.RemoteResult{
		Success:   true,
		Records:   p.Records,
		Timestamp: now,
		Dropped:   p.Dropped,
	}
}
