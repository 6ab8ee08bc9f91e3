package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
)

// DefaultWindBorneBaseURL serves one JSON file per hour: 00.json is the
// most recent hour, 23.json the oldest.
const DefaultWindBorneBaseURL = "https://a.windbornesystems.com/treasure"

// Upper bound on a single hour payload.
const maxPayloadBytes = 32 << 20

// WindBorneProvider fetches hourly balloon constellation snapshots. It
// implements fleet.HourSource.
type WindBorneProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWindBorneProvider(client *http.Client, baseURL string, backoff BackoffConfig) *WindBorneProvider {
	if baseURL == "" {
		baseURL = DefaultWindBorneBaseURL
	}
	return &WindBorneProvider{
		name:    "windborne",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newBreaker("windborne"),
	}
}

func (p *WindBorneProvider) Name() string {
	return p.name
}

// HourURL is the upstream URL for an hour slot.
func (p *WindBorneProvider) HourURL(hour int) string {
	return fmt.Sprintf("%s/%02d.json", p.baseURL, hour)
}

// FetchRaw returns the upstream body for an hour slot unmodified.
func (p *WindBorneProvider) FetchRaw(ctx context.Context, hour int) ([]byte, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.HourURL(hour), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read hour %02d: %w", hour, err)
	}
	return body, nil
}

// FetchHour returns the undecoded elements of the hour's JSON array. A body
// that is not a JSON array is an error for the whole hour.
func (p *WindBorneProvider) FetchHour(ctx context.Context, hour int) ([]json.RawMessage, error) {
	body, err := p.FetchRaw(ctx, hour)
	if err != nil {
		return nil, err
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, fmt.Errorf("decode hour %02d: %w", hour, err)
	}
	return elems, nil
}
