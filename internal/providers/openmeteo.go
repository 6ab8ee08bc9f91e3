package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/sony/gobreaker"

	"github.com/kmadk/windborne-stratosphere/internal/windfield"
)

// DefaultOpenMeteoBaseURL is the GFS endpoint, which carries pressure-level
// variables.
const DefaultOpenMeteoBaseURL = "https://api.open-meteo.com/v1/gfs"

// LiveLonStep is the longitude spacing of live samples along each band.
const LiveLonStep = 10

const openMeteoCurrent = "wind_speed_250hPa,wind_direction_250hPa,geopotential_height_250hPa"

var errMalformedWind = errors.New("malformed wind sample")

// OpenMeteoProvider samples 250 hPa winds along each jet band. It implements
// windfield.LiveSource.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, baseURL string, backoff BackoffConfig) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	return &OpenMeteoProvider{
		name:    "Open-Meteo GFS 250hPa",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		WindSpeed    *float64 `json:"wind_speed_250hPa"`
		WindDir      *float64 `json:"wind_direction_250hPa"`
		Geopotential *float64 `json:"geopotential_height_250hPa"`
	} `json:"current"`
}

// FetchBands fetches every band concurrently. Any band failing fails the call.
func (p *OpenMeteoProvider) FetchBands(ctx context.Context, bands []windfield.Band) ([]windfield.WindPoint, error) {
	var (
		wg      sync.WaitGroup
		results = make([][]windfield.WindPoint, len(bands))
		errs    = make([]error, len(bands))
	)

	for i, b := range bands {
		wg.Add(1)
		go func(i int, b windfield.Band) {
			defer wg.Done()
			results[i], errs[i] = p.fetchBand(ctx, b)
		}(i, b)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var out []windfield.WindPoint
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (p *OpenMeteoProvider) fetchBand(ctx context.Context, band windfield.Band) ([]windfield.WindPoint, error) {
	var lats, lons []string
	for lon := -180; lon < 180; lon += LiveLonStep {
		lats = append(lats, strconv.FormatFloat(band.Lat, 'f', -1, 64))
		lons = append(lons, strconv.Itoa(lon))
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strings.Join(lats, ","))
		values.Set("longitude", strings.Join(lons, ","))
		values.Set("current", openMeteoCurrent)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", band.Type, err)
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", band.Type, err)
	}

	// Open-Meteo returns a bare object for a single location and an array otherwise.
	var locs []openMeteoLocation
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var one openMeteoLocation
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", band.Type, err)
		}
		locs = []openMeteoLocation{one}
	} else if err := json.Unmarshal(raw, &locs); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", band.Type, err)
	}

	points := make([]windfield.WindPoint, 0, len(locs))
	for _, loc := range locs {
		c := loc.Current
		if c.WindSpeed == nil || c.WindDir == nil || c.Geopotential == nil {
			return nil, fmt.Errorf("%s: %w at %v,%v", band.Type, errMalformedWind, loc.Latitude, loc.Longitude)
		}
		points = append(points, windfield.WindPoint{
			Lat:              loc.Latitude,
			Lon:              loc.Longitude,
			WindSpeedKnots:   *c.WindSpeed * windfield.KmhToKnots,
			WindDirectionDeg: windfield.NormalizeDirection(*c.WindDir),
			AltitudeM:        *c.Geopotential,
			Type:             band.Type,
		})
	}
	return points, nil
}
