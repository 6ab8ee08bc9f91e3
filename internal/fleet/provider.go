package fleet

import (
	"context"
	"encoding/json"
)

// HourSource abstracts the upstream that serves one hour of raw telemetry
// (e.g. the WindBorne treasure feed or the local proxy in front of it).
type HourSource interface {
	Name() string
	// FetchHour returns the elements of the upstream JSON array for the
	// given hour slot. Elements are left undecoded so that one malformed
	// point does not fail the whole hour.
	FetchHour(ctx context.Context, hour int) ([]json.RawMessage, error)
}
