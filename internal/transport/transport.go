// SPDX-License-Identifier: MIT
// Package transport exposes the correlator over a websocket.
package transport

import (
	"context"

	"talksync/internal/correlate"
)

// Correlator is the work a connection performs for each request.
// Implementations must be safe for concurrent use.
type Correlator interface {
	CorrelateFiles(ctx context.Context, file1, file2 string, windowDuration float64, channel int) (*correlate.Result, error)
}

// Request asks for the offset between two files. A zero WindowDuration or
// a missing Channel takes the server default.
type Request struct {
	File1          string  `json:"file1"`
	File2          string  `json:"file2"`
	WindowDuration float64 `json:"window_duration,omitempty"`
	Channel        *int    `json:"channel,omitempty"`
}

// Response carries a correlation result, or Error when the request failed.
type Response struct {
	Lag         float64   `json:"lag"`
	Peak        float64   `json:"peak"`
	OffsetMS    float64   `json:"offset_ms"`
	Lags        []float64 `json:"lags,omitempty"`
	Correlation []float64 `json:"correlation,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// NewResponse converts a correlation result into its wire form.
func NewResponse(res *correlate.Result) Response {
	lag, peak := res.Peak()
	return Response{
		Lag:         lag,
		Peak:        peak,
		OffsetMS:    float64(res.Offset().Microseconds()) / 1000,
		Lags:        res.Lags,
		Correlation: res.Correlation,
	}
}
