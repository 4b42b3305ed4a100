// SPDX-License-Identifier: MIT
package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"talksync/internal/audio"
	"talksync/internal/correlate"
	"talksync/internal/transport"
	"talksync/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var testLevels = []float64{1000, 5000, 2000, 8000, 3000, 1000, 7000, 2000}

// writeRecordings writes two mono 1 kHz WAV files, the second delayed by
// delay windows of 100 ms.
func writeRecordings(t *testing.T, delay int) (string, string) {
	t.Helper()
	dir := t.TempDir()

	write := func(name string, levels []float64) string {
		signal := utils.GenerateEnvelopeSignal(levels, 100, 1000, 50)
		clip := &audio.Clip{SampleRate: 1000, Frames: mat.NewDense(len(signal), 1, signal)}
		path := filepath.Join(dir, name)
		require.NoError(t, audio.WriteWAV(path, clip, 16))
		return path
	}

	return write("a.wav", testLevels), write("b.wav", utils.Delay(testLevels, delay))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCorrelateCommand(t *testing.T) {
	a, b := writeRecordings(t, 3)

	out, err := run(t, "correlate", a, b, "--window", "100ms")
	require.NoError(t, err)
	assert.Contains(t, out, "peak lag:   -0.300 s")
	assert.Contains(t, out, "sync delay: 300 ms")
}

func TestCorrelateCommandJSON(t *testing.T) {
	a, b := writeRecordings(t, 2)

	out, err := run(t, "correlate", a, b, "-w", "100ms", "--json")
	require.NoError(t, err)

	var resp transport.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.InDelta(t, -0.2, resp.Lag, 1e-9)
	assert.InDelta(t, 200, resp.OffsetMS, 1e-9)
	assert.Len(t, resp.Correlation, len(testLevels)*2+2-1)
	assert.Empty(t, resp.Error)
}

func TestCorrelateCommandCurve(t *testing.T) {
	a, b := writeRecordings(t, 1)
	curve := filepath.Join(t.TempDir(), "curve.csv")

	_, err := run(t, "correlate", a, b, "--window", "100ms", "--curve", curve)
	require.NoError(t, err)

	f, err := os.Open(curve)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1+len(testLevels)*2+1-1)
	assert.Equal(t, []string{"lag_seconds", "correlation"}, rows[0])
	assert.Equal(t, "-0.8", rows[1][0])
}

func TestCorrelateCommandConfigDefaults(t *testing.T) {
	a, b := writeRecordings(t, 1)
	cfgPath := filepath.Join(t.TempDir(), "talksync.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("correlation:\n  window_duration: 100ms\n"), 0o644))

	out, err := run(t, "--config", cfgPath, "correlate", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "sync delay: 100 ms")
}

func TestCorrelateCommandErrors(t *testing.T) {
	a, b := writeRecordings(t, 0)

	tests := []struct {
		name    string
		args    []string
		contain string
	}{
		{"One File", []string{"correlate", a}, "accepts 2 arg(s)"},
		{"Missing File", []string{"correlate", a, filepath.Join(t.TempDir(), "nope.wav")}, "no such file"},
		{"Bad Channel", []string{"correlate", a, b, "--channel", "2"}, "channel out of range"},
		{"Bad Log Level", []string{"--log-level", "chatty", "correlate", a, b}, "unknown log level"},
		{"Missing Config", []string{"--config", "/nonexistent/talksync.yaml", "version"}, "failed to read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contain)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "talksync "), "got %q", out)
}

func TestEncodeCurve(t *testing.T) {
	var buf bytes.Buffer
	err := encodeCurve(&buf, &correlateResult)
	require.NoError(t, err)
	assert.Equal(t, "lag_seconds,correlation\n-0.5,1\n0,2.5\n0.5,1\n", buf.String())
}

var correlateResult = correlate.Result{
	Lags:        []float64{-0.5, 0, 0.5},
	Correlation: []float64{1, 2.5, 1},
}
