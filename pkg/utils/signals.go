// SPDX-License-Identifier: MIT
// Package utils holds peak search and synthetic signal helpers shared by the
// correlator, its tests and the service tests.
package utils

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// FindPeak returns the index of the largest value in values[startBin..endBin].
// The bounds are clamped to the slice; ties resolve to the earliest index.
func FindPeak(values []float64, startBin, endBin int) int {
	if len(values) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(values) {
		endBin = len(values) - 1
	}

	if endBin < startBin {
		return startBin
	}

	return startBin + floats.MaxIdx(values[startBin:endBin+1])
}

// GenerateSineWave returns size samples of a unit sine at frequency Hz.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2 * math.Pi * frequency * t)
	}
	return buffer
}

// GenerateEnvelopeSignal returns a carrier sine whose amplitude is held at
// levels[k] for samplesPerLevel samples at a time. Its window energy traces
// the levels when windows line up with the segments.
func GenerateEnvelopeSignal(levels []float64, samplesPerLevel int, sampleRate, carrier float64) []float64 {
	buffer := GenerateSineWave(len(levels)*samplesPerLevel, sampleRate, carrier)
	for k, level := range levels {
		floats.Scale(level, buffer[k*samplesPerLevel:(k+1)*samplesPerLevel])
	}
	return buffer
}

// Delay returns signal preceded by n zero samples.
func Delay(signal []float64, n int) []float64 {
	out := make([]float64, n+len(signal))
	copy(out[n:], signal)
	return out
}

// Interleave merges equal-length channels into frame-major order, the
// layout mat.NewDense expects for a frames x channels matrix. Channels are
// truncated to the shortest one.
func Interleave(channels ...[]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}

	frames := len(channels[0])
	for _, ch := range channels[1:] {
		frames = min(frames, len(ch))
	}

	out := make([]float64, 0, frames*len(channels))
	for i := range frames {
		for _, ch := range channels {
			out = append(out, ch[i])
		}
	}
	return out
}
