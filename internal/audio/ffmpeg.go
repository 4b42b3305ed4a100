// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"talksync/internal/log"
	"talksync/pkg/executor"
)

// DefaultFFmpegPath is looked up on PATH.
const DefaultFFmpegPath = "ffmpeg"

// FFmpegDecoder decodes any container ffmpeg understands by extracting the
// first audio stream to a temporary 16-bit PCM WAV file.
type FFmpegDecoder struct {
	exec    executor.Executor
	wav     *WAVDecoder
	ffmpeg  string
	tempDir string
}

// NewFFmpegDecoder creates a decoder that runs ffmpegPath through exec and
// writes temporary files to tempDir. Empty values select the defaults.
func NewFFmpegDecoder(exec executor.Executor, ffmpegPath, tempDir string) *FFmpegDecoder {
	if exec == nil {
		exec = executor.New()
	}
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}
	return &FFmpegDecoder{
		exec:    exec,
		wav:     NewWAVDecoder(),
		ffmpeg:  ffmpegPath,
		tempDir: tempDir,
	}
}

// Decode reads path. WAV files are decoded directly; ctx bounds the ffmpeg
// process for everything else.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string) (*Clip, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return d.wav.Decode(ctx, path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	input, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	tmp, err := os.CreateTemp(d.tempDir, "talksync-*.wav")
	if err != nil {
		return nil, fmt.Errorf("audio: temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	// ffmpeg runs inside the temporary directory so anything it leaves
	// behind stays there.
	log.Debugf("audio: extracting %s with %s", path, d.ffmpeg)
	if _, err := d.exec.ExecuteInDir(ctx, filepath.Dir(tmpPath), d.ffmpeg,
		"-i", input, "-vn", "-c:a", "pcm_s16le", "-y", filepath.Base(tmpPath)); err != nil {
		return nil, fmt.Errorf("audio: extract %s: %w", path, err)
	}

	clip, err := d.wav.Decode(ctx, tmpPath)
	if err != nil {
		return nil, fmt.Errorf("audio: decode extracted %s: %w", path, err)
	}
	return clip, nil
}
