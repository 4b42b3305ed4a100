// SPDX-License-Identifier: MIT
//go:build !unix

package audio

import (
	"fmt"
	"os"
)

// mapFile reads the whole file on platforms without mmap.
func mapFile(path string) ([]byte, func() error, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("audio: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%w: %s is not a regular file", ErrUnsupportedFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("audio: %w", err)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: %s is empty", ErrUnsupportedFormat, path)
	}

	return data, func() error { return nil }, nil
}
