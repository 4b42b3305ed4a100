// SPDX-License-Identifier: MIT
//go:build unix

package audio

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps path read-only. The returned release function unmaps it.
func mapFile(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("audio: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("audio: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%w: %s is not a regular file", ErrUnsupportedFormat, path)
	}

	size := info.Size()
	if size == 0 {
		return nil, nil, fmt.Errorf("%w: %s is empty", ErrUnsupportedFormat, path)
	}
	if size > math.MaxInt {
		return nil, nil, fmt.Errorf("%w: %s is too large to map", ErrUnsupportedFormat, path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("audio: mmap %s: %w", path, err)
	}

	return data, func() error { return unix.Munmap(data) }, nil
}
