//go:build windows

/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package pathutil

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

// GetExecutablePath returns the path of the running executable with all
// symlinks and junctions resolved by the filesystem itself.
func GetExecutablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}

	file, err := os.Open(exe)
	if err != nil {
		return "", fmt.Errorf("failed to open the executable file: %w", err)
	}
	defer file.Close()
	handle := windows.Handle(file.Fd())

	// The first call only reports the buffer size needed.
	bufSize, err := windows.GetFinalPathNameByHandle(handle, nil, 0, 0)
	if err != nil {
		return "", fmt.Errorf("failed to query the final path length: %w", err)
	}
	buf := make([]uint16, bufSize)
	n, err := windows.GetFinalPathNameByHandle(handle, &buf[0], uint32(len(buf)), 0)
	if err != nil {
		return "", fmt.Errorf("failed to get the final path name by handle: %w", err)
	}
	return syscall.UTF16ToString(buf[:n]), nil
}
