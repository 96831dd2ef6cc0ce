package capture

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// createFlockFile creates a file lock for the capture directory.
func createFlockFile(flockFile string) (*os.File, error) {
	flockF, err := os.Create(flockFile)
	if err != nil {
		return nil, fmt.Errorf("cannot create lock file %q: %w", flockFile, err)
	}
	if err := unix.Flock(int(flockF.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		flockF.Close()
		return nil, fmt.Errorf("%w: cannot acquire lock on file %q: %v", ErrLocked, flockFile, err)
	}
	return flockF, nil
}

// destroyFlockFile removes a file lock for the capture directory.
func destroyFlockFile(flockF *os.File) error {
	// Unlock the file.
	if err := unix.Flock(int(flockF.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("cannot unlock lock on file %q: %w", flockF.Name(), err)
	}
	// Close any open fd.
	if err := flockF.Close(); err != nil {
		return fmt.Errorf("cannot close fd on file %q: %w", flockF.Name(), err)
	}
	// Remove the lock file from the filesystem.
	if err := os.Remove(flockF.Name()); err != nil {
		return fmt.Errorf("cannot remove file %q: %w", flockF.Name(), err)
	}
	return nil
}
