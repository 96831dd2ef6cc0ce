package capture

import "errors"

var (
	ErrLocked        = errors.New("a lockfile already exists")
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrTruncated     = errors.New("truncated frame")
	ErrClosed        = errors.New("capture log is closed")
	ErrReadOnly      = errors.New("capture file is opened read-only")
)
