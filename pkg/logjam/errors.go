package logjam

import "errors"

var (
	ErrDuplicateName     = errors.New("duplicate field name")
	ErrDuplicateEnumCode = errors.New("duplicate enum code")
	ErrInvalidWidth      = errors.New("invalid field width")
	ErrInvalidCode       = errors.New("invalid enum code")
	ErrInvalidName       = errors.New("invalid field name")
	ErrInvalidScale      = errors.New("scale must be positive")
	ErrUnknownField      = errors.New("unknown field")
	ErrUnknownEvent      = errors.New("unknown event")
	ErrBufferTooShort    = errors.New("buffer too short")
	ErrSizeMismatch      = errors.New("size mismatch")
	ErrValueRange        = errors.New("value out of range for field")
	ErrInvalidType       = errors.New("invalid type string")
)
