package logjam

import (
	"encoding/binary"
	"fmt"
)

// All multi-byte values are packed little-endian regardless of the host's
// native word order. Pack and unpack never consult the host layout.
var order = binary.LittleEndian

func checkBounds(buf []byte, off, n int) error {
	if off < 0 || off+n > len(buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferTooShort, n, off, len(buf))
	}
	return nil
}

func PutUint8(buf []byte, off int, v uint8) error {
	if err := checkBounds(buf, off, 1); err != nil {
		return err
	}
	buf[off] = v
	return nil
}

func PutUint16(buf []byte, off int, v uint16) error {
	if err := checkBounds(buf, off, 2); err != nil {
		return err
	}
	order.PutUint16(buf[off:], v)
	return nil
}

func PutUint32(buf []byte, off int, v uint32) error {
	if err := checkBounds(buf, off, 4); err != nil {
		return err
	}
	order.PutUint32(buf[off:], v)
	return nil
}

func PutUint64(buf []byte, off int, v uint64) error {
	if err := checkBounds(buf, off, 8); err != nil {
		return err
	}
	order.PutUint64(buf[off:], v)
	return nil
}

// Signed values are packed as their two's complement bit pattern.

func PutInt8(buf []byte, off int, v int8) error   { return PutUint8(buf, off, uint8(v)) }
func PutInt16(buf []byte, off int, v int16) error { return PutUint16(buf, off, uint16(v)) }
func PutInt32(buf []byte, off int, v int32) error { return PutUint32(buf, off, uint32(v)) }
func PutInt64(buf []byte, off int, v int64) error { return PutUint64(buf, off, uint64(v)) }

func Uint8(buf []byte, off int) (uint8, error) {
	if err := checkBounds(buf, off, 1); err != nil {
		return 0, err
	}
	return buf[off], nil
}

func Uint16(buf []byte, off int) (uint16, error) {
	if err := checkBounds(buf, off, 2); err != nil {
		return 0, err
	}
	return order.Uint16(buf[off:]), nil
}

func Uint32(buf []byte, off int) (uint32, error) {
	if err := checkBounds(buf, off, 4); err != nil {
		return 0, err
	}
	return order.Uint32(buf[off:]), nil
}

func Uint64(buf []byte, off int) (uint64, error) {
	if err := checkBounds(buf, off, 8); err != nil {
		return 0, err
	}
	return order.Uint64(buf[off:]), nil
}

func Int8(buf []byte, off int) (int8, error) {
	v, err := Uint8(buf, off)
	return int8(v), err
}

func Int16(buf []byte, off int) (int16, error) {
	v, err := Uint16(buf, off)
	return int16(v), err
}

func Int32(buf []byte, off int) (int32, error) {
	v, err := Uint32(buf, off)
	return int32(v), err
}

func Int64(buf []byte, off int) (int64, error) {
	v, err := Uint64(buf, off)
	return int64(v), err
}

// putRaw writes the low width bytes of v at off.
func putRaw(buf []byte, off, width int, v uint64) error {
	switch width {
	case 1:
		return PutUint8(buf, off, uint8(v))
	case 2:
		return PutUint16(buf, off, uint16(v))
	case 4:
		return PutUint32(buf, off, uint32(v))
	case 8:
		return PutUint64(buf, off, v)
	}
	return fmt.Errorf("%w: %d", ErrInvalidWidth, width)
}

// getRaw reads width bytes at off, zero-extended to 64 bits.
func getRaw(buf []byte, off, width int) (uint64, error) {
	switch width {
	case 1:
		v, err := Uint8(buf, off)
		return uint64(v), err
	case 2:
		v, err := Uint16(buf, off)
		return uint64(v), err
	case 4:
		v, err := Uint32(buf, off)
		return uint64(v), err
	case 8:
		return Uint64(buf, off)
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
}

// signExtend interprets the low width bytes of raw as a two's complement
// integer.
func signExtend(raw uint64, width int) int64 {
	shift := uint(64 - 8*width)
	return int64(raw<<shift) >> shift
}
