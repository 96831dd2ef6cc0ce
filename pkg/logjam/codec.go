package logjam

import (
	"fmt"
)

// Codec implements the selective-field encoding for one catalog.
// It holds no mutable state; callers own the data record and presence bitmap
// and must serialise concurrent access to them.
type Codec struct {
	cat *Catalog
}

// NewCodec returns a codec for the given catalog.
func NewCodec(cat *Catalog) *Codec {
	return &Codec{cat: cat}
}

// Catalog returns the catalog the codec was built for.
func (c *Codec) Catalog() *Catalog {
	return c.cat
}

// NewData allocates a zeroed data record.
func (c *Codec) NewData() []byte {
	return make([]byte, c.cat.dataBytes)
}

// NewBitmap allocates a cleared presence bitmap.
func (c *Codec) NewBitmap() Bitmap {
	return make(Bitmap, c.cat.bitmapBytes)
}

func (c *Codec) checkData(data []byte) error {
	if len(data) != c.cat.dataBytes {
		return fmt.Errorf("%w: data record is %d bytes, catalog %q needs %d", ErrSizeMismatch, len(data), c.cat.name, c.cat.dataBytes)
	}
	return nil
}

func (c *Codec) checkBitmap(bitmap Bitmap) error {
	if len(bitmap) != c.cat.bitmapBytes {
		return fmt.Errorf("%w: bitmap is %d bytes, catalog %q needs %d", ErrSizeMismatch, len(bitmap), c.cat.name, c.cat.bitmapBytes)
	}
	return nil
}

// SetPresent marks the field as holding a new value.
// Panics if code is not part of the catalog.
func (c *Codec) SetPresent(bitmap Bitmap, code int) {
	bitmap.Set(c.cat.position(code))
}

// ClearPresent marks the field as already sent.
// Panics if code is not part of the catalog.
func (c *Codec) ClearPresent(bitmap Bitmap, code int) {
	bitmap.Clear(c.cat.position(code))
}

// IsPresent reports whether the field holds a value that is new since the
// last reset. Panics if code is not part of the catalog.
func (c *Codec) IsPresent(bitmap Bitmap, code int) bool {
	return bitmap.Has(c.cat.position(code))
}

// ResetBitmap marks every field as not yet sent. Values in the data record
// are left untouched.
func (c *Codec) ResetBitmap(bitmap Bitmap) {
	bitmap.Reset()
}

// UpdateUint stores v into the field and marks it present. When
// skipUnchanged is set and v equals the stored value nothing is written,
// the presence bit is left alone and changed is false.
func (c *Codec) UpdateUint(data []byte, bitmap Bitmap, code int, v uint64, skipUnchanged bool) (bool, error) {
	return c.update(data, bitmap, code, v, false, skipUnchanged)
}

// UpdateInt is UpdateUint for signed values.
func (c *Codec) UpdateInt(data []byte, bitmap Bitmap, code int, v int64, skipUnchanged bool) (bool, error) {
	return c.update(data, bitmap, code, uint64(v), true, skipUnchanged)
}

func (c *Codec) update(data []byte, bitmap Bitmap, code int, v uint64, signed, skipUnchanged bool) (bool, error) {
	if err := c.checkData(data); err != nil {
		return false, err
	}
	if err := c.checkBitmap(bitmap); err != nil {
		return false, err
	}

	i, ok := c.cat.byCode[code]
	if !ok {
		return false, fmt.Errorf("%w: code %d in %q", ErrUnknownField, code, c.cat.name)
	}
	f := c.cat.fields[i]
	if !f.fits(v, signed) {
		if signed {
			return false, fmt.Errorf("%w: %d does not fit %s %q", ErrValueRange, int64(v), f.TypeName(), f.Name)
		}
		return false, fmt.Errorf("%w: %d does not fit %s %q", ErrValueRange, v, f.TypeName(), f.Name)
	}

	off := c.cat.offsets[i]
	if skipUnchanged {
		cur, err := getRaw(data, off, f.Width)
		if err != nil {
			return false, err
		}
		if cur == truncate(v, f.Width) {
			return false, nil
		}
	}

	if err := putRaw(data, off, f.Width, v); err != nil {
		return false, err
	}
	bitmap.Set(i)
	return true, nil
}

func truncate(v uint64, width int) uint64 {
	if width == 8 {
		return v
	}
	return v & (1<<(uint(width)*8) - 1)
}

// Uint returns the stored value of an unsigned field, zero-extended.
func (c *Codec) Uint(data []byte, code int) (uint64, error) {
	f, off, err := c.locate(data, code)
	if err != nil {
		return 0, err
	}
	return getRaw(data, off, f.Width)
}

// Int returns the stored value of a field, sign-extended when the field is
// signed.
func (c *Codec) Int(data []byte, code int) (int64, error) {
	f, off, err := c.locate(data, code)
	if err != nil {
		return 0, err
	}
	raw, err := getRaw(data, off, f.Width)
	if err != nil {
		return 0, err
	}
	if f.Signed {
		return signExtend(raw, f.Width), nil
	}
	return int64(raw), nil
}

// Scaled returns the stored value divided by the field's scale.
func (c *Codec) Scaled(data []byte, code int) (float64, error) {
	f, off, err := c.locate(data, code)
	if err != nil {
		return 0, err
	}
	raw, err := getRaw(data, off, f.Width)
	if err != nil {
		return 0, err
	}
	if f.Signed {
		return f.Scaled(float64(signExtend(raw, f.Width))), nil
	}
	return f.Scaled(float64(raw)), nil
}

func (c *Codec) locate(data []byte, code int) (Field, int, error) {
	if err := c.checkData(data); err != nil {
		return Field{}, 0, err
	}
	i, ok := c.cat.byCode[code]
	if !ok {
		return Field{}, 0, fmt.Errorf("%w: code %d in %q", ErrUnknownField, code, c.cat.name)
	}
	return c.cat.fields[i], c.cat.offsets[i], nil
}

// SelectionByteCount returns the payload size of the fields marked present,
// excluding the bitmap prefix.
func (c *Codec) SelectionByteCount(bitmap Bitmap) int {
	n := 0
	for i, f := range c.cat.fields {
		if bitmap.Has(i) {
			n += f.Width
		}
	}
	return n
}

// EncodeAll copies every field, in catalog order, into a new buffer of
// exactly DataBytes() bytes. Presence is ignored.
func (c *Codec) EncodeAll(data []byte) ([]byte, error) {
	if err := c.checkData(data); err != nil {
		return nil, err
	}
	buf := make([]byte, c.cat.dataBytes)
	copy(buf, data)
	return buf, nil
}

// EncodeSelected writes a copy of the bitmap followed by every present field
// in catalog order. It returns the buffer and the number of bytes written,
// which is BitmapBytes() + SelectionByteCount(bitmap).
func (c *Codec) EncodeSelected(data []byte, bitmap Bitmap) ([]byte, int, error) {
	if err := c.checkData(data); err != nil {
		return nil, 0, err
	}
	if err := c.checkBitmap(bitmap); err != nil {
		return nil, 0, err
	}
	if err := c.checkPadding(bitmap); err != nil {
		return nil, 0, err
	}

	buf := make([]byte, c.cat.bitmapBytes+c.SelectionByteCount(bitmap))
	n := copy(buf, bitmap)
	for i, f := range c.cat.fields {
		if !bitmap.Has(i) {
			continue
		}
		off := c.cat.offsets[i]
		n += copy(buf[n:], data[off:off+f.Width])
	}
	return buf, n, nil
}

// DecodeAll is the inverse of EncodeAll.
func (c *Codec) DecodeAll(buf []byte, data []byte) error {
	if err := c.checkData(data); err != nil {
		return err
	}
	if len(buf) < c.cat.dataBytes {
		return fmt.Errorf("%w: have %d bytes, catalog %q needs %d", ErrBufferTooShort, len(buf), c.cat.name, c.cat.dataBytes)
	}
	copy(data, buf[:c.cat.dataBytes])
	return nil
}

// DecodeSelected reads the bitmap prefix from buf and then every field it
// flags, storing each into data at its offset. Fields whose bit is clear keep
// whatever data already held. It returns the decoded bitmap and the number of
// bytes consumed. data is not modified when an error is returned.
func (c *Codec) DecodeSelected(buf []byte, data []byte) (Bitmap, int, error) {
	if err := c.checkData(data); err != nil {
		return nil, 0, err
	}
	if len(buf) < c.cat.bitmapBytes {
		return nil, 0, fmt.Errorf("%w: have %d bytes, bitmap of %q needs %d", ErrBufferTooShort, len(buf), c.cat.name, c.cat.bitmapBytes)
	}

	bitmap := make(Bitmap, c.cat.bitmapBytes)
	n := copy(bitmap, buf)

	// Stray bits past the last field would otherwise survive a round trip.
	if err := c.checkPadding(bitmap); err != nil {
		return nil, 0, err
	}

	if need := n + c.SelectionByteCount(bitmap); len(buf) < need {
		return nil, 0, fmt.Errorf("%w: have %d bytes, selection of %q needs %d", ErrBufferTooShort, len(buf), c.cat.name, need)
	}

	for i, f := range c.cat.fields {
		if !bitmap.Has(i) {
			continue
		}
		off := c.cat.offsets[i]
		n += copy(data[off:off+f.Width], buf[n:n+f.Width])
	}
	return bitmap, n, nil
}

func (c *Codec) checkPadding(bitmap Bitmap) error {
	for i := c.cat.Len(); i < len(bitmap)*8; i++ {
		if bitmap.Has(i) {
			return fmt.Errorf("%w: bit %d set past the last field of %q", ErrUnknownField, i, c.cat.name)
		}
	}
	return nil
}
