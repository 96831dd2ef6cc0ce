package logjam

import "fmt"

// Record bundles a presence bitmap with the live values of one catalog.
// It keeps sticky values: Reset only clears presence.
//
// A Record is not safe for concurrent use.
type Record struct {
	codec  *Codec
	bitmap Bitmap
	data   []byte
}

// NewRecord returns a zeroed record for the codec's catalog.
func NewRecord(codec *Codec) *Record {
	return &Record{
		codec:  codec,
		bitmap: codec.NewBitmap(),
		data:   codec.NewData(),
	}
}

// Codec returns the codec backing the record.
func (r *Record) Codec() *Codec {
	return r.codec
}

// Bitmap returns the live presence bitmap.
func (r *Record) Bitmap() Bitmap {
	return r.bitmap
}

// Data returns the live data record.
func (r *Record) Data() []byte {
	return r.data
}

// Initialize zeroes both the values and the presence bitmap.
func (r *Record) Initialize() {
	r.bitmap.Reset()
	for i := range r.data {
		r.data[i] = 0
	}
}

// Reset marks every field as already sent, e.g. after writing to storage.
func (r *Record) Reset() {
	r.codec.ResetBitmap(r.bitmap)
}

// Size returns the number of bytes Encode would currently produce.
func (r *Record) Size() int {
	return r.codec.cat.bitmapBytes + r.codec.SelectionByteCount(r.bitmap)
}

// Pending reports whether any field is waiting to be sent.
func (r *Record) Pending() bool {
	return r.bitmap.Count() > 0
}

// Present reports whether the named field holds a new value.
func (r *Record) Present(name string) (bool, error) {
	f, err := r.codec.cat.Lookup(name)
	if err != nil {
		return false, err
	}
	return r.codec.IsPresent(r.bitmap, f.Code), nil
}

// SetUint updates the named field. See Codec.UpdateUint.
func (r *Record) SetUint(name string, v uint64, skipUnchanged bool) (bool, error) {
	f, err := r.codec.cat.Lookup(name)
	if err != nil {
		return false, err
	}
	return r.codec.UpdateUint(r.data, r.bitmap, f.Code, v, skipUnchanged)
}

// SetInt updates the named field. See Codec.UpdateInt.
func (r *Record) SetInt(name string, v int64, skipUnchanged bool) (bool, error) {
	f, err := r.codec.cat.Lookup(name)
	if err != nil {
		return false, err
	}
	return r.codec.UpdateInt(r.data, r.bitmap, f.Code, v, skipUnchanged)
}

// Value returns the named field as a decimal string, honouring signedness.
func (r *Record) Value(name string) (string, error) {
	f, err := r.codec.cat.Lookup(name)
	if err != nil {
		return "", err
	}
	if f.Signed {
		v, err := r.codec.Int(r.data, f.Code)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", v), nil
	}
	v, err := r.codec.Uint(r.data, f.Code)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", v), nil
}

// Encode returns the selective copy of the record.
func (r *Record) Encode() ([]byte, error) {
	buf, _, err := r.codec.EncodeSelected(r.data, r.bitmap)
	return buf, err
}

// EncodeAll returns every value regardless of presence.
func (r *Record) EncodeAll() ([]byte, error) {
	return r.codec.EncodeAll(r.data)
}

// Decode applies a selective copy to the record. The decoded bitmap replaces
// the record's bitmap; fields not carried by buf keep their values.
func (r *Record) Decode(buf []byte) (int, error) {
	bitmap, n, err := r.codec.DecodeSelected(buf, r.data)
	if err != nil {
		return 0, err
	}
	copy(r.bitmap, bitmap)
	return n, nil
}
