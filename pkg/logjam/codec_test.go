package logjam

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newMotorCodec(t *testing.T) *Codec {
	t.Helper()
	cat, err := Build("Motor", motorFields())
	if err != nil {
		t.Fatal(err)
	}
	return NewCodec(cat)
}

func TestEncodeSelected(t *testing.T) {
	var (
		assert = assert.New(t)
		codec  = newMotorCodec(t)
		data   = codec.NewData()
		bitmap = codec.NewBitmap()
	)

	t.Run("Both", func(t *testing.T) {
		changed, err := codec.UpdateUint(data, bitmap, 0, 1000, false)
		assert.NoError(err)
		assert.True(changed)
		changed, err = codec.UpdateInt(data, bitmap, 1, -5, false)
		assert.NoError(err)
		assert.True(changed)

		buf, n, err := codec.EncodeSelected(data, bitmap)
		assert.NoError(err)
		assert.Equal([]byte{0b00000011, 0xE8, 0x03, 0xFB}, buf)
		assert.Equal(4, n)

		out := codec.NewData()
		got, consumed, err := codec.DecodeSelected(buf, out)
		assert.NoError(err)
		assert.Equal(Bitmap{0b00000011}, got)
		assert.Equal(4, consumed)

		speed, err := codec.Uint(out, 0)
		assert.NoError(err)
		assert.Equal(uint64(1000), speed)
		temp, err := codec.Int(out, 1)
		assert.NoError(err)
		assert.Equal(int64(-5), temp)
	})

	t.Run("OnlyTemp", func(t *testing.T) {
		codec.ResetBitmap(bitmap)
		codec.SetPresent(bitmap, 1)
		assert.Equal(1, codec.SelectionByteCount(bitmap))

		buf, n, err := codec.EncodeSelected(data, bitmap)
		assert.NoError(err)
		assert.Equal([]byte{0b00000010, 0xFB}, buf)
		assert.Equal(2, n)

		// Fields absent from the buffer keep their previous value.
		out := codec.NewData()
		_, err = codec.UpdateUint(out, codec.NewBitmap(), 0, 42, false)
		assert.NoError(err)
		got, consumed, err := codec.DecodeSelected(buf, out)
		assert.NoError(err)
		assert.Equal(Bitmap{0b00000010}, got)
		assert.Equal(2, consumed)
		speed, _ := codec.Uint(out, 0)
		assert.Equal(uint64(42), speed)
	})

	t.Run("Nothing", func(t *testing.T) {
		codec.ResetBitmap(bitmap)
		buf, n, err := codec.EncodeSelected(data, bitmap)
		assert.NoError(err)
		assert.Equal([]byte{0}, buf)
		assert.Equal(1, n)
	})
}

func TestEmptyCatalog(t *testing.T) {
	assert := assert.New(t)

	cat, err := Build("Empty", nil)
	assert.NoError(err)
	codec := NewCodec(cat)

	buf, n, err := codec.EncodeSelected(codec.NewData(), codec.NewBitmap())
	assert.NoError(err)
	assert.Len(buf, 0)
	assert.Equal(0, n)

	bitmap, n, err := codec.DecodeSelected(nil, codec.NewData())
	assert.NoError(err)
	assert.Len(bitmap, 0)
	assert.Equal(0, n)

	all, err := codec.EncodeAll(codec.NewData())
	assert.NoError(err)
	assert.Len(all, 0)
}

func TestPresence(t *testing.T) {
	var (
		assert = assert.New(t)
		codec  = newMotorCodec(t)
		data   = codec.NewData()
		bitmap = codec.NewBitmap()
	)

	t.Run("UpdateMarksPresent", func(t *testing.T) {
		_, err := codec.UpdateUint(data, bitmap, 0, 7, false)
		assert.NoError(err)
		assert.True(codec.IsPresent(bitmap, 0))
		assert.False(codec.IsPresent(bitmap, 1))
	})

	t.Run("ResetKeepsValues", func(t *testing.T) {
		codec.ResetBitmap(bitmap)
		assert.False(codec.IsPresent(bitmap, 0))
		assert.False(codec.IsPresent(bitmap, 1))
		v, err := codec.Uint(data, 0)
		assert.NoError(err)
		assert.Equal(uint64(7), v)
	})

	t.Run("SkipUnchanged", func(t *testing.T) {
		changed, err := codec.UpdateUint(data, bitmap, 0, 7, true)
		assert.NoError(err)
		assert.False(changed)
		assert.False(codec.IsPresent(bitmap, 0))

		changed, err = codec.UpdateUint(data, bitmap, 0, 8, true)
		assert.NoError(err)
		assert.True(changed)
		assert.True(codec.IsPresent(bitmap, 0))

		codec.ResetBitmap(bitmap)
		changed, err = codec.UpdateUint(data, bitmap, 0, 8, true)
		assert.NoError(err)
		assert.False(changed)
		assert.False(codec.IsPresent(bitmap, 0))
	})

	t.Run("SkipUnchangedSigned", func(t *testing.T) {
		_, err := codec.UpdateInt(data, bitmap, 1, -5, false)
		assert.NoError(err)
		codec.ResetBitmap(bitmap)

		changed, err := codec.UpdateInt(data, bitmap, 1, -5, true)
		assert.NoError(err)
		assert.False(changed)
		assert.False(codec.IsPresent(bitmap, 1))
	})

	t.Run("ForcedWriteAlwaysMarks", func(t *testing.T) {
		changed, err := codec.UpdateUint(data, bitmap, 0, 8, false)
		assert.NoError(err)
		assert.True(changed)
		assert.True(codec.IsPresent(bitmap, 0))
	})

	t.Run("Clear", func(t *testing.T) {
		codec.ClearPresent(bitmap, 0)
		assert.False(codec.IsPresent(bitmap, 0))
	})

	t.Run("UnknownCodePanics", func(t *testing.T) {
		assert.Panics(func() { codec.SetPresent(bitmap, 5) })
	})
}

func TestUpdateErrors(t *testing.T) {
	var (
		assert = assert.New(t)
		codec  = newMotorCodec(t)
		data   = codec.NewData()
		bitmap = codec.NewBitmap()
	)

	_, err := codec.UpdateUint(data, bitmap, 0, 70000, false)
	assert.ErrorIs(err, ErrValueRange)

	_, err = codec.UpdateInt(data, bitmap, 1, -129, false)
	assert.ErrorIs(err, ErrValueRange)

	_, err = codec.UpdateInt(data, bitmap, 0, -1, false)
	assert.ErrorIs(err, ErrValueRange)

	_, err = codec.UpdateUint(data, bitmap, 1, 128, false)
	assert.ErrorIs(err, ErrValueRange)

	_, err = codec.UpdateUint(data, bitmap, 9, 1, false)
	assert.ErrorIs(err, ErrUnknownField)

	_, err = codec.UpdateUint(make([]byte, 2), bitmap, 0, 1, false)
	assert.ErrorIs(err, ErrSizeMismatch)

	_, err = codec.UpdateUint(data, Bitmap{}, 0, 1, false)
	assert.ErrorIs(err, ErrSizeMismatch)

	// A failed update leaves presence untouched.
	assert.Equal(0, bitmap.Count())
}

func TestEncodeErrors(t *testing.T) {
	var (
		assert = assert.New(t)
		codec  = newMotorCodec(t)
	)

	_, _, err := codec.EncodeSelected(make([]byte, 5), codec.NewBitmap())
	assert.ErrorIs(err, ErrSizeMismatch)

	_, _, err = codec.EncodeSelected(codec.NewData(), Bitmap{0, 0})
	assert.ErrorIs(err, ErrSizeMismatch)

	_, _, err = codec.EncodeSelected(codec.NewData(), Bitmap{0b00000100})
	assert.ErrorIs(err, ErrUnknownField)

	_, err = codec.EncodeAll(nil)
	assert.ErrorIs(err, ErrSizeMismatch)
}

func TestDecodeErrors(t *testing.T) {
	var (
		assert = assert.New(t)
		codec  = newMotorCodec(t)
		data   = codec.NewData()
	)

	_, _, err := codec.DecodeSelected(nil, data)
	assert.ErrorIs(err, ErrBufferTooShort)

	// Bitmap promises Speed and Temp (3 bytes) but only 2 follow.
	_, _, err = codec.DecodeSelected([]byte{0b11, 0xE8, 0x03}, data)
	assert.ErrorIs(err, ErrBufferTooShort)
	assert.Equal([]byte{0, 0, 0}, data, "no partial writes")

	_, _, err = codec.DecodeSelected([]byte{0b100}, data)
	assert.ErrorIs(err, ErrUnknownField)

	err = codec.DecodeAll([]byte{1, 2}, data)
	assert.ErrorIs(err, ErrBufferTooShort)

	err = codec.DecodeAll([]byte{1, 2, 3}, make([]byte, 1))
	assert.ErrorIs(err, ErrSizeMismatch)

	_, _, err = codec.DecodeSelected([]byte{0}, make([]byte, 1))
	assert.ErrorIs(err, ErrSizeMismatch)
}

// wideCatalog covers every width and signedness.
func wideCatalog(t *testing.T) *Codec {
	t.Helper()
	cat, err := Build("Wide", Sequential(0, []Field{
		{Name: "U8", Width: 1},
		{Name: "I8", Width: 1, Signed: true},
		{Name: "U16", Width: 2},
		{Name: "I16", Width: 2, Signed: true},
		{Name: "U32", Width: 4},
		{Name: "I32", Width: 4, Signed: true},
		{Name: "U64", Width: 8},
		{Name: "I64", Width: 8, Signed: true},
		{Name: "Flag", Width: 1},
	}))
	if err != nil {
		t.Fatal(err)
	}
	return NewCodec(cat)
}

type wideValues struct {
	u8, u16, u32, u64 uint64
	i8, i16, i32, i64 int64
}

func (w wideValues) apply(t *testing.T, codec *Codec, data []byte, bitmap Bitmap) {
	t.Helper()
	for code, v := range map[int]uint64{0: w.u8, 2: w.u16, 4: w.u32, 6: w.u64} {
		if _, err := codec.UpdateUint(data, bitmap, code, v, false); err != nil {
			t.Fatal(err)
		}
	}
	for code, v := range map[int]int64{1: w.i8, 3: w.i16, 5: w.i32, 7: w.i64} {
		if _, err := codec.UpdateInt(data, bitmap, code, v, false); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRoundTripExtremes(t *testing.T) {
	assert := assert.New(t)

	scenarios := map[string]wideValues{
		"Zero": {},
		"Max": {
			u8: math.MaxUint8, u16: math.MaxUint16, u32: math.MaxUint32, u64: math.MaxUint64,
			i8: math.MaxInt8, i16: math.MaxInt16, i32: math.MaxInt32, i64: math.MaxInt64,
		},
		"Min": {
			i8: math.MinInt8, i16: math.MinInt16, i32: math.MinInt32, i64: math.MinInt64,
		},
		"Mixed": {
			u8: 0xA5, u16: 0x1234, u32: 0xDEADBEEF, u64: 0x0102030405060708,
			i8: -1, i16: -300, i32: -70000, i64: -1 << 40,
		},
	}

	for name, w := range scenarios {
		t.Run(name, func(t *testing.T) {
			codec := wideCatalog(t)
			data, bitmap := codec.NewData(), codec.NewBitmap()
			w.apply(t, codec, data, bitmap)

			t.Run("All", func(t *testing.T) {
				buf, err := codec.EncodeAll(data)
				assert.NoError(err)
				assert.Len(buf, codec.Catalog().DataBytes())

				out := codec.NewData()
				assert.NoError(codec.DecodeAll(buf, out))
				assert.Equal(data, out)
			})

			t.Run("Selected", func(t *testing.T) {
				buf, n, err := codec.EncodeSelected(data, bitmap)
				assert.NoError(err)
				assert.Equal(codec.Catalog().BitmapBytes()+codec.SelectionByteCount(bitmap), n)

				out := codec.NewData()
				got, consumed, err := codec.DecodeSelected(buf, out)
				assert.NoError(err)
				assert.Equal(n, consumed)
				assert.Equal(bitmap, got)
				assert.Equal(data, out)
			})

			t.Run("Values", func(t *testing.T) {
				for code, want := range map[int]int64{1: w.i8, 3: w.i16, 5: w.i32, 7: w.i64} {
					got, err := codec.Int(data, code)
					assert.NoError(err)
					assert.Equal(want, got)
				}
				for code, want := range map[int]uint64{0: w.u8, 2: w.u16, 4: w.u32, 6: w.u64} {
					got, err := codec.Uint(data, code)
					assert.NoError(err)
					assert.Equal(want, got)
				}
			})
		})
	}
}

func TestRoundTripSubsets(t *testing.T) {
	assert := assert.New(t)

	codec := wideCatalog(t)
	data, bitmap := codec.NewData(), codec.NewBitmap()
	wideValues{u8: 1, i8: -2, u16: 3, i16: -4, u32: 5, i32: -6, u64: 7, i64: -8}.apply(t, codec, data, bitmap)

	// Every subset of the nine fields, with the 9th field spilling into
	// the second bitmap byte.
	for mask := 0; mask < 1<<9; mask++ {
		sel := codec.NewBitmap()
		for i := 0; i < 9; i++ {
			if mask&(1<<i) != 0 {
				sel.Set(i)
			}
		}

		buf, n, err := codec.EncodeSelected(data, sel)
		assert.NoError(err)
		assert.Equal(2+codec.SelectionByteCount(sel), n)

		out := codec.NewData()
		got, consumed, err := codec.DecodeSelected(buf, out)
		assert.NoError(err)
		assert.Equal(n, consumed)
		assert.Equal(sel, got)

		for i, f := range codec.Catalog().Fields() {
			off, _ := codec.Catalog().OffsetOf(f.Code)
			if sel.Has(i) {
				assert.Equal(data[off:off+f.Width], out[off:off+f.Width])
			} else {
				assert.Equal(make([]byte, f.Width), out[off:off+f.Width])
			}
		}
	}
}

func TestScaled(t *testing.T) {
	assert := assert.New(t)

	cat, err := Build("S", []Field{{Name: "Volts", Width: 2, Signed: true, Scale: 1000}})
	assert.NoError(err)
	codec := NewCodec(cat)
	data := codec.NewData()

	_, err = codec.UpdateInt(data, codec.NewBitmap(), 0, -3300, false)
	assert.NoError(err)

	v, err := codec.Scaled(data, 0)
	assert.NoError(err)
	assert.InDelta(-3.3, v, 1e-9)
}
