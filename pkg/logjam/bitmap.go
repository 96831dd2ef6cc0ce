package logjam

import "math/bits"

// Bitmap is a presence bitmap stored as an explicit byte array.
// Bit i lives in byte i/8 at position i%8, least significant bit first.
// The layout never depends on the host's bitfield packing.
type Bitmap []byte

// NewBitmap allocates a cleared bitmap large enough for n bits.
func NewBitmap(n int) Bitmap {
	return make(Bitmap, (n+7)/8)
}

func (b Bitmap) Set(i int) {
	b[i/8] |= 1 << (i % 8)
}

func (b Bitmap) Clear(i int) {
	b[i/8] &^= 1 << (i % 8)
}

func (b Bitmap) Has(i int) bool {
	return b[i/8]&(1<<(i%8)) != 0
}

// Reset clears every bit.
func (b Bitmap) Reset() {
	for i := range b {
		b[i] = 0
	}
}

// Count returns the number of set bits.
func (b Bitmap) Count() int {
	n := 0
	for _, x := range b {
		n += bits.OnesCount8(x)
	}
	return n
}
