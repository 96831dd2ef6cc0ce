package logjam

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Field describes one declared variable of a logging record.
type Field struct {
	Name string `yaml:"name"`
	// Width in bytes: 1, 2, 4 or 8.
	Width  int  `yaml:"width"`
	Signed bool `yaml:"signed"`
	// Stored value = true value * Scale. Zero is treated as 1.
	Scale float64 `yaml:"scale,omitempty"`
	// Stable enum code. Never reassign once logs have been captured.
	Code    int    `yaml:"code"`
	Units   string `yaml:"units,omitempty"`
	Title   string `yaml:"title,omitempty"`
	Comment string `yaml:"comment,omitempty"`
}

// reservedNames collide with members of generated record structs.
var reservedNames = map[string]struct{}{
	"data": {},
	"name": {},
	"var":  {},
	"type": {},
}

var typeRe = regexp.MustCompile(`^(u?)int(8|16|32|64)$`)

// ParseType converts a primitive type string such as "uint16_t", "unsigned 16"
// or "signed_8" into a width in bytes and signedness.
func ParseType(s string) (int, bool, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	for _, r := range []string{"_t", "_", " "} {
		t = strings.ReplaceAll(t, r, "")
	}
	t = strings.Replace(t, "unsigned", "uint", 1)
	t = strings.Replace(t, "signed", "int", 1)

	m := typeRe.FindStringSubmatch(t)
	if m == nil {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	bits, _ := strconv.Atoi(m[2])
	return bits / 8, m[1] == "", nil
}

// TypeName returns the C primitive for the field, e.g. "int16_t".
func (f Field) TypeName() string {
	if f.Signed {
		return fmt.Sprintf("int%d_t", f.Width*8)
	}
	return fmt.Sprintf("uint%d_t", f.Width*8)
}

// DisplayTitle returns the human readable title, falling back to the name.
func (f Field) DisplayTitle() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

func (f Field) scale() float64 {
	if f.Scale == 0 {
		return 1
	}
	return f.Scale
}

// Scaled converts a stored value back to its true value.
func (f Field) Scaled(raw float64) float64 {
	return raw / f.scale()
}

// fits reports whether v can be stored in the field without truncation.
// v carries the two's complement bit pattern when the field is signed.
func (f Field) fits(v uint64, signed bool) bool {
	bits := uint(f.Width * 8)
	switch {
	case f.Signed && signed:
		if bits == 64 {
			return true
		}
		s := int64(v)
		return s >= -(1<<(bits-1)) && s < 1<<(bits-1)
	case f.Signed && !signed:
		return v < 1<<(bits-1)
	case !f.Signed && signed:
		if int64(v) < 0 {
			return false
		}
		fallthrough
	default:
		return bits == 64 || v < 1<<bits
	}
}

func validWidth(w int) bool {
	switch w {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

// Sequential returns a copy of fields with codes assigned base, base+1, ...
// in list order. This is the caller's allocation pass; Build never assigns.
func Sequential(base int, fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		f.Code = base + i
		out[i] = f
	}
	return out
}
