package logjam

import (
	"fmt"
	"strings"

	"github.com/zerodha/logf"
)

/*
Catalog is the ordered, immutable list of fields for one logging record type.
Field order is fixed at construction and is canonical for both the bit
position in the presence bitmap and the byte position of each field inside
the data record and inside selective-copy buffers.

For a catalog of three fields A(2), B(1), C(4):

	bitmap: 1 byte, A=bit 0, B=bit 1, C=bit 2
	data:   | A(2) | B(1) | C(4) |  = 7 bytes
*/
type Catalog struct {
	name    string
	fields  []Field
	offsets []int
	byCode  map[int]int    // Enum code -> position.
	byName  map[string]int // Field name -> position.

	bitmapBytes int
	dataBytes   int

	lo logf.Logger
}

// Build validates the descriptors and lays them out in the order given.
// Enum codes must already be assigned; see Sequential.
func Build(name string, fields []Field, cfgs ...Config) (*Catalog, error) {
	opts, err := applyConfig(cfgs)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		name:    name,
		fields:  make([]Field, 0, len(fields)),
		offsets: make([]int, 0, len(fields)),
		byCode:  make(map[int]int, len(fields)),
		byName:  make(map[string]int, len(fields)),
		lo:      initLogger(opts),
	}

	offset := 0
	for i, f := range fields {
		if err := validateField(f); err != nil {
			return nil, err
		}
		if _, ok := c.byName[f.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, f.Name)
		}
		if j, ok := c.byCode[f.Code]; ok {
			return nil, fmt.Errorf("%w: %d used by %q and %q", ErrDuplicateEnumCode, f.Code, c.fields[j].Name, f.Name)
		}
		if f.Scale == 0 {
			f.Scale = 1
		}

		c.byName[f.Name] = i
		c.byCode[f.Code] = i
		c.fields = append(c.fields, f)
		c.offsets = append(c.offsets, offset)

		c.lo.Debug("laid out field", "catalog", name, "field", f.Name, "code", f.Code, "bit", i, "offset", offset, "width", f.Width)
		offset += f.Width
	}

	c.dataBytes = offset
	c.bitmapBytes = (len(c.fields) + 7) / 8

	c.lo.Debug("built catalog", "catalog", name, "fields", len(c.fields), "bitmap_bytes", c.bitmapBytes, "data_bytes", c.dataBytes)
	return c, nil
}

func validateField(f Field) error {
	if f.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if _, ok := reservedNames[strings.ToLower(f.Name)]; ok {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, f.Name)
	}
	if !validWidth(f.Width) {
		return fmt.Errorf("%w: %q has width %d", ErrInvalidWidth, f.Name, f.Width)
	}
	if f.Code < 0 {
		return fmt.Errorf("%w: %q has code %d", ErrInvalidCode, f.Name, f.Code)
	}
	if f.Scale < 0 {
		return fmt.Errorf("%w: %q has scale %v", ErrInvalidScale, f.Name, f.Scale)
	}
	return nil
}

// Name returns the record type identifier the catalog was built with.
func (c *Catalog) Name() string {
	return c.name
}

// Len returns the number of fields.
func (c *Catalog) Len() int {
	return len(c.fields)
}

// BitmapBytes returns ceil(Len() / 8).
func (c *Catalog) BitmapBytes() int {
	return c.bitmapBytes
}

// DataBytes returns the sum of all field widths.
func (c *Catalog) DataBytes() int {
	return c.dataBytes
}

// Fields returns a copy of the fields in catalog order.
func (c *Catalog) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// FieldAt returns the field with the given enum code.
func (c *Catalog) FieldAt(code int) (Field, error) {
	i, ok := c.byCode[code]
	if !ok {
		return Field{}, fmt.Errorf("%w: code %d in %q", ErrUnknownField, code, c.name)
	}
	return c.fields[i], nil
}

// Lookup returns the field with the given name. Names are case-sensitive.
func (c *Catalog) Lookup(name string) (Field, error) {
	i, ok := c.byName[name]
	if !ok {
		return Field{}, fmt.Errorf("%w: %q in %q", ErrUnknownField, name, c.name)
	}
	return c.fields[i], nil
}

// OffsetOf returns the byte offset of the field inside the data record.
func (c *Catalog) OffsetOf(code int) (int, error) {
	i, ok := c.byCode[code]
	if !ok {
		return 0, fmt.Errorf("%w: code %d in %q", ErrUnknownField, code, c.name)
	}
	return c.offsets[i], nil
}

// BitOf returns the presence bit index of the field. With codes assigned
// sequentially from zero this equals the enum code.
func (c *Catalog) BitOf(code int) (int, error) {
	i, ok := c.byCode[code]
	if !ok {
		return 0, fmt.Errorf("%w: code %d in %q", ErrUnknownField, code, c.name)
	}
	return i, nil
}

// position is BitOf for callers that treat an unknown code as a contract
// violation.
func (c *Catalog) position(code int) int {
	i, ok := c.byCode[code]
	if !ok {
		panic(fmt.Sprintf("logjam: code %d is not part of catalog %q", code, c.name))
	}
	return i
}
