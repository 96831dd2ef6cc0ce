package logjam

// Layout is everything a rendering layer needs to emit struct definitions
// and size constants for one catalog.
type Layout struct {
	Name           string         `yaml:"name"`
	BitfieldStruct string         `yaml:"bitfield_struct"`
	DataStruct     string         `yaml:"data_struct"`
	BitmapBytes    int            `yaml:"bitmap_bytes"`
	DataBytes      int            `yaml:"data_bytes"`
	Defines        map[string]int `yaml:"defines"`
	Fields         []FieldLayout  `yaml:"fields"`
}

type FieldLayout struct {
	Name   string  `yaml:"name"`
	Enum   string  `yaml:"enum"`
	Type   string  `yaml:"type"`
	Code   int     `yaml:"code"`
	Bit    int     `yaml:"bit"`
	Offset int     `yaml:"offset"`
	Width  int     `yaml:"width"`
	Scale  float64 `yaml:"scale"`
	Units  string  `yaml:"units,omitempty"`
	Title  string  `yaml:"title"`
}

// Layout computes the rendering view of the catalog.
func (c *Catalog) Layout() Layout {
	n := NewNaming(c.name)
	l := Layout{
		Name:           c.name,
		BitfieldStruct: n.BitfieldStruct(),
		DataStruct:     n.DataStruct(),
		BitmapBytes:    c.bitmapBytes,
		DataBytes:      c.dataBytes,
		Defines: map[string]int{
			n.BitmapBytesDefine(): c.bitmapBytes,
			n.DataBytesDefine():   c.dataBytes,
		},
		Fields: make([]FieldLayout, 0, len(c.fields)),
	}
	for i, f := range c.fields {
		l.Fields = append(l.Fields, FieldLayout{
			Name:   f.Name,
			Enum:   n.Enum(KindVar, f.Name),
			Type:   f.TypeName(),
			Code:   f.Code,
			Bit:    i,
			Offset: c.offsets[i],
			Width:  f.Width,
			Scale:  f.scale(),
			Units:  f.Units,
			Title:  f.DisplayTitle(),
		})
	}
	return l
}
