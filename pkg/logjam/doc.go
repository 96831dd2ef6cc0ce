// Package logjam implements a selective-field binary encoding for logging
// records.
//
// A Catalog holds the ordered fields of one record type. A Codec uses it to
// track which fields hold new values in a presence Bitmap and to serialise
// only those fields:
//
//	| bitmap(ceil(n/8)) | present fields, catalog order, little-endian |
//
// Because the bitmap travels with the payload, a reader that knows the
// catalog can always tell which fields follow and how wide each one is.
//
// Basic usage:
//
//	cat, err := logjam.Build("Motor", logjam.Sequential(0, []logjam.Field{
//	    {Name: "Speed", Width: 2},
//	    {Name: "Temp", Width: 1, Signed: true},
//	}))
//	rec := logjam.NewRecord(logjam.NewCodec(cat))
//	rec.SetUint("Speed", 1000, true)
//	buf, err := rec.Encode()
//	rec.Reset()
package logjam
