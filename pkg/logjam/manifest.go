package logjam

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Manifest is the self-description stored alongside captured records so a
// reader can rebuild the exact catalog that produced them.
type Manifest struct {
	Name   string  `cbor:"name"`
	Fields []Field `cbor:"fields"`
}

// manifestEnc uses Core Deterministic Encoding so the same catalog always
// yields identical bytes.
var manifestEnc cbor.EncMode

func init() {
	var err error
	manifestEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("logjam: CBOR encoder initialization failed: " + err.Error())
	}
}

// Manifest encodes the catalog as CBOR.
func (c *Catalog) Manifest() ([]byte, error) {
	b, err := manifestEnc.Marshal(Manifest{Name: c.name, Fields: c.fields})
	if err != nil {
		return nil, fmt.Errorf("error encoding manifest: %w", err)
	}
	return b, nil
}

// FromManifest rebuilds a catalog from the output of Catalog.Manifest.
func FromManifest(b []byte, cfgs ...Config) (*Catalog, error) {
	var m Manifest
	if err := cbor.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("error decoding manifest: %w", err)
	}
	return Build(m.Name, m.Fields, cfgs...)
}
