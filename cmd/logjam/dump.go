package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mr-karan/logjam/internal/capture"
	"github.com/mr-karan/logjam/pkg/logjam"
)

// dump decodes every record frame of a capture file and writes one line per
// frame listing the fields it carried. Values are sticky across frames, the
// same way they are in the live record.
func dump(path string, w io.Writer) error {
	var (
		codec *logjam.Codec
		data  []byte
	)

	return capture.Scan(path, func(i int, frame []byte) error {
		if i == 0 {
			cat, err := logjam.FromManifest(frame)
			if err != nil {
				return fmt.Errorf("error reading manifest of %s: %w", path, err)
			}
			codec = logjam.NewCodec(cat)
			data = codec.NewData()
			fmt.Fprintf(w, "# %s: record %s, %d fields\n", path, cat.Name(), cat.Len())
			return nil
		}

		bitmap, _, err := codec.DecodeSelected(frame, data)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		parts := make([]string, 0, bitmap.Count())
		for _, f := range codec.Catalog().Fields() {
			if !codec.IsPresent(bitmap, f.Code) {
				continue
			}
			v, err := codec.Scaled(data, f.Code)
			if err != nil {
				return err
			}
			parts = append(parts, fmt.Sprintf("%s=%g%s", f.Name, v, f.Units))
		}
		fmt.Fprintf(w, "%d %s\n", i, strings.Join(parts, " "))
		return nil
	})
}
