package logjam_test

import (
	"fmt"

	"github.com/mr-karan/logjam/pkg/logjam"
)

func Example() {
	cat, err := logjam.Build("Motor", logjam.Sequential(0, []logjam.Field{
		{Name: "Speed", Width: 2},
		{Name: "Temp", Width: 1, Signed: true},
	}))
	if err != nil {
		panic(err)
	}

	rec := logjam.NewRecord(logjam.NewCodec(cat))
	if _, err := rec.SetInt("Temp", -5, true); err != nil {
		panic(err)
	}

	buf, err := rec.Encode()
	if err != nil {
		panic(err)
	}
	fmt.Printf("% x\n", buf)

	// Output: 02 fb
}
