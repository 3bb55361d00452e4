package tabula_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/tabula"
	"github.com/hupe1980/tabula/buffer"
	"github.com/hupe1980/tabula/table"
)

// Example demonstrates building a row table and reading it column-wise.
func Example() {
	ctx := context.Background()
	tc, err := tabula.New()
	if err != nil {
		log.Fatal(err)
	}
	defer tc.Close()

	b, err := tc.NewBuilder(3)
	if err != nil {
		log.Fatal(err)
	}
	defer b.Close()
	_, _ = b.AddColumn(table.Int, "id")
	_, _ = b.AddColumn(table.String, "label")
	for i, label := range []string{"a", "b", "c"} {
		if err := b.AddRow(i+1, label); err != nil {
			log.Fatal(err)
		}
	}
	rows, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	cols, err := tc.ToColumnOriented(ctx, rows)
	if err != nil {
		log.Fatal(err)
	}
	defer cols.Close()

	seg, _ := cols.Column(1)
	for v, err := range seg.Values(ctx) {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Print(v, " ")
	}
	fmt.Println()
	// Output: a b c
}

// ExampleNewBuffer demonstrates a buffer spilling to the context's streams.
func ExampleNewBuffer() {
	tc, err := tabula.New(tabula.WithSpillThreshold(100))
	if err != nil {
		log.Fatal(err)
	}
	defer tc.Close()

	buf, err := tabula.NewBuffer(tc, buffer.Int64Codec{})
	if err != nil {
		log.Fatal(err)
	}
	for i := range int64(1000) {
		_ = buf.Add(i)
	}

	var sum int64
	_ = buf.Iterate(context.Background(), func(v int64) error {
		sum += v
		return nil
	})
	fmt.Println(buf.Size(), buf.Spilled(), sum)
	// Output: 1000 true 499500
}
