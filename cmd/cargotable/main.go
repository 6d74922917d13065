// Command cargotable converts a starbase cargo file between the flat list layout and
// the table layout grouped by resource.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rogue-datahub/atlasx/pkg/cargo"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "cargotable:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("cargotable", pflag.ContinueOnError)
	in := fs.StringP("in", "i", "", "cargo file to read, flat or table layout (required)")
	out := fs.StringP("out", "o", "", "file to write; stdout when empty")
	flat := fs.Bool("flat", false, "write the flat list layout instead of the table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("--in is required")
	}

	entries, err := cargo.Load(*in)
	if err != nil {
		return err
	}

	var doc any = cargo.ToTable(entries)
	if *flat {
		doc = entries
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if *out == "" {
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(*out, buf.Bytes(), 0o644)
}
