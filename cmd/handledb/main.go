// Command handledb inspects and edits handledb databases.
package main

import (
	"os"

	flags "github.com/jessevdk/go-flags"
)

func main() {
	parser := newParser()
	if _, err := parser.Parse(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
