// Command reactor exercises the reactor event loop from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/joeycumines/go-reactor/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "reactor:", err)
		os.Exit(1)
	}
}
