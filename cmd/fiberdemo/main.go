// Command fiberdemo runs the bounded-buffer producer/consumer workload on a
// fiber scheduler.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "fiberdemo",
		Usage: "Run producers and consumers as cooperative fibers",
		Commands: []*cli.Command{
			RunCommand(),
		},
		DefaultCommand: "run",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
