// Command alloyctl runs the alloy calculators and maintenance tasks from
// the shell.
package main

import (
	"fmt"
	"os"

	"github.com/mind-engage/mindengage-alloy/internal/config"
)

func main() {
	_ = config.LoadDotEnv()
	if err := newRootCmd(config.FromEnv()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
