package main

import (
	"fmt"
	"os"

	"github.com/mattsolo1/svpipe/cmd"
	"github.com/mattsolo1/svpipe/internal/errs"
)

func main() {
	root := cmd.GetRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errs.ExitCode(err))
	}
}
