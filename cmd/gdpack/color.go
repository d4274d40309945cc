package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed, color.Bold)
)

func init() {
	// fatih/color already checks this, but the CLI is also invoked from CI
	// runners that set TERM=dumb without clearing stdout's tty-ness, so
	// gdpack makes the check explicit rather than relying on the library
	// default.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}
