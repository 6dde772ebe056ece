package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
	"github.com/squidvm/squid/errz"
)

var (
	red   = color.New(color.FgRed).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", red(err.Error()))
	os.Exit(int(errz.ExitCodeOf(err)))
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (a *app) outputJSON(v any) ([]byte, error) {
	if a.v.GetBool("no-color") || !isTerminal(a.stdout) {
		return json.MarshalIndent(v, "", "  ")
	}
	return prettyjson.Marshal(v)
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags(v *viper.Viper) {
	if v.GetBool("no-color") {
		color.NoColor = true
	}
}
