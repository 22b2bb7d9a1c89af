// Command evie is the REPL and file-runner front end for the evie
// scripting language (spec §6 "CLI surface").
package main

import (
	"os"

	"github.com/mna/mainer"

	"github.com/evie-lang/evie/internal/eviecmd"
)

var (
	// placeholder values, replaced on build
	version   = "{v}" // must be N.N[.N]
	buildDate = "{d}" // must be YYYY-mm-DD
)

func main() {
	c := eviecmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
