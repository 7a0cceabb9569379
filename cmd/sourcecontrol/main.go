package main

import (
	"fmt"
	"os"

	"github.com/utkarsh5026/sourcevault/cmd/ui"
)

var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
	CommitSHA = "unknown"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorMessage("error: "+err.Error()))
		os.Exit(1)
	}
}

func getBanner() string {
	return `
╔══════════════════════════════════════════════════════════╗
║                                                          ║
║   ███████╗ ██████╗ ██╗   ██╗██████╗  ██████╗███████╗     ║
║   ██╔════╝██╔═══██╗██║   ██║██╔══██╗██╔════╝██╔════╝     ║
║   ███████╗██║   ██║██║   ██║██████╔╝██║     █████╗       ║
║   ╚════██║██║   ██║██║   ██║██╔══██╗██║     ██╔══╝       ║
║   ███████║╚██████╔╝╚██████╔╝██║  ██║╚██████╗███████╗     ║
║   ╚══════╝ ╚═════╝  ╚═════╝ ╚═╝  ╚═╝ ╚═════╝╚══════╝     ║
║                  v a u l t                               ║
║                                                          ║
╚══════════════════════════════════════════════════════════╝

  📦 Content-addressed objects, a staging index and
     compare-and-swap references in one small engine

  Get started with: srcc init
  Inspect objects:  srcc cat-file -p HEAD
  Need help? Run:   srcc --help

`
}
