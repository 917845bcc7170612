// Package main is the entry point for the lightx2vctl CLI.
package main

import "github.com/GACLove/ComfyUI-Lightx2vWrapper/cmd/lightx2vctl/cmd"

// Version information - set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Date = date
	cmd.Execute()
}
