// Package main provides the entry point for the groupsync CLI tool.
package main

import "github.com/teamdir/groupsync/cmd/groupsync/cmd"

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
