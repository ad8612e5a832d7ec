package main

import (
	"os"

	"github.com/matzehuels/formulagraph/internal/cli"
	"github.com/matzehuels/formulagraph/pkg/buildinfo"
)

func main() {
	cli.SetVersion(buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
