package main

import (
	"os"

	"github.com/ocltools/clsum/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
