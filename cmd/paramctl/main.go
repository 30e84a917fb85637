package main

import (
	"os"

	"github.com/goliatone/go-params/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
