package main

import (
	"os"

	"library-catalog/internal/commands"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	os.Exit(commands.Execute(Version))
}
