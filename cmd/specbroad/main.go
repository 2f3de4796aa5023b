package main

import (
	"os"

	"specbroad/cmd/specbroad/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
