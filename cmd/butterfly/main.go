package main

import (
	"os"

	"github.com/butterflysecurity/butterfly-cli/internal/cmd"
)

func main() {
	if code := cmd.Execute(); code != cmd.ExitOK {
		os.Exit(int(code))
	}
}
