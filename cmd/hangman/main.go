// cmd/hangman/main.go
package main

import (
	"os"

	"github.com/DylanRuth/ml-hangman/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
