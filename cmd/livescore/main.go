package main

import (
	"fmt"
	"os"

	"github.com/stryker/livescore/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "livescore: %v\n", err)
		os.Exit(1)
	}
}
