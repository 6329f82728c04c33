// Command shelf is a terminal client for the bookshelf API.
package main

import (
	"fmt"
	"os"

	"bookshelf/internal/platform/config"
)

func main() {
	config.LoadEnvFiles()
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "shelf:", err)
		os.Exit(1)
	}
}
