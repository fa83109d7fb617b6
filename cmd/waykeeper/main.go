package main

import (
	"os"

	"github.com/solatis/waykeeper/cmd/waykeeper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
