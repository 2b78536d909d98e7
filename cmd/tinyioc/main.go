package main

import (
	"os"

	"github.com/andriiyaremenko/tinyioc/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
