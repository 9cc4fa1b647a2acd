package main

import (
	"fmt"
	"os"

	"github.com/harrison/pfind/internal/cmd"
)

func main() {
	rootCmd := cmd.NewSortedCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
