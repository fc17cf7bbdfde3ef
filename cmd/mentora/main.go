package main

import (
	"fmt"
	"os"

	"github.com/mentora-ai/mentora/internal/cli"
	"github.com/mentora-ai/mentora/internal/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, s := range errors.GetSuggestions(err) {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", s)
		}
		os.Exit(1)
	}
}
