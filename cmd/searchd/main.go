package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seportal/searchd/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:          "searchd",
		Short:        "SE Portal semantic search service",
		Version:      fmt.Sprintf("%s (%s)", version.Version, version.Commit),
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newReindexCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
