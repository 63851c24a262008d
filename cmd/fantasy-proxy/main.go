package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "fantasy-proxy",
		Short:   "Caching reverse proxy for the ESPN fantasy football API",
		Long:    "Serve fantasy league data through a read-through response cache, forwarding caller credentials upstream as cookies.",
		Version: version,
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
