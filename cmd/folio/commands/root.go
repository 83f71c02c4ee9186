package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dnnweb/folio"
)

// version is set at build time via ldflags.
var version = "dev"

var configPath string

// Execute runs the folio command line.
func Execute() error {
	root := &cobra.Command{
		Use:           "folio",
		Short:         "Server-rendered portfolio site backed by a content API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", folio.EnvOr("FOLIO_CONFIG", ""),
		"YAML config file (env FOLIO_CONFIG); environment variables override it")

	root.AddCommand(serveCmd(), checkCmd(), initCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func loadConfig() (folio.SiteConfig, error) {
	return folio.LoadConfig(configPath)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the folio version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "folio %s\n", version)
		},
	}
}
