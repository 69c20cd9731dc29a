// Command takeoffcsv exports takeoff reports from the command line,
// without running the web service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Autodesk-Forge/forge-takeoff.exchange.csv/internal/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:   "takeoffcsv",
		Short: "Export Autodesk Takeoff data as CSV or XLSX",
		Long: `takeoffcsv pulls takeoff packages from Autodesk Construction Cloud
and writes aggregated reports as CSV or XLSX files.

Credentials are read from FORGE_CLIENT_ID and FORGE_CLIENT_SECRET
(a .env file in the working directory also works).`,
		SilenceUsage: true,
	}

	root.AddCommand(newExportCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("takeoffcsv %s (built %s)\n", Version, BuildTime)
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Forge.ClientID == "" || cfg.Forge.ClientSecret == "" {
		return nil, fmt.Errorf("FORGE_CLIENT_ID and FORGE_CLIENT_SECRET must be set")
	}
	return cfg, nil
}
