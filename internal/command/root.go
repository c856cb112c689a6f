// Package command holds the commute CLI. The root command prints help;
// sub-commands run the HTTP API, the availability consumer and a few
// operator utilities.
//
//	commute serve   [-c config.yaml]
//	commute consume [-c config.yaml]
//	commute zone "Electronic City phase 1"
//	commute eta --lat 12.97 --lng 77.59 --shift 09:00
//	commute token --subject ops@example.com
package command

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/commute-matching/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "commute",
	Short: "Driver matching and ETA planning for employee commutes",
	Long: `Driver matching and ETA planning for employee commutes.
It ranks available drivers against an employee pickup location,
classifies locations into commute zones, plans pickup times from
the shift start and assigns drivers to employees.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file path")
	rootCmd.AddCommand(serveCmd, consumeCmd, zoneCmd, etaCmd, tokenCmd)
}

// fixConfigPath falls back to the CONFIG_FILE environment variable.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	cfgPath = os.Getenv("CONFIG_FILE")
}

func loadConfig() (config.ServerConfig, error) {
	cfg, err := config.LoadServerConfig(cfgPath)
	if err != nil {
		return cfg, fmt.Errorf("config.LoadServerConfig(%q): %w", cfgPath, err)
	}
	return cfg, nil
}
