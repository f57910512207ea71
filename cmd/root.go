// Package cmd implements the registry command line.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DataWorksAI-com/MbtaWinter2026/internal/adapter/registryclient"
	"github.com/DataWorksAI-com/MbtaWinter2026/internal/config"
)

var (
	version = "dev"
	cfgFile string
	cfg     *config.Config
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "registry",
	Short: "Agent registry server and client",
	Long: `An agent registry: agents register their endpoints, announce liveness and
capabilities, and clients resolve agent ids or aliases to endpoints.

Run without a subcommand to start the server.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("registry-url", "",
		"registry base URL used by client commands (default http://localhost:6900)")

	// Bind flags to viper
	_ = v.BindPFlag("registry.url", rootCmd.PersistentFlags().Lookup("registry-url"))
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func newClient() *registryclient.Client {
	return registryclient.NewClient(cfg.Registry.URL, cfg.Registry.Timeout)
}

func printJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(ver string) {
	version = ver
	rootCmd.Version = ver
}
