// Package main implements pmctl, a command-line client for the project
// service built on the same stores a UI would use.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnassefatheeth/pm-f-d/internal/app"
	"github.com/johnassefatheeth/pm-f-d/internal/config"
	"github.com/johnassefatheeth/pm-f-d/pkg/logger"
	pkgconfig "github.com/johnassefatheeth/pm-f-d/pkg/config"
)

var (
	configDir string
	configEnv string
	jsonOut   bool

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pmctl",
	Short: "Manage projects and milestones",
	Long: `pmctl talks to the project service through the client stores.

Configuration is read from <config-dir>/base.yaml and <config-dir>/<env>.yaml;
API_BASE_URL and API_TOKEN override the files.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "config", "directory holding base.yaml and <env>.yaml")
	rootCmd.PersistentFlags().StringVar(&configEnv, "env", pkgconfig.GetConfigEnv(), "config environment")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(milestonesCmd)
	rootCmd.AddCommand(tokenCmd)
}

func loadConfig() (*config.Client, error) {
	return config.LoadClient(configEnv, configDir)
}

// newApp builds the client container from the persistent flags. Callers
// must Close it.
func newApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
