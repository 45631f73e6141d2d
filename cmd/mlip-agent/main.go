// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mlip-agent CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mlip-agent/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Keys

// geminiKey returns fallback when non-empty, else the key loaded from
// .secrets/, else "".
func geminiKey(fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets.Gemini
}

// rootCmd is the base command for the mlip-agent CLI.
var rootCmd = &cobra.Command{
	Use:   "mlip-agent",
	Short: "Research agent for MLIP experiment planning",
	Long: `mlip-agent turns a free-text materials simulation request into a
machine-executable experiment specification. A run parses the request,
canonicalizes it, retrieves prior-run memory, local documents, and arXiv
literature, judges novelty, and writes a spec JSON keyed by run id.

Use "run" for the full pipeline and "memory" to inspect the agent's
record of past runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s.Names) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Names)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mlip-agent.yaml or ~/.config/mlip-agent/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mlip-agent")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mlip-agent"))
		}
	}

	viper.SetEnvPrefix("MLIP_AGENT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
