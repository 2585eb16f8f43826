// Agrimesh is a voice and text chatbot for farmers that answers weather,
// mandi price, crop disease and crop planning questions.
//
// Usage:
//
//	agrimesh [serve] [--config /path/to/agrimesh.yaml]
//	agrimesh ask "What is the weather in Surat?"
package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/agrimesh/config"
	"github.com/hupe1980/agrimesh/logging"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:           "agrimesh",
	Short:         "Weather and agriculture chatbot server",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file (e.g. configs/agrimesh.yaml)")
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAskCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agrimesh: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads and validates the configuration and builds the logger
// writing to out.
func loadConfig(out *os.File) (*config.Config, *logging.StructuredLogger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	logger := config.NewLogger(cfg.Logging, out)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
