// cmd/telehealthctl/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"telehealth-agent/internal/common/config"
	"telehealth-agent/internal/common/logger"
)

var (
	configPath string
	logLevel   string
	timeout    time.Duration

	// log is set by the root PersistentPreRunE.
	log logger.Logger = logger.NewNoOpLogger()
)

var rootCmd = &cobra.Command{
	Use:   "telehealthctl",
	Short: "Ask, evaluate and search the telehealth agent from the command line",
	Long: `telehealthctl runs the telehealth operations in-process against live PubMed.

Commands:
  ask       - answer one conversation turn with evaluation and retry
  evaluate  - score a response against a conversation and profile
  faq       - search PubMed and print synthesized FAQ entries
  registry  - list, validate or update the worker activity registry
  start     - start a telehealth-turn process instance on Zeebe
  sync-faqs - index the curated FAQ sheet into Elasticsearch`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logger.NewZapAdapter(logger.NewWithOutput(logLevel, "console", "stderr"))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(faqCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(syncFAQsCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
