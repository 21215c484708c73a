// Command finchat runs the document QA service: an ingestion job, an
// HTTP chat front end, a terminal chat client, and graph maintenance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finchat-ai/finchat/config"
	"github.com/finchat-ai/finchat/log"
)

func main() {
	root := &cobra.Command{
		Use:           "finchat",
		Short:         "Retrieval-augmented chat over financial documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newIngestCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newResetGraphCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads and validates configuration and builds the logger.
func loadConfig() (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(cfg.LogLevel)
	log.SetDefault(logger)
	return cfg, logger, nil
}
