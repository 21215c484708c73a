package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finchat-ai/finchat/rag/store"
)

func newResetGraphCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset-graph",
		Short: "Delete every node and relationship in the Neo4j database",
		Long: "Maintenance command that wipes the configured Neo4j database, " +
			"including the secondary vector index. The primary on-disk store " +
			"is left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Neo4jEnabled() {
				return fmt.Errorf("NEO4J_URI is not configured")
			}
			if !yes {
				return fmt.Errorf("refusing to wipe %s without --yes", cfg.Neo4jURI)
			}

			ctx := cmd.Context()
			s, err := store.NewNeo4jVectorStore(ctx, store.Neo4jConfig{
				URI:       cfg.Neo4jURI,
				User:      cfg.Neo4jUser,
				Password:  cfg.Neo4jPassword,
				Dimension: cfg.EmbeddingsDimension,
			})
			if err != nil {
				return fmt.Errorf("connect to neo4j: %w", err)
			}
			defer s.Close()

			if err := s.Wipe(ctx); err != nil {
				return fmt.Errorf("wipe graph: %w", err)
			}
			logger.Info("wiped all nodes and relationships at %s", cfg.Neo4jURI)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")
	return cmd
}
