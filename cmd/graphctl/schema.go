package main

import (
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the Neo4j constraint/index schema",
}

var schemaInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create uniqueness constraints, node keys, and indexes (idempotent)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close(ctx)

		if err := s.SchemaInit(ctx); err != nil {
			return err
		}
		logger.Info("schema bootstrap complete")
		return nil
	},
}

func init() {
	schemaCmd.AddCommand(schemaInitCmd)
}
