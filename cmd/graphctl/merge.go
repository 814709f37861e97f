package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"substrate/internal/entities"
	"substrate/internal/scope"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Manage merge-candidate generation for duplicate-concept review",
}

var mergeRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate merge candidates for --tenant's graph and upsert them for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close(ctx)

		resolver := scope.NewResolver(s)
		sc, err := resolveScope(ctx, resolver)
		if err != nil {
			return err
		}

		ent := entities.NewService(s)
		// No embedder wired here: graphctl runs offline/batch, where hybrid
		// scoring degrading to string similarity alone is an acceptable
		// tradeoff against standing up an embedding client for a cron job.
		n, err := ent.GenerateMergeCandidates(ctx, sc, nil)
		if err != nil {
			return err
		}
		logger.Info("merge candidate run complete",
			zap.String("tenant", sc.TenantID),
			zap.String("graph", sc.GraphID),
			zap.Int("candidates", n),
		)
		return nil
	},
}

func init() {
	mergeCmd.AddCommand(mergeRunCmd)
}
