package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"substrate/internal/scope"
	"substrate/internal/snapshots"
)

var sourceDocumentID string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Repair client-event staleness propagation outside the sync path",
}

var syncRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Re-run claim-staleness propagation for one source document",
	Long: `repair re-runs the staleness propagation a sync/events batch triggers on
evidence-snapshot amendment, for cases where it needs to be replayed
independently of a live client event (e.g. after a manual data fix). It never
retries the original client event — see the sync package for that path.`,
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
		if sourceDocumentID == "" {
			return fmt.Errorf("--source-document is required")
		}

		snaps := snapshots.NewService(s)
		staleIDs, err := snaps.StaleClaimsForChange(ctx, sc, sourceDocumentID)
		if err != nil {
			return err
		}
		if len(staleIDs) > 0 {
			if err := snaps.MarkClaimsStale(ctx, staleIDs, ""); err != nil {
				return err
			}
		}
		logger.Info("sync repair complete",
			zap.String("tenant", sc.TenantID),
			zap.String("graph", sc.GraphID),
			zap.String("source_document", sourceDocumentID),
			zap.Int("claims_marked_stale", len(staleIDs)),
		)
		return nil
	},
}

func init() {
	syncRepairCmd.Flags().StringVar(&sourceDocumentID, "source-document", "", "source document id to re-propagate staleness from (required)")
	syncCmd.AddCommand(syncRepairCmd)
}
