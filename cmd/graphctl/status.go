package main

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/cobra"

	"substrate/internal/scope"
	"substrate/internal/store"
	"substrate/pkg/observability"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report graph size for --tenant's graph",
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

		conceptCount, relCount, err := graphSize(ctx, s, sc.GraphID)
		if err != nil {
			return err
		}

		perf := observability.NewPerformanceMetrics(logger)
		perf.RecordGraphSize(sc.GraphID, conceptCount, relCount)
		stats := perf.GetSizeStats(sc.GraphID)

		fmt.Printf("graph %s: %d concepts, %d relationships\n", sc.GraphID, stats.CurrentConceptCount, stats.CurrentRelationshipCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// graphSize counts live concepts and relationships for graphID.
func graphSize(ctx context.Context, s *store.Store, graphID string) (concepts, relationships int, err error) {
	res, err := s.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (c:Concept {graph_id: $graph_id})
			WHERE coalesce(c.is_merged, false) = false
			OPTIONAL MATCH (c)-[r {graph_id: $graph_id}]-()
			RETURN count(DISTINCT c) AS concepts, count(DISTINCT r) AS relationships`,
			map[string]any{"graph_id": graphID})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		c, _ := record.Get("concepts")
		r, _ := record.Get("relationships")
		return [2]int64{c.(int64), r.(int64)}, nil
	})
	if err != nil {
		return 0, 0, err
	}
	counts := res.([2]int64)
	return int(counts[0]), int(counts[1]), nil
}
