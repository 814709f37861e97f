// Package main implements graphctl, the operator CLI for substrate: schema
// bootstrap, merge-candidate batch runs, and sync-repair — the maintenance
// operations spec §9 says must exist outside the request path.
//
// File index:
//   - main.go   - entry point, rootCmd, global flags, shared store/logger wiring
//   - schema.go - `graphctl schema init`
//   - merge.go  - `graphctl merge run`
//   - sync.go   - `graphctl sync repair`
//   - status.go - `graphctl status`
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"substrate/internal/appconfig"
	"substrate/internal/scope"
	"substrate/internal/store"
)

var (
	verbose  bool
	tenantID string
	graphID  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "graphctl",
	Short: "Operator CLI for the substrate graph engine",
	Long: `graphctl runs the maintenance operations the substrate API server never
runs on its own request path: schema bootstrap, merge-candidate generation,
and sync/staleness repair.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "", "tenant id (required by most subcommands)")
	rootCmd.PersistentFlags().StringVar(&graphID, "graph", "", "graph id; defaults to the tenant's active graph")

	rootCmd.AddCommand(schemaCmd, mergeCmd, syncCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore loads configuration and connects to the graph store, the setup
// every subcommand but `schema init` also needs a resolved scope for.
func openStore(ctx context.Context) (*store.Store, error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	s, err := store.New(ctx, cfg.StoreConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to graph store: %w", err)
	}
	return s, nil
}

// resolveScope requires --tenant and resolves --graph against it, falling
// back to the tenant's active graph when --graph is omitted.
func resolveScope(ctx context.Context, resolver *scope.Resolver) (scope.Context, error) {
	if tenantID == "" {
		return scope.Context{}, fmt.Errorf("--tenant is required")
	}
	if graphID != "" {
		return resolver.ResolveGraphContext(ctx, tenantID, graphID)
	}
	return resolver.ResolveActive(ctx, tenantID)
}
