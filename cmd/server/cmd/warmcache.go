package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wikirecon/reconcile/internal/config"
)

var warmCacheCmd = &cobra.Command{
	Use:   "warm-cache",
	Short: "Pre-populate the type-subclass-closure caches",
	Long: `Pre-fetch and cache the subclass closures the reconciliation engine
consults on every type-constrained query: the configured default type and
the avoid-class id. Running this before traffic arrives avoids paying the
graph-query latency on the service's first few requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWarmCache()
	},
}

func runWarmCache() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := config.NewLogger(cfg.Logging)

	wired, err := buildApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("wiring error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	targets := []string{cfg.Wikibase.DefaultTypeEntity, cfg.Wikibase.AvoidClassID}
	for _, qid := range targets {
		if qid == "" {
			continue
		}
		logger.Info().Str("qid", qid).Msg("warming subclass closure")
		if err := wired.types.WarmClosure(ctx, qid); err != nil {
			return fmt.Errorf("warm closure for %s: %w", qid, err)
		}
	}

	logger.Info().Msg("warming identifier property set")
	if err := wired.identSet.Warm(ctx); err != nil {
		return fmt.Errorf("warm identifier property set: %w", err)
	}

	logger.Info().Int("count", len(targets)).Msg("cache warm-up complete")
	return nil
}
