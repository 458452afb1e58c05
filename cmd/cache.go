// File: cmd/cache.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/remedy/internal/cache"
	"github.com/xkilldash9x/remedy/internal/observability"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the validated-result cache",
	}

	cacheCmd.AddCommand(
		newCacheSubCmd("stats", "Print cache size and hit rate", func(ctx context.Context, rc *cache.ResultCache) (any, error) {
			return rc.Stats(ctx)
		}),
		newCacheSubCmd("clear", "Remove every cached result", func(ctx context.Context, rc *cache.ResultCache) (any, error) {
			if err := rc.Clear(ctx); err != nil {
				return nil, err
			}
			return map[string]bool{"cleared": true}, nil
		}),
		newCacheSubCmd("sweep", "Purge expired results", func(ctx context.Context, rc *cache.ResultCache) (any, error) {
			removed, err := rc.Sweep(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]int64{"removed": removed}, nil
		}),
	)
	return cacheCmd
}

func newCacheSubCmd(use, short string, run func(context.Context, *cache.ResultCache) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:         use,
		Short:       short,
		Args:        cobra.NoArgs,
		Annotations: stdoutData,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if !cfg.Cache().Enabled {
				return fmt.Errorf("result cache is disabled (cache.enabled)")
			}

			rc, err := cache.Open(ctx, cfg.Cache(), observability.GetLogger())
			if err != nil {
				return err
			}
			defer rc.Close()

			out, err := run(ctx, rc)
			if err != nil {
				return fmt.Errorf("cache %s failed: %w", use, err)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}
