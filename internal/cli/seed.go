package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/wapanel/internal/cache"
	"github.com/sakif/wapanel/internal/config"
	"github.com/sakif/wapanel/internal/repository/sqlite"
	"github.com/sakif/wapanel/internal/service"
)

func newSeedCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the built-in system templates",
		Long: `Insert every built-in system template that is not stored yet.
Existing system templates are left untouched, so running seed twice is safe.
When REDIS_ADDR is set the cached system listing is invalidated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if owner == "" {
				owner = cfg.SystemOwnerTag
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			if cfg.DBPath != ":memory:" {
				if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
					return fmt.Errorf("creating database directory: %w", err)
				}
			}
			db, err := sqlite.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			opts := service.Options{MissingOptional: cfg.MissingOptional}
			if cfg.CacheEnabled() {
				dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				c, err := cache.Connect(dialCtx, cache.Options{
					Addr:     cfg.RedisAddr,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
					TTL:      cfg.CacheTTL,
				})
				cancel()
				if err != nil {
					logger.Warn("redis unavailable, cache not invalidated", slog.String("error", err.Error()))
				} else {
					defer c.Close()
					opts.Cache = c
				}
			}

			svc := service.NewTemplateService(db, logger, opts)
			inserted, err := svc.SeedSystemTemplates(ctx, owner)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d system template(s) into %s\n", inserted, cfg.DBPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner tag stored on system templates (default SYSTEM_OWNER_TAG)")
	return cmd
}
