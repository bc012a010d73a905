package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/convosim/config"
	"github.com/BaSui01/convosim/content"
)

// =============================================================================
// ✅ validate 命令
// =============================================================================

func newValidateCommand() *cobra.Command {
	var (
		watch        bool
		pollInterval time.Duration
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "validate <pack>...",
		Short: "Validate and compile content packs",
		Example: `  convosim validate packs/demo.yaml
  convosim validate packs/*.yaml --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := validatePacks(out, args)
			if !watch {
				if failed > 0 {
					return fmt.Errorf("%d of %d packs invalid", failed, len(args))
				}
				return nil
			}

			logCfg := config.DefaultLogConfig()
			logCfg.Level = logLevel
			logger := initLogger(logCfg)
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchPacks(ctx, out, args, pollInterval, logger)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-validate whenever a pack file changes")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", time.Second, "How often watched files are checked")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level while watching")
	return cmd
}

// validatePacks 校验每个文件并输出结果，返回失败数量
func validatePacks(out io.Writer, paths []string) int {
	failed := 0
	for _, path := range paths {
		if err := validatePack(path); err != nil {
			failed++
			fmt.Fprintf(out, "%s: FAIL\n  %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "%s: ok\n", path)
	}
	return failed
}

// validatePack 解析、校验并编译内容包
func validatePack(path string) error {
	pack, err := content.LoadFile(path)
	if err != nil {
		return err
	}
	_, err = pack.Compile()
	return err
}

// watchPacks 在文件变更时重新校验，直到 ctx 结束
func watchPacks(ctx context.Context, out io.Writer, paths []string, poll time.Duration, logger *zap.Logger) error {
	watcher, err := config.NewFileWatcher(paths,
		config.WithPollInterval(poll),
		config.WithWatcherLogger(logger))
	if err != nil {
		return err
	}

	events := make(chan config.FileEvent, 16)
	watcher.OnChange(func(ev config.FileEvent) {
		select {
		case events <- ev:
		default:
			logger.Warn("dropping file event", zap.String("path", ev.Path))
		}
	})

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = watcher.Stop() }()

	fmt.Fprintf(out, "watching %d pack(s), press Ctrl+C to stop\n", len(paths))
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case ev := <-events:
			if ev.Op == config.FileOpRemove {
				fmt.Fprintf(out, "%s: removed\n", ev.Path)
				continue
			}
			validatePacks(out, []string{ev.Path})
		}
	}
}
