package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const defaultDebounce = 200 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate programs when the table or combo file changes",
		Long: `Evaluate programs once, then watch the input table and combo file and
evaluate again whenever either is written. Press Ctrl+C to stop.`,
		Example: `  evaltable watch -i data.csv -C programs.txt --format table`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return runWatch(cmd, cc, debounce)
		},
	}

	addEvalFlags(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "Delay before re-evaluating after a change")
	return cmd
}

// watchedFiles returns the local files whose changes trigger a re-run.
func watchedFiles(cc *CommandContext) ([]string, error) {
	var files []string
	switch cc.Cfg.Source.Type {
	case "", "csv", "sqlite", "duckdb":
		if cc.Cfg.Table == "" || cc.Cfg.Table == "-" {
			return nil, fmt.Errorf("watch needs a table file, not stdin\nHint: pass --table/-i")
		}
		files = append(files, cc.Cfg.Table)
	}
	if cc.Cfg.ComboFile != "" {
		files = append(files, cc.Cfg.ComboFile)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("nothing to watch: source %q has no local files and no combo file is set", cc.Cfg.Source.Type)
	}

	abs := make([]string, len(files))
	for i, f := range files {
		p, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		abs[i] = p
	}
	return abs, nil
}

func runWatch(cmd *cobra.Command, cc *CommandContext, debounce time.Duration) error {
	files, err := watchedFiles(cc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch parent directories so editors that replace files are still seen.
	names := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		names[f] = true
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	evaluate := func() {
		programs, err := loadPrograms(cc.Cfg)
		if err == nil {
			err = runEval(ctx, cc, programs, cmd.OutOrStdout())
		}
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}

	evaluate()
	cc.Logger.Info("watching for changes", slog.Any("files", files))

	match := func(ev fsnotify.Event) bool {
		if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
			return false
		}
		p, err := filepath.Abs(ev.Name)
		return err == nil && names[p]
	}
	debounceLoop(ctx, watcher.Events, watcher.Errors, match, debounce, evaluate, cc.Logger)
	return nil
}

// debounceLoop calls fn once events that satisfy match have stopped arriving
// for delay. It returns when ctx is done or either channel is closed.
func debounceLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	match func(fsnotify.Event) bool,
	delay time.Duration,
	fn func(),
	logger *slog.Logger,
) {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if !match(ev) {
				continue
			}
			logger.Debug("change detected", slog.String("file", ev.Name), slog.String("op", ev.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(delay)
			fire = timer.C

		case <-fire:
			fire = nil
			fn()

		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}
