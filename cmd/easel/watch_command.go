package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"easel/internal/api"
	"easel/internal/channel"
	"easel/internal/job"
	"easel/internal/logging"
	"easel/internal/notifications"
	"easel/internal/queueview"
)

func newQueueWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the queue live until interrupted",
		Long: `Follow the queue live until interrupted.

The view refetches whenever the backend pushes a job update and redraws the
current page. Completion and failure notifications are sent via ntfy when a
topic is configured. Only one watch session may run at a time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			lockPath := filepath.Join(cfg.Logging.Dir, "easel-watch.lock")
			lock := flock.New(lockPath)
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire watch lock: %w", err)
			}
			if !locked {
				return errors.New("another easel watch session is already running")
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			events, err := ctx.channelClient()
			if err != nil {
				return err
			}
			if err := events.Connect(runCtx); err != nil {
				return fmt.Errorf("connect to channel: %w", err)
			}
			defer events.Close()

			view, err := ctx.queueView()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			redraw := func(page api.Page) {
				if colorize {
					fmt.Fprint(out, "\x1b[2J\x1b[H")
				}
				if len(page.Jobs) == 0 {
					fmt.Fprintln(out, "Queue is empty")
				} else {
					fmt.Fprintln(out, renderTable(queueTableHeaders, buildQueueRows(page.Jobs)))
					fmt.Fprintln(out, pageFooter(page))
				}
				fmt.Fprintln(out, "Watching queue (Ctrl+C to stop)")
			}
			queueview.WithOnUpdate(redraw)(view)

			notifier := notifications.NewService(cfg)
			watcher := newWatchNotifier(notifier, logger)
			sub, err := events.Subscribe(channel.ChannelQueue, watcher.handle)
			if err != nil {
				return fmt.Errorf("subscribe to queue events: %w", err)
			}
			defer sub.Unsubscribe()

			if err := view.Start(runCtx, events); err != nil {
				return err
			}
			defer view.Stop()

			<-runCtx.Done()
			watcher.summarize(context.Background())
			fmt.Fprintln(out, "Stopped watching")
			return nil
		},
	}
}

// watchNotifier tracks outcomes seen during a watch session and forwards
// them to the notification service.
type watchNotifier struct {
	notifier notifications.Service
	logger   *slog.Logger

	mu        sync.Mutex
	started   time.Time
	completed int
	failed    int
}

func newWatchNotifier(notifier notifications.Service, logger *slog.Logger) *watchNotifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &watchNotifier{
		notifier: notifier,
		logger:   logger,
		started:  time.Now(),
	}
}

func (w *watchNotifier) handle(envelope channel.Envelope) {
	var outcome job.Job
	switch envelope.Type {
	case channel.EventJobCompleted:
		if err := json.Unmarshal(envelope.Data, &outcome); err != nil {
			return
		}
		w.mu.Lock()
		w.completed++
		w.mu.Unlock()
		if err := w.notifier.NotifyJobCompleted(context.Background(), outcome); err != nil {
			w.logger.Warn("completion notification failed", slog.Any("error", err))
		}
	case channel.EventJobFailed:
		if err := json.Unmarshal(envelope.Data, &outcome); err != nil {
			return
		}
		w.mu.Lock()
		w.failed++
		w.mu.Unlock()
		if err := w.notifier.NotifyJobFailed(context.Background(), outcome); err != nil {
			w.logger.Warn("failure notification failed", slog.Any("error", err))
		}
	}
}

// summarize sends an end-of-session notification when the watch saw any
// outcomes.
func (w *watchNotifier) summarize(ctx context.Context) {
	w.mu.Lock()
	completed := w.completed
	failed := w.failed
	elapsed := time.Since(w.started)
	w.mu.Unlock()

	if completed == 0 && failed == 0 {
		return
	}
	if err := w.notifier.NotifyWatchSummary(ctx, completed, failed, elapsed); err != nil {
		w.logger.Warn("watch summary notification failed", slog.Any("error", err))
	}
}
