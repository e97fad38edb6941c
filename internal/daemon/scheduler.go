package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/chat"
	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/dashboard"
)

// Job names.
const (
	jobStatusSync = "status-sync"
	jobChatPrune  = "chat-prune"
)

// jobConfig holds what the periodic jobs act on. Zero intervals disable a job.
type jobConfig struct {
	Board              *dashboard.Board
	Chat               *chat.Hub
	StatusSyncInterval time.Duration
	ChatIdleTimeout    time.Duration
	ChatPruneInterval  time.Duration
	Logger             *slog.Logger
}

// startScheduler registers the periodic jobs and starts them. ctx bounds every job run;
// the caller shuts the scheduler down.
func startScheduler(ctx context.Context, cfg jobConfig) (gocron.Scheduler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	if cfg.Board != nil && cfg.StatusSyncInterval > 0 {
		_, err = s.NewJob(
			gocron.DurationJob(cfg.StatusSyncInterval),
			gocron.NewTask(func() {
				if _, err := cfg.Board.TouchStatus(ctx); err != nil {
					logger.Warn("status sync failed", "err", err)
				}
			}),
			gocron.WithName(jobStatusSync),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("failed to create %s job: %w", jobStatusSync, err)
		}
	}

	if cfg.Chat != nil && cfg.ChatPruneInterval > 0 && cfg.ChatIdleTimeout > 0 {
		_, err = s.NewJob(
			gocron.DurationJob(cfg.ChatPruneInterval),
			gocron.NewTask(func() {
				if n := cfg.Chat.Prune(cfg.ChatIdleTimeout); n > 0 {
					logger.Info("pruned idle chat sessions", "count", n)
				}
			}),
			gocron.WithName(jobChatPrune),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("failed to create %s job: %w", jobChatPrune, err)
		}
	}

	s.Start()
	return s, nil
}
