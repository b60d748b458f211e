package cli

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/bot"
	"fintrack/internal/log"
	"fintrack/internal/worker"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newBotCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.ValidateBot(); err != nil {
				return err
			}
			ctx, cancel := GracefulShutdown(cmd.Context(), a.logger)
			defer cancel()
			return a.runBot(ctx)
		},
	}
}

func (a *app) runBot(ctx context.Context) error {
	svc, err := a.newLedger(ctx, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			a.logger.Warn("Failed to close ledger service", log.FieldError, err)
		}
	}()

	backendCfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return err
	}
	sessions, err := backend.NewFactory(nil).CreateSessionStore(ctx, backendCfg)
	if err != nil {
		return err
	}
	if sessions.Cleanup != nil {
		defer func() {
			if err := sessions.Cleanup(); err != nil {
				a.logger.Warn("Failed to close session store", log.FieldError, err)
			}
		}()
	}

	dispatcher := bot.NewDispatcher(svc, sessions.Store, a.cfg.ChartDir)
	tg, err := bot.NewTelegram(bot.TelegramConfig{
		Token:       a.cfg.TelegramToken,
		PollTimeout: a.cfg.TelegramPollTimeout,
		RateLimit:   a.cfg.TelegramRateLimit,
	}, dispatcher)
	if err != nil {
		return err
	}

	var saver *worker.Autosaver
	if a.cfg.AutosaveSchedule != "" {
		if saver, err = worker.NewAutosaver(svc, a.cfg.DataFile, a.cfg.AutosaveSchedule); err != nil {
			return err
		}
		if err := saver.Start(ctx); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tg.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if saver != nil {
			return saver.Stop(stopCtx)
		}
		return svc.Export(stopCtx, a.cfg.DataFile)
	})

	a.logger.InfoContext(ctx, "Bot started",
		log.FieldPath, a.cfg.DataFile,
		"sessions", backendCfg.Type.String(),
		"autosave", a.cfg.AutosaveSchedule)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("Bot stopped gracefully")
	return nil
}
