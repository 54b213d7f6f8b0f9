package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/jdelaire/goalbot/adapters/telegram_notifier"
	"github.com/jdelaire/goalbot/adapters/telegram_receiver"
	"github.com/jdelaire/goalbot/core"
	"github.com/jdelaire/goalbot/core/auth"
	"github.com/jdelaire/goalbot/core/ops"
	"github.com/jdelaire/goalbot/core/ratelimit"
	"github.com/jdelaire/goalbot/internal/goals"
	"github.com/jdelaire/goalbot/internal/httpapi"
	"github.com/jdelaire/goalbot/internal/keychain"
	"github.com/jdelaire/goalbot/internal/logutil"
	"github.com/jdelaire/goalbot/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot session loop, linking endpoint and reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runBot(ctx)
		},
	}

	cmd.Flags().String("http-addr", "127.0.0.1:8080", "Linking endpoint listen address (empty disables).")
	cmd.Flags().Bool("reminders", true, "Send the daily due-goal reminder.")
	_ = viper.BindPFlag("http.addr", cmd.Flags().Lookup("http-addr"))
	_ = viper.BindPFlag("reminders.enabled", cmd.Flags().Lookup("reminders"))

	return cmd
}

func runBot(ctx context.Context) error {
	logger, err := logutil.LoggerFromViper()
	if err != nil {
		return err
	}

	token, err := keychain.BotToken(viper.GetString("telegram.bot_token"))
	if err != nil {
		return err
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	baseURL := viper.GetString("telegram.base_url")
	sendTimeout := viper.GetDuration("telegram.send_timeout")
	sender := telegram_notifier.New(token).WithBaseURL(baseURL)
	fetcher := telegram_receiver.New(token, logger).WithBaseURL(baseURL)

	svc := goals.NewService(st)
	registry, err := ops.Default(svc)
	if err != nil {
		return fmt.Errorf("build command registry: %w", err)
	}

	handshake := core.NewHandshake(st, sender, logger).WithSendTimeout(sendTimeout)
	dispatcher := core.NewDispatcher(registry, sender, logger).
		WithTimeouts(viper.GetDuration("bot.op_timeout"), sendTimeout)
	loop := core.NewSessionLoop(fetcher, st, handshake, dispatcher, logger).
		WithPolling(viper.GetDuration("telegram.poll_timeout"), viper.GetDuration("telegram.error_backoff"))

	g, gctx := errgroup.WithContext(ctx)

	if addr := viper.GetString("http.addr"); addr != "" {
		linker := core.NewLinker(st, sender, logger).WithSendTimeout(sendTimeout)
		srv := httpapi.New(addr, auth.New(st), linker, ratelimit.New(), logger)
		if err := srv.Start(gctx); err != nil {
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown()
		})
	}

	g.Go(func() error {
		if err := loop.Start(gctx); err != nil {
			return fmt.Errorf("session loop: %w", err)
		}
		return nil
	})

	if viper.GetBool("reminders.enabled") {
		scheduler := goals.NewScheduler(svc, st, sendFunc(sender), viper.GetInt("reminders.hour"), logger)
		g.Go(func() error { return scheduler.Run(gctx) })
	}

	logger.Info("goalbot running",
		"driver", st.Driver(),
		"http_addr", viper.GetString("http.addr"),
		"reminders", viper.GetBool("reminders.enabled"),
	)

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logLevel := slog.LevelInfo
	if err != nil {
		logLevel = slog.LevelError
	}
	logger.Log(context.Background(), logLevel, "goalbot stopped", "error", err)
	return err
}

func sendFunc(sender core.Sender) goals.SendFunc {
	return func(ctx context.Context, chatID int64, text string) error {
		_, err := sender.SendText(ctx, chatID, text)
		return err
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			version, err := st.CurrentVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d (latest %d)\n", version, store.SchemaVersion)
			return nil
		},
	}
}
