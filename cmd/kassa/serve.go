package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/engine"
	"github.com/kassa-bot/kassa/internal/server"
	"github.com/kassa-bot/kassa/internal/storage"
	"github.com/kassa-bot/kassa/internal/telegram"
	"github.com/kassa-bot/kassa/internal/transcribe"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and the Telegram bot",
		Long: `Start the REST API and, when a Telegram token is configured, the
voice bot with the daily reminder. Both run until interrupted.`,
		RunE: runServe,
	}

	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().Int("port", 8080, "HTTP listen port")
	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	dbPath, err := databasePath()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	secret := viper.GetString("server.jwt_secret")
	if secret == "" {
		return fmt.Errorf("%w: server.jwt_secret (KASSA_SERVER_JWT_SECRET)", common.ErrMissingConfig)
	}

	srv, err := server.New(server.Config{
		Host:      viper.GetString("server.host"),
		Port:      viper.GetInt("server.port"),
		JWTSecret: secret,
		TokenTTL:  viper.GetDuration("server.token_ttl"),
	}, store)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	var reminder *telegram.Reminder
	if token := viper.GetString("telegram.token"); token != "" {
		eng := engine.New(store, engine.NewMemorySessionStore())

		transcriber := transcribe.NewWhisper(transcribe.Options{
			FFmpegPath:  viper.GetString("transcribe.ffmpeg"),
			WhisperPath: viper.GetString("transcribe.whisper"),
			ModelPath:   viper.GetString("transcribe.model"),
			Language:    viper.GetString("transcribe.language"),
		})

		bot, err := telegram.New(telegram.Config{
			Token: token,
			Debug: viper.GetBool("telegram.debug"),
		}, store, eng, transcriber)
		if err != nil {
			return fmt.Errorf("failed to create telegram bot: %w", err)
		}

		tz := viper.GetString("reminder.timezone")
		if tz == "" {
			tz = "Europe/Moscow"
		}
		at := viper.GetString("reminder.at")
		if at == "" {
			at = "17:00"
		}
		reminder, err = telegram.NewReminder(bot, tz, at)
		if err != nil {
			return fmt.Errorf("failed to schedule reminder: %w", err)
		}
		reminder.Start()

		go func() {
			if botErr := bot.Start(ctx); botErr != nil {
				slog.Error("telegram bot stopped", "error", botErr)
			}
		}()
	} else {
		slog.Warn("telegram.token not set, running API only")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if reminder != nil {
		reminder.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
