// Package telegram owns the Telegram bot lifecycle: building the bot client
// and, in development, running the long-polling loop that replaces webhooks.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/aerocl/aerobot/internal/bot"
	"github.com/aerocl/aerobot/internal/channel"
	"github.com/aerocl/aerobot/internal/config"
	"github.com/aerocl/aerobot/internal/dispatch"
	"github.com/aerocl/aerobot/internal/logger"
	"github.com/aerocl/aerobot/internal/netutil"
)

// NewBot builds the telebot client. A long poller is attached only in
// longpoll mode; in webhook mode the bot is used for sending alone and
// updates arrive through the HTTP front door.
func NewBot(cfg *config.Config) (*tele.Bot, error) {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Client: netutil.BuildHTTPClient(),
	}
	if cfg.Telegram.RunMode == config.RunModeLongpoll {
		timeoutSec := cfg.Telegram.LongPollTimeoutSeconds
		if timeoutSec <= 0 {
			timeoutSec = 10
		}
		settings.Poller = &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second}
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	return b, nil
}

// RunLongpoll drives the development polling loop until ctx is done. Any
// webhook left over from a previous deployment is removed first, otherwise
// Telegram refuses getUpdates.
func RunLongpoll(ctx context.Context, cfg *config.Config, b *tele.Bot, engine *bot.Engine, disp *dispatch.Dispatcher, adapter *channel.TelegramAdapter) error {
	if err := deleteWebhook(cfg.Telegram.Token, false); err != nil {
		logger.Warn(ctx, "telegram", "webhook.delete",
			slog.String("status", "error"),
			slog.String("err", err.Error()),
		)
	} else {
		logger.Info(ctx, "telegram", "webhook.delete",
			slog.String("status", "ok"),
			slog.String("mode", "longpoll"),
		)
	}

	b.Use(recoverMiddleware)
	b.Handle(tele.OnText, func(c tele.Context) error {
		msg := c.Message()
		if msg == nil || msg.Text == "" || msg.Chat == nil {
			return nil
		}
		in := channel.Inbound{
			Channel:   channel.Telegram,
			UserID:    strconv.FormatInt(msg.Chat.ID, 10),
			MessageID: strconv.Itoa(c.Update().ID),
			Text:      msg.Text,
		}

		hctx := logger.Background()
		out, err := engine.Handle(hctx, in)
		if err != nil {
			if !errors.Is(err, bot.ErrDuplicate) {
				logger.Error(hctx, "telegram", "message.process",
					slog.String("status", "error"),
					slog.String("user_id", in.UserID),
					slog.String("err", err.Error()),
				)
			}
			return nil
		}

		hctx = logger.WithMessageMeta(hctx, out.Channel, out.UserID)
		send := func() error { return adapter.Send(hctx, out) }
		if err := disp.Enqueue(hctx, out.Channel, "send.text", send); err != nil {
			if errors.Is(err, dispatch.ErrQueueFull) || errors.Is(err, dispatch.ErrQueueClosed) {
				return send()
			}
			return err
		}
		return nil
	})

	logger.Info(ctx, "telegram", "mode",
		slog.String("status", "ok"),
		slog.String("mode", "longpoll"),
	)

	runDone := make(chan struct{})
	go func() {
		b.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		b.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

// recoverMiddleware catches panics in handlers and prevents the polling loop
// from crashing.
func recoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(logger.Background(), "telegram", "panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}

func deleteWebhook(token string, dropPending bool) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	body := "drop_pending_updates=false"
	if dropPending {
		body = "drop_pending_updates=true"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
