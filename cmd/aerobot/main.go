package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	tele "gopkg.in/telebot.v4"

	"github.com/aerocl/aerobot/internal/bot"
	"github.com/aerocl/aerobot/internal/buildinfo"
	"github.com/aerocl/aerobot/internal/catalog"
	"github.com/aerocl/aerobot/internal/channel"
	"github.com/aerocl/aerobot/internal/composer"
	"github.com/aerocl/aerobot/internal/config"
	"github.com/aerocl/aerobot/internal/database"
	"github.com/aerocl/aerobot/internal/dispatch"
	"github.com/aerocl/aerobot/internal/funnel"
	"github.com/aerocl/aerobot/internal/logger"
	"github.com/aerocl/aerobot/internal/netutil"
	"github.com/aerocl/aerobot/internal/server"
	"github.com/aerocl/aerobot/internal/store"
	"github.com/aerocl/aerobot/internal/telegram"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("aerobot: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "path to config.yaml (defaults to $CONFIG_PATH or ./config.yaml)")
	flag.Parse()

	path := *cfgPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info(ctx, "app", "start",
		slog.String("status", "ok"),
		slog.String("env", cfg.App.Env),
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
	)

	// Sessions survive restarts only when the database is reachable. A dev
	// box without Postgres still gets a working bot on the in-memory store.
	var sessions store.SessionStore
	var orders store.OrderStore
	var leads store.LeadStore
	mem := store.NewMemory()
	if cfg.Database.Host != "" {
		if err := database.RunMigrations(cfg.Database); err != nil {
			return err
		}
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		sessions = store.NewResilient(pg)
		orders, leads = pg, pg
	} else {
		logger.Warn(ctx, "app", "store.memory",
			slog.String("status", "degraded"),
			slog.String("reason", "no database configured; sessions are volatile"),
		)
		sessions, orders, leads = mem, mem, mem
	}

	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	var comp composer.Composer = composer.Template{}
	if cfg.AI.APIKey != "" {
		gem, err := composer.NewGemini(ctx, cfg.AI, cat)
		if err != nil {
			logger.Warn(ctx, "app", "composer.init",
				slog.String("status", "degraded"),
				slog.String("err", err.Error()),
			)
		} else {
			defer gem.Close()
			comp = gem
		}
	}

	engine := bot.NewEngine(funnel.NewMachine(cat), sessions, orders, leads, comp, cfg.App.BaseURL)

	disp := dispatch.NewDispatcher(dispatch.Options{})
	defer disp.Close()

	var tgBot *tele.Bot
	if cfg.Telegram.Token != "" {
		tgBot, err = telegram.NewBot(cfg)
		if err != nil {
			return err
		}
	}
	tgAdapter := channel.NewTelegramAdapter(tgBot)

	metaAdapter := channel.NewMetaAdapter(cfg.Meta, netutil.BuildHTTPClient())
	webAdapter := channel.NewWebAdapter()

	srv := server.New(cfg, engine, disp, tgAdapter, metaAdapter, webAdapter, orders, leads)
	httpSrv := srv.HTTPServer()

	errCh := make(chan error, 2)
	go func() {
		logger.Info(ctx, "app", "http.listen",
			slog.String("status", "ok"),
			slog.String("addr", httpSrv.Addr),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if tgBot != nil && cfg.Telegram.RunMode == config.RunModeLongpoll {
		go func() {
			if err := telegram.RunLongpoll(ctx, cfg, tgBot, engine, disp, tgAdapter); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "app", "shutdown", slog.String("status", "ok"))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return httpSrv.Shutdown(shutdownCtx)
}
