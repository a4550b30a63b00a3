package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/suitpredict/internal/bot"
	"github.com/ShayCichocki/suitpredict/internal/config"
	"github.com/ShayCichocki/suitpredict/internal/engine"
	"github.com/ShayCichocki/suitpredict/internal/jobs"
	"github.com/ShayCichocki/suitpredict/internal/notify"
	"github.com/ShayCichocki/suitpredict/internal/rules"
	"github.com/ShayCichocki/suitpredict/internal/server"
	"github.com/ShayCichocki/suitpredict/internal/state"
	"github.com/ShayCichocki/suitpredict/internal/version"
)

var serveDryRun bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server and the scheduler",
	Long: `Start the bot: listen for Telegram webhook updates, feed source channel
posts to the engine, and run the periodic relearn, report, session start
and daily reset jobs.

The bot token comes from BOT_TOKEN or telegram.token. When WEBHOOK_URL is
set the webhook is registered on startup.

With --dry-run, predictions and reports are logged instead of sent.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveDryRun, "dry-run", false, "Log outbound messages instead of sending them")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var client *notify.Client
	if !serveDryRun {
		token, err := config.GetBotToken(cfg)
		if err != nil {
			return err
		}
		if err := config.ValidateBotToken(token); err != nil {
			return err
		}
		client = notify.NewClient(notify.Config{
			Token:   token,
			APIURL:  cfg.Telegram.APIURL,
			Timeout: cfg.Telegram.Timeout,
		})
		log.Printf("[main] bot token %s (from %s)", config.MaskBotToken(token), config.GetBotTokenSource(cfg))
	}

	debug := openDebug(cfg)
	defer debug.Close()

	store, err := state.Open(storeOptions(cfg))
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer store.Close()

	var notifier engine.Notifier
	var replier bot.Replier
	if client != nil {
		notifier = notify.NewChannel(client, cfg.Telegram.PredictionChannel)
		replier = client
	} else {
		notifier = notify.NewLogNotifier(false)
	}

	eng, clock, err := newEngine(cfg, store, notifier, debug)
	if err != nil {
		return err
	}
	jc, err := jobsConfig(cfg, clock)
	if err != nil {
		return err
	}

	if cfg.Rules.StaticFile != "" && cfg.Rules.Watch {
		w, err := rules.Watch(cfg.Rules.StaticFile, func(t rules.Table) {
			eng.SetStaticTable(t)
		})
		if err != nil {
			log.Printf("[main] warning: static rules not watched: %v", err)
		} else {
			defer w.Close()
		}
	}

	b := bot.New(botConfig(cfg), eng, replier, debug)
	srv := server.New(server.Config{
		Addr:          cfg.Server.Addr(),
		WebhookSecret: cfg.Telegram.WebhookSecret,
	}, b, eng)
	sched := jobs.New(jc, eng)

	// Create context with cancellation for all workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[main] received shutdown signal")
		cancel()
	}()

	if err := srv.Start(); err != nil {
		return err
	}
	if client != nil && cfg.Telegram.WebhookURL != "" {
		url := webhookEndpoint(cfg.Telegram.WebhookURL)
		if err := client.SetWebhook(ctx, url, cfg.Telegram.WebhookSecret); err != nil {
			log.Printf("[main] warning: webhook registration failed: %v", err)
		} else {
			log.Printf("[main] webhook registered at %s", url)
		}
	}

	log.Printf("[main] suitpredict %s serving (session zone %s)", version.Get(), clock.Location())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("[main] stopped")
	return nil
}
