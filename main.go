package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"onboarding_bot/internal/bot"
	"onboarding_bot/internal/config"
	"onboarding_bot/internal/core"
	"onboarding_bot/internal/gateway"
	"onboarding_bot/internal/handoff"
	"onboarding_bot/internal/metrics"
	"onboarding_bot/internal/scheduler"
	"onboarding_bot/internal/storage"
	"onboarding_bot/src"
	"onboarding_bot/src/logger"
	"onboarding_bot/src/model"
	ledgers "onboarding_bot/src/storage"

	"github.com/cloudwego/eino/compose"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using the process environment")
	}

	cfg, err := src.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("Onboarding bot exited with an error")
	}
	logger.Info().Msg("Onboarding bot stopped")
}

func run(ctx context.Context, cfg *src.Config) error {
	questions, err := config.LoadCatalog(cfg.InterviewConfig.CatalogFile)
	if err != nil {
		return err
	}

	api := slack.New(
		cfg.SlackConfig.BotToken,
		slack.OptionAppLevelToken(cfg.SlackConfig.AppToken),
		slack.OptionDebug(cfg.SlackConfig.Debug),
	)
	auth, err := api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth test: %w", err)
	}
	logger.Info().Str("team", auth.Team).Str("bot_user", auth.UserID).Msg("Authenticated with Slack")

	gw := gateway.NewSlackGateway(api)

	prompter, err := gateway.NewPrompter(cfg.InterviewConfig.Renderer, gw)
	if err != nil {
		return err
	}

	medium, err := newMedium(ctx, cfg, gw)
	if err != nil {
		return err
	}
	notifier := handoff.NewNotifier(cfg.AdminConfig.UserID, medium, gw)

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)

	store := storage.NewMemorySessionStore(questions)
	machine := core.NewMachine(store, questions, prompter, notifier, core.WithObserver(recorder))

	sched := scheduler.New(ctx)
	defer sched.Stop()

	ledger, err := ledgers.NewLedger(ctx, cfg.RedisConfig)
	if err != nil {
		return err
	}
	defer ledger.Close()

	recorder.TrackGauges(store.Len, sched.Len)

	b, err := bot.New(bot.Config{
		AdminID:    cfg.AdminConfig.UserID,
		Delay:      cfg.InterviewDelay(),
		Renderer:   cfg.InterviewConfig.Renderer,
		JoinPolicy: cfg.InterviewConfig.JoinPolicy,
	}, bot.Deps{
		Machine:   machine,
		Catalog:   questions,
		Scheduler: sched,
		Ledger:    ledger,
		Sessions:  store,
		Gateway:   gw,
		Recorder:  recorder,
	})
	if err != nil {
		return err
	}

	if cfg.TestMode {
		logger.Warn().Dur("delay", cfg.InterviewDelay()).Msg("Test mode enabled, questionnaires start quickly")
	}
	logger.Info().
		Int("questions", questions.Size()).
		Str("renderer", prompter.Kind()).
		Str("handoff", medium.Name()).
		Str("join_policy", cfg.InterviewConfig.JoinPolicy).
		Dur("delay", cfg.InterviewDelay()).
		Msg("Onboarding bot starting")

	metricsServer := metrics.NewServer(cfg.MetricsConfig.Addr, prometheus.DefaultGatherer, ledgerHealth(ledger))
	client := socketmode.New(api, socketmode.OptionDebug(cfg.SlackConfig.Debug))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return metricsServer.Run(gctx)
	})
	g.Go(func() error {
		return b.Listen(gctx, client)
	})
	return g.Wait()
}

// newMedium picks how completed questionnaires reach the admin
func newMedium(ctx context.Context, cfg *src.Config, gw *gateway.SlackGateway) (handoff.Medium, error) {
	if cfg.InterviewConfig.Handoff != "document" {
		return handoff.NewTranscriptMedium(gw), nil
	}

	var summary compose.Runnable[model.Transcript, string]
	chatModel, err := handoff.NewChatModel(ctx, cfg.SummaryConfig)
	if err != nil {
		return nil, fmt.Errorf("create summary model: %w", err)
	}
	if chatModel != nil {
		summary, err = handoff.NewSummaryGraph(ctx, chatModel)
		if err != nil {
			return nil, err
		}
	}

	builder, err := handoff.NewContentBuilder(ctx, summary)
	if err != nil {
		return nil, err
	}

	docs, err := handoff.NewGoogleDocs(ctx, option.WithCredentialsFile(cfg.DocsConfig.CredentialsFile))
	if err != nil {
		return nil, err
	}

	return handoff.NewDocumentMedium(builder, docs, gw, cfg.AdminConfig.Email), nil
}

func ledgerHealth(ledger ledgers.JoinLedger) metrics.HealthCheck {
	pinger, ok := ledger.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return pinger.Ping
}
