package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/basehelp/basehelp/internal/analytics"
	"github.com/basehelp/basehelp/internal/config"
	"github.com/basehelp/basehelp/internal/llm"
	"github.com/basehelp/basehelp/internal/reply"
	"github.com/basehelp/basehelp/internal/server"
	"github.com/basehelp/basehelp/internal/slackbot"
	"github.com/basehelp/basehelp/internal/taskqueue"
	"github.com/basehelp/basehelp/internal/tenant"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the basehelp HTTP server",
	Run:   runServe,
}

// llmGenerator adapts the structured-answer call to the processor's
// Generator interface. It carries no retrieval context; deployments
// with a RAG pipeline substitute their own implementation here.
type llmGenerator struct {
	client *llm.Client
}

func (g llmGenerator) GenerateReply(ctx context.Context, _ *tenant.Tenant, _ *tenant.Profile, ev slackbot.InboundEvent) (reply.Generated, []reply.Source, error) {
	message, indexes, err := g.client.GenerateAnswer(ctx, ev.Text)
	if err != nil {
		return reply.Generated{}, nil, err
	}
	return reply.Generated{Message: message, UsedSourceIndexes: indexes}, nil, nil
}

func runServe(cmd *cobra.Command, args []string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := tenant.NewStore(cfg.Tenants.DBPath)
	if err != nil {
		fmt.Printf("Tenant store error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	tasksClient, err := taskqueue.NewCloudTasksClient(ctx)
	if err != nil {
		fmt.Printf("Cloud Tasks error: %v\n", err)
		os.Exit(1)
	}
	dispatcher, err := taskqueue.NewDispatcher(cfg.Tasks, cfg.Server.BaseURL, tasksClient)
	if err != nil {
		fmt.Printf("Dispatcher error: %v\n", err)
		os.Exit(1)
	}

	var recorder analytics.Recorder
	if brokers := cfg.Analytics.KafkaBrokerList(); len(brokers) > 0 {
		kr := analytics.NewKafkaRecorder(brokers, cfg.Analytics.Topic)
		defer kr.Close()
		recorder = kr
		slog.Info("reply mirror enabled", "topic", cfg.Analytics.Topic)
	}

	llmClient := llm.NewClient(cfg.LLM)
	processor := slackbot.NewProcessor(
		slackbot.NewReplyGate(llmClient),
		llmGenerator{client: llmClient},
		llmClient,
		store,
		slackbot.NewClient,
		reply.NewFormatter(cfg.Server.BaseURL),
		recorder,
	)

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.New(cfg.Slack.SigningSecret, dispatcher, processor, store, cfg.Tenants.RagieBaseURL).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("basehelp listening", "addr", cfg.Server.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
