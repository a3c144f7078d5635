package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ibhelm.app/agent/common/llm"
	"ibhelm.app/agent/common/logger"
	"ibhelm.app/agent/common/otel"
	"ibhelm.app/agent/core/config"
	"ibhelm.app/agent/core/db"
	"ibhelm.app/agent/internal/agent"
	"ibhelm.app/agent/internal/missive"
	"ibhelm.app/agent/internal/store"
	"ibhelm.app/agent/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	// Initialize OpenTelemetry before the logger so the otelslog bridge can
	// pick up the global provider.
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		slog.ErrorContext(ctx, "failed to setup telemetry", "error", err)
		os.Exit(1)
	}
	if telemetry != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := telemetry.Shutdown(shutdownCtx); err != nil {
				slog.ErrorContext(ctx, "telemetry shutdown failed", "error", err)
			}
		}()
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "ai agent starting",
		"env", cfg.Env,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"poll_interval", cfg.Agent.PollInterval.String())

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	stores := store.New(database.Pool())

	messaging := missive.NewClient(missive.Config{
		APIToken:  cfg.Missive.APIToken,
		BaseURL:   cfg.Missive.BaseURL,
		Username:  cfg.Missive.Username,
		AvatarURL: cfg.Missive.AvatarURL,
	})

	llmClient, err := llm.New(llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}

	contexts := agent.NewContextBuilder(stores)
	prompts := agent.PromptChain{
		agent.SettingsPrompt{Store: stores.Prompts},
		agent.StaticPrompt(agent.DefaultSystemPrompt),
	}
	processor := agent.NewProcessor(stores.Triggers, contexts, prompts, llmClient, messaging)

	w := worker.New(stores.Triggers, processor, worker.Config{
		PollInterval: cfg.Agent.PollInterval,
		ErrorBackoff: cfg.Agent.ErrorBackoff,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(runCtx)
		close(done)
	}()

	slog.InfoContext(ctx, "agent initialized and polling")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down agent...")

	// Let an in-flight trigger finish, but don't wait forever.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	go w.Stop()

	select {
	case <-done:
		slog.InfoContext(ctx, "agent shutdown complete")
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	}
}

const banner = `
██╗██████╗ ██╗  ██╗███████╗██╗     ███╗   ███╗     █████╗ ██╗
██║██╔══██╗██║  ██║██╔════╝██║     ████╗ ████║    ██╔══██╗██║
██║██████╔╝███████║█████╗  ██║     ██╔████╔██║    ███████║██║
██║██╔══██╗██╔══██║██╔══╝  ██║     ██║╚██╔╝██║    ██╔══██║██║
██║██████╔╝██║  ██║███████╗███████╗██║ ╚═╝ ██║    ██║  ██║██║
╚═╝╚═════╝ ╚═╝  ╚═╝╚══════╝╚══════╝╚═╝     ╚═╝    ╚═╝  ╚═╝╚═╝
`
