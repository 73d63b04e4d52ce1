package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/sprich/internal/ai"
	"github.com/felixgeelhaar/sprich/internal/config"
	"github.com/felixgeelhaar/sprich/internal/conversation"
	"github.com/felixgeelhaar/sprich/internal/daemon"
	"github.com/felixgeelhaar/sprich/internal/generator"
	"github.com/felixgeelhaar/sprich/internal/llm"
	"github.com/felixgeelhaar/sprich/internal/mcp"
	"github.com/felixgeelhaar/sprich/internal/session"
	"github.com/felixgeelhaar/sprich/internal/validator"
	"github.com/felixgeelhaar/sprich/internal/vocab"
)

const pidFileName = "sprichd.pid"

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	mcpMode := flag.Bool("mcp", false, "serve MCP tools on stdio instead of HTTP")
	flag.Parse()

	// .env is optional; environment wins over it either way
	_ = godotenv.Load()

	sprichDir, err := config.EnsureSprichDir()
	if err != nil {
		return fmt.Errorf("ensure sprich dir: %w", err)
	}

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	envCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load env config: %w", err)
	}
	envCfg.Overlay(cfg)

	logLevel := parseLogLevel(cfg.Daemon.LogLevel)
	logFile, err := setupLogging(sprichDir, logLevel, *mcpMode)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger := slog.Default()

	pidPath := filepath.Join(sprichDir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	// Lexicon store, seeded from CSV word lists on first start
	store, err := openLexicon(cfg, envCfg, sprichDir, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// LLM providers behind the resilience wrapper
	registry, err := setupLLMProviders(cfg, envCfg, logger)
	if err != nil {
		return fmt.Errorf("setup llm providers: %w", err)
	}
	provider, err := registry.Default()
	if err != nil {
		return fmt.Errorf("no usable llm provider: %w", err)
	}
	resilientCfg := llm.DefaultResilientConfig()
	resilientCfg.Logger = logger
	resilient := llm.NewResilientProvider(provider, resilientCfg)
	defer resilient.Close()

	client := ai.NewClient(resilient)
	manager := session.NewManager(
		session.NewStore(),
		generator.New(client, store, logger),
		validator.New(client, logger),
		conversation.New(client, logger),
		logger,
	)

	if *mcpMode {
		logger.Info("serving MCP tools on stdio", "provider", provider.Name())
		return mcp.NewServer(manager).ServeStdio(context.Background())
	}

	server := daemon.NewServer(cfg, manager)

	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		logger.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	if err := server.Start(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("daemon stopped")
	return nil
}

// openLexicon opens the vocabulary database and imports the CSV word lists
// when the store is still empty.
func openLexicon(cfg *config.LocalConfig, envCfg *config.Config, sprichDir string, logger *slog.Logger) (*vocab.Store, error) {
	dbPath := cfg.Lexicon.DBPath
	if dbPath == "" {
		dbPath = envCfg.VocabDBPath
	}
	if dbPath == "" {
		dbPath = filepath.Join(sprichDir, "lexicon", "vocab.db")
	}

	store, err := vocab.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}

	ctx := context.Background()
	count, err := store.Count(ctx, vocab.PartAny)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("count lexicon: %w", err)
	}
	if count > 0 {
		logger.Info("lexicon ready", "path", dbPath, "entries", count)
		return store, nil
	}

	verbsPath := cfg.Lexicon.VerbsCSV
	if verbsPath == "" {
		verbsPath = envCfg.VerbsCSVPath
	}
	nounsPath := cfg.Lexicon.NounsCSV
	if nounsPath == "" {
		nounsPath = envCfg.NounsCSVPath
	}

	imported := 0
	if n, err := importCSV(ctx, store.ImportVerbsCSV, verbsPath); err != nil {
		logger.Warn("verb list import failed", "path", verbsPath, "error", err)
	} else {
		imported += n
	}
	if n, err := importCSV(ctx, store.ImportNounsCSV, nounsPath); err != nil {
		logger.Warn("noun list import failed", "path", nounsPath, "error", err)
	} else {
		imported += n
	}

	if imported == 0 {
		store.Close()
		return nil, fmt.Errorf("lexicon empty and no word lists found (looked at %s, %s)", verbsPath, nounsPath)
	}

	logger.Info("lexicon seeded", "path", dbPath, "entries", imported)
	return store, nil
}

func importCSV(ctx context.Context, importFn func(context.Context, io.Reader) (int, error), path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return importFn(ctx, f)
}

// setupLLMProviders registers every enabled provider; env variables fill in
// API keys missing from secrets.yaml.
func setupLLMProviders(cfg *config.LocalConfig, envCfg *config.Config, logger *slog.Logger) (*llm.Registry, error) {
	registry := llm.NewRegistry()

	for name, providerCfg := range cfg.LLM.Providers {
		if !providerCfg.Enabled {
			continue
		}

		apiKey := providerCfg.APIKey
		if apiKey == "" && envCfg.LLMProvider == name {
			apiKey = envCfg.LLMAPIKey
		}

		switch name {
		case "claude":
			if apiKey == "" {
				logger.Debug("Claude provider enabled but no API key set")
				continue
			}
			registry.Register("claude", llm.NewClaudeProvider(llm.ClaudeConfig{
				APIKey: apiKey,
				Model:  providerCfg.Model,
			}))
			logger.Info("registered LLM provider", "name", "claude", "model", providerCfg.Model)

		case "openai":
			if apiKey == "" {
				logger.Debug("OpenAI provider enabled but no API key set")
				continue
			}
			registry.Register("openai", llm.NewOpenAIProvider(llm.OpenAIConfig{
				APIKey: apiKey,
				Model:  providerCfg.Model,
			}))
			logger.Info("registered LLM provider", "name", "openai", "model", providerCfg.Model)

		case "ollama":
			registry.Register("ollama", llm.NewOllamaProvider(llm.OllamaConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			}))
			logger.Info("registered LLM provider", "name", "ollama", "model", providerCfg.Model)
		}
	}

	if cfg.LLM.DefaultProvider != "" && cfg.LLM.DefaultProvider != "auto" {
		if err := registry.SetDefault(cfg.LLM.DefaultProvider); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogging writes JSON logs to ~/.sprich/logs and mirrors them to stderr
// for foreground mode. In MCP mode stdout carries the protocol, so stderr is
// the only console target either way.
func setupLogging(sprichDir string, level slog.Level, mcpMode bool) (*os.File, error) {
	logPath := filepath.Join(sprichDir, "logs", "sprichd.log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	handlers := []slog.Handler{
		slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}),
	}
	if !mcpMode {
		handlers = append(handlers,
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	slog.SetDefault(slog.New(&multiHandler{handlers: handlers}))
	return logFile, nil
}

func writePIDFile(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", pid)), 0644)
}

// multiHandler logs to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
