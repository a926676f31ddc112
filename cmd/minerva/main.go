package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/joho/godotenv"

	"minerva/internal/agent"
	"minerva/internal/config"
	"minerva/internal/conversation"
	"minerva/internal/graph"
	"minerva/internal/logger"
	"minerva/internal/memory"
	"minerva/internal/prompts"
	"minerva/internal/search"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	userID := flag.String("user", "local", "user id for this chat session")
	flag.Parse()

	// .env is optional; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config(cfg.Log)); err != nil {
		return err
	}

	ctx := context.Background()

	promptSet, err := prompts.LoadFile(cfg.Agent.PromptsFile)
	if err != nil {
		return err
	}

	userDB, err := memory.NewUserDB(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer userDB.Close()
	store := memory.NewStore(userDB)

	var repo conversation.Repository
	if cfg.Redis.URL != "" {
		repo, err = conversation.NewRedisRepository(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			return err
		}
	} else {
		logger.Warn().Msg("REDIS_URL not set, conversation logs are process-local")
		repo = conversation.NewMemoryRepository()
	}

	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	maxTokens := cfg.OpenAI.MaxTokens
	temperature := float32(cfg.OpenAI.Temperature)
	model, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return fmt.Errorf("error creating chat model: %w", err)
	}

	// Search engine and page extraction are external collaborators; until
	// one is wired in, search turns degrade to answers without grounding.
	engine, fetcher := search.Disabled()
	searcher := search.New(model, engine, fetcher, promptSet, search.Config{
		RetryCount:     cfg.Search.RetryCount,
		ResultCount:    cfg.Search.ResultCount,
		MinimumResults: cfg.Search.MinimumResults,
		RetryDelay:     cfg.Search.RetryDelay,
		FetchTimeout:   cfg.Search.FetchTimeout,
		LLMTimeout:     cfg.Agent.LLMTimeout,
	})

	g := graph.New(model, store, searcher, promptSet, graph.Config{
		HistoryLimit: cfg.Agent.HistoryLimit,
		LLMTimeout:   cfg.Agent.LLMTimeout,
		ChatDigest:   cfg.Agent.ChatDigest,
	})
	bot := agent.New(g, repo, store, promptSet, agent.Config{
		ResetKeyword: cfg.Agent.ResetKeyword,
	})

	fmt.Printf("Minerva ready (user %s). Say %q to reset. Ctrl-D to quit.\n",
		*userID, cfg.Agent.ResetKeyword)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		utterance := scanner.Text()
		if utterance == "" {
			continue
		}
		fmt.Println(bot.Ask(ctx, *userID, utterance))
	}
	return scanner.Err()
}
