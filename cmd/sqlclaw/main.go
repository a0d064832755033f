package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sqlclaw/sqlclaw/internal/config"
	"github.com/sqlclaw/sqlclaw/internal/llm"
	. "github.com/sqlclaw/sqlclaw/internal/logging"
	"github.com/sqlclaw/sqlclaw/internal/schemaindex"
	"github.com/sqlclaw/sqlclaw/internal/session"
	"github.com/sqlclaw/sqlclaw/internal/workflow"
)

const version = "0.1.0"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("sqlclaw %s\n", version)
		return
	}

	configPath := flag.String("config", "", "path to sqlclaw.json (default ~/.sqlclaw/sqlclaw.json)")
	verbose := flag.Bool("v", false, "debug logging")
	user := flag.String("user", "", "optional user id recorded on the session")
	flag.Parse()

	level := LevelInfo
	if *verbose {
		level = LevelDebug
	}
	Init(&Config{Level: level, TimeFormat: "15:04:05"})

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: sqlclaw [-config path] [-v] [-user id] \"natural language question\"")
		os.Exit(2)
	}
	question := flag.Arg(0)

	L_info("sqlclaw %s starting", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		L_fatal("failed to load config: %v", err)
	}

	if _, err := os.Stat(cfg.Database.Path); err != nil {
		L_fatal("data source not found at %s (run seedb to create a sample database)", cfg.Database.Path)
	}

	db, err := sql.Open("sqlite3", cfg.Database.Path+"?mode=ro")
	if err != nil {
		L_fatal("failed to open data source: %v", err)
	}
	defer db.Close()

	provider, err := llm.NewProvider(cfg.LLM.Driver, llm.ProviderConfig{
		Driver:         cfg.LLM.Driver,
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		MaxTokens:      cfg.LLM.MaxTokens,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	})
	if err != nil {
		L_fatal("failed to create llm provider: %v", err)
	}

	index, err := schemaindex.NewManager(cfg.Index.Path, db, provider)
	if err != nil {
		L_fatal("failed to open schema index: %v", err)
	}
	defer index.Close()

	engine := workflow.NewEngine(provider, index, db)

	state := session.New(question)
	state.UserID = *user

	final, err := engine.Run(context.Background(), state)
	if err != nil {
		L_fatal("run failed: %v", err)
	}

	out, err := json.MarshalIndent(final, "", "  ")
	if err != nil {
		L_fatal("failed to render final state: %v", err)
	}
	fmt.Println(string(out))
}
