package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"notionrag/internal/chunker"
	"notionrag/internal/config"
	"notionrag/internal/domain"
	"notionrag/internal/embedding/openai"
	"notionrag/internal/index"
	"notionrag/internal/search"
	"notionrag/internal/service"
	"notionrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, pagesPath string
	var reindex bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/notionrag/config.yaml if not provided)")
	flag.StringVar(&pagesPath, "pages", "", "Path to a JSON export of pages to (re)index")
	flag.BoolVar(&reindex, "reindex", false, "Rebuild the index even if a snapshot exists")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	emb, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
		BatchSize: cfg.Embedder.BatchSize,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	store := index.NewStore(cfg.Snapshot.Path, logger)
	engine := search.NewEngine(emb, store)
	ch := chunker.NewWindowChunker(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	svc := service.New(ch, emb, store, engine, logger)

	loaded := false
	if !reindex {
		loaded = svc.Load()
	}
	if !loaded {
		if pagesPath == "" {
			fmt.Println("No index snapshot found. Provide a page export: notionrag -pages export.json")
			os.Exit(1)
		}
		pages, err := loadPages(pagesPath)
		if err != nil {
			log.Fatalf("failed to read pages: %v", err)
		}
		if err := svc.Rebuild(pages); err != nil {
			log.Fatalf("index build failed: %v", err)
		}
	}

	m := tui.New(svc, cfg.Search.TopK)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

func loadPages(path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pages []domain.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return pages, nil
}
