package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/xhad/blogsearch/pkg/chunker"
	cfgPkg "github.com/xhad/blogsearch/pkg/config"
	"github.com/xhad/blogsearch/pkg/indexer"
	"github.com/xhad/blogsearch/pkg/llm"
	"github.com/xhad/blogsearch/pkg/search"
	"github.com/xhad/blogsearch/pkg/store"
	"github.com/xhad/blogsearch/pkg/tokenizer"
)

const usage = `usage: blogsearch [flags] <command>

commands:
  reindex          regenerate embeddings for every post
  search <query>   run a semantic search from the terminal
  serve            run the search API, event listener and worker

flags:
`

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var configPath string
	var dbURL string
	var provider string
	var addr string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&dbURL, "db-url", "", "PostgreSQL connection string (overrides config)")
	flag.StringVar(&provider, "provider", "", "Embedding provider: openai or ollama (overrides config)")
	flag.StringVar(&addr, "addr", "", "Listen address for serve (overrides config)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if provider != "" {
		cfg.Embedding.Provider = provider
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

// components bundles the wired pipeline shared by every command.
type components struct {
	embeddings *store.EmbeddingStore
	posts      *store.PostStore
	indexer    *indexer.Indexer
	search     *search.Service
}

func buildComponents(cfg *cfgPkg.Config) (*components, error) {
	codec, err := tokenizer.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokenizer: %v", err)
	}

	embedder, err := llm.NewWithConfig(llm.EmbedderConfig{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.APIKey(),
		Dimensions: cfg.Embedding.Dimensions,
		MaxTokens:  cfg.Embedding.MaxTokens,
		RateLimit:  cfg.Embedding.RateLimit,
	}, codec)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %v", err)
	}

	embeddings, err := store.NewWithConfig(store.EmbeddingStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
		Model:      cfg.Embedding.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %v", err)
	}

	posts, err := store.NewPostStore(store.PostStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.PostsTable,
	})
	if err != nil {
		embeddings.Close()
		return nil, fmt.Errorf("failed to initialize post store: %v", err)
	}

	ch := chunker.NewWithConfig(codec, chunker.ChunkerConfig{
		MaxTokens:     cfg.Chunker.MaxTokens,
		OverlapTokens: cfg.Chunker.OverlapTokens,
	})

	ix := indexer.NewWithConfig(indexer.IndexerConfig{
		MaxTokens: cfg.Embedding.MaxTokens,
	}, codec, ch, embedder, embeddings)

	svc := search.NewWithConfig(search.SearchConfig{
		DefaultLimit:  cfg.Search.DefaultLimit,
		MinSimilarity: cfg.Search.MinSimilarity,
	}, embedder, embeddings, posts)

	return &components{
		embeddings: embeddings,
		posts:      posts,
		indexer:    ix,
		search:     svc,
	}, nil
}

func (c *components) close() {
	c.embeddings.Close()
	c.posts.Close()
	tokenizer.Cleanup()
}

func run(cfg *cfgPkg.Config, args []string) error {
	comps, err := buildComponents(cfg)
	if err != nil {
		return err
	}
	defer comps.close()

	switch args[0] {
	case "reindex":
		return runReindex(comps)
	case "search":
		if len(args) < 2 {
			return fmt.Errorf("search requires a query argument")
		}
		return runSearch(comps, args[1])
	case "serve":
		return runServe(cfg, comps)
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}
