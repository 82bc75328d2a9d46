// Command mdkeeper is the markdownkeeper CLI: ingest, query, watch,
// serve, and index a Markdown corpus over a single SQLite-backed
// Store. See internal/adapters/driving/cli for the command surface.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/adapters/driven/embedding/hashfallback"
	"github.com/markdownkeeper/markdownkeeper/internal/adapters/driven/embedding/model"
	"github.com/markdownkeeper/markdownkeeper/internal/adapters/driven/storage/sqlite"
	"github.com/markdownkeeper/markdownkeeper/internal/adapters/driven/vectorindex"
	"github.com/markdownkeeper/markdownkeeper/internal/adapters/driving/cli"
	"github.com/markdownkeeper/markdownkeeper/internal/config"
	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
	"github.com/markdownkeeper/markdownkeeper/internal/core/services"
	"github.com/markdownkeeper/markdownkeeper/internal/logger"
	"github.com/markdownkeeper/markdownkeeper/internal/markdown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run wires a concrete App from config and flags, then hands it to
// cli.Execute. --config, --db-path, and --verbose are read directly
// from args rather than through cobra, since the App must exist
// before rootCmd parses and dispatches a subcommand.
func run(args []string) int {
	cfgPath := flagValue(args, "--config")
	if cfgPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfgPath = filepath.Join(home, ".markdownkeeper", "config.toml")
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mdkeeper: loading config: %v\n", err)
		return 2
	}

	logger.SetVerbose(hasFlag(args, "--verbose"))

	dbPath := flagValue(args, "--db-path")
	if dbPath == "" {
		dbPath = cfg.Storage.DatabasePath
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mdkeeper: opening database: %v\n", err)
		return 2
	}
	defer store.Close()

	embedder := newEmbedder(cfg)
	defer embedder.Close()

	ctx := context.Background()

	vectorIndexPath := dbPath + ".vectors.json"
	vecIndex := vectorindex.New()
	if err := vecIndex.Load(ctx, vectorIndexPath); err != nil {
		logger.Debug("vector index: %v, starting empty", err)
	}

	schemaPolicy := markdown.SchemaPolicy{
		RequiredFields:   cfg.Metadata.RequiredFrontmatterFields,
		AutoFillCategory: cfg.Metadata.AutoFillCategory,
	}
	ingestor := services.NewIngestor(store.DocumentStore(), embedder).WithSchemaPolicy(schemaPolicy)
	queue := services.NewEventQueue(store.EventStore(), ingestor, services.DefaultDebounce, services.DefaultRetention)

	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	retriever := services.NewRetriever(store.DocumentStore(), store.CacheStore(), embedder, vecIndex, ttl)

	app := &cli.App{
		Docs:        store.DocumentStore(),
		Ingestor:    ingestor,
		Retriever:   retriever,
		Queue:       queue,
		Embedder:    embedder,
		VectorIndex: vecIndex,
		IndexPath:   vectorIndexPath,
		WatchState:  store.WatchStateStore(),
		ExecPath:    execPath(),
		ConfigPath:  cfgPath,
		PIDFile:     filepath.Join(filepath.Dir(dbPath), "mdkeeper.pid"),
	}

	code := cli.Execute(app, args)

	if err := vecIndex.Save(ctx, vectorIndexPath); err != nil {
		logger.Debug("vector index: saving: %v", err)
	}

	return code
}

func newEmbedder(cfg config.Config) driven.Embedder {
	if cfg.Embeddings.Backend == "hash-v1" || cfg.Embeddings.Backend == "" {
		return hashfallback.New(hashfallback.DefaultDimension)
	}

	backend := model.New(model.Config{Model: cfg.Embeddings.Model})
	if backend.Ping(context.Background()) != nil {
		logger.Debug("embedding model %q unreachable, falling back to hash-v1", cfg.Embeddings.Model)
		backend.Close()
		return hashfallback.New(hashfallback.DefaultDimension)
	}
	return backend
}

func execPath() string {
	p, err := os.Executable()
	if err != nil {
		return "mdkeeper"
	}
	return p
}

func flagValue(args []string, name string) string {
	for i, a := range args {
		if a == name && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(a, name+"=") {
			return strings.TrimPrefix(a, name+"=")
		}
	}
	return ""
}

func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name {
			return true
		}
	}
	return false
}
