package main

import (
	"context"
	"log"
	"os"

	"github.com/david/funding-advisor/internal/advisor"
	"github.com/david/funding-advisor/internal/ai"
	"github.com/david/funding-advisor/internal/api"
	"github.com/david/funding-advisor/internal/dataset"
	"github.com/david/funding-advisor/internal/live"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	ctx := context.Background()
	pool, err := dataset.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := dataset.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	aiClient := ai.NewClient(os.Getenv("OLLAMA_HOST"), os.Getenv("EMBED_MODEL"), os.Getenv("GEN_MODEL"))
	store := dataset.NewStore(pool)

	registry, err := live.LoadRegistry()
	if err != nil {
		log.Fatalf("Failed to load live source registry: %v", err)
	}

	pipeline := &advisor.Pipeline{
		Embedder:  aiClient,
		Retriever: store,
		Dataset:   store,
		Selector:  ai.NewSelector(aiClient),
		Enricher:  ai.NewEnricher(aiClient),
		Live:      live.NewSearcher(registry, live.NewCollyFetcher()),
		Namespace: os.Getenv("PROGRAM_NAMESPACE"),
	}

	srv := api.NewServer(pipeline, aiClient)
	log.Printf("Server starting on port %s...", port)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}
