package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/david/funding-advisor/internal/ai"
	"github.com/david/funding-advisor/internal/dataset"
	"github.com/david/funding-advisor/internal/models"
)

func main() {
	path := flag.String("csv", "", "path to the program dataset CSV")
	namespace := flag.String("namespace", os.Getenv("PROGRAM_NAMESPACE"), "namespace to seed into")
	skipEmbed := flag.Bool("skip-embeddings", false, "insert rows without embeddings")
	flag.Parse()

	if *path == "" {
		log.Fatal("usage: seed -csv programs.csv [-namespace ...] [-skip-embeddings]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := dataset.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := dataset.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open CSV: %v", err)
	}
	defer f.Close()

	store := dataset.NewStore(pool)
	aiClient := ai.NewClient(os.Getenv("OLLAMA_HOST"), os.Getenv("EMBED_MODEL"), os.Getenv("GEN_MODEL"))

	inserted, skipped, err := seedFromCSV(ctx, f, store, aiClient, *namespace, *skipEmbed)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	total, err := store.Count(ctx)
	if err != nil {
		log.Fatalf("Count failed: %v", err)
	}
	log.Printf("Seed complete: %d inserted, %d skipped, %d total rows", inserted, skipped, total)
}

type embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// seedFromCSV reads header-mapped rows and inserts them one by one. Rows with
// no usable name or title are skipped; an embedding failure skips the row
// rather than aborting the run.
func seedFromCSV(ctx context.Context, r io.Reader, store *dataset.Store, embed embedder, namespace string, skipEmbed bool) (inserted, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return inserted, skipped, fmt.Errorf("line %d: %w", line, err)
		}

		p := programFromRecord(record, cols)
		if models.IsMissing(p.Name) && models.IsMissing(p.Title) {
			skipped++
			continue
		}

		var embedding []float32
		if !skipEmbed {
			embedding, err = embed.GenerateEmbedding(ctx, embeddingText(p))
			if err != nil {
				log.Printf("line %d: embedding failed, skipping row: %v", line, err)
				skipped++
				continue
			}
		}

		if err := store.Insert(ctx, p, embedding, namespace); err != nil {
			return inserted, skipped, fmt.Errorf("line %d: %w", line, err)
		}
		inserted++
	}

	return inserted, skipped, nil
}

func programFromRecord(record []string, cols map[string]int) models.Program {
	field := func(names ...string) string {
		for _, name := range names {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				continue
			}
			if v := strings.TrimSpace(record[i]); v != "" {
				return v
			}
		}
		return ""
	}

	return models.Program{
		Name:        field("name"),
		Title:       field("title"),
		Program:     field("program", "programme"),
		Call:        field("call"),
		Domain:      field("domain", "sector"),
		Description: field("description", "summary"),
		Eligibility: field("eligibility", "who can apply"),
		Amount:      field("amount", "funding amount", "funding"),
		Deadline:    field("deadline", "application deadline"),
		Location:    field("location", "region"),
		Contact:     field("contact"),
		Procedure:   field("procedure", "application procedure"),
		URL:         field("url", "link"),
		Source:      field("source"),
	}
}

// embeddingText fuses the descriptive fields into the text that gets indexed.
func embeddingText(p models.Program) string {
	parts := make([]string, 0, 5)
	for _, v := range []string{p.ProgramName(), p.Domain, p.Description, p.Eligibility, p.Location} {
		if !models.IsMissing(v) {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}
