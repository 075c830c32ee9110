package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/david/funding-advisor/internal/advisor"
	"github.com/david/funding-advisor/internal/ai"
	"github.com/david/funding-advisor/internal/dataset"
	"github.com/david/funding-advisor/internal/models"
)

func main() {
	query := flag.String("query", "", "company/project description to search for")
	location := flag.String("location", "", "user location substring, e.g. NRW")
	domain := flag.String("domain", "", "preferred domain, e.g. AI")
	need := flag.Int("need", 0, "requested funding amount")
	wanted := flag.Int("wanted", 3, "number of picks to request")
	flag.Parse()

	if *query == "" {
		log.Fatal("usage: advise -query \"...\" [-location ...] [-domain ...] [-need N]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := dataset.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	aiClient := ai.NewClient(os.Getenv("OLLAMA_HOST"), os.Getenv("EMBED_MODEL"), os.Getenv("GEN_MODEL"))
	store := dataset.NewStore(pool)

	pipeline := &advisor.Pipeline{
		Embedder:  aiClient,
		Retriever: store,
		Dataset:   store,
		Selector:  ai.NewSelector(aiClient),
		Enricher:  ai.NewEnricher(aiClient),
		Wanted:    *wanted,
		Namespace: os.Getenv("PROGRAM_NAMESPACE"),
	}

	params := advisor.QueryParams{
		FundingNeed: *need,
		Domain:      *domain,
		Location:    *location,
	}

	result, _, err := pipeline.Run(ctx, *query, params, models.SessionContext{})
	if err != nil {
		log.Fatalf("Advise failed: %v", err)
	}

	if result.NoMatches() {
		fmt.Println("No matching funding programs found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Program", "Score", "Deadline", "Amount", "Why"})

	for rank, id := range result.Selection.IDs {
		if id < 1 || id > len(result.Shortlist) {
			continue
		}
		p := result.Shortlist[id-1]
		deadline := models.Present(p.Deadline)
		if deadline == "" {
			deadline = "-"
		}
		amount := models.Present(p.Amount)
		if amount == "" {
			amount = "-"
		}
		t.AppendRow(table.Row{rank + 1, p.ProgramName(), p.RelevanceScore, deadline, amount, result.Selection.Reasons[id]})
	}
	t.Render()

	for _, id := range result.Selection.IDs {
		e, ok := result.Enrichment[id]
		if !ok || (e.Brief == "" && len(e.NextSteps) == 0) {
			continue
		}
		p := result.Shortlist[id-1]
		fmt.Printf("\n%s\n", p.ProgramName())
		if e.Brief != "" {
			fmt.Printf("  %s\n", e.Brief)
		}
		for _, step := range e.NextSteps {
			fmt.Printf("  - %s\n", step)
		}
	}
}
