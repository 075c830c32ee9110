package advisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/david/funding-advisor/internal/models"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeRetriever struct {
	programs []models.Program
	err      error
}

func (f *fakeRetriever) Search(ctx context.Context, vector []float32, topK int, namespace string) ([]models.Program, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.programs, nil
}

type fakeDataset struct {
	rows []models.Program
	err  error
}

func (f *fakeDataset) All(ctx context.Context) ([]models.Program, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeSelector struct {
	result models.SelectionResult
	err    error
	calls  int
}

func (f *fakeSelector) SelectTop(ctx context.Context, query string, shortlist models.Shortlist, wanted int) (models.SelectionResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeEnricher struct {
	result map[int]models.Enrichment
	err    error
}

func (f *fakeEnricher) EnrichPicks(ctx context.Context, ids []int, shortlist models.Shortlist) (map[int]models.Enrichment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeLive struct {
	programs []models.Program
	errs     []error
	calls    int
}

func (f *fakeLive) Search(ctx context.Context, query string, maxResults int) ([]models.Program, []error) {
	f.calls++
	return f.programs, f.errs
}

func testNow() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func openProgram(name, url string) models.Program {
	return models.Program{Name: name, URL: url, Deadline: "2026-06-30", Domain: "AI"}
}

func testPipeline() (*Pipeline, *fakeSelector, *fakeEnricher) {
	selector := &fakeSelector{
		result: models.SelectionResult{
			IDs:     []int{1, 2},
			Reasons: map[int]string{1: "closest domain match", 2: "fits the budget"},
		},
	}
	enricher := &fakeEnricher{
		result: map[int]models.Enrichment{
			1: {Brief: "Funds AI pilots", NextSteps: []string{"Check eligibility"}},
			2: {Brief: "Supports prototypes"},
		},
	}
	p := &Pipeline{
		Embedder: &fakeEmbedder{},
		Retriever: &fakeRetriever{programs: []models.Program{
			openProgram("Digital Jetzt", "https://example.org/digital-jetzt"),
			openProgram("KI Foerderung", "https://example.org/ki-foerderung"),
		}},
		Dataset:  &fakeDataset{},
		Selector: selector,
		Enricher: enricher,
		Now:      testNow,
	}
	return p, selector, enricher
}

func TestPipelineRunHappyPath(t *testing.T) {
	p, _, _ := testPipeline()

	result, session, err := p.Run(context.Background(), "AI funding", QueryParams{Domain: "AI"}, models.SessionContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsFollowUp {
		t.Fatal("fresh query must not be a follow-up")
	}
	if len(result.Shortlist) != 2 {
		t.Fatalf("expected 2 shortlist entries, got %d", len(result.Shortlist))
	}
	for i, m := range result.Shortlist {
		if m.ID != i+1 {
			t.Errorf("entry %d should carry id %d, got %d", i, i+1, m.ID)
		}
		if m.DeadlineAt == nil {
			t.Errorf("entry %d should carry a parsed deadline", i)
		}
	}
	if len(result.Selection.IDs) != 2 {
		t.Fatalf("expected 2 picks, got %v", result.Selection.IDs)
	}
	if result.Enrichment[1].Brief != "Funds AI pilots" {
		t.Errorf("unexpected enrichment: %+v", result.Enrichment[1])
	}

	if session.LastQuery != "AI funding" {
		t.Errorf("session should carry the query, got %q", session.LastQuery)
	}
	if !session.HasShortlist() {
		t.Error("session should be addressable for follow-ups")
	}
}

func TestPipelineRunEmbedFailure(t *testing.T) {
	p, _, _ := testPipeline()
	p.Embedder = &fakeEmbedder{err: errors.New("connection refused")}

	prior := models.SessionContext{LastQuery: "previous"}
	_, session, err := p.Run(context.Background(), "AI funding", QueryParams{}, prior)

	var retErr *RetrievalError
	if !errors.As(err, &retErr) {
		t.Fatalf("expected RetrievalError, got %v", err)
	}
	if retErr.Op != "embed" {
		t.Errorf("expected op embed, got %s", retErr.Op)
	}
	if session.LastQuery != "previous" {
		t.Error("failed run must leave the prior session untouched")
	}
}

func TestPipelineRunSearchFailure(t *testing.T) {
	p, _, _ := testPipeline()
	p.Retriever = &fakeRetriever{err: errors.New("index offline")}

	_, _, err := p.Run(context.Background(), "AI funding", QueryParams{}, models.SessionContext{})

	var retErr *RetrievalError
	if !errors.As(err, &retErr) {
		t.Fatalf("expected RetrievalError, got %v", err)
	}
	if retErr.Op != "search" {
		t.Errorf("expected op search, got %s", retErr.Op)
	}
}

func TestPipelineRunFiltersExpired(t *testing.T) {
	p, _, _ := testPipeline()
	expired := models.Program{Name: "Old Call", URL: "https://example.org/old", Deadline: "2026-01-15"}
	p.Retriever = &fakeRetriever{programs: []models.Program{
		expired,
		openProgram("Open Call", "https://example.org/open"),
	}}

	result, _, err := p.Run(context.Background(), "AI funding", QueryParams{}, models.SessionContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Shortlist) != 1 || result.Shortlist[0].Name != "Open Call" {
		t.Fatalf("expired record should be dropped, got %+v", result.Shortlist)
	}
}

func TestPipelineRunNoMatches(t *testing.T) {
	p, selector, _ := testPipeline()
	p.Retriever = &fakeRetriever{}

	result, session, err := p.Run(context.Background(), "obscure query", QueryParams{}, models.SessionContext{})
	if err != nil {
		t.Fatalf("empty result is not an error, got %v", err)
	}
	if !result.NoMatches() {
		t.Error("expected the no-matches outcome")
	}
	if selector.calls != 0 {
		t.Error("selector must not run on an empty shortlist")
	}
	if session.HasShortlist() {
		t.Error("empty run must leave no addressable shortlist")
	}
}

func TestPipelineRunSelectorFailureFallsBackPositional(t *testing.T) {
	p, selector, _ := testPipeline()
	selector.err = errors.New("model unavailable")
	selector.result = models.SelectionResult{}

	result, _, err := p.Run(context.Background(), "AI funding", QueryParams{}, models.SessionContext{})
	if err != nil {
		t.Fatalf("generative failure must degrade, not fail: %v", err)
	}
	if len(result.Selection.IDs) != 2 {
		t.Fatalf("expected positional fallback over 2 entries, got %v", result.Selection.IDs)
	}
	for i, id := range result.Selection.IDs {
		if id != i+1 {
			t.Errorf("fallback pick %d should be id %d, got %d", i, i+1, id)
		}
	}
	if len(result.Selection.Reasons) != 0 {
		t.Errorf("fallback carries no reasons, got %v", result.Selection.Reasons)
	}
}

func TestPipelineRunEnricherFailureFallsBackEmpty(t *testing.T) {
	p, _, enricher := testPipeline()
	enricher.err = errors.New("model unavailable")

	result, _, err := p.Run(context.Background(), "AI funding", QueryParams{}, models.SessionContext{})
	if err != nil {
		t.Fatalf("generative failure must degrade, not fail: %v", err)
	}
	if len(result.Enrichment) != len(result.Selection.IDs) {
		t.Fatalf("every pick needs an enrichment entry, got %v", result.Enrichment)
	}
	for _, id := range result.Selection.IDs {
		e, ok := result.Enrichment[id]
		if !ok {
			t.Fatalf("missing entry for id %d", id)
		}
		if e.Brief != "" || len(e.NextSteps) != 0 {
			t.Errorf("fallback entry for id %d should be empty, got %+v", id, e)
		}
	}
}

func TestPipelineRunDatasetFailureDegrades(t *testing.T) {
	p, _, _ := testPipeline()
	p.Dataset = &fakeDataset{err: errors.New("db down")}

	result, _, err := p.Run(context.Background(), "AI funding", QueryParams{}, models.SessionContext{})
	if err != nil {
		t.Fatalf("dataset loss must not fail the turn: %v", err)
	}
	if len(result.Shortlist) != 2 {
		t.Fatalf("vector results should still flow through, got %d", len(result.Shortlist))
	}
}

func TestPipelineRunFollowUpShortCircuits(t *testing.T) {
	p, selector, _ := testPipeline()
	p.Embedder = &fakeEmbedder{err: errors.New("must not be called")}

	prior := models.SessionContext{
		LastQuery: "AI funding",
		LastShortlist: models.Shortlist{
			{ID: 1, Name: "Digital Jetzt"},
			{ID: 2, Name: "KI Foerderung"},
		},
		LastSelection:  models.SelectionResult{IDs: []int{2, 1}, Reasons: map[int]string{}},
		LastEnrichment: map[int]models.Enrichment{2: {Brief: "cached"}},
	}

	result, session, err := p.Run(context.Background(), "tell me more about the first one", QueryParams{}, prior)
	if err != nil {
		t.Fatalf("follow-up must not touch retrieval: %v", err)
	}
	if !result.IsFollowUp {
		t.Fatal("expected a follow-up result")
	}
	if result.TargetID != 2 {
		t.Errorf("first pick is id 2, got %d", result.TargetID)
	}
	if result.Enrichment[2].Brief != "cached" {
		t.Error("follow-up should re-present the cached enrichment")
	}
	if selector.calls != 0 {
		t.Error("selector must not run on a follow-up")
	}
	if session.LastQuery != prior.LastQuery {
		t.Error("follow-up must keep the prior session")
	}
}

func TestPipelineRunComprehensiveFansOut(t *testing.T) {
	p, _, _ := testPipeline()
	liveSrc := &fakeLive{
		programs: []models.Program{openProgram("Live Hit", "https://portal.example/live-hit")},
		errs:     []error{errors.New("one source down")},
	}
	p.Live = liveSrc

	result, _, err := p.Run(context.Background(), "AI funding", QueryParams{Comprehensive: true}, models.SessionContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if liveSrc.calls != 1 {
		t.Fatalf("live search should run once, ran %d times", liveSrc.calls)
	}
	found := false
	for _, m := range result.Shortlist {
		if m.Name == "Live Hit" {
			found = true
		}
	}
	if !found {
		t.Error("live result should join the shortlist despite a failing source")
	}

	liveSrc.calls = 0
	if _, _, err := p.Run(context.Background(), "AI funding", QueryParams{}, models.SessionContext{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if liveSrc.calls != 0 {
		t.Error("live search must stay off outside comprehensive mode")
	}
}

func TestPipelineRunBackfillsFromDataset(t *testing.T) {
	p, _, _ := testPipeline()
	p.Retriever = &fakeRetriever{programs: []models.Program{
		{Name: "Digital Jetzt", URL: "https://example.org/digital-jetzt", Eligibility: "n/a"},
	}}
	p.Dataset = &fakeDataset{rows: []models.Program{
		{
			Name:        "Digital Jetzt",
			URL:         "https://example.org/digital-jetzt",
			Eligibility: "SMEs with 3-499 employees",
		},
	}}

	result, _, err := p.Run(context.Background(), "digitalization grants", QueryParams{}, models.SessionContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Shortlist) == 0 {
		t.Fatal("expected a shortlist")
	}
	if result.Shortlist[0].Eligibility != "SMEs with 3-499 employees" {
		t.Errorf("absent eligibility should be repaired from the dataset, got %q", result.Shortlist[0].Eligibility)
	}
}
