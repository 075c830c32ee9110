package advisor

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/david/funding-advisor/internal/models"
)

// Embedder turns a text query into a fixed-length vector matching the
// retriever's index dimension.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Retriever queries a nearest-neighbor index for candidate programs. An empty
// index or zero matches returns an empty slice, not an error.
type Retriever interface {
	Search(ctx context.Context, vector []float32, topK int, namespace string) ([]models.Program, error)
}

// DatasetReader exposes the canonical tabular dataset, consumed read-only by
// keyword backfill and field backfill.
type DatasetReader interface {
	All(ctx context.Context) ([]models.Program, error)
}

// Selector chooses up to `wanted` unique shortlist ids with a reason each.
type Selector interface {
	SelectTop(ctx context.Context, query string, shortlist models.Shortlist, wanted int) (models.SelectionResult, error)
}

// Enricher produces a grounded brief and next steps per selected id.
type Enricher interface {
	EnrichPicks(ctx context.Context, ids []int, shortlist models.Shortlist) (map[int]models.Enrichment, error)
}

// LiveSearcher is the optional comprehensive-mode fan-out over live portal
// sources. Errors are per-source and best-effort; a partial result is normal.
type LiveSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.Program, []error)
}

// Pipeline wires the retrieval-ranking-selection-enrichment stages. It holds
// no conversation state: every Run is a pure function of (query, params,
// prior session context), which is what makes concurrent conversations safe
// as long as each owns its SessionContext value.
type Pipeline struct {
	Embedder  Embedder
	Retriever Retriever
	Dataset   DatasetReader
	Selector  Selector
	Enricher  Enricher
	Live      LiveSearcher // nil disables comprehensive mode

	TopK      int    // vector candidates to retrieve, default 8
	Want      int    // shortlist bound, default 8
	Wanted    int    // picks requested from the selector, default 3
	Namespace string

	// Now is overridable for tests; defaults to time.Now in UTC.
	Now func() time.Time
}

const (
	defaultTopK   = 8
	defaultWant   = 8
	defaultWanted = 3
)

// Result is what one turn produces. A follow-up turn re-presents the previous
// shortlist focused on TargetID; a new-query turn carries a fresh shortlist.
// An empty Shortlist on a new query is the explicit no-matches outcome, not an
// error.
type Result struct {
	IsFollowUp bool
	TargetID   int // set only for follow-up turns
	Shortlist  models.Shortlist
	Selection  models.SelectionResult
	Enrichment map[int]models.Enrichment
}

// NoMatches reports whether the turn ended with zero candidates after
// filtering.
func (r Result) NoMatches() bool {
	return !r.IsFollowUp && len(r.Shortlist) == 0
}

// Run executes one conversational turn. The follow-up resolver runs first
// against the prior session; only on a miss does the full pipeline re-run.
// The returned SessionContext replaces the caller's copy.
func (p *Pipeline) Run(ctx context.Context, query string, params QueryParams, session models.SessionContext) (Result, models.SessionContext, error) {
	if id, ok := ResolveFollowUp(query, session); ok {
		return Result{
			IsFollowUp: true,
			TargetID:   id,
			Shortlist:  session.LastShortlist,
			Selection:  session.LastSelection,
			Enrichment: session.LastEnrichment,
		}, session, nil
	}

	params.Query = query
	now := p.now()

	vector, err := p.Embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return Result{}, session, &RetrievalError{Op: "embed", Err: err}
	}

	candidates, err := p.Retriever.Search(ctx, vector, p.topK(), p.Namespace)
	if err != nil {
		return Result{}, session, &RetrievalError{Op: "search", Err: err}
	}
	vectorCandidates := p.prepareVectorCandidates(candidates, params, now)

	// The canonical dataset is supplementary: losing it costs recall and
	// backfill, not the whole turn.
	var rows []models.Program
	if p.Dataset != nil {
		rows, err = p.Dataset.All(ctx)
		if err != nil {
			log.Printf("dataset scan failed, continuing with vector results only: %v", err)
			rows = nil
		}
	}

	keyword := KeywordCandidates(rows, query, params.Domain, defaultKeywordTopN)
	if p.Live != nil && params.Comprehensive {
		live, errs := p.Live.Search(ctx, query, p.topK())
		for _, e := range errs {
			log.Printf("live source skipped: %v", e)
		}
		keyword = append(keyword, live...)
	}

	shortlist := HybridMerge(vectorCandidates, keyword, params, now, p.want())
	shortlist = BackfillAll(shortlist, BuildDatasetIndex(rows))

	result := Result{Shortlist: shortlist}
	if len(shortlist) > 0 {
		result.Selection = p.selectPicks(ctx, query, shortlist)
		result.Enrichment = p.enrichPicks(ctx, result.Selection.IDs, shortlist)
	}

	next := models.SessionContext{
		LastQuery:      query,
		LastShortlist:  shortlist,
		LastSelection:  result.Selection,
		LastEnrichment: result.Enrichment,
	}
	return result, next, nil
}

// prepareVectorCandidates normalizes deadlines, drops expired records, scores
// the rest, and keeps the topK best (stable on ties).
func (p *Pipeline) prepareVectorCandidates(candidates []models.Program, params QueryParams, now time.Time) []models.Program {
	kept := make([]models.Program, 0, len(candidates))
	for _, c := range candidates {
		c.Deadline = models.Present(c.Deadline)
		c.DeadlineAt = ParseDeadline(c.Deadline)
		c.DaysLeft = DaysLeft(c.DeadlineAt, now)
		if Expired(c.DeadlineAt, now) {
			continue
		}
		c.RelevanceScore = ComputeRelevanceScore(c, params, now)
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})
	if len(kept) > p.topK() {
		kept = kept[:p.topK()]
	}
	return kept
}

// selectPicks asks the LLM selector and falls back deterministically to the
// first min(wanted, len) positional ids with empty reasons on any failure or
// empty result. The pipeline always terminates with some selection.
func (p *Pipeline) selectPicks(ctx context.Context, query string, shortlist models.Shortlist) models.SelectionResult {
	wanted := p.wanted()
	if p.Selector != nil {
		selection, err := p.Selector.SelectTop(ctx, query, shortlist, wanted)
		if err == nil && len(selection.IDs) > 0 {
			return selection
		}
		if err != nil {
			log.Printf("%v; falling back to positional selection", &GenerativeError{Op: "select", Err: err})
		}
	}

	n := wanted
	if len(shortlist) < n {
		n = len(shortlist)
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return models.SelectionResult{IDs: ids, Reasons: map[int]string{}}
}

// enrichPicks degrades to an empty enrichment entry per requested id on any
// failure; renderers then fall back to dataset-derived steps.
func (p *Pipeline) enrichPicks(ctx context.Context, ids []int, shortlist models.Shortlist) map[int]models.Enrichment {
	if p.Enricher != nil {
		enrichment, err := p.Enricher.EnrichPicks(ctx, ids, shortlist)
		if err == nil {
			return enrichment
		}
		log.Printf("%v; returning empty enrichment", &GenerativeError{Op: "enrich", Err: err})
	}

	out := make(map[int]models.Enrichment, len(ids))
	for _, id := range ids {
		out[id] = models.Enrichment{}
	}
	return out
}

func (p *Pipeline) topK() int {
	if p.TopK > 0 {
		return p.TopK
	}
	return defaultTopK
}

func (p *Pipeline) want() int {
	if p.Want > 0 {
		return p.Want
	}
	return defaultWant
}

func (p *Pipeline) wanted() int {
	if p.Wanted > 0 {
		return p.Wanted
	}
	return defaultWanted
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}
