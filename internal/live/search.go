package live

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/panjf2000/ants/v2"

	"github.com/david/funding-advisor/internal/models"
)

const defaultPoolSize = 4

// Searcher fans a query out to every configured portal source on a bounded
// worker pool and aggregates whatever came back. A failing source is recorded
// and skipped; it never aborts the other sources. The aggregate is therefore
// partial-success by design, not an all-or-nothing join.
type Searcher struct {
	Registry *Registry
	Fetcher  Fetcher
	PoolSize int
}

func NewSearcher(registry *Registry, fetcher Fetcher) *Searcher {
	return &Searcher{
		Registry: registry,
		Fetcher:  fetcher,
		PoolSize: defaultPoolSize,
	}
}

// SourceError records which source failed and why.
type SourceError struct {
	SourceID string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.SourceID, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Search runs one task per source and returns at most maxResults programs
// plus the per-source errors of the sources that failed.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) ([]models.Program, []error) {
	if s.Registry == nil || len(s.Registry.Sources) == 0 {
		return nil, nil
	}

	size := s.PoolSize
	if size <= 0 {
		size = defaultPoolSize
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, []error{fmt.Errorf("worker pool: %w", err)}
	}
	defer pool.Release()

	var (
		mu       sync.Mutex
		programs []models.Program
		errs     []error
		wg       sync.WaitGroup
	)

	for _, source := range s.Registry.Sources {
		source := source
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			found, err := s.searchSource(ctx, source, query)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, &SourceError{SourceID: source.ID, Err: err})
				return
			}
			programs = append(programs, found...)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, &SourceError{SourceID: source.ID, Err: submitErr})
			mu.Unlock()
		}
	}
	wg.Wait()

	if maxResults > 0 && len(programs) > maxResults {
		programs = programs[:maxResults]
	}
	return programs, errs
}

func (s *Searcher) searchSource(ctx context.Context, source SourceConfig, query string) ([]models.Program, error) {
	searchURL := fmt.Sprintf(source.SearchURL, url.QueryEscape(query))
	body, err := s.Fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}

	maxItems := source.MaxItems
	if maxItems <= 0 {
		maxItems = 5
	}

	var programs []models.Program
	doc.Find(source.Selectors.Item).EachWithBreak(func(i int, item *goquery.Selection) bool {
		if len(programs) >= maxItems {
			return false
		}
		p := extractProgram(item, source, searchURL)
		if p.Title == "" {
			return true
		}
		programs = append(programs, p)
		return true
	})

	return programs, nil
}

func extractProgram(item *goquery.Selection, source SourceConfig, baseURL string) models.Program {
	sel := source.Selectors

	p := models.Program{
		Title:    cleanText(item.Find(sel.Title).First().Text()),
		Source:   source.Name,
		Location: source.Location,
	}

	linkSel := sel.Link
	if linkSel == "" {
		linkSel = sel.Title
	}
	linkAttr := sel.LinkAttr
	if linkAttr == "" {
		linkAttr = "href"
	}
	if href, ok := item.Find(linkSel).First().Attr(linkAttr); ok {
		p.URL = resolveURL(baseURL, href)
	}

	if sel.Description != "" {
		p.Description = cleanText(item.Find(sel.Description).First().Text())
	}
	if sel.Domain != "" {
		p.Domain = cleanText(item.Find(sel.Domain).First().Text())
	}
	if sel.Deadline != "" {
		p.Deadline = cleanText(item.Find(sel.Deadline).First().Text())
	}
	if sel.Amount != "" {
		p.Amount = cleanText(item.Find(sel.Amount).First().Text())
	}
	if sel.Location != "" {
		if loc := cleanText(item.Find(sel.Location).First().Text()); loc != "" {
			p.Location = loc
		}
	}

	return p
}

func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
