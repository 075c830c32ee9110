package live

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// Fetcher retrieves raw page content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CollyFetcher implements Fetcher using Colly. It provides per-domain rate
// limiting, retries, and respects robots.txt.
type CollyFetcher struct {
	UserAgent      string
	MaxRetries     int
	RequestTimeout time.Duration
	DomainDelay    time.Duration
	MaxBodySize    int // bytes, 0 = unlimited
}

// NewCollyFetcher creates a CollyFetcher with sensible defaults.
func NewCollyFetcher() *CollyFetcher {
	return &CollyFetcher{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MaxRetries:     2,
		RequestTimeout: 15 * time.Second,
		DomainDelay:    1 * time.Second,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
	}
}

func (f *CollyFetcher) buildCollector(allowedDomains []string) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(f.UserAgent),
		colly.MaxBodySize(f.MaxBodySize),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
		colly.AllowedDomains(allowedDomains...),
	)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       f.DomainDelay,
	})

	c.SetRequestTimeout(f.RequestTimeout)

	c.OnError(func(r *colly.Response, err error) {
		if r.Request.Ctx.GetAny("retries") == nil {
			r.Request.Ctx.Put("retries", 0)
		}
		retries := r.Request.Ctx.GetAny("retries").(int)
		if retries < f.MaxRetries {
			r.Request.Ctx.Put("retries", retries+1)
			log.Printf("[live] retry %d/%d for %s: %v", retries+1, f.MaxRetries, r.Request.URL, err)
			time.Sleep(time.Duration(retries+1) * time.Second)
			r.Request.Retry()
		}
	})

	return c
}

type fetchResult struct {
	body []byte
	err  error
}

// Fetch downloads one page and returns its body. The first completion wins:
// the result channel is buffered and every handler sends non-blocking, so a
// late retry callback after success (or after cancellation) is dropped
// instead of corrupting the outcome.
func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	c := f.buildCollector([]string{parsedURL.Hostname()})
	result := make(chan fetchResult, 1)

	c.OnResponse(func(r *colly.Response) {
		select {
		case result <- fetchResult{body: r.Body}:
		default:
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		retries := 0
		if r.Request.Ctx.GetAny("retries") != nil {
			retries = r.Request.Ctx.GetAny("retries").(int)
		}
		if retries >= f.MaxRetries {
			select {
			case result <- fetchResult{err: fmt.Errorf("fetch failed after %d retries: %w", f.MaxRetries, err)}:
			default:
			}
		}
	})

	if err := c.Visit(targetURL); err != nil {
		return nil, fmt.Errorf("visit failed: %w", err)
	}

	// The collector is synchronous: by the time Visit returns, either
	// OnResponse or the final OnError has delivered a result. Cancellation
	// takes precedence over whatever arrived after it.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case res := <-result:
		if res.err != nil {
			return nil, res.err
		}
		return res.body, nil
	default:
		return nil, fmt.Errorf("no response received for %s", targetURL)
	}
}
