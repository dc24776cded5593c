// Package discovery implements the Page Discoverer (C4): a bounded,
// same-host breadth-first crawl that returns a prioritized, deduplicated
// page list within the caller's page and depth bounds.
package discovery

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/openaudit/a11yscan/pkg/model"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/net/html"
)

const (
	DefaultConcurrency  = 5
	DefaultFetchTimeout = 10 * time.Second
	DefaultPhaseTimeout = 60 * time.Second
)

// Input configures one discovery run.
type Input struct {
	Seed             string
	MaxPages         int
	MaxDepth         int
	Concurrency      int
	FetchTimeout     time.Duration
	PhaseTimeout     time.Duration
	DeniedExtensions []string
	HTTPClient       *http.Client
}

func (in *Input) applyDefaults() {
	if in.Concurrency <= 0 {
		in.Concurrency = DefaultConcurrency
	}
	if in.FetchTimeout <= 0 {
		in.FetchTimeout = DefaultFetchTimeout
	}
	if in.PhaseTimeout <= 0 {
		in.PhaseTimeout = DefaultPhaseTimeout
	}
	if in.HTTPClient == nil {
		in.HTTPClient = &http.Client{Timeout: in.FetchTimeout}
	}
}

type fetchResult struct {
	url          string
	depth        int
	links        []string
	title        string
	elementCount int
	err          error
}

// interactiveSelector counts the elements a user can perceive or act on:
// links, form controls, and the forms that group them.
const interactiveSelector = "a[href], button, input, select, textarea, form"

// Discover crawls same-host from Seed, bounded by MaxPages/MaxDepth, using a
// worker pool of size Concurrency per BFS level. It honors ctx cancellation
// and its own PhaseTimeout wall-clock cap, returning whatever PageRefs were
// gathered so far if either fires. Partial results are not an error; a seed
// whose own fetch fails while neither has fired is.
// The seed is always first in the returned slice, and the slice never
// contains duplicates after normalization.
func Discover(ctx context.Context, in Input) ([]model.PageRef, error) {
	in.applyDefaults()

	seed, err := NormalizeURL(in.Seed)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, in.PhaseTimeout)
	defer cancel()

	var (
		mu        sync.Mutex
		visited   = map[string]bool{seed: true}
		pageIndex = map[string]int{seed: 0}
		pages     = []model.PageRef{{
			URL:      seed,
			Depth:    0,
			Type:     classifyPageType(seed, 0, ""),
			Priority: classifyPriority(0),
		}}
	)

	frontier := []string{seed}

	for depth := 0; depth < in.MaxDepth && len(frontier) > 0 && len(pages) < in.MaxPages; depth++ {
		select {
		case <-ctx.Done():
			return pages, nil
		default:
		}

		p := pool.NewWithResults[fetchResult]().WithContext(ctx).WithMaxGoroutines(in.Concurrency)
		for _, u := range frontier {
			current := u
			p.Go(func(ctx context.Context) (fetchResult, error) {
				return fetch(ctx, in.HTTPClient, current), nil
			})
		}
		results, _ := p.Wait()

		var nextFrontier []string
		for _, res := range results {
			if res.err != nil {
				if depth == 0 && ctx.Err() == nil {
					return nil, res.err
				}
				log.Debug().Err(res.err).Str("url", res.url).Msg("discovery: fetch failed, skipping")
				continue
			}

			mu.Lock()
			if idx, ok := pageIndex[res.url]; ok {
				pages[idx].Type = classifyPageType(res.url, pages[idx].Depth, res.title)
				pages[idx].EstimatedElements = res.elementCount
			}
			mu.Unlock()

			for _, link := range res.links {
				mu.Lock()
				full := len(pages) >= in.MaxPages
				mu.Unlock()
				if full {
					break
				}
				resolved, err := resolve(res.url, link)
				if err != nil {
					continue
				}
				normalized, err := NormalizeURL(resolved)
				if err != nil {
					continue
				}
				if !isHTTPScheme(normalized) || !SameHost(normalized, seed) {
					continue
				}
				if deniedExtension(normalized, in.DeniedExtensions) {
					continue
				}
				mu.Lock()
				if visited[normalized] {
					mu.Unlock()
					continue
				}
				visited[normalized] = true
				nextDepth := depth + 1
				pages = append(pages, model.PageRef{
					URL:      normalized,
					Depth:    nextDepth,
					Type:     classifyPageType(normalized, nextDepth, ""),
					Priority: classifyPriority(nextDepth),
				})
				pageIndex[normalized] = len(pages) - 1
				shouldContinue := len(pages) < in.MaxPages
				mu.Unlock()
				if shouldContinue {
					nextFrontier = append(nextFrontier, normalized)
				}
			}
		}
		frontier = nextFrontier
	}

	return pages, nil
}

func fetch(ctx context.Context, client *http.Client, rawURL string) fetchResult {
	result := fetchResult{url: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		result.err = err
		return result
	}

	resp, err := client.Do(req)
	if err != nil {
		result.err = err
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return result
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return result
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		result.err = err
		return result
	}

	result.title = extractTitle(body)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		result.err = err
		return result
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return
		}
		result.links = append(result.links, href)
	})

	result.elementCount = doc.Find(interactiveSelector).Length()

	return result
}

// extractTitle pulls the page title with a raw html.Tokenizer pass instead
// of a full goquery parse, so a page's title is available even if the body
// is malformed enough to trip up goquery's stricter tree construction.
func extractTitle(body []byte) string {
	z := html.NewTokenizer(strings.NewReader(string(body)))
	inTitle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			inTitle = string(name) == "title"
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(z.Text()))
			}
		}
	}
}
