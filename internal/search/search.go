// Package search implements the web-search augmentation: query
// formulation, the retrying scrape-and-extract loop, and context assembly.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/schema"

	"minerva/internal/llm"
	"minerva/internal/logger"
	"minerva/internal/prompts"
)

// Result is one entry returned by the search engine.
type Result struct {
	Title       string
	Link        string
	Description string
	Date        string
}

// Engine is the external search capability.
type Engine interface {
	Search(ctx context.Context, query string, count int) ([]Result, error)
}

// Fetcher is the external page extraction capability.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (description, text string, err error)
}

// ExtractionError reports a page that could not be fetched or parsed.
// The searcher drops the result and continues the batch.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Pages that demand a scripted browser are skipped for now.
// TODO: route dynamic pages through a rendering fetcher.
const dynamicPageMarker = "Enable JavaScript and cookies"

// Context is the assembled grounding material for one search.
type Context struct {
	Query  string // the formulated search query
	Main   string // full blocks used as grounding for answer generation
	Suffix string // numbered citation blocks appended to the final answer
}

type Config struct {
	RetryCount     int
	ResultCount    int
	MinimumResults int
	RetryDelay     time.Duration
	FetchTimeout   time.Duration
	LLMTimeout     time.Duration
}

type Searcher struct {
	model   llm.Completer
	engine  Engine
	fetcher Fetcher
	prompts prompts.Set
	config  Config
}

func New(model llm.Completer, engine Engine, fetcher Fetcher, p prompts.Set, config Config) *Searcher {
	if config.RetryCount < 1 {
		config.RetryCount = 1
	}
	return &Searcher{
		model:   model,
		engine:  engine,
		fetcher: fetcher,
		prompts: p,
		config:  config,
	}
}

var errBelowMinimum = errors.New("not enough search results")

// Search formulates a query from queryContext, gathers results with
// retries, and assembles the grounding contexts. Exhausting the retry
// budget is not an error; whatever survived filtering is returned,
// possibly empty.
func (s *Searcher) Search(ctx context.Context, queryContext, previousQuery string) (Context, error) {
	rendered := prompts.Render(s.prompts.FormulateQuery, map[string]string{
		"query":          queryContext,
		"previous_query": previousQuery,
	})
	raw, err := llm.Complete(ctx, s.model, s.config.LLMTimeout, []*schema.Message{
		schema.UserMessage(rendered),
	})
	if err != nil {
		return Context{}, fmt.Errorf("formulate search query: %w", err)
	}
	query := strings.TrimSpace(raw)

	results := s.gather(ctx, query)

	out := Context{Query: query}
	var main, suffix strings.Builder
	kept := 0
	for _, result := range results {
		fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
		desc, text, err := s.fetcher.Fetch(fetchCtx, result.Link)
		cancel()
		if err != nil {
			logger.Debug().Err(err).Str("link", result.Link).Msg("dropping unextractable result")
			continue
		}
		if strings.Contains(text, dynamicPageMarker) {
			logger.Debug().Str("link", result.Link).Msg("dropping dynamic page")
			continue
		}
		if desc == "" {
			desc = result.Description
		}

		kept++
		fmt.Fprintf(&main, "Title: %s\nLink: %s\nDescription: %s\nContent: %s\n\n",
			result.Title, result.Link, desc, text)
		fmt.Fprintf(&suffix, "\n📌 Reference [%d]\nTitle: %s\nLink: %s\nDescription: %s\n",
			kept, result.Title, result.Link, desc)
	}
	out.Main = main.String()
	out.Suffix = suffix.String()

	logger.Info().
		Str("query", query).
		Int("results", len(results)).
		Int("kept", kept).
		Msg("search augmentation assembled")
	return out, nil
}

// gather runs the retry loop: up to RetryCount attempts, stopping as soon
// as an attempt yields at least MinimumResults. The last batch wins; a
// short batch is still used once the budget is spent.
func (s *Searcher) gather(ctx context.Context, query string) []Result {
	var results []Result
	attempts := 0

	operation := func() error {
		attempts++
		batch, err := s.engine.Search(ctx, query, s.config.ResultCount)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempts).Msg("search engine call failed")
			return err
		}
		results = batch
		if len(batch) < s.config.MinimumResults {
			return errBelowMinimum
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.config.RetryDelay), uint64(s.config.RetryCount-1)),
		ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		logger.Debug().
			Int("attempts", attempts).
			Int("results", len(results)).
			Msg("search retry budget exhausted, proceeding with partial results")
	}
	return results
}
