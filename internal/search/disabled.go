package search

import (
	"context"
	"errors"
)

var errFetchDisabled = errors.New("fetching disabled")

// Disabled returns engine and fetcher stubs that yield no results. With
// them wired, a search-flagged turn degrades to an answer without
// grounding context, which the pipeline treats as ordinary exhaustion.
func Disabled() (Engine, Fetcher) {
	return disabledEngine{}, disabledFetcher{}
}

type disabledEngine struct{}

func (disabledEngine) Search(ctx context.Context, query string, count int) ([]Result, error) {
	return nil, nil
}

type disabledFetcher struct{}

func (disabledFetcher) Fetch(ctx context.Context, url string) (string, string, error) {
	return "", "", &ExtractionError{URL: url, Err: errFetchDisabled}
}
