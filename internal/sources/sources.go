// Package sources fetches third-party status documents and reduces each to a
// single status segment.
package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/marcin-skalski/status-ticker/internal/status"
)

// Fetcher reduces one monitored service to a single segment. Fetch returns an
// error on network, HTTP status or parse failure.
type Fetcher interface {
	Name() string
	StatusPage() string
	Fetch(ctx context.Context) (status.Segment, error)
}

// Result is one aggregation pass.
type Result struct {
	Segments []status.Segment
	// Failed holds, in source order, the errors that were replaced by
	// placeholder segments. Always empty when failures are not isolated.
	Failed []SourceError
}

// SourceError is a fetch failure attributed to its source.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Err joins the per-source failures of an isolated pass in source order.
func (r Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

type Aggregator struct {
	fetchers []Fetcher
	isolate  bool
	logger   *slog.Logger
}

// NewAggregator builds an aggregator over fetchers in display order. With
// isolate set, a failing source yields an "Unavailable" segment instead of
// failing the whole pass.
func NewAggregator(fetchers []Fetcher, isolate bool, logger *slog.Logger) *Aggregator {
	return &Aggregator{fetchers: fetchers, isolate: isolate, logger: logger}
}

// Sources returns the fetchers in display order.
func (a *Aggregator) Sources() []Fetcher {
	return a.fetchers
}

// BuildSegments runs every fetcher and returns one segment per source in the
// configured order.
func (a *Aggregator) BuildSegments(ctx context.Context) (Result, error) {
	segs := make([]status.Segment, len(a.fetchers))
	errs := make([]error, len(a.fetchers))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range a.fetchers {
		g.Go(func() error {
			seg, err := f.Fetch(gctx)
			if err != nil {
				if !a.isolate {
					return fmt.Errorf("%s: %w", f.Name(), err)
				}
				a.logger.Warn("source unavailable", "source", f.Name(), "err", err)
				errs[i] = err
				seg = status.Unavailable(f.Name(), f.StatusPage())
			}
			segs[i] = seg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Segments: segs}
	for i, err := range errs {
		if err == nil {
			continue
		}
		res.Failed = append(res.Failed, SourceError{Source: a.fetchers[i].Name(), Err: err})
	}
	return res, nil
}

// Default builds the four monitored sources in display order.
func Default(client *Client, urls URLs, googleWatch []string) []Fetcher {
	return []Fetcher{
		NewSecurly(client, urls.SecurlyFeed, urls.SecurlyPage),
		NewCloudflare(client, urls.CloudflareSummary, urls.CloudflarePage),
		NewGoogleWorkspace(client, urls.GoogleFeed, urls.GooglePage, googleWatch),
		NewMicrosoft(client, urls.MicrosoftURL, urls.MicrosoftPage),
	}
}

// URLs are the remote documents and human status pages of the default
// sources.
type URLs struct {
	SecurlyFeed       string
	SecurlyPage       string
	CloudflareSummary string
	CloudflarePage    string
	GoogleFeed        string
	GooglePage        string
	MicrosoftURL      string
	MicrosoftPage     string
}
