// Package crawler retrieves advisory listings and documents from the MSRC CVRF API.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"

	"msupdates/internal/config"
	"msupdates/internal/logger"
	"msupdates/internal/models"
)

// API paths relative to a feed base URL.
const (
	updatesPath  = "/cvrf/v3.0/updates"
	documentPath = "/cvrf/v3.0/cvrf/"
	acceptJSON   = "application/json"
	maxPages     = 50
)

// ErrListingLoop is returned when the listing's next links revisit a page.
var ErrListingLoop = errors.New("listing pagination loops")

// Client lists and fetches CVRF documents, falling back across mirrors.
type Client struct {
	scraper *Scraper
	mirrors *MirrorSet
	log     *logger.Logger
}

// NewClient creates a client from the feed and retry configuration.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	scraper := NewScraperWithConfig(&cfg.Retry, cfg.Feed.UserAgent, log)

	return NewClientWithDeps(scraper, NewMirrorSet(cfg.Feed.GetAllURLs()), log)
}

// NewClientWithDeps creates a new client with injected dependencies.
func NewClientWithDeps(scraper *Scraper, mirrors *MirrorSet, log *logger.Logger) *Client {
	return &Client{
		scraper: scraper,
		mirrors: mirrors,
		log:     log,
	}
}

// Mirrors returns the client's mirror set, for attempt reporting.
func (c *Client) Mirrors() *MirrorSet {
	return c.mirrors
}

type updatesPage struct {
	NextLink string          `json:"@odata.nextLink"`
	Value    []updateSummary `json:"value"`
}

type updateSummary struct {
	InitialReleaseDate time.Time `json:"InitialReleaseDate"`
	CurrentReleaseDate time.Time `json:"CurrentReleaseDate"`
	ID                 string    `json:"ID"`
	DocumentTitle      string    `json:"DocumentTitle"`
}

func (u updateSummary) releaseDate() time.Time {
	if u.InitialReleaseDate.IsZero() {
		return u.CurrentReleaseDate
	}

	return u.InitialReleaseDate
}

// ListRecentDocuments returns the documents first released within window of
// now, in feed order.
func (c *Client) ListRecentDocuments(ctx context.Context, window time.Duration) ([]models.DocumentReference, error) {
	cutoff := time.Now().Add(-window)

	body, err := c.get(ctx, updatesPath)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var refs []models.DocumentReference

	seen := make(map[string]bool)

	for page := 1; ; page++ {
		var p updatesPage
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("list documents: decode page %d: %w", page, err)
		}

		for _, u := range p.Value {
			published := u.releaseDate()
			if u.ID == "" || published.Before(cutoff) {
				continue
			}

			refs = append(refs, models.DocumentReference{
				ID:          u.ID,
				Title:       u.DocumentTitle,
				PublishedAt: published.UTC(),
			})
		}

		if p.NextLink == "" {
			break
		}

		if seen[p.NextLink] || page >= maxPages {
			return nil, fmt.Errorf("%w: %s", ErrListingLoop, p.NextLink)
		}

		seen[p.NextLink] = true

		// Next links are absolute and point at whichever mirror served the page.
		body, err = c.scraper.Fetch(ctx, p.NextLink, acceptJSON)
		if err != nil {
			return nil, fmt.Errorf("list documents: page %d: %w", page+1, err)
		}
	}

	c.log.Debug("listed documents", "count", len(refs), "window", window)

	return refs, nil
}

// FetchDocumentBody returns the JSON body of the CVRF document id.
func (c *Client) FetchDocumentBody(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, documentPath+url.PathEscape(id))
}

// get tries path against each mirror in turn. The returned error aggregates
// the failure of every mirror.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	bases := c.mirrors.Candidates()
	if len(bases) == 0 {
		return nil, ErrNoMirrors
	}

	var errs *multierror.Error

	for _, base := range bases {
		target := base + path

		body, status, duration, err := c.scraper.FetchWithMetrics(ctx, target, acceptJSON)
		c.mirrors.RecordAttempt(base, target, err, status, duration)

		if err == nil {
			return body, nil
		}

		c.log.Debug("mirror failed", "base_url", base, "status", status, "error", err)
		errs = multierror.Append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, errs.ErrorOrNil()
}
