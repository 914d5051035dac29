package algolia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"webinar_archive/internal/domain"
)

const (
	SourceID   = "algolia"
	SourceName = "SANS Webcasts"
)

// Config holds upstream source configuration.
type Config struct {
	BaseURL     string
	SiteURL     string
	IndexName   string
	Language    string
	HitsPerPage int
	Timeout     time.Duration
	UserAgent   string
}

// Source walks the archived webcast listing one page at a time.
type Source struct {
	httpClient  *http.Client
	baseURL     string
	siteURL     string
	indexName   string
	language    string
	hitsPerPage int
	userAgent   string
	logger      *slog.Logger
}

// New creates a new upstream source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		siteURL:     cfg.SiteURL,
		indexName:   cfg.IndexName,
		language:    cfg.Language,
		hitsPerPage: cfg.HitsPerPage,
		userAgent:   cfg.UserAgent,
		logger:      logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// FetchWebinars collects every archived webcast whose end time is before
// archivedBefore. Any page failure aborts the walk with a *domain.FetchError
// and no records are returned, so callers never persist a partial catalog.
func (s *Source) FetchWebinars(ctx context.Context, archivedBefore time.Time) ([]domain.Webinar, domain.SyncStats, error) {
	var (
		webinars []domain.Webinar
		stats    domain.SyncStats
	)
	cutoff := archivedBefore.Unix()

	for page := 0; ; {
		resp, err := s.fetchPage(ctx, page, cutoff)
		if err != nil {
			return nil, stats, &domain.FetchError{Page: page, Err: err}
		}
		stats.Pages++

		if len(resp.Results) == 0 {
			break
		}
		result := resp.Results[0]
		if len(result.Hits) == 0 {
			break
		}

		stats.Hits += len(result.Hits)
		for _, hit := range result.Hits {
			w, ok := s.normalize(hit)
			if !ok {
				stats.Dropped++
				continue
			}
			webinars = append(webinars, w)
		}

		nbPages := page + 1
		if result.NbPages != nil {
			nbPages = *result.NbPages
		}

		s.logger.Debug("fetched page",
			"page", page,
			"nb_pages", nbPages,
			"hits", len(result.Hits),
			"total", len(webinars),
		)

		page++
		if page >= nbPages {
			break
		}
	}

	stats.Kept = len(webinars)
	return webinars, stats, nil
}

func (s *Source) buildRequest(page int, cutoff int64) SearchRequest {
	return SearchRequest{
		Requests: []IndexQuery{
			{
				IndexName: s.indexName,
				Params: QueryParams{
					FacetFilters:      [][]string{{"facets.language:" + s.language}},
					Facets:            []string{"facets.focusArea", "facets.language"},
					HighlightPostTag:  "__/ais-highlight__",
					HighlightPreTag:   "__ais-highlight__",
					HitsPerPage:       s.hitsPerPage,
					MaxValuesPerFacet: 10,
					NumericFilters:    []string{fmt.Sprintf("endDateTimestamp<%d", cutoff)},
					Page:              page,
					Query:             "",
				},
			},
		},
	}
}

func (s *Source) fetchPage(ctx context.Context, page int, cutoff int64) (*SearchResponse, error) {
	body, err := json.Marshal(s.buildRequest(page, cutoff))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", s.siteURL)
	req.Header.Set("Referer", s.siteURL+"/webcasts")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &searchResp, nil
}
