// Package ingest refreshes the program table from the College
// Scorecard API: paginated fetch, school-to-program explosion, and a
// full table replace.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/edsignal/opportunity-cli/internal/config"
	"github.com/edsignal/opportunity-cli/internal/model"
)

// scorecardFields is the field list requested from the API; it covers
// every column of the program table plus the nested program array.
var scorecardFields = []string{
	"id",
	"school.name",
	"school.city",
	"school.state",
	"school.region_id",
	"latest.student.size",
	"latest.cost.tuition.in_state",
	"latest.cost.tuition.out_of_state",
	"latest.cost.roomboard.oncampus",
	"latest.cost.roomboard.offcampus",
	"latest.cost.avg_net_price.public",
	"latest.cost.avg_net_price.private",
	"latest.cost.avg_net_price.overall",
	"latest.aid.pell_grant_rate",
	"latest.aid.federal_loan_rate",
	"latest.programs.cip_4_digit",
}

// Client fetches school pages from the College Scorecard API with
// polite rate limiting and retry on transient failures.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	perPage    int
	maxRetries int
	workers    int
}

// NewClient builds a Client from config. An API key is required.
func NewClient(cfg config.ScorecardConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, eris.New("ingest: scorecard API key is required (set OPPORTUNITY_SCORECARD_API_KEY)")
	}
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 100 // API maximum
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	limit := rate.Limit(cfg.RateLimit)
	if limit <= 0 {
		limit = 5
	}

	return &Client{
		http:       &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		perPage:    perPage,
		maxRetries: maxRetries,
		workers:    workers,
	}, nil
}

type pageMetadata struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

type pageResponse struct {
	Metadata pageMetadata   `json:"metadata"`
	Results  []schoolResult `json:"results"`
}

// FetchAll retrieves every school page (or the first maxPages pages
// when maxPages > 0) and returns the exploded program rows in page
// order. The first page is fetched alone to learn the total; the rest
// run concurrently under the rate limiter.
func (c *Client) FetchAll(ctx context.Context, maxPages int) ([]model.ProgramRecord, error) {
	log := zap.L().With(zap.String("component", "ingest"))

	first, err := c.fetchPage(ctx, 0)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: fetch first page")
	}

	totalPages := 1
	if first.Metadata.PerPage > 0 {
		totalPages = first.Metadata.Total/first.Metadata.PerPage + 1
	}
	if maxPages > 0 && totalPages > maxPages {
		totalPages = maxPages
	}
	log.Info("scorecard pagination",
		zap.Int("total_schools", first.Metadata.Total),
		zap.Int("pages", totalPages),
	)

	pages := make([][]schoolResult, totalPages)
	pages[0] = first.Results

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for p := 1; p < totalPages; p++ {
		g.Go(func() error {
			resp, err := c.fetchPage(gctx, p)
			if err != nil {
				return eris.Wrapf(err, "ingest: fetch page %d", p)
			}
			pages[p] = resp.Results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var schools []schoolResult
	for _, page := range pages {
		schools = append(schools, page...)
	}

	rows := Explode(schools)
	log.Info("scorecard ingest fetched",
		zap.Int("schools", len(schools)),
		zap.Int("program_rows", len(rows)),
	)
	return rows, nil
}

// fetchPage retrieves one page, retrying 429 and 5xx responses with
// exponential backoff.
func (c *Client) fetchPage(ctx context.Context, page int) (*pageResponse, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("fields", strings.Join(scorecardFields, ","))
	q.Set("per_page", fmt.Sprintf("%d", c.perPage))
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("school.operating", "1")
	reqURL := c.baseURL + "?" + q.Encode()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "create request")
		}
		req.Header.Set("User-Agent", "opportunity-cli/1.0")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("scorecard request failed, retrying",
				zap.Int("page", page),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("scorecard returned %d for page %d", resp.StatusCode, page)
			zap.L().Warn("scorecard backing off",
				zap.Int("page", page),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, eris.Errorf("scorecard returned %d for page %d", resp.StatusCode, page)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, eris.Wrap(err, "read response body")
		}

		var pr pageResponse
		if err := json.Unmarshal(body, &pr); err != nil {
			return nil, eris.Wrapf(err, "parse page %d", page)
		}
		return &pr, nil
	}

	return nil, eris.Wrap(lastErr, "all retries exhausted")
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	d := time.Duration(float64(time.Second) * math.Pow(2, float64(attempt)))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
