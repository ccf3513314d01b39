// Package recount fetches count matrices, sample metadata, and gene length
// annotations for a study from a recount-style HTTP catalog. This is the
// pipeline's only I/O boundary; transient network failures are retried a
// bounded number of times with backoff, and a study that the catalog does not
// carry is reported as data unavailable.
package recount

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carbocation/pfx"

	"github.com/rainali475/kidneyde/expr"
)

// Project is one catalog entry for a study.
type Project struct {
	ID       string `json:"project_id"`
	Study    string `json:"study"`
	Organism string `json:"organism"`
	NSamples int    `json:"n_samples"`
}

// Dataset bundles everything the pipeline needs for one project.
type Dataset struct {
	Counts      *expr.Matrix
	Metadata    expr.Metadata
	GeneLengths map[string]float64
}

// Client queries a recount-style catalog.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// MaxAttempts bounds how often a transient failure is retried;
	// RetryWait is the base backoff, doubled per attempt.
	MaxAttempts int
	RetryWait   time.Duration
}

// NewClient returns a Client with bounded retry defaults.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:     baseURL,
		HTTPClient:  &http.Client{Timeout: 2 * time.Minute},
		MaxAttempts: 3,
		RetryWait:   2 * time.Second,
	}
}

// Projects lists the catalog entries for a study identifier. An unknown
// study yields ErrDataUnavailable.
func (c *Client) Projects(ctx context.Context, study string) ([]Project, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/projects?study=%s", c.BaseURL, study))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var projects []Project
	if err := json.NewDecoder(body).Decode(&projects); err != nil {
		return nil, pfx.Err(fmt.Errorf("decoding project list for study %q: %w", study, err))
	}
	if len(projects) == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: study %q not present in catalog", expr.ErrDataUnavailable, study))
	}

	return projects, nil
}

// Dataset fetches the count matrix, sample metadata, and gene length
// annotations for one project.
func (c *Client) Dataset(ctx context.Context, projectID string) (*Dataset, error) {
	counts, err := c.fetchCounts(ctx, projectID)
	if err != nil {
		return nil, err
	}

	md, err := c.fetchMetadata(ctx, projectID)
	if err != nil {
		return nil, err
	}

	lengths, err := c.fetchGeneLengths(ctx, projectID)
	if err != nil {
		return nil, err
	}

	return &Dataset{Counts: counts, Metadata: md, GeneLengths: lengths}, nil
}

// FetchStudy resolves a study to its first catalog project and fetches that
// project's dataset.
func (c *Client) FetchStudy(ctx context.Context, study string) (*Dataset, error) {
	projects, err := c.Projects(ctx, study)
	if err != nil {
		return nil, err
	}
	return c.Dataset(ctx, projects[0].ID)
}

func (c *Client) fetchCounts(ctx context.Context, projectID string) (*expr.Matrix, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/rse/%s/counts.tsv.gz", c.BaseURL, projectID))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ParseCounts(body)
}

func (c *Client) fetchMetadata(ctx context.Context, projectID string) (expr.Metadata, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/rse/%s/metadata.tsv", c.BaseURL, projectID))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ParseMetadata(body)
}

func (c *Client) fetchGeneLengths(ctx context.Context, projectID string) (map[string]float64, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/rse/%s/genes.tsv.gz", c.BaseURL, projectID))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return ParseGeneLengths(body)
}

// get performs a GET with bounded retry. Server-side (5xx) and transport
// errors are considered transient; a 404 means the resource does not exist
// and is not retried.
func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := c.RetryWait << (attempt - 2)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, pfx.Err(fmt.Errorf("%w: %v", expr.ErrDataUnavailable, ctx.Err()))
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, pfx.Err(err)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp.Body, nil
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, pfx.Err(fmt.Errorf("%w: %s returned 404", expr.ErrDataUnavailable, url))
		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("%s returned %s", url, resp.Status)
			continue
		default:
			resp.Body.Close()
			return nil, pfx.Err(fmt.Errorf("%w: %s returned %s", expr.ErrDataUnavailable, url, resp.Status))
		}
	}

	return nil, pfx.Err(fmt.Errorf("%w: %d attempts failed, last error: %v", expr.ErrDataUnavailable, attempts, lastErr))
}
