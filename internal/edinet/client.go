// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package edinet is a client for the EDINET API v2 documents list and
// document download endpoints.
package edinet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/edinet-facts/internal/httputil"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.edinet-fsa.go.jp/api/v2"

// Document types accepted by the download endpoint.
const (
	DownloadXBRL = 1
	DownloadPDF  = 2
	DownloadCSV  = 5
)

// listType 2 returns metadata plus the documents list.
const listType = "2"

// Client calls the EDINET API, spacing requests with a rate limiter and
// retrying transient failures.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	maxRetries int
	limiter    *rate.Limiter
}

// NewClient builds a client from cfg. A zero RequestInterval disables pacing.
func NewClient(cfg types.EdinetConfig, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	return &Client{
		http:       client,
		baseURL:    strings.TrimRight(base, "/"),
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// APIError is a non-success reply from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EDINET API returned %d: %s", e.Status, e.Message)
}

type listResponse struct {
	Metadata struct {
		Status    string `json:"status"`
		Message   string `json:"message"`
		Resultset struct {
			Count int `json:"count"`
		} `json:"resultset"`
	} `json:"metadata"`
	Results []types.Document `json:"results"`
}

// errorResponse covers both error shapes the API returns.
type errorResponse struct {
	StatusCode int    `json:"StatusCode"`
	Message    string `json:"message"`
	Metadata   struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"metadata"`
}

// Documents returns the documents submitted on date.
func (c *Client) Documents(ctx context.Context, date time.Time) ([]types.Document, error) {
	params := url.Values{
		"date": {date.Format("2006-01-02")},
		"type": {listType},
	}
	resp, err := c.get(ctx, "/documents.json", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("parsing documents list: %w", err)
	}
	if lr.Metadata.Status != "" && lr.Metadata.Status != "200" {
		return nil, &APIError{Status: atoi(lr.Metadata.Status), Message: lr.Metadata.Message}
	}
	return lr.Results, nil
}

// Download streams the document docID in the given rendition to w.
func (c *Client) Download(ctx context.Context, docID string, kind int, w io.Writer) error {
	params := url.Values{"type": {strconv.Itoa(kind)}}
	resp, err := c.get(ctx, "/documents/"+url.PathEscape(docID), params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Errors arrive as JSON, sometimes with status 200.
	if resp.StatusCode != http.StatusOK || strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("reading document %s: %w", docID, err)
	}
	return nil
}

// AnnualReports keeps the documents that ship a CSV annual securities report.
func AnnualReports(docs []types.Document) []types.Document {
	var out []types.Document
	for _, d := range docs {
		if d.IsAnnualCSV() {
			out = append(out, d)
		}
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		params.Set("Subscription-Key", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("EDINET API request %s: %w", path, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		switch {
		case er.Message != "":
			return &APIError{Status: orStatus(er.StatusCode, resp.StatusCode), Message: er.Message}
		case er.Metadata.Message != "":
			return &APIError{Status: orStatus(atoi(er.Metadata.Status), resp.StatusCode), Message: er.Metadata.Message}
		}
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

func orStatus(primary, fallback int) int {
	if primary != 0 {
		return primary
	}
	return fallback
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
