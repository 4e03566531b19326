// Package rocketreach implements prospect search and person lookup against
// the RocketReach v2 API. Every request runs under the call-level retry
// executor: rate limits are retried, 404 is an empty result.
package rocketreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"leadflow/internal/providers"
	"leadflow/internal/prospect/models"
	"leadflow/internal/retry"
)

const (
	ProviderID     = "rocketreach"
	DefaultBaseURL = "https://api.rocketreach.co/v2"
	// MaxSearchLimit is the largest page the search endpoint returns.
	MaxSearchLimit = 100
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	exec    *retry.Executor
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithExecutor replaces the default call-level retry executor.
func WithExecutor(e *retry.Executor) Option {
	return func(cl *Client) { cl.exec = e }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.exec == nil {
		c.exec = retry.NewExecutor(ProviderID, retry.DefaultPolicy(), retry.WithLogger(c.logger))
	}
	return c
}

type searchRequest struct {
	JobTitles    []string `json:"job_titles,omitempty"`
	Industries   []string `json:"industries,omitempty"`
	CompanySizes []string `json:"company_sizes,omitempty"`
	Locations    []string `json:"locations,omitempty"`
	Limit        int      `json:"limit"`
}

type searchResponse struct {
	Profiles []json.RawMessage `json:"profiles"`
}

// Search implements providers.ProspectSource.
func (c *Client) Search(ctx context.Context, q providers.SearchQuery) ([]models.Record, error) {
	limit := q.Limit
	if limit <= 0 || limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	req := searchRequest{
		JobTitles:    q.JobTitles,
		Industries:   q.Industries,
		CompanySizes: q.CompanySizes,
		Locations:    q.Locations,
		Limit:        limit,
	}

	resp, err := retry.Do(ctx, c.exec, func(ctx context.Context) (*searchResponse, error) {
		var out searchResponse
		if err := c.post(ctx, "/api/search/profile", req, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return []models.Record{}, nil
	}

	records := make([]models.Record, 0, len(resp.Profiles))
	for _, raw := range resp.Profiles {
		rec, err := decodeProfile(raw)
		if err != nil {
			c.logger.WarnContext(ctx, "skipping undecodable profile", "provider", ProviderID, "error", err)
			continue
		}
		records = append(records, rec)
	}
	c.logger.InfoContext(ctx, "prospect search completed",
		"provider", ProviderID,
		"profiles", len(records),
		"limit", limit,
	)
	return records, nil
}

type lookupRequest struct {
	Email       string `json:"email,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	Name        string `json:"name,omitempty"`
	Company     string `json:"company,omitempty"`
}

type lookupResponse struct {
	Person json.RawMessage `json:"person"`
}

// Lookup implements providers.EnrichmentClient. Not-found yields (nil, nil).
func (c *Client) Lookup(ctx context.Context, q providers.LookupQuery) (*models.Record, error) {
	if q.IsEmpty() {
		return nil, nil
	}
	req := lookupRequest{Email: q.Email, LinkedInURL: q.ProfileURL, Name: q.Name, Company: q.Company}

	resp, err := retry.Do(ctx, c.exec, func(ctx context.Context) (*lookupResponse, error) {
		var out lookupResponse
		if err := c.post(ctx, "/api/lookup/person", req, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Person) == 0 || string(resp.Person) == "null" {
		return nil, nil
	}
	rec, err := decodeProfile(resp.Person)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, ProviderID, "decode person", err)
	}
	return &rec, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if c.apiKey == "" {
		return providers.NewProviderError(providers.ErrorAuthentication, ProviderID, "api key not configured", nil)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return providers.NewProviderError(providers.ErrorInternal, ProviderID, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return providers.NewProviderError(providers.ErrorInternal, ProviderID, "build request", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return providers.FromTransport(ProviderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return providers.FromStatus(ProviderID, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return providers.NewProviderError(providers.ErrorContractMismatch, ProviderID, fmt.Sprintf("decode %s", path), err)
	}
	return nil
}
