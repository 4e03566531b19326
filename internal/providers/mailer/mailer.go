// Package mailer dispatches outreach email through a Resend-compatible HTTP
// API. It performs a single attempt per message; a failed send is reported to
// the caller, which decides whether the prospect stays queued.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"leadflow/internal/providers"
)

const (
	ProviderID     = "resend"
	DefaultBaseURL = "https://api.resend.com"
)

type Config struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send implements providers.Dispatcher.
func (c *Client) Send(ctx context.Context, msg providers.Message) (providers.SendResult, error) {
	if c.cfg.APIKey == "" {
		return providers.SendResult{}, providers.NewProviderError(providers.ErrorAuthentication, ProviderID, "api key not configured", nil)
	}
	if msg.To == "" {
		return providers.SendResult{}, providers.NewProviderError(providers.ErrorBadData, ProviderID, "recipient is required", nil)
	}

	payload, err := json.Marshal(sendRequest{From: c.cfg.From, To: []string{msg.To}, Subject: msg.Subject, HTML: msg.Body})
	if err != nil {
		return providers.SendResult{}, providers.NewProviderError(providers.ErrorInternal, ProviderID, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return providers.SendResult{}, providers.NewProviderError(providers.ErrorInternal, ProviderID, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return providers.SendResult{}, providers.FromTransport(ProviderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return providers.SendResult{}, providers.FromStatus(ProviderID, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return providers.SendResult{}, providers.NewProviderError(providers.ErrorContractMismatch, ProviderID, "decode response", err)
	}
	c.logger.InfoContext(ctx, "outreach email sent", "provider", ProviderID, "message_id", out.ID)
	return providers.SendResult{ID: out.ID, Success: out.ID != ""}, nil
}
