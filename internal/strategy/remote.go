package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// RemoteConfig holds settings for the remote enhancement service.
type RemoteConfig struct {
	URL         string
	APIKey      string
	Timeout     time.Duration
	Concurrency int
}

// RemoteClient calls an external enhancement service that applies
// strategies with richer data than the local lexicon. Enhancement is
// strictly additive: any failure keeps the locally generated text.
type RemoteClient struct {
	url         string
	apiKey      string
	client      *http.Client
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger

	// onFallback is invoked once per text that kept its local version.
	onFallback func()
}

// NewRemoteClient creates a client for the remote enhancement service.
func NewRemoteClient(cfg RemoteConfig, logger *slog.Logger) *RemoteClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteClient{
		url:         cfg.URL,
		apiKey:      cfg.APIKey,
		client:      &http.Client{Timeout: cfg.Timeout},
		concurrency: cfg.Concurrency,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// OnFallback registers a callback fired for each text that falls back
// to its local version after a failed remote call.
func (c *RemoteClient) OnFallback(fn func()) {
	c.onFallback = fn
}

type remoteRequest struct {
	Texts      []string `json:"texts"`
	Strategies Flags    `json:"strategies"`
}

type remoteResponse struct {
	Texts []string `json:"texts"`
}

// Enhance sends each text to the remote service and returns the
// enhanced versions in the same order. Calls run with bounded
// concurrency; a text whose call fails keeps its input value.
func (c *RemoteClient) Enhance(ctx context.Context, texts []string, flags Flags) []string {
	out := make([]string, len(texts))
	copy(out, texts)

	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i := range texts {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			enhanced, err := c.enhanceOne(ctx, texts[i], flags)
			if err != nil {
				c.logger.Warn("remote enhancement failed, keeping local text", "error", err)
				if c.onFallback != nil {
					c.onFallback()
				}
				return
			}
			out[i] = enhanced
		}(i)
	}

	wg.Wait()
	return out
}

// enhanceOne performs a single remote call with its own timeout.
func (c *RemoteClient) enhanceOne(ctx context.Context, text string, flags Flags) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(remoteRequest{Texts: []string{text}, Strategies: flags})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("remote service returned status %d", resp.StatusCode)
	}

	var rr remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(rr.Texts) != 1 {
		return "", fmt.Errorf("remote service returned %d texts, want 1", len(rr.Texts))
	}

	return rr.Texts[0], nil
}
