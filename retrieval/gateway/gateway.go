// Package gateway implements a Retriever backed by an HTTP knowledge gateway.
// Each call carries a bearer token obtained from a token source; the gateway
// routes the query to the knowledge base matching the requested domain.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hupe1980/expertswarm/retrieval"
	"github.com/hupe1980/expertswarm/token"
)

// Options configures the gateway client.
type Options struct {
	// HTTPClient is the client used for gateway calls. Defaults to a client
	// with a 30 second timeout.
	HTTPClient *http.Client
}

// Client calls a knowledge gateway over HTTP with bearer authentication.
type Client struct {
	url        string
	tokens     *token.Cache
	httpClient *http.Client
}

var _ retrieval.Retriever = (*Client)(nil)

// New creates a gateway client for the given endpoint URL. Tokens are drawn
// from the cache on every call so a refreshed token is picked up without
// rebuilding the client.
func New(url string, tokens *token.Cache, optFns ...func(o *Options)) *Client {
	opts := Options{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{
		url:        url,
		tokens:     tokens,
		httpClient: opts.HTTPClient,
	}
}

type retrieveRequest struct {
	Domain string `json:"domain"`
	Query  string `json:"query"`
}

type retrieveResponse struct {
	Result string `json:"result"`
}

// Retrieve implements retrieval.Retriever. A 401 or 403 from the gateway is
// reported as retrieval.ErrUnauthorized so the caller can refresh credentials
// and retry.
func (c *Client) Retrieve(ctx context.Context, domain, query string) (string, error) {
	tok, err := c.tokens.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire gateway token: %w", err)
	}

	body, err := json.Marshal(retrieveRequest{Domain: domain, Query: query})
	if err != nil {
		return "", fmt.Errorf("marshal retrieve request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create retrieve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("gateway returned %d: %w", resp.StatusCode, &retrieval.UnauthorizedError{Token: tok})
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("gateway has no route for domain %q: %w", domain, retrieval.ErrUnknownDomain)
	case resp.StatusCode != http.StatusOK:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(data))
	}

	var out retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}

	return out.Result, nil
}
