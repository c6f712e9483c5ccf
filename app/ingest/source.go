package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RawRule is one entry of a community's structured "about/rules" payload:
// a short name plus free-text description, both unreliable.
type RawRule struct {
	Name        string
	Description string
}

// RuleSource fetches raw rule material for one community. The two fetches
// are independent; either may fail or come back empty without the other.
type RuleSource interface {
	FetchRules(ctx context.Context, community string) ([]RawRule, error)
	FetchWiki(ctx context.Context, community string) (string, error)
}

const fetchTimeout = 15 * time.Second

// RedditSource reads community rules from reddit's public JSON endpoints.
type RedditSource struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

var _ RuleSource = (*RedditSource)(nil)

func NewRedditSource(httpClient *http.Client, baseURL, userAgent string) *RedditSource {
	return &RedditSource{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

func (s *RedditSource) FetchRules(ctx context.Context, community string) ([]RawRule, error) {
	url := fmt.Sprintf("%s/r/%s/about/rules.json", s.baseURL, community)

	data, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Rules []struct {
			ShortName   string `json:"short_name"`
			Description string `json:"description"`
		} `json:"rules"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse rules payload: %w", err)
	}

	rawRules := make([]RawRule, 0, len(payload.Rules))
	for _, r := range payload.Rules {
		rawRules = append(rawRules, RawRule{Name: r.ShortName, Description: r.Description})
	}

	return rawRules, nil
}

func (s *RedditSource) FetchWiki(ctx context.Context, community string) (string, error) {
	url := fmt.Sprintf("%s/r/%s/wiki/index.json", s.baseURL, community)

	data, err := s.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	var payload struct {
		Data struct {
			ContentMD string `json:"content_md"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("failed to parse wiki payload: %w", err)
	}

	return payload.Data.ContentMD, nil
}

func (s *RedditSource) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
