// Package moderation supplies pre-publication signals for submitted
// statements: an external spam-check API and a local profanity screen.
// Both are advisory; callers flag rather than reject on a positive hit.
package moderation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/openagora/agora-backend/internal/config"
)

// SpamChecker submits statement text to an Akismet-compatible
// comment-check endpoint.
type SpamChecker struct {
	baseURL    string
	apiKey     string
	site       string
	httpClient *http.Client
	log        *slog.Logger
}

// NewSpamChecker creates a SpamChecker from config.
func NewSpamChecker(cfg config.ModerationConfig, logger *slog.Logger) *SpamChecker {
	return &SpamChecker{
		baseURL:    fmt.Sprintf("https://%s.rest.akismet.com", cfg.AkismetKey),
		apiKey:     cfg.AkismetKey,
		site:       cfg.AkismetSite,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With("adapter", "spam_check"),
	}
}

// NewSpamCheckerWithURL creates a SpamChecker with a custom base URL (for testing).
func NewSpamCheckerWithURL(baseURL, site string, logger *slog.Logger) *SpamChecker {
	return &SpamChecker{
		baseURL:    baseURL,
		site:       site,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With("adapter", "spam_check"),
	}
}

// IsSpam reports whether the API classifies text as spam. The endpoint
// answers with a bare "true" or "false" body.
func (c *SpamChecker) IsSpam(ctx context.Context, text string) (bool, error) {
	form := url.Values{
		"blog":            {c.site},
		"comment_type":    {"comment"},
		"comment_content": {text},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/1.1/comment-check", strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("spam check: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("spam check: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("spam check: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return false, fmt.Errorf("spam check: read body: %w", err)
	}

	switch strings.TrimSpace(string(body)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("spam check: unexpected response %q", string(body))
	}
}
