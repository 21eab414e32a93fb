// Package ranking talks to the external item-ranking service. Its suggestions only ever
// steer difficulty; callers keep the final say on which item is shown.
package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrDisabled is returned when ranking is switched off by configuration.
var ErrDisabled = errors.New("ranking service disabled")

// Ranker suggests questions for a target difficulty.
type Ranker interface {
	Enabled() bool
	Rank(ctx context.Context, req RankRequest) (*RankResponse, error)
}

type RankRequest struct {
	Subject            uint    `json:"subject"`
	TargetDifficulty   float64 `json:"targetDifficulty"`
	ExcludeQuestionIDs []uint  `json:"excludeQuestionIds"`
	K                  int     `json:"k"`
}

type RankedItem struct {
	QuestionID uint    `json:"questionId"`
	Area       *uint   `json:"area,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

type RankResponse struct {
	Items []RankedItem `json:"items"`
}

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Disabled bool
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	disabled   bool
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		disabled:   cfg.Disabled || strings.TrimSpace(cfg.BaseURL) == "",
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (c *Client) Enabled() bool {
	return !c.disabled
}

// Rank posts the request to /rank and returns the suggested items. The call is bounded
// by the configured timeout regardless of ctx's own deadline.
func (c *Client) Rank(ctx context.Context, req RankRequest) (*RankResponse, error) {
	if c.disabled {
		return nil, ErrDisabled
	}
	if req.K <= 0 {
		req.K = 1
	}
	if req.ExcludeQuestionIDs == nil {
		req.ExcludeQuestionIDs = []uint{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rank request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build rank request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rank request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out RankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode rank response: %w", err)
	}

	c.logger.Debug("Ranking service answered",
		"subject", req.Subject,
		"target", req.TargetDifficulty,
		"items", len(out.Items),
		"duration", time.Since(started))
	return &out, nil
}
