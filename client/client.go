package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Transport is what the sync machinery needs from the gateway.
type Transport interface {
	Sync(ctx context.Context, key string, records json.RawMessage) error
	FetchAll(ctx context.Context) (map[string]json.RawMessage, error)
}

// Client is the HTTP transport for the tracker gateway.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// New creates a gateway client.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     log,
	}
}

type syncRequest struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

type syncAck struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Sync replaces the named collection on the server with records.
func (c *Client) Sync(ctx context.Context, key string, records json.RawMessage) error {
	body, err := sonic.Marshal(syncRequest{Key: key, Data: records})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/sync", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(req, "sync")
	if err != nil {
		return err
	}

	var ack syncAck
	if err := sonic.Unmarshal(respBody, &ack); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if !ack.Success {
		return fmt.Errorf("sync not acknowledged: %s", ack.Error)
	}
	return nil
}

// FetchAll retrieves the whole-store snapshot as raw collections keyed by
// name, leaving per-key decoding to the cache so a partial response can be
// applied selectively.
func (c *Client) FetchAll(ctx context.Context) (map[string]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/data", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	respBody, err := c.do(req, "fetch_all")
	if err != nil {
		return nil, err
	}

	doc := map[string]json.RawMessage{}
	if err := sonic.Unmarshal(respBody, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return doc, nil
}

// ProjectInfo is the enriched project line returned by the query endpoints.
type ProjectInfo struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	CompletionDate *string `json:"completionDate"`
	Status         string  `json:"status"`
	TotalProgress  int     `json:"totalProgress"`
	StageCount     int     `json:"stageCount"`
}

// CompletedResult is the completed-projects query response.
type CompletedResult struct {
	Count    int           `json:"count"`
	Projects []ProjectInfo `json:"projects"`
}

// Completed queries completed projects, optionally filtered by completion
// month and year.
func (c *Client) Completed(ctx context.Context, month, year *int) (*CompletedResult, error) {
	params := url.Values{}
	if month != nil {
		params.Set("month", strconv.Itoa(*month))
	}
	if year != nil {
		params.Set("year", strconv.Itoa(*year))
	}
	endpoint := c.BaseURL + "/api/projects/completed"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	respBody, err := c.do(req, "completed")
	if err != nil {
		return nil, err
	}

	var result CompletedResult
	if err := sonic.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &result, nil
}

// InProgressResult is the in-progress query response.
type InProgressResult struct {
	Count    int           `json:"count"`
	Projects []ProjectInfo `json:"projects"`
}

// InProgress queries every project that is not completed.
func (c *Client) InProgress(ctx context.Context) (*InProgressResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/projects/in-progress", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	respBody, err := c.do(req, "in_progress")
	if err != nil {
		return nil, err
	}

	var result InProgressResult
	if err := sonic.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &result, nil
}

// ProjectStatus is the per-project line of an evaluate response.
type ProjectStatus struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Completed      bool    `json:"completed"`
	CompletionDate *string `json:"completionDate"`
}

// EvaluateResult is the forced-recomputation response.
type EvaluateResult struct {
	Evaluated bool            `json:"evaluated"`
	Updated   bool            `json:"updated"`
	Projects  []ProjectStatus `json:"projects"`
}

// Evaluate asks the gateway to force a derived-state pass.
func (c *Client) Evaluate(ctx context.Context) (*EvaluateResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/projects/evaluate", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	respBody, err := c.do(req, "evaluate")
	if err != nil {
		return nil, err
	}

	var result EvaluateResult
	if err := sonic.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &result, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if c.Logger != nil {
			c.Logger.Warn(op+" request failed",
				zap.Int("status_code", resp.StatusCode),
				zap.String("body", string(body)))
		}
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
