// Package powerbi implements the query backend over the Power BI REST API
// executeQueries endpoint.
package powerbi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/classify"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/query"
)

const defaultBaseURL = "https://api.powerbi.com/v1.0/myorg"

// Config configures the backend.
type Config struct {
	// BaseURL overrides the Power BI API root, used in tests.
	BaseURL string

	// HTTPClient overrides http.DefaultClient.
	HTTPClient *http.Client
}

// Backend executes DAX queries through the executeQueries endpoint.
type Backend struct {
	baseURL string
	client  *http.Client
}

// New creates a backend.
func New(cfg Config) *Backend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Backend{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type executeRequest struct {
	Queries            []executeQuery     `json:"queries"`
	SerializerSettings serializerSettings `json:"serializerSettings"`
}

type executeQuery struct {
	Query string `json:"query"`
}

type serializerSettings struct {
	IncludeNulls bool `json:"includeNulls"`
}

type executeResponse struct {
	Results []struct {
		Tables []struct {
			Rows []map[string]any `json:"rows"`
		} `json:"tables"`
	} `json:"results"`
}

// Execute posts queryText to the dataset's executeQueries endpoint and
// returns the rows of the first table of the first result. An absent or
// empty table yields an empty row list.
func (b *Backend) Execute(ctx context.Context, accessToken, datasetID, queryText string) ([]query.Row, error) {
	body, err := json.Marshal(executeRequest{
		Queries:            []executeQuery{{Query: queryText}},
		SerializerSettings: serializerSettings{IncludeNulls: true},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding query request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/datasets/%s/executeQueries", b.baseURL, url.PathEscape(datasetID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading query response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &classify.StatusError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("query request failed: %s", snippet(respBody)),
		}
	}

	var envelope executeResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}

	rows := []query.Row{}
	if len(envelope.Results) > 0 && len(envelope.Results[0].Tables) > 0 {
		for _, r := range envelope.Results[0].Tables[0].Rows {
			rows = append(rows, query.Row(r))
		}
	}
	return rows, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "empty response body"
	}
	return s
}

// Verify interface compliance.
var _ query.Backend = (*Backend)(nil)
