// Package tablestore talks to the Airtable-compatible REST API that holds the
// editable source of truth for talk submissions.
package tablestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/confbase/confbase/internal/domain"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Record is one row of a table: a server-assigned ID plus named fields.
type Record struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	CreatedTime string         `json:"createdTime,omitempty"`
}

// Client is a minimal table-store API client. A zero API key disables it;
// callers get domain.ErrNoTableStore on every operation.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether the client has credentials to use.
func (c *Client) Enabled() bool { return c.apiKey != "" }

// Get fetches one record by ID.
func (c *Client) Get(ctx context.Context, baseID, table, recordID string) (Record, error) {
	var rec Record
	err := c.do(ctx, http.MethodGet, c.recordURL(baseID, table, recordID), nil, &rec)
	return rec, err
}

// Create inserts a new record and returns it with the server-assigned ID.
func (c *Client) Create(ctx context.Context, baseID, table string, fields map[string]any) (Record, error) {
	var rec Record
	err := c.do(ctx, http.MethodPost, c.tableURL(baseID, table), Record{Fields: fields}, &rec)
	return rec, err
}

// Update patches the given fields of a record, leaving the rest untouched.
func (c *Client) Update(ctx context.Context, baseID, table, recordID string, fields map[string]any) (Record, error) {
	var rec Record
	err := c.do(ctx, http.MethodPatch, c.recordURL(baseID, table, recordID), Record{Fields: fields}, &rec)
	return rec, err
}

// GetFields returns just the field map of a record.
func (c *Client) GetFields(ctx context.Context, baseID, table, recordID string) (map[string]any, error) {
	rec, err := c.Get(ctx, baseID, table, recordID)
	if err != nil {
		return nil, err
	}
	return rec.Fields, nil
}

// CreateRecord inserts a record and returns the server-assigned ID.
func (c *Client) CreateRecord(ctx context.Context, baseID, table string, fields map[string]any) (string, error) {
	rec, err := c.Create(ctx, baseID, table, fields)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// UpdateRecord patches the fields of a record.
func (c *Client) UpdateRecord(ctx context.Context, baseID, table, recordID string, fields map[string]any) error {
	_, err := c.Update(ctx, baseID, table, recordID, fields)
	return err
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// List walks the table page by page and returns every record.
func (c *Client) List(ctx context.Context, baseID, table string) ([]Record, error) {
	var all []Record
	offset := ""
	for {
		u := c.tableURL(baseID, table)
		if offset != "" {
			u += "?offset=" + url.QueryEscape(offset)
		}
		var page listResponse
		if err := c.do(ctx, http.MethodGet, u, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

func (c *Client) do(ctx context.Context, method, rawURL string, in, out any) error {
	if !c.Enabled() {
		return domain.ErrNoTableStore
	}

	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("table store: status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (c *Client) tableURL(baseID, table string) string {
	return c.baseURL + "/" + url.PathEscape(baseID) + "/" + url.PathEscape(table)
}

func (c *Client) recordURL(baseID, table, recordID string) string {
	return c.tableURL(baseID, table) + "/" + url.PathEscape(recordID)
}
