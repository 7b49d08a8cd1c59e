// Package api provides the HTTP client for the chemical-equipment backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"
)

const (
	defaultBase    = "http://localhost:8000"
	requestTimeout = 30 * time.Second
	maxBodySize    = 8 << 20 // 8 MB
)

// DefaultBase returns the backend base URL from the API_BASE environment
// variable, falling back to the local development default.
func DefaultBase() string {
	if base := os.Getenv("API_BASE"); base != "" {
		return base
	}
	return defaultBase
}

// Client talks to the equipment backend. All endpoints live under /api and
// use Basic auth; the auth header is omitted entirely when creds is nil.
// The client never retries — retry policy belongs to the caller.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the given base URL (scheme://host[:port]).
// An empty base falls back to DefaultBase().
func NewClient(base string) *Client {
	if base == "" {
		base = DefaultBase()
	}
	return &Client{
		base: strings.TrimRight(base, "/") + "/api",
		http: &http.Client{},
	}
}

// History returns the bounded most-recent-first list of uploads. It doubles
// as the login probe: a 401 here means the credentials are bad.
func (c *Client) History(ctx context.Context, creds *Credentials) ([]Upload, error) {
	raw, err := c.do(ctx, http.MethodGet, "/history/", creds, nil, "")
	if err != nil {
		return nil, err
	}
	var out []Upload
	decode(raw, &out)
	return out, nil
}

// Summary fetches the summary envelope for one upload.
func (c *Client) Summary(ctx context.Context, creds *Credentials, id int64) (Upload, error) {
	raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/summary/%d/", id), creds, nil, "")
	if err != nil {
		return Upload{}, err
	}
	var out Upload
	decode(raw, &out)
	return out, nil
}

// Data fetches the row data for one upload.
func (c *Client) Data(ctx context.Context, creds *Credentials, id int64) ([]Row, error) {
	raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/data/%d/", id), creds, nil, "")
	if err != nil {
		return nil, err
	}
	var out dataResponse
	decode(raw, &out)
	return out.Data, nil
}

// UploadCSV posts a CSV as a multipart form and returns the created record.
func (c *Client) UploadCSV(ctx context.Context, creds *Credentials, filename string, r io.Reader) (Upload, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", "text/csv")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return Upload{}, transportError(err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return Upload{}, transportError(err)
	}
	if err := mw.Close(); err != nil {
		return Upload{}, transportError(err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/upload/", creds, &buf, mw.FormDataContentType())
	if err != nil {
		return Upload{}, err
	}
	var out Upload
	decode(raw, &out)
	return out, nil
}

// Report streams the PDF report for one upload into w. On a non-2xx status
// the error carries only the status code — the body is not assumed to be
// JSON. Nothing is written to w on failure.
func (c *Client) Report(ctx context.Context, creds *Credentials, id int64, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+fmt.Sprintf("/report/%d/pdf/", id), nil)
	if err != nil {
		return transportError(err)
	}
	if creds != nil {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return transportError(err)
	}
	return nil
}

// do performs one JSON request and returns the raw response body. Non-2xx
// responses come back as *Error with the message preference order from
// classify; the raw transport error never escapes unwrapped.
func (c *Client) do(ctx context.Context, method, path string, creds *Credentials, body io.Reader, contentType string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, transportError(err)
	}

	if creds != nil {
		req.SetBasicAuth(creds.Username, creds.Password)
	}
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read as text first so empty bodies are fine either way.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload map[string]any
		if len(raw) > 0 {
			// Parse failure leaves payload nil; classify falls back
			// to the status text.
			_ = json.Unmarshal(raw, &payload)
		}
		return nil, classify(resp.StatusCode, payload)
	}

	return raw, nil
}

// decode unmarshals raw into v, tolerating empty and malformed bodies: both
// leave v at its zero value so callers must handle missing fields anyway.
func decode(raw []byte, v any) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return
	}
	_ = json.Unmarshal(raw, v)
}
