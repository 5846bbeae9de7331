// Package remote is a client for the external product collection that acts
// as the system of record.
//
// Calls are made once. A transport failure and a non-2xx response both come
// back as *Error marked with core.ErrRemote; callers decide how to reconcile.
package remote

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

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/catalog/internal/core"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Error is a failed remote call.
type Error struct {
	Op         string
	StatusCode int // 0 for transport failures
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("remote %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("remote %s: %d %s", e.Op, e.StatusCode, e.Message)
}

// Client talks to a JSON CRUD endpoint at {baseURL}/{resource}.
type Client struct {
	baseURL    string
	resource   string
	httpClient *http.Client
}

// NewClient creates a client. timeout bounds each call.
func NewClient(baseURL, resource string, timeout time.Duration) *Client {
	if resource == "" {
		resource = "products"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		resource:   strings.Trim(resource, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// List returns every record. It satisfies core.ProductSource.
func (c *Client) List(ctx context.Context) ([]core.Product, error) {
	var out []core.Product
	if err := c.do(ctx, "list", http.MethodGet, c.collectionURL(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a new record and returns what the remote stored.
func (c *Client) Create(ctx context.Context, p core.Product) (core.Product, error) {
	var out core.Product
	err := c.do(ctx, "create", http.MethodPost, c.collectionURL(), p, &out)
	return out, err
}

// Update sends a partial update and returns the stored record.
func (c *Client) Update(ctx context.Context, id string, patch core.ProductPatch) (core.Product, error) {
	var out core.Product
	err := c.do(ctx, "update", http.MethodPut, c.itemURL(id), patch, &out)
	return out, err
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, c.itemURL(id), nil, nil)
}

func (c *Client) collectionURL() string {
	return c.baseURL + "/" + c.resource
}

func (c *Client) itemURL(id string) string {
	return c.collectionURL() + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, op, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "remote %s: encode body", op)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return newError(op, 0, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return newError(op, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newError(op, resp.StatusCode, errorMessage(resp.StatusCode, raw))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return newError(op, resp.StatusCode, "invalid response body: "+err.Error())
	}
	return nil
}

func newError(op string, status int, msg string) error {
	return errors.Mark(&Error{Op: op, StatusCode: status, Message: msg}, core.ErrRemote)
}

// errorMessage pulls a readable reason out of an error response: the JSON
// "error" or "message" field, else the body text, else the status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}
