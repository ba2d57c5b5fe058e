// Package backend implements the HTTP client for the remote marketplace
// REST API: paged catalog queries and authoritative cart mutations. Raw
// records are normalized at this boundary before they reach the engine.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abgdnv/storefront/internal/cart"
	"github.com/abgdnv/storefront/internal/feed"
	"github.com/go-playground/validator/v10"
)

// ErrUnavailable is returned for transport failures, timeouts, and
// unexpected backend responses.
var ErrUnavailable = errors.New("backend unavailable")

// Config holds the client configuration.
type Config struct {
	// URL is the backend base URL, e.g. "https://api.example.com".
	URL string `koanf:"url"`
	// Timeout bounds a single request.
	Timeout time.Duration `koanf:"timeout"`
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("backend URL cannot be empty")
	}
	if _, err := url.Parse(c.URL); err != nil {
		return fmt.Errorf("invalid backend URL %q: %w", c.URL, err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid backend timeout: %v", c.Timeout)
	}
	return nil
}

// TokenFunc supplies the current bearer credential; it returns "" when the
// user is not signed in. The credential is passed in at construction time,
// never read from ambient storage.
type TokenFunc func() string

// Client talks to the marketplace backend. It implements feed.Source for
// catalog queries and cart.Backend for cart mutations.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	token      TokenFunc
	validate   *validator.Validate
	logger     *slog.Logger
}

var (
	_ feed.Source  = (*Client)(nil)
	_ cart.Backend = (*Client)(nil)
)

// NewClient creates a backend client. token may be nil for anonymous
// catalog-only use; cart mutations then fail with cart.ErrUnauthorized.
func NewClient(cfg Config, token TokenFunc, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", cfg.URL, err)
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		base:       base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		token:      token,
		validate:   validator.New(),
		logger:     logger.With("component", "backend"),
	}, nil
}

// catalogResponse is the wire shape of GET /catalog.
type catalogResponse struct {
	Items      []recordDTO `json:"items"`
	TotalCount int         `json:"totalCount"`
}

// FetchPage requests one page of the filtered, sorted catalog.
func (c *Client) FetchPage(ctx context.Context, cfg feed.Config, page, pageSize int) (*feed.Page, error) {
	q := url.Values{}
	for _, category := range cfg.Filter.Categories {
		q.Add("category", category)
	}
	for _, vendor := range cfg.Filter.Vendors {
		q.Add("vendor", vendor)
	}
	if cfg.Filter.MinPrice != nil {
		q.Set("minPrice", strconv.FormatInt(*cfg.Filter.MinPrice, 10))
	}
	if cfg.Filter.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatInt(*cfg.Filter.MaxPrice, 10))
	}
	if cfg.Filter.MinRating > 0 {
		q.Set("minRating", strconv.FormatFloat(cfg.Filter.MinRating, 'f', -1, 64))
	}
	if cfg.Filter.InStock {
		q.Set("inStock", "true")
	}
	if cfg.Filter.OnSale {
		q.Set("onSale", "true")
	}
	if cfg.Query != "" {
		q.Set("q", cfg.Query)
	}
	if cfg.Sort != "" {
		q.Set("sort", string(cfg.Sort))
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var response catalogResponse
	if err := c.do(ctx, http.MethodGet, "/catalog?"+q.Encode(), false, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch catalog page %d: %w", page, err)
	}
	return &feed.Page{
		Items:      c.normalizeRecords(response.Items),
		TotalCount: response.TotalCount,
	}, nil
}

// lineRefDTO is the wire shape of a cart mutation response.
type lineRefDTO struct {
	LineID   string `json:"lineId"`
	RecordID string `json:"recordId"`
	Quantity int    `json:"quantity"`
}

// AddLine creates a cart line on the backend.
func (c *Client) AddLine(ctx context.Context, recordID string, quantity int) (*cart.LineRef, error) {
	body := map[string]any{"recordId": recordID, "quantity": quantity}
	var ref lineRefDTO
	if err := c.do(ctx, http.MethodPost, "/cart/add", true, body, &ref); err != nil {
		return nil, fmt.Errorf("failed to add cart line: %w", err)
	}
	if ref.RecordID == "" {
		ref.RecordID = recordID
	}
	return &cart.LineRef{LineID: ref.LineID, RecordID: ref.RecordID, Quantity: ref.Quantity}, nil
}

// UpdateLine sets the quantity of an existing cart line.
func (c *Client) UpdateLine(ctx context.Context, lineID string, quantity int) (*cart.LineRef, error) {
	body := map[string]any{"quantity": quantity}
	var ref lineRefDTO
	if err := c.do(ctx, http.MethodPut, "/cart/update/"+url.PathEscape(lineID), true, body, &ref); err != nil {
		return nil, fmt.Errorf("failed to update cart line %s: %w", lineID, err)
	}
	return &cart.LineRef{LineID: ref.LineID, RecordID: ref.RecordID, Quantity: ref.Quantity}, nil
}

// RemoveLine deletes a cart line.
func (c *Client) RemoveLine(ctx context.Context, lineID string) error {
	if err := c.do(ctx, http.MethodDelete, "/cart/delete/"+url.PathEscape(lineID), true, nil, nil); err != nil {
		return fmt.Errorf("failed to remove cart line %s: %w", lineID, err)
	}
	return nil
}

// ClearLines deletes every cart line.
func (c *Client) ClearLines(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/cart/clear", true, nil, nil); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// do issues one request and decodes the response into out (when non-nil).
// Authenticated requests fail with cart.ErrUnauthorized before any I/O when
// no credential is available.
func (c *Client) do(ctx context.Context, method, path string, authenticated bool, body, out any) error {
	token := ""
	if authenticated {
		token = c.token()
		if token == "" {
			return cart.ErrUnauthorized
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(c.base.String(), "/")+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return cart.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return cart.ErrLineNotFound
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}
	return nil
}
