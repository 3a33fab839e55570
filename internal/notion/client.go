package notion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
	queryPageSize  = 100
)

// Store is the remote-store capability surface the updaters depend on.
// *Client implements it; tests substitute fakes.
type Store interface {
	QueryDatabase(ctx context.Context, databaseID string, filter Filter) ([]Page, error)
	GetPage(ctx context.Context, pageID string) (*Page, error)
	UpdatePage(ctx context.Context, pageID string, props Properties) (*Page, error)
	CreatePage(ctx context.Context, databaseID string, props Properties) (*Page, error)
}

// WriteObserver is invoked synchronously after every successful update
// or create, before the call returns. Callers that need to mirror
// writes (run history, dashboard feed) supply one at construction time.
type WriteObserver func(pageID string, props Properties)

// Client talks to the hosted workspace API.
type Client struct {
	http    *resty.Client
	log     *zap.Logger
	onWrite WriteObserver
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, primarily for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.http.SetBaseURL(baseURL) }
}

// WithLogger attaches a logger for request-level diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithWriteObserver registers a write observer.
func WithWriteObserver(fn WriteObserver) Option {
	return func(c *Client) { c.onWrite = fn }
}

// NewClient builds a client authenticated with the given integration
// token. Rate-limit (429) and server errors are retried with backoff
// before surfacing as a StoreError.
func NewClient(token string, opts ...Option) *Client {
	hc := resty.New().
		SetBaseURL(defaultBaseURL).
		SetAuthToken(token).
		SetHeader("Notion-Version", apiVersion).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	c := &Client{
		http: hc,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type queryRequest struct {
	Filter      Filter `json:"filter,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size"`
}

type queryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// QueryDatabase returns every row of a database matching the filter,
// following pagination cursors until the store reports no more pages.
// A nil filter returns all rows.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter Filter) ([]Page, error) {
	var (
		pages  []Page
		cursor string
	)
	for {
		req := queryRequest{Filter: filter, StartCursor: cursor, PageSize: queryPageSize}
		var out queryResponse
		if err := c.call(ctx, http.MethodPost, "/v1/databases/"+databaseID+"/query", req, &out); err != nil {
			return nil, storeErr("query", databaseID, err)
		}
		pages = append(pages, out.Results...)
		if !out.HasMore || out.NextCursor == nil || *out.NextCursor == "" {
			break
		}
		cursor = *out.NextCursor
	}
	c.log.Debug("queried database",
		zap.String("database_id", databaseID),
		zap.Int("rows", len(pages)))
	return pages, nil
}

// GetPage retrieves one page by id.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	if err := c.call(ctx, http.MethodGet, "/v1/pages/"+pageID, nil, &page); err != nil {
		return nil, storeErr("get", pageID, err)
	}
	return &page, nil
}

// UpdatePage applies a partial property update; properties not named in
// props are untouched. The write observer, if any, fires after success.
func (c *Client) UpdatePage(ctx context.Context, pageID string, props Properties) (*Page, error) {
	body := map[string]any{"properties": props}
	var page Page
	if err := c.call(ctx, http.MethodPatch, "/v1/pages/"+pageID, body, &page); err != nil {
		return nil, storeErr("update", pageID, err)
	}
	if c.onWrite != nil {
		c.onWrite(pageID, props)
	}
	return &page, nil
}

// CreatePage inserts a new row into the given database. The write
// observer, if any, fires after success.
func (c *Client) CreatePage(ctx context.Context, databaseID string, props Properties) (*Page, error) {
	body := map[string]any{
		"parent":     map[string]any{"database_id": databaseID},
		"properties": props,
	}
	var page Page
	if err := c.call(ctx, http.MethodPost, "/v1/pages", body, &page); err != nil {
		return nil, storeErr("create", databaseID, err)
	}
	if c.onWrite != nil {
		c.onWrite(page.ID, props)
	}
	return &page, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	var apiErr apiError
	req.SetError(&apiErr)

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return fmt.Errorf("status %d (%s): %s", resp.StatusCode(), apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("status %d", resp.StatusCode())
	}
	return nil
}
