package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Source is what the blog needs from the content service.
type Source interface {
	Query(ctx context.Context, q Query) (RawPage, error)
	Next(ctx context.Context, c Cursor) (RawPage, error)
	GetByUID(ctx context.Context, docType, uid string) (RawDocument, error)
}

// Query selects documents of one type.
type Query struct {
	DocumentType string
	Fetch        []string // field names without the type prefix; empty fetches everything
	PageSize     int
	Page         int
	Orderings    string
}

// PostListing is the listing query used by the home page.
func PostListing(pageSize int) Query {
	return Query{
		DocumentType: "post",
		Fetch:        []string{"title", "subtitle", "author"},
		PageSize:     pageSize,
	}
}

// Client is an HTTP client for a Prismic-compatible REST API.
type Client struct {
	base   *url.URL
	token  string
	http   *http.Client
	logger *slog.Logger

	refTTL  time.Duration
	cursors *securecookie.SecureCookie

	mu        sync.Mutex
	masterRef string
	refAt     time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAccessToken sets the API access token sent with every request.
func WithAccessToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithCursorKey sets the secret cursors are sealed with. Clients sharing a
// secret accept each other's cursors, so it must be stable across restarts
// and instances. Without it a random per-process key is used.
func WithCursorKey(secret []byte) ClientOption {
	return func(c *Client) { c.cursors = newCursorCodec(secret) }
}

// WithRefTTL sets how long the master ref is reused before it is looked up again.
func WithRefTTL(d time.Duration) ClientOption {
	return func(c *Client) { c.refTTL = d }
}

// NewClient creates a Client for the API rooted at apiURL, e.g.
// "https://my-repo.cdn.prismic.io".
func NewClient(apiURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(apiURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("content: parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("content: api url %q must be http or https", apiURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
		refTTL: time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cursors == nil {
		key := securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, fmt.Errorf("content: generate cursor key")
		}
		c.cursors = newCursorCodec(key)
	}
	return c, nil
}

// HTTPClient returns the client used for upstream requests, so callers can
// fetch assets (banners) with the same transport.
func (c *Client) HTTPClient() *http.Client { return c.http }

// Query runs q and returns the requested page (the first when q.Page is 0).
func (c *Client) Query(ctx context.Context, q Query) (RawPage, error) {
	ref, err := c.ref(ctx)
	if err != nil {
		return RawPage{}, err
	}
	vals := url.Values{}
	vals.Set("ref", ref)
	vals.Set("q", fmt.Sprintf(`[[at(document.type,"%s")]]`, q.DocumentType))
	if len(q.Fetch) > 0 {
		fields := make([]string, len(q.Fetch))
		for i, f := range q.Fetch {
			fields[i] = q.DocumentType + "." + f
		}
		vals.Set("fetch", strings.Join(fields, ","))
	}
	if q.PageSize > 0 {
		vals.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	vals.Set("page", strconv.Itoa(page))
	if q.Orderings != "" {
		vals.Set("orderings", q.Orderings)
	}
	return c.search(ctx, "query", vals)
}

// Next fetches the page a cursor points at. It never touches the network for
// an exhausted cursor.
func (c *Client) Next(ctx context.Context, cur Cursor) (RawPage, error) {
	if cur.Exhausted() {
		return RawPage{}, ErrExhausted
	}
	vals, err := c.decodeCursor(cur)
	if err != nil {
		return RawPage{}, err
	}
	return c.search(ctx, "next", vals)
}

// GetByUID fetches one document with all of its fields.
func (c *Client) GetByUID(ctx context.Context, docType, uid string) (RawDocument, error) {
	ref, err := c.ref(ctx)
	if err != nil {
		return RawDocument{}, err
	}
	vals := url.Values{}
	vals.Set("ref", ref)
	vals.Set("q", fmt.Sprintf(`[[at(my.%s.uid,"%s")]]`, docType, strings.ReplaceAll(uid, `"`, `\"`)))
	vals.Set("pageSize", "1")
	page, err := c.search(ctx, "get by uid", vals)
	if err != nil {
		return RawDocument{}, err
	}
	if len(page.Results) == 0 {
		return RawDocument{}, ErrNotFound
	}
	return page.Results[0], nil
}

func (c *Client) search(ctx context.Context, op string, vals url.Values) (RawPage, error) {
	var resp searchResponse
	if err := c.getJSON(ctx, op, "/api/v2/documents/search", vals, &resp); err != nil {
		return RawPage{}, err
	}
	next, err := c.encodeCursor(resp.NextPage)
	if err != nil {
		return RawPage{}, &FetchError{Op: op, URL: c.redacted("/api/v2/documents/search", vals), Kind: ErrMalformed, Err: err}
	}
	c.logger.DebugContext(ctx, "content search", "op", op, "page", resp.Page, "results", len(resp.Results), "has_next", !next.Exhausted())
	return RawPage{
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
		Next:       next,
		Results:    resp.Results,
	}, nil
}

// ref returns the master ref, looking it up when the cached one is stale.
func (c *Client) ref(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.masterRef != "" && time.Since(c.refAt) < c.refTTL {
		return c.masterRef, nil
	}
	var api apiResponse
	if err := c.getJSON(ctx, "resolve ref", "/api/v2", url.Values{}, &api); err != nil {
		return "", err
	}
	for _, r := range api.Refs {
		if r.IsMasterRef {
			c.masterRef = r.Ref
			c.refAt = time.Now()
			return r.Ref, nil
		}
	}
	return "", &FetchError{Op: "resolve ref", URL: c.redacted("/api/v2", nil), Kind: ErrMalformed, Err: fmt.Errorf("no master ref")}
}

func (c *Client) getJSON(ctx context.Context, op, path string, vals url.Values, dst any) error {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	q := url.Values{}
	for k, v := range vals {
		q[k] = v
	}
	if c.token != "" {
		q.Set("access_token", c.token)
	}
	u.RawQuery = q.Encode()
	shown := c.redacted(path, vals)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &FetchError{Op: op, URL: shown, Kind: ErrUpstream, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Op: op, URL: shown, Kind: ErrUpstream, Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound && op == "get by uid" {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<16))
		c.logger.WarnContext(ctx, "content request failed", "op", op, "url", shown, "status", res.StatusCode)
		return &FetchError{Op: op, URL: shown, Status: res.StatusCode, Kind: ErrUpstream}
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 8<<20)).Decode(dst); err != nil {
		return &FetchError{Op: op, URL: shown, Kind: ErrMalformed, Err: err}
	}
	return nil
}

// redacted renders a request URL without the access token for errors and logs.
func (c *Client) redacted(path string, vals url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = vals.Encode()
	return u.String()
}
