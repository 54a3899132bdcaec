package kernel

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
	"time"

	"github.com/papercomputeco/ledgerview/pkg/ledger"
	"github.com/papercomputeco/ledgerview/pkg/utils"
)

const (
	// DefaultBaseURL is where a locally running kernel listens.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout bounds each kernel request.
	DefaultTimeout = 30 * time.Second
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL of the kernel. Defaults to DefaultBaseURL.
	BaseURL string

	// Namespace is injected as namespace_id into namespaced queries that
	// do not name one.
	Namespace string

	// Timeout per request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying client; Timeout is ignored when set.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is a Backend over the kernel's HTTP API.
type Client struct {
	baseURL    string
	namespace  string
	httpClient *http.Client
	logger     *slog.Logger
}

// errorEnvelope is the kernel's error body.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type namespacesResponse struct {
	NamespaceIDs []string `json:"namespace_ids"`
}

// NewClient creates a kernel client.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parsing kernel url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		namespace:  cfg.Namespace,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Expand implements Backend.
func (c *Client) Expand(ctx context.Context, query ledger.ExpandQuery) (*ledger.ExpandResult, error) {
	q := url.Values{}
	q.Set("ids", strings.Join(query.RootIDs, ","))
	q.Set("depth", strconv.Itoa(query.Depth))
	if query.NamespaceID != "" {
		q.Set("namespace_id", query.NamespaceID)
	}

	result := &ledger.ExpandResult{}
	if err := c.getJSON(ctx, "/v1/expand", q, true, result); err != nil {
		return nil, fmt.Errorf("expanding %v: %w", query.RootIDs, err)
	}
	return result, nil
}

// Namespaces implements Backend.
func (c *Client) Namespaces(ctx context.Context) ([]string, error) {
	var resp namespacesResponse
	if err := c.getJSON(ctx, "/v1/namespaces", nil, false, &resp); err != nil {
		return nil, fmt.Errorf("listing namespaces: %w", err)
	}
	return resp.NamespaceIDs, nil
}

// NamespaceRoot implements Backend.
func (c *Client) NamespaceRoot(ctx context.Context, namespaceID string) (*ledger.NamespaceRoot, error) {
	q := url.Values{}
	q.Set("namespace_id", namespaceID)

	root := &ledger.NamespaceRoot{}
	if err := c.getJSON(ctx, "/v1/namespace_root", q, false, root); err != nil {
		return nil, fmt.Errorf("resolving root of %s: %w", namespaceID, err)
	}
	return root, nil
}

// History implements Backend.
func (c *Client) History(ctx context.Context, target string, limit int) ([]ledger.Operation, error) {
	q := url.Values{}
	if target != "" {
		q.Set("target", target)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var ops []ledger.Operation
	if err := c.getJSON(ctx, "/v1/history", q, true, &ops); err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	return ops, nil
}

// Healthz implements Backend.
func (c *Client) Healthz(ctx context.Context) error {
	var resp struct {
		OK bool `json:"ok"`
	}
	if err := c.getJSON(ctx, "/v1/healthz", nil, false, &resp); err != nil {
		return fmt.Errorf("kernel health: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("kernel health: not ok")
	}
	return nil
}

// Namespace returns the namespace injected into unscoped queries.
func (c *Client) Namespace() string {
	return c.namespace
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, injectNamespace bool, out any) error {
	if q == nil {
		q = url.Values{}
	}
	if injectNamespace && c.namespace != "" && !q.Has("namespace_id") {
		q.Set("namespace_id", c.namespace)
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", utils.UserAgent())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("kernel request",
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{Status: resp.StatusCode}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

var _ Backend = (*Client)(nil)
