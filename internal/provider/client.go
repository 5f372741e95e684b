// Package provider talks to the external threat-intelligence provider.
// Each indicator type maps to its own request protocol; ip, domain and
// hash are single resource GETs, email is an escaped search GET, and url
// is a two-phase submit-then-poll flow.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/threatscope/threatscope/internal/score"
)

// Provider failure kinds.
var (
	// ErrUpstream indicates the provider rejected or failed a request.
	ErrUpstream = errors.New("upstream provider error")
	// ErrUpstreamTimeout indicates the provider did not answer in time.
	ErrUpstreamTimeout = errors.New("upstream provider timeout")
)

// maxResponseBytes bounds provider response bodies.
const maxResponseBytes = 4 << 20

// Client issues provider requests with a bounded timeout and an API key
// credential attached to every call.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a Client. An empty credential is a configuration
// error surfaced here, at startup, rather than per request.
func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("provider: missing api key")
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("provider: missing base url")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    base,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// protocol is one indicator type's request/response flow against the
// provider. Implementations own endpoint construction and response
// handling for their type.
type protocol interface {
	fetch(ctx context.Context, c *Client, query string) (json.RawMessage, error)
}

// protocols is the closed dispatch table keyed by indicator type.
var protocols = map[QueryType]protocol{
	TypeIP:     resourceGet{path: "ip_addresses"},
	TypeDomain: resourceGet{path: "domains"},
	TypeHash:   resourceGet{path: "files"},
	TypeEmail:  searchGet{},
	TypeURL:    urlAnalysis{},
}

// Fetch retrieves the provider document for the query using the protocol
// registered for its type.
func (c *Client) Fetch(ctx context.Context, query string, queryType QueryType) (json.RawMessage, error) {
	proto, ok := protocols[queryType]
	if !ok {
		return nil, fmt.Errorf("%w: no protocol for query type %q", ErrUpstream, queryType)
	}
	return proto.fetch(ctx, c, query)
}

// resourceGet fetches a type-specific resource keyed by the literal query.
type resourceGet struct {
	path string
}

func (p resourceGet) fetch(ctx context.Context, c *Client, query string) (json.RawMessage, error) {
	return c.get(ctx, fmt.Sprintf("%s/%s/%s", c.baseURL, p.path, url.PathEscape(query)))
}

// searchGet fetches search results with the query escaped into a
// parameter.
type searchGet struct{}

func (searchGet) fetch(ctx context.Context, c *Client, query string) (json.RawMessage, error) {
	return c.get(ctx, fmt.Sprintf("%s/search?query=%s", c.baseURL, url.QueryEscape(query)))
}

// urlAnalysis submits the URL for analysis, then retrieves the analysis
// result by the server-issued identifier. The second phase is an
// idempotent GET, so a retry layer can wrap it without changing this
// contract.
type urlAnalysis struct{}

func (urlAnalysis) fetch(ctx context.Context, c *Client, query string) (json.RawMessage, error) {
	submitBody := url.Values{"url": []string{query}}
	submitted, errSubmit := c.postForm(ctx, c.baseURL+"/urls", submitBody)
	if errSubmit != nil {
		return nil, errSubmit
	}

	analysisID := gjson.GetBytes(submitted, "data.id").String()
	if analysisID == "" {
		return nil, fmt.Errorf("%w: url submission returned no analysis id", ErrUpstream)
	}

	return c.get(ctx, fmt.Sprintf("%s/analyses/%s", c.baseURL, url.PathEscape(analysisID)))
}

// get issues an authenticated GET and returns the raw document.
func (c *Client) get(ctx context.Context, rawURL string) (json.RawMessage, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if errReq != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, errReq)
	}
	return c.do(req)
}

// postForm issues an authenticated form POST and returns the raw document.
func (c *Client) postForm(ctx context.Context, rawURL string, values url.Values) (json.RawMessage, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(values.Encode()))
	if errReq != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, errReq)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("x-apikey", c.apiKey)

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		if isTimeout(errDo) {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamTimeout, errDo)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	body, errRead := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if errRead != nil {
		if isTimeout(errRead) {
			return nil, fmt.Errorf("%w: read body: %v", ErrUpstreamTimeout, errRead)
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, errRead)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: malformed response document", ErrUpstream)
	}
	return json.RawMessage(body), nil
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ExtractStats pulls the optional verdict statistics out of a provider
// document. Resource documents carry them at
// data.attributes.last_analysis_stats; analysis documents (the url flow)
// at data.attributes.stats. Absence is valid and yields nil.
func ExtractStats(doc json.RawMessage) *score.Stats {
	for _, path := range []string{
		"data.attributes.last_analysis_stats",
		"data.attributes.stats",
	} {
		node := gjson.GetBytes(doc, path)
		if !node.Exists() || !node.IsObject() {
			continue
		}
		return &score.Stats{
			Harmless:   node.Get("harmless").Int(),
			Suspicious: node.Get("suspicious").Int(),
			Malicious:  node.Get("malicious").Int(),
		}
	}
	return nil
}
