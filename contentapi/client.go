// Package contentapi is a small HTTP client for the portfolio content API.
//
// The API serves projects, tech stacks, personal info, SEO settings and a
// chat endpoint as JSON. List endpoints answer either with a bare array or
// with a {data, total, page, limit} envelope; single-object endpoints answer
// with the object or with {data: object}. Both shapes are normalized here so
// callers only ever see the DTOs.
package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
)

// seoTimeout bounds the SSR fetch of SEO settings.
const seoTimeout = 5 * time.Second

// Client talks to one content API server.
type Client struct {
	server string // e.g. http://localhost:3000, no trailing slash
	base   string // server + "/api", or "/api" when server is empty
	token  string
	http   *http.Client
	logger *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken makes every request carry "Authorization: Bearer <token>".
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client for the API served at serverURL.
func New(serverURL string, opts ...Option) *Client {
	server := strings.TrimSuffix(strings.TrimSpace(serverURL), "/")
	c := &Client{
		server: server,
		base:   server + "/api",
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: log.New("contentapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of c that authenticates with token.
// The copy shares the HTTP client and logger.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// ServerURL returns the configured server root.
func (c *Client) ServerURL() string { return c.server }

// BaseURL returns the API base, i.e. the server root plus "/api".
func (c *Client) BaseURL() string { return c.base }

// FetchProjects returns every project the API lists by default.
func (c *Client) FetchProjects(ctx context.Context) ([]Project, error) {
	body, err := c.get(ctx, "projects", "/projects")
	if err != nil {
		return nil, err
	}
	page, err := decodeList[Project](body)
	if err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return page.items, nil
}

// FetchTechStacks returns the tech-stack entries.
func (c *Client) FetchTechStacks(ctx context.Context) ([]TechStack, error) {
	body, err := c.get(ctx, "tech stacks", "/tech-stacks")
	if err != nil {
		return nil, err
	}
	page, err := decodeList[TechStack](body)
	if err != nil {
		return nil, fmt.Errorf("decode tech stacks: %w", err)
	}
	return page.items, nil
}

// FetchPersonalInfo returns the owner's profile.
func (c *Client) FetchPersonalInfo(ctx context.Context) (PersonalInfo, error) {
	body, err := c.get(ctx, "personal info", "/personal-info")
	if err != nil {
		return PersonalInfo{}, err
	}
	var info PersonalInfo
	if err := decodeObject(body, &info); err != nil {
		return PersonalInfo{}, fmt.Errorf("decode personal info: %w", err)
	}
	return info, nil
}

// FetchSEOSettings returns the SEO settings exactly as stored.
func (c *Client) FetchSEOSettings(ctx context.Context) (SEOSettings, error) {
	body, err := c.get(ctx, "SEO settings", "/seo-settings")
	if err != nil {
		return SEOSettings{}, err
	}
	var seo SEOSettings
	if err := decodeObject(body, &seo); err != nil {
		return SEOSettings{}, fmt.Errorf("decode SEO settings: %w", err)
	}
	return seo, nil
}

// PublishedProjects fetches one page of projects (or all of them) along with
// the envelope's paging fields.
func (c *Client) PublishedProjects(ctx context.Context, q ProjectQuery) (ProjectPage, error) {
	body, err := c.get(ctx, "projects", "/projects?"+q.Encode())
	if err != nil {
		return ProjectPage{}, err
	}
	page, err := decodeList[Project](body)
	if err != nil {
		return ProjectPage{}, fmt.Errorf("decode projects: %w", err)
	}
	return ProjectPage{
		Data:  page.items,
		Total: page.total,
		Page:  page.page,
		Limit: page.limit,
	}, nil
}

// ActiveTechStacks is FetchTechStacks; the API already filters inactive entries.
func (c *Client) ActiveTechStacks(ctx context.Context) ([]TechStack, error) {
	return c.FetchTechStacks(ctx)
}

// PersonalInfo is FetchPersonalInfo.
func (c *Client) PersonalInfo(ctx context.Context) (PersonalInfo, error) {
	return c.FetchPersonalInfo(ctx)
}

// SEOSettings is FetchSEOSettings.
func (c *Client) SEOSettings(ctx context.Context) (SEOSettings, error) {
	return c.FetchSEOSettings(ctx)
}

// SEOData loads SEO settings for server-side rendering. The request is bounded
// by a 5 second timeout and the image fields are made absolute so they can be
// used in meta tags. Any failure is reported as ErrSEOUnavailable.
func (c *Client) SEOData(ctx context.Context) (SEOSettings, error) {
	ctx, cancel := context.WithTimeout(ctx, seoTimeout)
	defer cancel()

	body, err := c.do(ctx, http.MethodGet, c.base+"/seo-settings", nil)
	if err != nil {
		return SEOSettings{}, fmt.Errorf("%w: %v", ErrSEOUnavailable, err)
	}
	var seo SEOSettings
	if err := decodeObject(body, &seo); err != nil {
		return SEOSettings{}, fmt.Errorf("%w: %v", ErrSEOUnavailable, err)
	}
	seo.OGImage = c.AssetURL(seo.OGImage)
	seo.Favicon = c.AssetURL(seo.Favicon)
	return seo, nil
}

// Chat sends message to the assistant and returns its reply, which may be empty.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	b, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return "", err
	}
	body, err := c.do(ctx, http.MethodPost, c.base+"/chat", b)
	if err != nil {
		return "", err
	}
	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode chat reply: %w", err)
	}
	return out.Reply, nil
}

// CheckStatus queries the projects endpoint and reports the raw status.
// A transport failure is returned as err with code 0.
func (c *Client) CheckStatus(ctx context.Context) (code int, text string, err error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.base+"/projects", nil)
	if err != nil {
		return 0, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, statusText(resp), nil
}

// AssetURL resolves a path stored by the API into a URL a browser can load.
func (c *Client) AssetURL(path string) string {
	return AssetURL(c.server, path)
}

// AssetURL joins an asset path onto server. Absolute http(s) URLs are returned
// untouched and an empty path stays empty.
func AssetURL(server, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return server + path
	}
	return server + "/" + path
}

// Encode renders q as a query string.
func (q ProjectQuery) Encode() string {
	params := url.Values{}
	if q.All {
		params.Set("all", "true")
	} else {
		page, limit := q.Page, q.Limit
		if page <= 0 {
			page = 1
		}
		if limit <= 0 {
			limit = 10
		}
		params.Set("page", strconv.Itoa(page))
		params.Set("limit", strconv.Itoa(limit))
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	return params.Encode()
}

func (c *Client) get(ctx context.Context, op, path string) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok {
			apiErr.Op = op
			c.logAPIError(apiErr)
			return nil, apiErr
		}
		c.logger.Errorf("fetch %s: %v", op, err)
		return nil, fmt.Errorf("fetch %s: %w", op, err)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, u string, payload []byte) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &APIError{
			Op:         strings.TrimPrefix(req.URL.Path, "/api/"),
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-store")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) logAPIError(err *APIError) {
	switch err.StatusCode {
	case http.StatusBadRequest:
		c.logger.Errorf("%s: %s", err.Kind(), err.Error())
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError:
		c.logger.Errorf("%s (%s)", err.Kind(), err.Op)
	default:
		c.logger.Errorf("%s: %s", err.Kind(), err.Error())
	}
}

// statusText returns the reason phrase of resp without the leading code.
func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
