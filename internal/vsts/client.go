// Package vsts is a small client for the Visual Studio Team Services REST API.
//
// It covers only what the command line needs: repositories, pull requests,
// work item queries and builds. Every method issues at most a handful of
// requests and returns *APIError for any status it does not accept.
package vsts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultCacheSize = 64

	contentTypeJSON      = "application/json"
	contentTypeJSONPatch = "application/json-patch+json"
)

// TraceFunc is called once for every request sent over the network.
type TraceFunc func(method, url string, status int)

// Client talks to one account. It is safe for concurrent use.
type Client struct {
	http  *http.Client
	base  *url.URL
	auth  string
	trace TraceFunc

	cacheSize int
	cache     *lru.Cache[string, []byte]
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 30s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTrace(fn TraceFunc) Option {
	return func(c *Client) { c.trace = fn }
}

// WithCacheSize sets how many GET responses are kept. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(c *Client) { c.cacheSize = n }
}

// AccountURL returns the base address of an account, e.g.
// "https://contoso.visualstudio.com/" for "contoso".
func AccountURL(account string) string {
	return "https://" + account + ".visualstudio.com/"
}

// New returns a client for baseURL authenticating with a personal access
// token.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q is not absolute", ErrInvalidInput, baseURL)
	}

	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		base:      base,
		auth:      "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+token)),
		cacheSize: defaultCacheSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cacheSize > 0 {
		c.cache, err = lru.New[string, []byte](c.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create response cache: %w", err)
		}
	}

	return c, nil
}

// BaseURL returns the account address the client was created with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) resolve(ref string) (string, error) {
	u, err := c.base.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("build request url: %w", err)
	}

	return u.String(), nil
}

func (c *Client) get(ctx context.Context, ref string, out any) error {
	target, err := c.resolve(ref)
	if err != nil {
		return err
	}

	if c.cache != nil {
		if body, ok := c.cache.Get(target); ok {
			return decode(http.MethodGet, target, body, out)
		}
	}

	body, err := c.send(ctx, http.MethodGet, target, "", nil)
	if err != nil {
		return err
	}

	if c.cache != nil {
		c.cache.Add(target, body)
	}

	return decode(http.MethodGet, target, body, out)
}

// write sends a mutating request. Cached responses are dropped first since
// they may no longer be current.
func (c *Client) write(ctx context.Context, method, ref, contentType string, payload, out any) error {
	target, err := c.resolve(ref)
	if err != nil {
		return err
	}

	if c.cache != nil {
		c.cache.Purge()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", method, target, err)
	}

	body, err := c.send(ctx, method, target, contentType, data)
	if err != nil {
		return err
	}

	return decode(method, target, body, out)
}

// post is write for requests that do not change anything on the server,
// such as query execution. The cache stays intact.
func (c *Client) post(ctx context.Context, ref string, payload, out any) error {
	target, err := c.resolve(ref)
	if err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode POST %s: %w", target, err)
	}

	body, err := c.send(ctx, http.MethodPost, target, contentTypeJSON, data)
	if err != nil {
		return err
	}

	return decode(http.MethodPost, target, body, out)
}

func (c *Client) send(ctx context.Context, method, target, contentType string, data []byte) ([]byte, error) {
	var reqBody io.Reader
	if data != nil {
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("Authorization", c.auth)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if c.trace != nil {
		c.trace(method, target, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, target, err)
	}

	// 203 is the sign-in page served for a rejected token.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || resp.StatusCode == http.StatusNonAuthoritativeInfo {
		return nil, newAPIError(method, target, resp.StatusCode, body)
	}

	return body, nil
}

func decode(method, target string, body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}

	return nil
}

// IsUnauthorized reports whether err means the token was rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
