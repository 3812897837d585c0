package coupons

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

const (
	DefaultTimeout        = 5 * time.Second
	validatePath          = "coupons/validate"
	responseBodyReadLimit = 1 << 20
	errorBodyReadLimit    = 1024
)

var errBaseURLRequired = errors.New("coupon service base url is required")

// Client calls POST {base}/coupons/validate with a bounded timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds each validation call; a non-positive value keeps the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL: trimmed,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: client.timeout}
	}
	return client, nil
}

// Validate returns a normalized verdict. Timeouts, transport failures and
// non-decodable statuses are CodeDependency errors; an unrecognized body is
// CodeDataIntegrity.
func (c *Client) Validate(ctx context.Context, req Request) (Verdict, error) {
	if c == nil {
		return Verdict{}, pkgerrors.New(pkgerrors.CodeDependency, "coupon client not configured")
	}
	if strings.TrimSpace(req.Code) == "" {
		return Verdict{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if req.CartItems == nil {
		req.CartItems = []CartItem{}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Verdict{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal coupon request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+validatePath, bytes.NewReader(payload))
	if err != nil {
		return Verdict{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build coupon request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Verdict{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "coupon validation timed out")
		}
		return Verdict{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute coupon request")
	}
	defer func() { _ = resp.Body.Close() }()

	if !decodableStatus(resp.StatusCode) {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return Verdict{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "coupon validation failed")
	}

	var body Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&body); err != nil {
		return Verdict{}, pkgerrors.Wrap(pkgerrors.CodeDataIntegrity, err, "decode coupon response")
	}
	return Normalize(req.Code, body)
}

// decodableStatus lists statuses whose body carries a verdict.
func decodableStatus(status int) bool {
	switch {
	case status >= 200 && status < 300:
		return true
	case status == http.StatusBadRequest, status == http.StatusNotFound, status == http.StatusUnprocessableEntity:
		return true
	}
	return false
}
