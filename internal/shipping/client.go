package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout     = 3 * time.Second
	feesPath           = "shipping/fees"
	errorBodyReadLimit = 1024
)

// Client asks the shipping service for a region fee and falls back to the
// static table when the service is unreachable or answers non-2xx.
// Concurrent lookups of one region share a single request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	fallback   *Table
	logg       *logger.Logger
	group      singleflight.Group
	validate   *validator.Validate
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithFallback(table *Table) Option {
	return func(c *Client) {
		if table != nil {
			c.fallback = table
		}
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// NewClient builds a resolver. An empty baseURL serves the fallback table only.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	catalog.RegisterDecimal(v)
	c := &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		fallback: NewTable(DefaultRegions),
		logg:     logger.Nop(),
		validate: v,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: timeout}
	}
	return c
}

type feeResponse struct {
	Region string           `json:"region" validate:"required"`
	Fee    *decimal.Decimal `json:"fee" validate:"required,gte=0"`
}

func (c *Client) Lookup(ctx context.Context, region string) (Region, error) {
	key := regionKey(region)
	if key == "" {
		return Region{}, pkgerrors.New(pkgerrors.CodeValidation, "shipping region is required")
	}
	if c.baseURL == "" {
		return c.fallback.Lookup(ctx, region)
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		return c.fetch(ctx, region)
	})
	if err == nil {
		return result.(Region), nil
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return c.fallback.Lookup(ctx, region)
	}

	logCtx := c.logg.WithField(ctx, "region", region)
	c.logg.WarnErr(logCtx, "shipping.fee_lookup_fallback", err)
	return c.fallback.Lookup(ctx, region)
}

// Regions lists the selectable regions from the fallback table.
func (c *Client) Regions() []Region {
	return c.fallback.Regions()
}

func (c *Client) fetch(ctx context.Context, region string) (Region, error) {
	endpoint := fmt.Sprintf("%s/%s?region=%s", c.baseURL, feesPath, url.QueryEscape(strings.TrimSpace(region)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Region{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build shipping fee request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Region{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute shipping fee request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return Region{}, pkgerrors.New(pkgerrors.CodeNotFound, "shipping region not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return Region{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "shipping fee request failed")
	}

	var body feeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Region{}, pkgerrors.Wrap(pkgerrors.CodeDataIntegrity, err, "decode shipping fee response")
	}
	if err := c.validate.Struct(body); err != nil {
		return Region{}, pkgerrors.Wrap(pkgerrors.CodeDataIntegrity, err, "unrecognized shipping fee response")
	}
	return Region{Name: body.Region, Fee: *body.Fee}, nil
}

var (
	_ Resolver = (*Client)(nil)
	_ Resolver = (*Table)(nil)
)
