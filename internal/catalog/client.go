package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Pratikmahatara/Shoe/internal/domain"
	apperrors "github.com/Pratikmahatara/Shoe/pkg/errors"
	"github.com/Pratikmahatara/Shoe/pkg/httpclient"
	"github.com/Pratikmahatara/Shoe/pkg/pagination"
	"github.com/Pratikmahatara/Shoe/pkg/slug"
)

const serviceName = "catalog"

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Orderings accepted by the catalog's product listing.
var Orderings = []string{"price", "-price", "created", "-created"}

// Filter narrows a product listing. Category and Brand are catalog ids.
type Filter struct {
	Category string
	Brand    string
	Search   string
	Ordering string
	Page     pagination.Params
}

func (f Filter) query() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Brand != "" {
		q.Set("brand", f.Brand)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Ordering != "" {
		q.Set("ordering", f.Ordering)
	}
	f.Page.Apply(q)
	return q
}

// Client reads the external catalog API. Product images and brand logos are
// resolved against the media base before they are returned.
type Client struct {
	http      HTTPDoer
	baseURL   string
	mediaBase string
	logger    *slog.Logger
}

// NewClient creates a catalog client for baseURL (e.g.
// http://127.0.0.1:8000/api).
func NewClient(doer HTTPDoer, baseURL, mediaBase string, logger *slog.Logger) *Client {
	return &Client{
		http:      doer,
		baseURL:   strings.TrimRight(baseURL, "/"),
		mediaBase: mediaBase,
		logger:    logger,
	}
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	data, err := c.get(ctx, "/categories/", nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return decodeList[domain.Category](data)
}

// ListBrands returns every brand with logos resolved.
func (c *Client) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	data, err := c.get(ctx, "/brands/", nil)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	brands, err := decodeList[domain.Brand](data)
	if err != nil {
		return nil, err
	}
	for i := range brands {
		if brands[i].Logo != nil {
			logo := domain.MediaURL(c.mediaBase, *brands[i].Logo)
			brands[i].Logo = &logo
		}
	}
	return brands, nil
}

// CategoryBySlug finds a category by its slug. The catalog has no lookup
// endpoint, so the full list is scanned.
func (c *Client) CategoryBySlug(ctx context.Context, s string) (domain.Category, error) {
	categories, err := c.ListCategories(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	for _, cat := range categories {
		if slug.Equal(cat.Slug, s) {
			return cat, nil
		}
	}
	return domain.Category{}, apperrors.NotFound("category", s)
}

// ListProducts returns one page of products matching f.
func (c *Client) ListProducts(ctx context.Context, f Filter) (pagination.Page[domain.Product], error) {
	var page pagination.Page[domain.Product]

	data, err := c.get(ctx, "/products/", f.query())
	if err != nil {
		return page, fmt.Errorf("list products: %w", err)
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return page, fmt.Errorf("decode products page: %w", err)
	}
	return pagination.Map(page, c.resolve), nil
}

// GetProduct returns one product with its reviews.
func (c *Client) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product

	data, err := c.get(ctx, "/products/"+strconv.FormatInt(id, 10)+"/", nil)
	if err != nil {
		return p, fmt.Errorf("get product %d: %w", id, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decode product %d: %w", id, err)
	}
	return c.resolve(p), nil
}

// Ping checks that the catalog answers the category listing.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/categories/", nil)
	return err
}

func (c *Client) resolve(p domain.Product) domain.Product {
	return p.WithMediaBase(c.mediaBase)
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call catalog: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}
	c.logger.DebugContext(ctx, "catalog request",
		slog.String("path", path),
		slog.Int("bytes", len(data)),
	)
	return data, nil
}

// decodeList accepts either a bare JSON array or a paginated envelope.
func decodeList[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		if out == nil {
			out = []T{}
		}
		return out, nil
	}

	var page pagination.Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("decode list envelope: %w", err)
	}
	if page.Results == nil {
		return []T{}, nil
	}
	return page.Results, nil
}

// ValidOrdering reports whether o is empty or one of Orderings.
func ValidOrdering(o string) bool {
	if o == "" {
		return true
	}
	for _, allowed := range Orderings {
		if o == allowed {
			return true
		}
	}
	return false
}
