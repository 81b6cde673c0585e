package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/DukeRupert/catalog-admin/internal/domain"
)

// Resource names a backend collection and the keys its envelopes use.
type Resource struct {
	Path     string // collection path, e.g. "/categories"
	Plural   string // list key under data, e.g. "categories"
	Singular string // single-record key under data, e.g. "category"
}

// Backend collections
var (
	Categories    = Resource{Path: "/categories", Plural: "categories", Singular: "category"}
	Subcategories = Resource{Path: "/subcategories", Plural: "subcategories", Singular: "subcategory"}
	Products      = Resource{Path: "/products", Plural: "products", Singular: "product"}
	Variants      = Resource{Path: "/variants", Plural: "variants", Singular: "variant"}
	Blogs         = Resource{Path: "/blogs", Plural: "blogs", Singular: "blog"}
	Images        = Resource{Path: "/images", Plural: "images", Singular: "image"}
)

// Collection is the typed CRUD surface of one backend resource.
type Collection[T any] struct {
	client *Client
	res    Resource
}

// NewCollection binds a resource to a client.
func NewCollection[T any](client *Client, res Resource) *Collection[T] {
	return &Collection[T]{client: client, res: res}
}

// Resource returns the bound resource.
func (c *Collection[T]) Resource() Resource {
	return c.res
}

// List fetches the whole collection. When the envelope carries no total,
// the number of items is used.
func (c *Collection[T]) List(ctx context.Context) (domain.ListResult[T], error) {
	var result domain.ListResult[T]

	env, err := c.client.send(ctx, call{
		resource: c.res.Plural,
		method:   http.MethodGet,
		path:     c.res.Path,
		retry:    true,
	})
	if err != nil {
		return result, err
	}

	raw, ok := env.field(c.res.Plural)
	if !ok {
		return result, c.malformed(http.MethodGet, c.res.Path, fmt.Errorf("missing data.%s", c.res.Plural))
	}
	if err := json.Unmarshal(raw, &result.Items); err != nil {
		return result, c.malformed(http.MethodGet, c.res.Path, fmt.Errorf("decode data.%s: %w", c.res.Plural, err))
	}

	result.Total = len(result.Items)
	if rawTotal, ok := env.field("total"); ok {
		var total int
		if err := json.Unmarshal(rawTotal, &total); err == nil {
			result.Total = total
		}
	}

	return result, nil
}

// Create posts a new record and returns what the backend stored.
func (c *Collection[T]) Create(ctx context.Context, payload any) (T, error) {
	req, err := jsonCall(c.res.Plural, http.MethodPost, c.res.Path, payload)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.single(ctx, req)
}

// Update patches a record and returns the updated version.
func (c *Collection[T]) Update(ctx context.Context, id string, payload any) (T, error) {
	req, err := jsonCall(c.res.Plural, http.MethodPatch, c.itemPath(id), payload)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.single(ctx, req)
}

// Delete removes a record.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	_, err := c.client.send(ctx, call{
		resource: c.res.Plural,
		method:   http.MethodDelete,
		path:     c.itemPath(id),
	})
	return err
}

func (c *Collection[T]) single(ctx context.Context, req call) (T, error) {
	var item T

	env, err := c.client.send(ctx, req)
	if err != nil {
		return item, err
	}

	raw, ok := env.field(c.res.Singular)
	if !ok {
		return item, c.malformed(req.method, req.path, fmt.Errorf("missing data.%s", c.res.Singular))
	}
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, c.malformed(req.method, req.path, fmt.Errorf("decode data.%s: %w", c.res.Singular, err))
	}
	return item, nil
}

func (c *Collection[T]) itemPath(id string) string {
	return c.res.Path + "/" + url.PathEscape(id)
}

func (c *Collection[T]) malformed(method, path string, cause error) error {
	return &Error{Method: method, Path: path, Status: http.StatusOK, Err: fmt.Errorf("%w: %v", ErrMalformed, cause)}
}
