package query

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/treegar/admin-console/internal/model"
)

// Getter is the read side of the API client.
type Getter interface {
	Get(ctx context.Context, path string, params url.Values, out any) error
}

var ErrUnknownFilter = errors.New("unknown filter")

// List is one paginated list query, shared by every resource: resource
// names the cache bucket invalidated after mutations, path is the
// endpoint it reads, and Fields (when set) is the accepted filter schema.
type List[T any] struct {
	Resource string
	Path     string
	PageSize int
	Fields   []string

	cache *Cache
	api   Getter
}

func NewList[T any](cache *Cache, api Getter, resource, path string, pageSize int, fields ...string) *List[T] {
	return &List[T]{Resource: resource, Path: path, PageSize: pageSize, Fields: fields, cache: cache, api: api}
}

// Check rejects filter names outside the schema.
func (l *List[T]) Check(filters Filters) error {
	if len(l.Fields) == 0 {
		return nil
	}
	var unknown []string
	for name := range filters {
		found := false
		for _, f := range l.Fields {
			if f == name {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w for %s: %s (accepted: %s)", ErrUnknownFilter, l.Resource,
		strings.Join(unknown, ", "), strings.Join(l.Fields, ", "))
}

// Key is the cache key for one page. It includes the path, so two lists
// over the same resource never share entries.
func (l *List[T]) Key(filters Filters, page model.PageRequest) Key {
	return l.key(pageValues(filters, page.Normalize(l.PageSize)))
}

func (l *List[T]) key(params url.Values) Key {
	return Key{Resource: l.Resource, Params: l.Path + "?" + params.Encode()}
}

// Fetch returns one page. Past the last page it yields an empty page
// rather than an error.
func (l *List[T]) Fetch(ctx context.Context, filters Filters, page model.PageRequest) (model.Page[T], error) {
	if err := l.Check(filters); err != nil {
		return model.Page[T]{}, err
	}
	page = page.Normalize(l.PageSize)
	params := pageValues(filters, page)
	return Fetch(ctx, l.cache, l.key(params), func(ctx context.Context) (model.Page[T], error) {
		var p model.Page[T]
		if err := l.api.Get(ctx, l.Path, params, &p); err != nil {
			return model.Page[T]{}, err
		}
		return p.Normalize(page), nil
	})
}

func (l *List[T]) Prefetch(ctx context.Context, filters Filters, page model.PageRequest) error {
	_, err := l.Fetch(ctx, filters, page)
	return err
}

// Peek returns the cached page for filters and page, if any.
func (l *List[T]) Peek(filters Filters, page model.PageRequest) (model.Page[T], bool) {
	return Peek[model.Page[T]](l.cache, l.Key(filters, page))
}

func (l *List[T]) Invalidate() { l.cache.Invalidate(l.Resource) }

// Get reads one entity through the cache under resource, so invalidating
// the resource also refreshes its detail reads.
func Get[T any](ctx context.Context, c *Cache, api Getter, resource, path string, params url.Values) (T, error) {
	return Fetch(ctx, c, DetailKey(resource, path, params), func(ctx context.Context) (T, error) {
		var out T
		err := api.Get(ctx, path, params, &out)
		return out, err
	})
}
