package query

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/treegar/admin-console/internal/model"
)

// Filters maps a filter name to its value. Unset values (nil, blank
// strings, false, numeric zero, zero times, empty slices) are dropped so
// they never reach the server or the cache key. A non-nil pointer marks a
// value as explicitly set: *bool false is sent as "false".
type Filters map[string]any

// Values renders the set filters as query parameters.
func (f Filters) Values() url.Values {
	out := url.Values{}
	for name, v := range f {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if vals, ok := render(v, false); ok {
			out[name] = vals
		}
	}
	return out
}

func render(v any, explicit bool) ([]string, bool) {
	// pointers first: a nil *T must not reach a value-receiver String
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		return render(rv.Elem().Interface(), true)
	}

	switch x := v.(type) {
	case nil:
		return nil, false
	case string:
		s := strings.TrimSpace(x)
		return []string{s}, s != ""
	case bool:
		return []string{strconv.FormatBool(x)}, x || explicit
	case time.Time:
		return []string{x.UTC().Format(time.RFC3339)}, !x.IsZero()
	case []string:
		var out []string
		for _, s := range x {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, len(out) > 0
	case fmt.Stringer:
		s := strings.TrimSpace(x.String())
		return []string{s}, s != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		s := strings.TrimSpace(rv.String())
		return []string{s}, s != ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return []string{strconv.FormatInt(rv.Int(), 10)}, rv.Int() != 0 || explicit
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return []string{strconv.FormatUint(rv.Uint(), 10)}, rv.Uint() != 0 || explicit
	case reflect.Float32, reflect.Float64:
		return []string{strconv.FormatFloat(rv.Float(), 'f', -1, 64)}, rv.Float() != 0 || explicit
	case reflect.Slice, reflect.Array:
		var out []string
		for i := 0; i < rv.Len(); i++ {
			if vals, ok := render(rv.Index(i).Interface(), false); ok {
				out = append(out, vals...)
			}
		}
		return out, len(out) > 0
	}
	return []string{fmt.Sprint(v)}, true
}

// Key identifies one cache entry: the resource it belongs to plus the
// canonical (sorted, normalized) query it was fetched with.
type Key struct {
	Resource string
	Params   string
}

// NewKey builds the list key for resource, filters and page. Equal filters
// give equal keys regardless of map order.
func NewKey(resource string, filters Filters, page model.PageRequest) Key {
	return Key{Resource: resource, Params: pageValues(filters, page).Encode()}
}

// pageValues is the full query string of a list request.
func pageValues(filters Filters, page model.PageRequest) url.Values {
	vals := filters.Values()
	if page.Number > 0 {
		vals.Set("pageNumber", strconv.Itoa(page.Number))
	}
	if page.Size > 0 {
		vals.Set("pageSize", strconv.Itoa(page.Size))
	}
	return vals
}

// DetailKey identifies a single-entity read under resource.
func DetailKey(resource, path string, params url.Values) Key {
	p := "@" + path
	if len(params) > 0 {
		p += "?" + params.Encode()
	}
	return Key{Resource: resource, Params: p}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "?" + k.Params
}
