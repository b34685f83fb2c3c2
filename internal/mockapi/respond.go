package mockapi

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/validation"
)

func ok(c echo.Context, status int, data any, msg string) error {
	return c.JSON(status, model.Envelope[any]{Data: data, Message: msg, Success: model.Bool(true)})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, model.ErrorBody{Message: msg, Success: model.Bool(false)})
}

// invalid answers 400 in the problem-details shape the real API uses, with
// PascalCase field names.
func invalid(c echo.Context, err error) error {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	fields := make(map[string][]string, len(verr.Fields))
	for k, v := range verr.Fields {
		fields[pascal(k)] = []string{v}
	}
	return c.JSON(http.StatusBadRequest, model.ErrorBody{
		Title:   "One or more validation errors occurred.",
		Errors:  fields,
		Success: model.Bool(false),
	})
}

func fieldError(c echo.Context, field, msg string) error {
	return invalid(c, &validation.Error{Fields: map[string]string{field: msg}})
}

func pascal(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func bind[T any](c echo.Context) (T, error) {
	var v T
	if err := c.Bind(&v); err != nil {
		return v, err
	}
	return v, nil
}

func pageOf(c echo.Context) model.PageRequest {
	n, _ := strconv.Atoi(c.QueryParam("pageNumber"))
	size, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if size > 100 {
		size = 100
	}
	return model.PageRequest{Number: n, Size: size}.Normalize(20)
}

// paginate slices items for the requested page. Past the end it returns an
// empty items array with the real totals.
func paginate[T any](c echo.Context, items []T) model.Page[T] {
	req := pageOf(c)
	// compare in pages so a huge pageNumber cannot overflow the offset
	start := len(items)
	if req.Number-1 < model.TotalPages(len(items), req.Size) {
		start = (req.Number - 1) * req.Size
	}
	end := min(start+req.Size, len(items))
	return model.Page[T]{
		Items:      append([]T{}, items[start:end]...),
		PageNumber: req.Number,
		PageSize:   req.Size,
		TotalCount: len(items),
	}.Normalize(req)
}

// legacyPage is the older envelope some list endpoints still return, with
// "total" in place of "totalCount".
type legacyPage[T any] struct {
	Items           []T  `json:"items"`
	PageNumber      int  `json:"pageNumber"`
	PageSize        int  `json:"pageSize"`
	TotalPages      int  `json:"totalPages"`
	Total           int  `json:"total"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

func legacy[T any](p model.Page[T]) legacyPage[T] {
	return legacyPage[T]{
		Items:           p.Items,
		PageNumber:      p.PageNumber,
		PageSize:        p.PageSize,
		TotalPages:      p.TotalPages,
		Total:           p.TotalCount,
		HasPreviousPage: p.HasPreviousPage,
		HasNextPage:     p.HasNextPage,
	}
}

func query(c echo.Context, name string) string { return strings.TrimSpace(c.QueryParam(name)) }

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matchesAny(needle string, fields ...string) bool {
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if contains(f, needle) {
			return true
		}
	}
	return false
}

func eq(want, got string) bool { return want == "" || strings.EqualFold(want, got) }

// dateRange reads from/to (YYYY-MM-DD or RFC3339); "to" is inclusive of its day.
func dateRange(c echo.Context) (from, to time.Time) {
	parse := func(s string) time.Time {
		if s == "" {
			return time.Time{}
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t
		}
		return time.Time{}
	}
	from = parse(query(c, "from"))
	to = parse(query(c, "to"))
	if !to.IsZero() && to.Hour() == 0 && to.Minute() == 0 && to.Second() == 0 {
		to = to.Add(24 * time.Hour)
	}
	return from, to
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func newestFirst[T any](items []T, at func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return at(items[i]).After(at(items[j])) })
}

func values[T any](m map[string]*T, keep func(*T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, *v)
		}
	}
	return out
}

func sortByName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool { return name(items[i]) < name(items[j]) })
}
