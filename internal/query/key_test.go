package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/treegar/admin-console/internal/apiclient"
	"github.com/treegar/admin-console/internal/model"
)

type status string

func TestKeyIgnoresUnsetFiltersAndOrder(t *testing.T) {
	page := model.PageRequest{Number: 2, Size: 10}
	a := NewKey("companies", Filters{
		"status":   "pending",
		"search":   "  ",
		"isActive": false,
		"minTotal": 0,
		"country":  nil,
		"since":    time.Time{},
		"tags":     []string{},
	}, page)
	b := NewKey("companies", Filters{"status": "pending"}, page)
	if a != b {
		t.Fatalf("keys differ:\n%s\n%s", a, b)
	}

	c := NewKey("companies", Filters{"z": "1", "a": "2", "m": "3"}, page)
	d := NewKey("companies", Filters{"m": "3", "z": "1", "a": "2"}, page)
	if c != d {
		t.Fatalf("order changed key: %s vs %s", c, d)
	}
}

func TestKeyDistinguishesValuesAndPages(t *testing.T) {
	base := NewKey("companies", Filters{"status": "pending"}, model.PageRequest{Number: 1, Size: 20})
	others := []Key{
		NewKey("companies", Filters{"status": "approved"}, model.PageRequest{Number: 1, Size: 20}),
		NewKey("companies", Filters{"status": "pending"}, model.PageRequest{Number: 2, Size: 20}),
		NewKey("companies", Filters{"status": "pending"}, model.PageRequest{Number: 1, Size: 50}),
		NewKey("users", Filters{"status": "pending"}, model.PageRequest{Number: 1, Size: 20}),
	}
	for _, k := range others {
		if k == base {
			t.Errorf("key %s collides with %s", k, base)
		}
	}
}

func TestFilterRendering(t *testing.T) {
	no := false
	zero := 0
	ts := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	v := Filters{
		"status":   status("approved"),
		"active":   true,
		"explicit": &no,
		"count":    &zero,
		"amount":   12.5,
		"ids":      []int{3, 0, 4},
		"nilPtr":   (*bool)(nil),
		"nilTime":  (*time.Time)(nil),
		"from":     ts,
		"to":       &ts,
	}.Values()

	want := map[string][]string{
		"status":   {"approved"},
		"active":   {"true"},
		"explicit": {"false"},
		"count":    {"0"},
		"amount":   {"12.5"},
		"ids":      {"3", "4"},
		"from":     {"2026-01-02T00:00:00Z"},
		"to":       {"2026-01-02T00:00:00Z"},
	}
	if len(v) != len(want) {
		t.Fatalf("values = %v", v)
	}
	for k, w := range want {
		got := v[k]
		if len(got) != len(w) {
			t.Errorf("%s = %v, want %v", k, got, w)
			continue
		}
		for i := range w {
			if got[i] != w[i] {
				t.Errorf("%s = %v, want %v", k, got, w)
			}
		}
	}
}

func TestTimePointerSharesKeyWithValue(t *testing.T) {
	ts := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	page := model.PageRequest{Number: 1, Size: 10}
	if a, b := NewKey("transactions", Filters{"from": ts}, page), NewKey("transactions", Filters{"from": &ts}, page); a != b {
		t.Errorf("keys differ: %s vs %s", a, b)
	}
	if got := NewKey("transactions", Filters{"from": (*time.Time)(nil)}, page); got != NewKey("transactions", nil, page) {
		t.Errorf("nil time kept: %s", got)
	}
}

type row struct {
	ID string `json:"id"`
}

func TestListPastLastPageIsEmpty(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"items":      nil,
				"pageNumber": 5,
				"pageSize":   10,
				"total":      20,
			},
		})
	}))
	defer srv.Close()

	api, err := apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api/Admin", APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	list := NewList[row](New(Options{}), api, "companies", "/companies", 10)

	page, err := list.Fetch(context.Background(), Filters{"status": "pending", "search": ""}, model.PageRequest{Number: 5})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotQuery != "pageNumber=5&pageSize=10&status=pending" {
		t.Errorf("query = %q", gotQuery)
	}
	if !page.IsEmpty() || page.Items == nil {
		t.Errorf("items = %#v, want empty non-nil", page.Items)
	}
	if page.PageNumber != 5 || page.TotalPages != 2 || page.TotalCount != 20 || page.HasNextPage || !page.HasPreviousPage {
		t.Errorf("page = %+v", page)
	}
	if cached, ok := list.Peek(Filters{"status": "pending"}, model.PageRequest{Number: 5}); !ok || cached.TotalCount != 20 {
		t.Errorf("peek = %+v, %v", cached, ok)
	}
}

func TestListRejectsUnknownFilter(t *testing.T) {
	list := NewList[row](New(Options{}), nil, "users", "/users", 10, "search", "status")
	_, err := list.Fetch(context.Background(), Filters{"status": "x", "colour": "red"}, model.PageRequest{})
	if !errors.Is(err, ErrUnknownFilter) {
		t.Fatalf("err = %v", err)
	}
}
