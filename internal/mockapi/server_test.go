package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/treegar/admin-console/internal/model"
)

const testKey = "test-key"

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(Options{APIKey: testKey, Quiet: true}, NewStore().Seed())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, ts *httptest.Server, method, path, token, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+BasePath+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", testKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	out := map[string]json.RawMessage{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

func loginOps(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	code, body := do(t, ts, http.MethodPost, "/login", "", `{"email":"`+OpsEmail+`","password":"`+OpsPassword+`"}`)
	if code != http.StatusOK {
		t.Fatalf("login: %d", code)
	}
	var resp model.LoginResponse
	if err := json.Unmarshal(body["data"], &resp); err != nil || resp.Token == "" {
		t.Fatalf("login response: %v %s", err, body["data"])
	}
	return resp.Token
}

func TestAPIKeyIsRequired(t *testing.T) {
	_, ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+BasePath+"/login", strings.NewReader(`{}`))
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", res.StatusCode)
	}
}

func TestBearerIsRequired(t *testing.T) {
	_, ts := newTestServer(t)

	if code, _ := do(t, ts, http.MethodGet, "/companies", "", ""); code != http.StatusUnauthorized {
		t.Errorf("no token: %d", code)
	}
	if code, _ := do(t, ts, http.MethodGet, "/companies", "bogus", ""); code != http.StatusUnauthorized {
		t.Errorf("bad token: %d", code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, ts := newTestServer(t)
	code, _ := do(t, ts, http.MethodPost, "/login", "", `{"email":"`+OpsEmail+`","password":"nope"}`)
	if code != http.StatusUnauthorized {
		t.Errorf("status = %d", code)
	}
}

func TestCustomersUseLegacyTotal(t *testing.T) {
	_, ts := newTestServer(t)
	tok := loginOps(t, ts)

	code, body := do(t, ts, http.MethodGet, "/customers?pageNumber=1&pageSize=5", tok, "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var page map[string]json.RawMessage
	if err := json.Unmarshal(body["data"], &page); err != nil {
		t.Fatal(err)
	}
	if string(page["total"]) != "20" {
		t.Errorf("total = %s", page["total"])
	}
	if _, has := page["totalCount"]; has {
		t.Error("customers page should not carry totalCount")
	}
}

func TestPageBeyondEndIsEmpty(t *testing.T) {
	_, ts := newTestServer(t)
	tok := loginOps(t, ts)

	_, body := do(t, ts, http.MethodGet, "/transactions?pageNumber=5&pageSize=10", tok, "")
	var page model.Page[model.Transaction]
	if err := json.Unmarshal(body["data"], &page); err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 0 || page.TotalCount != 20 || page.TotalPages != 2 {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestHugePageNumberIsEmpty(t *testing.T) {
	_, ts := newTestServer(t)
	tok := loginOps(t, ts)

	for _, path := range []string{"/transactions", "/customers"} {
		code, body := do(t, ts, http.MethodGet, path+"?pageNumber=9223372036854775807&pageSize=100", tok, "")
		if code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, code)
		}
		var page model.Page[json.RawMessage]
		if err := json.Unmarshal(body["data"], &page); err != nil {
			t.Fatal(err)
		}
		if len(page.Items) != 0 || page.TotalCount == 0 || page.HasNextPage {
			t.Errorf("%s: unexpected page %+v", path, page)
		}
	}
}

func TestValidationErrorsArePascalCase(t *testing.T) {
	_, ts := newTestServer(t)
	tok := loginOps(t, ts)

	code, body := do(t, ts, http.MethodPost, "/companies", tok,
		`{"name":"Acme","email":"ops@acme.ng","registrationNumber":"RC123456","externalReference":"ACME-1"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d", code)
	}
	var fields map[string][]string
	if err := json.Unmarshal(body["errors"], &fields); err != nil {
		t.Fatal(err)
	}
	if len(fields["ExternalReference"]) == 0 {
		t.Errorf("errors = %v", fields)
	}
}

func TestTransferCanOnlyBeReviewedOnce(t *testing.T) {
	s, ts := newTestServer(t)
	tok := loginOps(t, ts)

	var id string
	s.store.mu.Lock()
	for _, tr := range s.store.transfers {
		if tr.Status == model.TransferPending {
			id = tr.ID
			break
		}
	}
	before := len(s.store.transactions)
	s.store.mu.Unlock()

	if code, _ := do(t, ts, http.MethodPost, "/transfers/"+id+"/approve", tok, `{}`); code != http.StatusOK {
		t.Fatalf("approve: %d", code)
	}
	if code, _ := do(t, ts, http.MethodPost, "/transfers/"+id+"/reject", tok, `{"reason":"changed my mind"}`); code != http.StatusConflict {
		t.Errorf("second review: %d, want 409", code)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if s.store.transfers[id].ReviewedBy != OpsEmail {
		t.Errorf("reviewedBy = %q", s.store.transfers[id].ReviewedBy)
	}
	if len(s.store.transactions) != before+1 {
		t.Error("approval should book a debit transaction")
	}
}

func TestFailNextInjectsOnce(t *testing.T) {
	s, ts := newTestServer(t)
	tok := loginOps(t, ts)

	s.FailNext(http.MethodGet, "/dashboard", http.StatusServiceUnavailable)
	if code, _ := do(t, ts, http.MethodGet, "/dashboard", tok, ""); code != http.StatusServiceUnavailable {
		t.Errorf("first: %d", code)
	}
	if code, _ := do(t, ts, http.MethodGet, "/dashboard", tok, ""); code != http.StatusOK {
		t.Errorf("second: %d", code)
	}
}

func TestDocumentReviewSettlesKYC(t *testing.T) {
	s, ts := newTestServer(t)
	tok := loginOps(t, ts)

	var customerID string
	var docs []string
	s.store.mu.Lock()
	for _, d := range s.store.documents {
		if customerID == "" {
			customerID = d.CustomerID
		}
		if d.CustomerID == customerID {
			docs = append(docs, d.ID)
		}
	}
	s.store.mu.Unlock()

	for i, id := range docs {
		code, _ := do(t, ts, http.MethodPost, "/customers/"+customerID+"/kyc-documents/"+id+"/approve", tok, `{}`)
		if code != http.StatusOK {
			t.Fatalf("approve %d: %d", i, code)
		}
		s.store.mu.Lock()
		got := s.store.customers[customerID].KYCStatus
		s.store.mu.Unlock()
		want := model.KYCPending
		if i == len(docs)-1 {
			want = model.KYCVerified
		}
		if got != want {
			t.Errorf("after %d approvals: %s, want %s", i+1, got, want)
		}
	}
}
