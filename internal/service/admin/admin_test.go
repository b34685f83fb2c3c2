package admin

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/treegar/admin-console/internal/audit"
	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/query"
)

type fakeAPI struct {
	mu      sync.Mutex
	calls   []string
	postErr error
}

func (f *fakeAPI) record(method, path string) {
	f.mu.Lock()
	f.calls = append(f.calls, method+" "+path)
	f.mu.Unlock()
}

func (f *fakeAPI) Get(_ context.Context, path string, _ url.Values, _ any) error {
	f.record("GET", path)
	return nil
}

func (f *fakeAPI) Post(_ context.Context, path string, _, _ any) error {
	f.record("POST", path)
	return f.postErr
}

func (f *fakeAPI) Put(_ context.Context, path string, _, _ any) error {
	f.record("PUT", path)
	return nil
}

func (f *fakeAPI) Patch(_ context.Context, path string, _, _ any) error {
	f.record("PATCH", path)
	return nil
}

func newTestServices(api *fakeAPI) (*Services, *query.Cache, *audit.MemorySink) {
	cache := query.New(query.Options{Retries: -1})
	sink := &audit.MemorySink{}
	return New(Deps{API: api, Cache: cache, Audit: audit.NewRecorder(nil, nil, sink), PageSize: 10}), cache, sink
}

func TestPathEscapesAndRequiresIDs(t *testing.T) {
	p, err := path("/customers", "a/b", "kyc-documents")
	if err != nil || p != "/customers/a%2Fb/kyc-documents" {
		t.Errorf("path = %q, %v", p, err)
	}
	if _, err := path("/companies", " ", "approve"); !errors.Is(err, ErrMissingID) {
		t.Errorf("err = %v", err)
	}
}

func TestApprovalInvalidatesDependants(t *testing.T) {
	api := &fakeAPI{}
	svc, cache, sink := newTestServices(api)
	ctx := context.Background()
	page := model.PageRequest{Number: 1}

	if _, err := svc.Transactions.List(ctx, nil, page); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Dashboard.Stats(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.InflowFees.List(ctx, nil, page); err != nil {
		t.Fatal(err)
	}

	if err := svc.Transfers.Approve(ctx, "t1", model.ApproveTransferRequest{}); err != nil {
		t.Fatal(err)
	}

	txKey := svc.Transactions.list.Key(nil, page)
	feeKey := svc.InflowFees.list.Key(nil, page)
	if snap, _ := cache.Inspect(txKey); !snap.Invalidated {
		t.Error("transactions should be invalidated")
	}
	if snap, _ := cache.Inspect(query.DetailKey(ResourceDashboard, "/dashboard", nil)); !snap.Invalidated {
		t.Error("dashboard should be invalidated")
	}
	if snap, _ := cache.Inspect(feeKey); snap.Invalidated {
		t.Error("fees must not be touched")
	}

	ev := sink.Events()
	if len(ev) != 1 || ev[0].Outcome != model.AuditSucceeded || ev[0].Action != "transfer.approve" || ev[0].RequestID == "" {
		t.Errorf("events = %+v", ev)
	}
}

func TestFailedMutationKeepsCache(t *testing.T) {
	api := &fakeAPI{postErr: errors.New("boom")}
	svc, cache, sink := newTestServices(api)
	ctx := context.Background()
	page := model.PageRequest{Number: 1}

	if _, err := svc.Companies.List(ctx, nil, page); err != nil {
		t.Fatal(err)
	}
	if err := svc.Companies.Approve(ctx, "c1"); err == nil {
		t.Fatal("expected error")
	}
	if snap, _ := cache.Inspect(svc.Companies.list.Key(nil, page)); snap.Invalidated {
		t.Error("failed mutation must not invalidate")
	}
	if ev := sink.Events(); len(ev) != 1 || ev[0].Outcome != model.AuditFailed || ev[0].Error != "boom" {
		t.Errorf("events = %+v", ev)
	}
}

func TestInvalidInputNeverReachesAPI(t *testing.T) {
	api := &fakeAPI{}
	svc, _, sink := newTestServices(api)

	_, err := svc.Companies.Create(context.Background(), model.CreateCompanyRequest{Name: "Acme", Email: "x@acme.ng", RegistrationNumber: "RC12345", ExternalReference: "TREEGAR-1"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(api.calls) != 0 || len(sink.Events()) != 0 {
		t.Errorf("calls=%v events=%d", api.calls, len(sink.Events()))
	}
}

func TestCustomerPhoneFilterIsNormalized(t *testing.T) {
	svc, _, _ := newTestServices(&fakeAPI{})
	ctx := context.Background()
	page := model.PageRequest{Number: 1}

	f := query.Filters{"phone": "0803 000 0005"}
	if _, err := svc.Customers.List(ctx, f, page); err != nil {
		t.Fatal(err)
	}
	if f["phone"] != "0803 000 0005" {
		t.Error("caller filters must not be modified")
	}
	if _, ok := svc.Customers.list.Peek(query.Filters{"phone": "+2348030000005"}, page); !ok {
		t.Error("local and international forms should share a cache entry")
	}
}
