package mockapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/treegar/admin-console/internal/apiclient"
	"github.com/treegar/admin-console/internal/audit"
	"github.com/treegar/admin-console/internal/mockapi"
	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/query"
	"github.com/treegar/admin-console/internal/service/admin"
	"github.com/treegar/admin-console/internal/service/auth"
	"github.com/treegar/admin-console/internal/session"
	"github.com/treegar/admin-console/internal/validation"
)

const apiKey = "scenario-key"

type console struct {
	srv    *mockapi.Server
	sess   *session.Manager
	cache  *query.Cache
	auth   *auth.Service
	admin  *admin.Services
	events *audit.MemorySink
}

func newConsole(t *testing.T, key string) *console {
	t.Helper()
	srv := mockapi.NewServer(mockapi.Options{APIKey: apiKey, Quiet: true}, mockapi.NewStore().Seed())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	sess := session.NewManager(session.NewMemoryStore(), session.NewMemoryStore(), 0)
	client, err := apiclient.New(apiclient.Options{
		BaseURL: ts.URL + mockapi.BasePath,
		APIKey:  key,
		Timeout: 5 * time.Second,
		Tokens:  sess,
	})
	if err != nil {
		t.Fatal(err)
	}
	cache := query.New(query.Options{Retries: -1})
	events := &audit.MemorySink{}
	rec := audit.NewRecorder(nil, func(ctx context.Context) string {
		if u, _ := sess.User(ctx); u != nil {
			return u.Email
		}
		return ""
	}, events)

	return &console{
		srv:    srv,
		sess:   sess,
		cache:  cache,
		auth:   auth.New(client, sess, cache, nil),
		admin:  admin.New(admin.Deps{API: client, Cache: cache, Audit: rec, PageSize: 10}),
		events: events,
	}
}

func (c *console) signIn(t *testing.T) {
	t.Helper()
	st, err := c.auth.Login(context.Background(), mockapi.OpsEmail, mockapi.OpsPassword)
	if err != nil || st != session.Authenticated {
		t.Fatalf("login: %v %v", st, err)
	}
}

func state(t *testing.T, m *session.Manager) session.State {
	t.Helper()
	st, err := m.State(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestTwoFactorLogin(t *testing.T) {
	c := newConsole(t, apiKey)
	ctx := context.Background()

	st, err := c.auth.Login(ctx, mockapi.AdminEmail, mockapi.AdminPassword)
	if err != nil {
		t.Fatal(err)
	}
	if st != session.PendingTwoFactor || state(t, c.sess) != session.PendingTwoFactor {
		t.Fatalf("state = %v", st)
	}
	if d, _ := c.sess.Check(ctx, session.ViewProtected); d != session.RedirectLogin {
		t.Errorf("dashboard while pending: %v", d)
	}
	if d, _ := c.sess.Check(ctx, session.ViewTwoFactor); d != session.Allow {
		t.Errorf("otp view while pending: %v", d)
	}

	if _, err := c.auth.VerifyOTP(ctx, "000000"); apiclient.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("wrong code: %v", err)
	}
	if state(t, c.sess) != session.PendingTwoFactor {
		t.Error("a rejected code must keep the handshake")
	}

	if err := c.auth.ResendOTP(ctx); err != nil {
		t.Fatalf("resend: %v", err)
	}
	u, err := c.auth.VerifyOTP(ctx, "123456")
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != mockapi.AdminEmail || state(t, c.sess) != session.Authenticated {
		t.Errorf("user %q state %v", u.Email, state(t, c.sess))
	}
	if h, _ := c.sess.Handshake(ctx); h != nil {
		t.Error("handshake should be gone")
	}
}

func TestExpiredSessionSignsOut(t *testing.T) {
	c := newConsole(t, apiKey)
	c.signIn(t)
	ctx := context.Background()

	c.srv.Store().RevokeTokens()
	_, err := c.admin.Companies.List(ctx, nil, model.PageRequest{Number: 1})
	if !apiclient.IsUnauthorized(err) {
		t.Fatalf("err = %v", err)
	}
	if tok, _ := c.sess.Token(ctx); tok != "" {
		t.Error("token should be cleared after 401")
	}
	if state(t, c.sess) != session.Anonymous {
		t.Errorf("state = %v", state(t, c.sess))
	}
	if d, _ := c.sess.Check(ctx, session.ViewProtected); d != session.RedirectLogin {
		t.Errorf("decision = %v", d)
	}
}

func TestWrongAPIKeyKeepsSession(t *testing.T) {
	c := newConsole(t, "wrong-key")
	ctx := context.Background()

	if err := c.sess.SetAuthenticated(ctx, "tok", model.User{Email: mockapi.OpsEmail}); err != nil {
		t.Fatal(err)
	}
	_, err := c.admin.Dashboard.Stats(ctx)
	if apiclient.StatusOf(err) != http.StatusForbidden {
		t.Fatalf("err = %v", err)
	}
	if tok, _ := c.sess.Token(ctx); tok != "tok" {
		t.Error("403 must not clear the token")
	}
}

func TestPagePastTheEnd(t *testing.T) {
	c := newConsole(t, apiKey)
	c.signIn(t)

	page, err := c.admin.Transactions.List(context.Background(), nil, model.PageRequest{Number: 5, Size: 10})
	if err != nil {
		t.Fatal(err)
	}
	if !page.IsEmpty() || page.TotalCount != 20 || page.TotalPages != 2 || page.HasNextPage {
		t.Errorf("page = %+v", page)
	}
}

func TestLegacyTotalIsNormalized(t *testing.T) {
	c := newConsole(t, apiKey)
	c.signIn(t)

	page, err := c.admin.Customers.List(context.Background(), query.Filters{"kycStatus": "pending"}, model.PageRequest{Number: 1})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 4 || len(page.Items) != 4 || page.TotalPages != 1 {
		t.Errorf("page = %+v", page)
	}
}

func TestFailedApprovalLeavesEverythingAlone(t *testing.T) {
	c := newConsole(t, apiKey)
	c.signIn(t)
	ctx := context.Background()

	pending, err := c.admin.Transfers.ListPending(ctx, nil, model.PageRequest{Number: 1})
	if err != nil || len(pending.Items) == 0 {
		t.Fatalf("pending: %v %d", err, len(pending.Items))
	}
	id := pending.Items[0].ID
	key := c.admin.Transfers.PendingKey(nil, model.PageRequest{Number: 1})

	c.srv.FailNext(http.MethodPost, "/transfers/:id/approve", http.StatusInternalServerError)
	err = c.admin.Transfers.Approve(ctx, id, model.ApproveTransferRequest{})
	if apiclient.StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("err = %v", err)
	}

	if st, _ := c.srv.Store().TransferStatus(id); st != model.TransferPending {
		t.Errorf("status = %s", st)
	}
	snap, ok := c.cache.Inspect(key)
	if !ok || snap.Invalidated {
		t.Errorf("cache entry should be untouched: %+v", snap)
	}

	events := c.events.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d", len(events))
	}
	e := events[0]
	if e.Outcome != model.AuditFailed || e.Action != "transfer.approve" || e.ResourceID != id || e.Actor != mockapi.OpsEmail || e.RequestID == "" {
		t.Errorf("event = %+v", e)
	}

	if err := c.admin.Transfers.Approve(ctx, id, model.ApproveTransferRequest{}); err != nil {
		t.Fatal(err)
	}
	if st, _ := c.srv.Store().TransferStatus(id); st != model.TransferApproved {
		t.Errorf("status = %s", st)
	}
	after, err := c.admin.Transfers.ListPending(ctx, nil, model.PageRequest{Number: 1})
	if err != nil {
		t.Fatal(err)
	}
	if after.TotalCount != pending.TotalCount-1 {
		t.Errorf("pending after approve = %d, before %d", after.TotalCount, pending.TotalCount)
	}
}

func TestCreateShowsUpAfterInvalidation(t *testing.T) {
	c := newConsole(t, apiKey)
	c.signIn(t)
	ctx := context.Background()
	filters := query.Filters{"search": "Northwind"}

	before, err := c.admin.Companies.List(ctx, filters, model.PageRequest{Number: 1})
	if err != nil {
		t.Fatal(err)
	}
	if before.TotalCount != 0 {
		t.Fatalf("unexpected match: %+v", before)
	}

	created, err := c.admin.Companies.Create(ctx, model.CreateCompanyRequest{
		Name:               "Northwind Payments",
		Email:              "ops@northwind.ng",
		RegistrationNumber: "RC778899",
		ExternalReference:  "TREEGAR-NW00000001",
	})
	if err != nil {
		t.Fatal(err)
	}

	after, err := c.admin.Companies.List(ctx, filters, model.PageRequest{Number: 1})
	if err != nil {
		t.Fatal(err)
	}
	if after.TotalCount != 1 || after.Items[0].ID != created.ID {
		t.Errorf("after = %+v", after)
	}
	if events := c.events.Events(); len(events) != 1 || events[0].Outcome != model.AuditSucceeded {
		t.Errorf("events = %+v", events)
	}
}

func TestLogoutClearsCache(t *testing.T) {
	c := newConsole(t, apiKey)
	c.signIn(t)
	ctx := context.Background()

	if _, err := c.admin.Dashboard.Stats(ctx); err != nil {
		t.Fatal(err)
	}
	if c.cache.Len() == 0 {
		t.Fatal("expected a cached entry")
	}
	if err := c.auth.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if c.cache.Len() != 0 || state(t, c.sess) != session.Anonymous {
		t.Errorf("len=%d state=%v", c.cache.Len(), state(t, c.sess))
	}
}

func TestServerFieldErrorLandsOnFormSlot(t *testing.T) {
	c := newConsole(t, apiKey)
	c.signIn(t)

	req := model.CreateInflowFeeRequest{CompanyID: "no-such-company", Name: "Card inflow", Type: model.FeeFlat, Value: 50}
	_, err := c.admin.InflowFees.Create(context.Background(), req)
	if apiclient.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}

	form := validation.FromServer(err, validation.FormFields(req)...)
	if got := form.Field("companyId"); got != "Company does not exist" {
		t.Errorf("companyId = %q, fields = %v", got, form.Fields)
	}
	if form.General != "" {
		t.Errorf("general = %q", form.General)
	}
	if ev := c.events.Events(); len(ev) != 1 || ev[0].Outcome != model.AuditFailed {
		t.Errorf("events = %+v", ev)
	}
}
