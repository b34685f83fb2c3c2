package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/treegar/admin-console/internal/apiclient"
	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/validation"
)

func TestParseFilters(t *testing.T) {
	f, err := parseFilters([]string{"status=pending", " search = acme ltd ", "from="})
	if err != nil {
		t.Fatal(err)
	}
	if f["status"] != "pending" || f["search"] != "acme ltd" || f["from"] != "" {
		t.Errorf("filters = %v", f)
	}
	if got := f.Values().Encode(); got != "search=acme+ltd&status=pending" {
		t.Errorf("encoded = %q", got)
	}

	for _, bad := range []string{"status", "=pending"} {
		if _, err := parseFilters([]string{bad}); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestDecodeData(t *testing.T) {
	req, err := decodeData[model.DenyCompanyRequest](`{"reason":"incomplete documents"}`)
	if err != nil || req.Reason != "incomplete documents" {
		t.Fatalf("inline: %+v %v", req, err)
	}

	path := filepath.Join(t.TempDir(), "fee.json")
	if err := os.WriteFile(path, []byte(`{"name":"Card","type":"flat","value":50}`), 0o600); err != nil {
		t.Fatal(err)
	}
	fee, err := decodeData[model.UpdateInflowFeeRequest]("@" + path)
	if err != nil || fee.Name != "Card" || fee.Value != 50 {
		t.Fatalf("file: %+v %v", fee, err)
	}

	if _, err := decodeData[model.DenyCompanyRequest](`{"reasn":"typo"}`); err == nil {
		t.Error("unknown fields should be rejected")
	}
	if _, err := decodeData[model.DenyCompanyRequest](""); err == nil {
		t.Error("empty data should be rejected")
	}
}

func TestSubmitErrorPlacesServerFields(t *testing.T) {
	rejected := &apiclient.Error{
		Kind:   apiclient.KindServer,
		Method: http.MethodPost,
		Path:   "/inflow-fees",
		Status: http.StatusBadRequest,
		Fields: map[string][]string{"CompanyId": {"Company does not exist"}},
	}
	err := submitError[model.CreateInflowFeeRequest](fmt.Errorf("create fee: %w", rejected))

	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("err = %T %v", err, err)
	}
	if verr.Field("companyId") != "Company does not exist" {
		t.Errorf("fields = %v", verr.Fields)
	}

	var buf bytes.Buffer
	report(&buf, err)
	if got := buf.String(); got != "  companyId: Company does not exist\n" {
		t.Errorf("report = %q", got)
	}
}

func TestSubmitErrorFallsBackToMessage(t *testing.T) {
	err := submitError[model.CreateCompanyRequest](&apiclient.Error{Kind: apiclient.KindServer, Status: http.StatusConflict})
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.General != validation.GenericMessage {
		t.Fatalf("err = %v", err)
	}

	network := &apiclient.Error{Kind: apiclient.KindNetwork, Err: errors.New("connection refused")}
	if got := submitError[model.CreateCompanyRequest](network); got != network {
		t.Errorf("network error rewritten: %v", got)
	}
	expired := &apiclient.Error{Kind: apiclient.KindServer, Status: http.StatusUnauthorized, Message: "Session expired"}
	if got := submitError[model.CreateCompanyRequest](expired); got != expired {
		t.Errorf("401 rewritten: %v", got)
	}
}

func TestReportHintsLoginOnUnauthorized(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, &apiclient.Error{Kind: apiclient.KindServer, Method: http.MethodGet, Path: "/companies", Status: http.StatusUnauthorized, Message: "Session expired"})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "Session expired") || lines[1] != `not signed in; run "treegar-admin login"` {
		t.Errorf("report = %q", buf.String())
	}
}
