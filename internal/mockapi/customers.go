package mockapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/util"
)

// listCustomers still answers with the legacy "total" envelope.
func (s *Server) listCustomers(c echo.Context) error {
	search, email, companyID, kyc := query(c, "search"), query(c, "email"), query(c, "companyId"), query(c, "kycStatus")
	phone := util.NormalizePhone(query(c, "phone"))
	level, _ := strconv.Atoi(query(c, "kycLevel"))

	st := s.store
	st.mu.Lock()
	items := values(st.customers, func(cu *model.Customer) bool {
		return matchesAny(search, cu.FirstName, cu.LastName, cu.Email, cu.AccountNumber) &&
			eq(email, cu.Email) && eq(companyID, cu.CompanyID) && eq(kyc, string(cu.KYCStatus)) &&
			(phone == "" || cu.Phone == phone) && (level == 0 || cu.KYCLevel == level)
	})
	st.mu.Unlock()

	newestFirst(items, func(cu model.Customer) time.Time { return cu.CreatedAt })
	return ok(c, http.StatusOK, legacy(paginate(c, items)), "")
}

func (s *Server) getCustomer(c echo.Context) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	cu, found := st.customers[c.Param("id")]
	if !found {
		return fail(c, http.StatusNotFound, "Customer not found")
	}
	return ok(c, http.StatusOK, cu, "")
}

func (s *Server) listDocuments(c echo.Context) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	id := c.Param("id")
	if _, found := st.customers[id]; !found {
		return fail(c, http.StatusNotFound, "Customer not found")
	}
	docs := values(st.documents, func(d *model.KYCDocument) bool { return d.CustomerID == id })
	sortByName(docs, func(d model.KYCDocument) string { return d.Type })
	return ok(c, http.StatusOK, docs, "")
}

func (s *Server) approveDocument(c echo.Context) error {
	return s.reviewDocument(c, model.DocumentApproved, "")
}

func (s *Server) rejectDocument(c echo.Context) error {
	req, err := bind[model.RejectDocumentRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}
	return s.reviewDocument(c, model.DocumentRejected, req.Reason)
}

// reviewDocument decides one document; the customer's KYC status follows
// once none of their documents is pending.
func (s *Server) reviewDocument(c echo.Context, to model.DocumentStatus, reason string) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	d, found := st.documents[c.Param("doc")]
	if !found || d.CustomerID != c.Param("id") {
		return fail(c, http.StatusNotFound, "Document not found")
	}
	if d.Status != model.DocumentPending {
		return fail(c, http.StatusBadRequest, "Document has already been reviewed")
	}
	now := st.now()
	d.Status, d.RejectionReason, d.ReviewedAt = to, reason, &now

	cu := st.customers[d.CustomerID]
	pending, rejected := false, false
	for _, other := range st.documents {
		if other.CustomerID != d.CustomerID {
			continue
		}
		switch other.Status {
		case model.DocumentPending:
			pending = true
		case model.DocumentRejected:
			rejected = true
		}
	}
	switch {
	case pending:
	case rejected:
		cu.KYCStatus = model.KYCRejected
	default:
		cu.KYCStatus = model.KYCVerified
	}
	return ok(c, http.StatusOK, d, "Document "+string(to))
}

func (s *Server) listRequirements(c echo.Context) error {
	st := s.store
	st.mu.Lock()
	items := values(st.requirements, nil)
	st.mu.Unlock()
	sortByName(items, func(r model.KYCRequirement) string { return strconv.Itoa(r.Level) })
	return ok(c, http.StatusOK, items, "")
}

func (s *Server) updateRequirement(c echo.Context) error {
	req, err := bind[model.UpdateKYCRequirementRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	r, found := st.requirements[c.Param("id")]
	if !found {
		return fail(c, http.StatusNotFound, "KYC requirement not found")
	}
	if req.Description != "" {
		r.Description = req.Description
	}
	r.DocumentTypes, r.DailyLimit = req.DocumentTypes, req.DailyLimit
	return ok(c, http.StatusOK, r, "KYC requirement updated")
}
