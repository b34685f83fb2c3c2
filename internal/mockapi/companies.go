package mockapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/treegar/admin-console/internal/model"
)

func (s *Server) listCompanies(c echo.Context) error {
	search, status, industry := query(c, "search"), query(c, "status"), query(c, "industry")
	from, to := dateRange(c)

	st := s.store
	st.mu.Lock()
	items := values(st.companies, func(co *model.Company) bool {
		return matchesAny(search, co.Name, co.Email, co.RegistrationNumber, co.ExternalReference) &&
			eq(status, string(co.Status)) && eq(industry, co.Industry) && inRange(co.CreatedAt, from, to)
	})
	st.mu.Unlock()

	newestFirst(items, func(co model.Company) time.Time { return co.CreatedAt })
	return ok(c, http.StatusOK, paginate(c, items), "")
}

func (s *Server) companyStats(c echo.Context) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	var out model.CompanyStats
	for _, co := range st.companies {
		out.Total++
		switch co.Status {
		case model.CompanyPending:
			out.Pending++
		case model.CompanyApproved:
			out.Approved++
		case model.CompanyDenied:
			out.Denied++
		}
	}
	return ok(c, http.StatusOK, out, "")
}

func (s *Server) getCompany(c echo.Context) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	co, found := st.companies[c.Param("id")]
	if !found {
		return fail(c, http.StatusNotFound, "Company not found")
	}
	return ok(c, http.StatusOK, co, "")
}

func (s *Server) createCompany(c echo.Context) error {
	req, err := bind[model.CreateCompanyRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, co := range st.companies {
		if strings.EqualFold(co.ExternalReference, req.ExternalReference) {
			return fieldError(c, "externalReference", "A company with this reference already exists")
		}
	}
	co := &model.Company{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(req.Name),
		Email:              req.Email,
		Phone:              req.Phone,
		RegistrationNumber: req.RegistrationNumber,
		ExternalReference:  req.ExternalReference,
		Industry:           req.Industry,
		Status:             model.CompanyPending,
		CreatedAt:          st.now(),
	}
	st.companies[co.ID] = co
	return ok(c, http.StatusCreated, co, "Company created")
}

func (s *Server) approveCompany(c echo.Context) error {
	return s.reviewCompany(c, model.CompanyApproved, "")
}

func (s *Server) denyCompany(c echo.Context) error {
	req, err := bind[model.DenyCompanyRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}
	return s.reviewCompany(c, model.CompanyDenied, req.Reason)
}

func (s *Server) reviewCompany(c echo.Context, to model.CompanyStatus, reason string) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	co, found := st.companies[c.Param("id")]
	if !found {
		return fail(c, http.StatusNotFound, "Company not found")
	}
	if co.Status != model.CompanyPending {
		return fail(c, http.StatusBadRequest, "Company has already been reviewed")
	}
	now := st.now()
	co.Status = to
	co.DenialReason = reason
	co.ReviewedAt = &now
	return ok(c, http.StatusOK, co, "Company "+string(to))
}
