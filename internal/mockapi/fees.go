package mockapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/treegar/admin-console/internal/model"
)

func (s *Server) listFees(c echo.Context) error {
	search, companyID, typ := query(c, "search"), query(c, "companyId"), query(c, "type")
	active, hasActive := boolParam(c, "isActive")

	st := s.store
	st.mu.Lock()
	items := values(st.fees, func(f *model.InflowFee) bool {
		return matchesAny(search, f.Name) && eq(companyID, f.CompanyID) && eq(typ, string(f.Type)) &&
			(!hasActive || f.IsActive == active)
	})
	st.mu.Unlock()

	newestFirst(items, func(f model.InflowFee) time.Time { return f.CreatedAt })
	return ok(c, http.StatusOK, paginate(c, items), "")
}

func (s *Server) createFee(c echo.Context) error {
	req, err := bind[model.CreateInflowFeeRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, found := st.companies[req.CompanyID]; !found {
		return fieldError(c, "companyId", "Company does not exist")
	}
	f := &model.InflowFee{
		ID:        uuid.NewString(),
		CompanyID: req.CompanyID,
		Name:      req.Name,
		Type:      req.Type,
		Value:     req.Value,
		Cap:       req.Cap,
		MinAmount: req.MinAmount,
		MaxAmount: req.MaxAmount,
		IsActive:  true,
		CreatedAt: st.now(),
	}
	st.fees[f.ID] = f
	return ok(c, http.StatusCreated, f, "Inflow fee created")
}

func (s *Server) updateFee(c echo.Context) error {
	req, err := bind[model.UpdateInflowFeeRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	f, found := st.fees[c.Param("id")]
	if !found {
		return fail(c, http.StatusNotFound, "Inflow fee not found")
	}
	f.Name, f.Type, f.Value, f.Cap, f.MinAmount, f.MaxAmount = req.Name, req.Type, req.Value, req.Cap, req.MinAmount, req.MaxAmount
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}
	return ok(c, http.StatusOK, f, "Inflow fee updated")
}

func (s *Server) dashboard(c echo.Context) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	out := model.DashboardStats{
		TotalCompanies:   len(st.companies),
		TotalCustomers:   len(st.customers),
		TotalUsers:       len(st.users),
		TransactionCount: len(st.transactions),
	}
	for _, co := range st.companies {
		if co.Status == model.CompanyPending {
			out.PendingCompanies++
		}
	}
	for _, t := range st.transactions {
		out.TransactionVolume += t.Amount
	}
	for _, t := range st.transfers {
		if t.Status == model.TransferPending {
			out.PendingTransfers++
		}
	}
	return ok(c, http.StatusOK, out, "")
}
