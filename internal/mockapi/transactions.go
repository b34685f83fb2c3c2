package mockapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/treegar/admin-console/internal/model"
)

func amountParam(c echo.Context, name string) float64 {
	v, _ := strconv.ParseFloat(query(c, name), 64)
	return v
}

func (s *Server) listTransactions(c echo.Context) error {
	search, ref := query(c, "search"), query(c, "reference")
	companyID, customerID := query(c, "companyId"), query(c, "customerId")
	typ, status, channel := query(c, "type"), query(c, "status"), query(c, "channel")
	minAmount, maxAmount := amountParam(c, "minAmount"), amountParam(c, "maxAmount")
	from, to := dateRange(c)

	st := s.store
	st.mu.Lock()
	items := values(st.transactions, func(t *model.Transaction) bool {
		return matchesAny(search, t.Reference, t.Narration) && eq(ref, t.Reference) &&
			eq(companyID, t.CompanyID) && eq(customerID, t.CustomerID) &&
			eq(typ, t.Type) && eq(status, t.Status) && eq(channel, t.Channel) &&
			(minAmount == 0 || t.Amount >= minAmount) && (maxAmount == 0 || t.Amount <= maxAmount) &&
			inRange(t.CreatedAt, from, to)
	})
	st.mu.Unlock()

	newestFirst(items, func(t model.Transaction) time.Time { return t.CreatedAt })
	return ok(c, http.StatusOK, paginate(c, items), "")
}

func (s *Server) getTransaction(c echo.Context) error {
	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()
	t, found := st.transactions[c.Param("id")]
	if !found {
		return fail(c, http.StatusNotFound, "Transaction not found")
	}
	return ok(c, http.StatusOK, t, "")
}

func (s *Server) listTransfers(c echo.Context) error {
	return s.transferPage(c, query(c, "status"))
}

func (s *Server) listPendingTransfers(c echo.Context) error {
	return s.transferPage(c, string(model.TransferPending))
}

func (s *Server) transferPage(c echo.Context, status string) error {
	search, ref := query(c, "search"), query(c, "reference")
	companyID, customerID := query(c, "companyId"), query(c, "customerId")
	from, to := dateRange(c)

	st := s.store
	st.mu.Lock()
	items := values(st.transfers, func(t *model.Transfer) bool {
		return matchesAny(search, t.Reference, t.BeneficiaryName, t.BeneficiaryAccount) && eq(ref, t.Reference) &&
			eq(companyID, t.CompanyID) && eq(customerID, t.CustomerID) && eq(status, string(t.Status)) &&
			inRange(t.RequestedAt, from, to)
	})
	st.mu.Unlock()

	newestFirst(items, func(t model.Transfer) time.Time { return t.RequestedAt })
	return ok(c, http.StatusOK, paginate(c, items), "")
}

// approveTransfer releases a pending transfer and books the debit.
func (s *Server) approveTransfer(c echo.Context) error {
	var req model.ApproveTransferRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	t, code := s.pendingTransferLocked(c.Param("id"))
	if t == nil {
		return fail(c, code, http.StatusText(code))
	}
	now := st.now()
	t.Status, t.ReviewedBy, t.ReviewedAt = model.TransferApproved, s.currentEmailLocked(c), &now
	if req.Comment != "" {
		t.Narration = req.Comment
	}

	tx := &model.Transaction{
		ID:         uuid.NewString(),
		Reference:  fmt.Sprintf("TRX-%s", t.Reference),
		CompanyID:  t.CompanyID,
		CustomerID: t.CustomerID,
		Type:       "debit",
		Channel:    "transfer",
		Amount:     t.Amount,
		Currency:   t.Currency,
		Status:     "successful",
		Narration:  "Transfer to " + t.BeneficiaryName,
		CreatedAt:  now,
	}
	st.transactions[tx.ID] = tx
	if cu, found := st.customers[t.CustomerID]; found {
		cu.Balance -= t.Amount
	}
	return ok(c, http.StatusOK, t, "Transfer approved")
}

func (s *Server) rejectTransfer(c echo.Context) error {
	req, err := bind[model.RejectTransferRequest](c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Malformed request body")
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	t, code := s.pendingTransferLocked(c.Param("id"))
	if t == nil {
		return fail(c, code, http.StatusText(code))
	}
	now := st.now()
	t.Status, t.RejectionReason, t.ReviewedBy, t.ReviewedAt = model.TransferRejected, req.Reason, s.currentEmailLocked(c), &now
	return ok(c, http.StatusOK, t, "Transfer rejected")
}

// pendingTransferLocked returns the transfer if it can still be reviewed,
// or the status code to answer with.
func (s *Server) pendingTransferLocked(id string) (*model.Transfer, int) {
	t, found := s.store.transfers[id]
	switch {
	case !found:
		return nil, http.StatusNotFound
	case t.Status != model.TransferPending:
		return nil, http.StatusConflict
	}
	return t, http.StatusOK
}
