package mockapi

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/treegar/admin-console/internal/model"
)

type account struct {
	model.User
	password string
}

// Store is the mock's in-memory state. All access goes through its mutex.
type Store struct {
	mu sync.Mutex

	users        map[string]*account
	roles        map[string]*model.Role
	permissions  []model.Permission
	companies    map[string]*model.Company
	customers    map[string]*model.Customer
	documents    map[string]*model.KYCDocument
	requirements map[string]*model.KYCRequirement
	transactions map[string]*model.Transaction
	transfers    map[string]*model.Transfer
	fees         map[string]*model.InflowFee

	tokens    map[string]string // bearer token -> user id
	twoFactor map[string]string // handshake token -> user id

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:        map[string]*account{},
		roles:        map[string]*model.Role{},
		companies:    map[string]*model.Company{},
		customers:    map[string]*model.Customer{},
		documents:    map[string]*model.KYCDocument{},
		requirements: map[string]*model.KYCRequirement{},
		transactions: map[string]*model.Transaction{},
		transfers:    map[string]*model.Transfer{},
		fees:         map[string]*model.InflowFee{},
		tokens:       map[string]string{},
		twoFactor:    map[string]string{},
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Seeded accounts.
const (
	AdminEmail    = "admin@example.com" // two-factor enabled
	AdminPassword = "password"
	OpsEmail      = "ops@treegar.com" // password only
	OpsPassword   = "Passw0rd!"
)

// Seed fills the store with a small, stable data set: 2 operators, 12
// companies, 20 customers, 20 transactions, 6 transfers (4 pending) and
// 3 inflow fees.
func (s *Store) Seed() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	modules := []string{"companies", "users", "customers", "transactions", "transfers", "fees"}
	for _, m := range modules {
		for _, verb := range []string{"read", "write"} {
			s.permissions = append(s.permissions, model.Permission{
				ID:     uuid.NewString(),
				Name:   m + "." + verb,
				Module: m,
			})
		}
	}
	superAdmin := &model.Role{ID: uuid.NewString(), Name: "Super Admin", Description: "Full access", Permissions: append([]model.Permission(nil), s.permissions...)}
	viewer := &model.Role{ID: uuid.NewString(), Name: "Viewer", Description: "Read only"}
	for _, p := range s.permissions {
		if strings.HasSuffix(p.Name, ".read") {
			viewer.Permissions = append(viewer.Permissions, p)
		}
	}
	s.roles[superAdmin.ID] = superAdmin
	s.roles[viewer.ID] = viewer

	s.addUserLocked(model.User{FirstName: "Ada", LastName: "Admin", Email: AdminEmail, RoleID: superAdmin.ID, IsActive: true, TwoFactorEnabled: true, CreatedAt: base}, AdminPassword)
	s.addUserLocked(model.User{FirstName: "Obi", LastName: "Ops", Email: OpsEmail, RoleID: viewer.ID, IsActive: true, CreatedAt: base}, OpsPassword)

	industries := []string{"fintech", "retail", "logistics"}
	for i := 1; i <= 12; i++ {
		st := model.CompanyApproved
		switch {
		case i%4 == 0:
			st = model.CompanyDenied
		case i%3 == 0:
			st = model.CompanyPending
		case i > 8:
			st = model.CompanyPending
		}
		c := &model.Company{
			ID:                 uuid.NewString(),
			Name:               fmt.Sprintf("Company %02d Ltd", i),
			Email:              fmt.Sprintf("finance@company%02d.ng", i),
			Phone:              fmt.Sprintf("+23480300000%02d", i),
			RegistrationNumber: fmt.Sprintf("RC%06d", 100000+i),
			ExternalReference:  fmt.Sprintf("TREEGAR-CO%08d", i),
			Industry:           industries[i%len(industries)],
			Status:             st,
			CreatedAt:          base.Add(time.Duration(i) * time.Hour),
		}
		s.companies[c.ID] = c
	}
	companyIDs := s.sortedCompanyIDsLocked()

	for i := 1; i <= 20; i++ {
		kyc := model.KYCVerified
		if i%5 == 0 {
			kyc = model.KYCPending
		}
		c := &model.Customer{
			ID:            uuid.NewString(),
			CompanyID:     companyIDs[i%len(companyIDs)],
			FirstName:     fmt.Sprintf("Customer%02d", i),
			LastName:      "Okafor",
			Email:         fmt.Sprintf("customer%02d@mail.ng", i),
			Phone:         fmt.Sprintf("+2348030000%03d", i),
			AccountNumber: fmt.Sprintf("30%08d", i),
			Balance:       float64(i * 10000),
			KYCStatus:     kyc,
			KYCLevel:      1 + i%3,
			Status:        "active",
			CreatedAt:     base.Add(time.Duration(i) * 2 * time.Hour),
		}
		s.customers[c.ID] = c
		if kyc == model.KYCPending {
			for _, typ := range []string{"national_id", "utility_bill"} {
				d := &model.KYCDocument{
					ID:         uuid.NewString(),
					CustomerID: c.ID,
					Type:       typ,
					URL:        "https://files.treegar.test/" + c.ID + "/" + typ + ".pdf",
					Status:     model.DocumentPending,
					UploadedAt: c.CreatedAt.Add(time.Hour),
				}
				s.documents[d.ID] = d
			}
		}

		tx := &model.Transaction{
			ID:         uuid.NewString(),
			Reference:  fmt.Sprintf("TRX%010d", i),
			CompanyID:  c.CompanyID,
			CustomerID: c.ID,
			Type:       []string{"credit", "debit"}[i%2],
			Channel:    "transfer",
			Amount:     float64(i * 2500),
			Fee:        25,
			Currency:   "NGN",
			Status:     "successful",
			CreatedAt:  base.Add(time.Duration(i) * 3 * time.Hour),
		}
		s.transactions[tx.ID] = tx
	}

	customerIDs := s.sortedCustomerIDsLocked()
	for i := 1; i <= 6; i++ {
		st := model.TransferPending
		if i == 5 {
			st = model.TransferApproved
		} else if i == 6 {
			st = model.TransferRejected
		}
		cust := s.customers[customerIDs[i]]
		t := &model.Transfer{
			ID:                 uuid.NewString(),
			Reference:          fmt.Sprintf("TRF%010d", i),
			CompanyID:          cust.CompanyID,
			CustomerID:         cust.ID,
			SourceAccount:      cust.AccountNumber,
			BeneficiaryAccount: fmt.Sprintf("01%08d", i),
			BeneficiaryBank:    "First Bank",
			BeneficiaryName:    fmt.Sprintf("Beneficiary %d", i),
			Amount:             float64(i) * 150000,
			Currency:           "NGN",
			Status:             st,
			RequestedAt:        base.Add(time.Duration(i) * 4 * time.Hour),
		}
		s.transfers[t.ID] = t
	}

	for i, lvl := range []struct {
		name  string
		docs  []string
		limit float64
	}{
		{"Tier 1", []string{"bvn"}, 50000},
		{"Tier 2", []string{"bvn", "national_id"}, 200000},
		{"Tier 3", []string{"bvn", "national_id", "utility_bill"}, 5000000},
	} {
		r := &model.KYCRequirement{ID: uuid.NewString(), Level: i + 1, Name: lvl.name, DocumentTypes: lvl.docs, DailyLimit: lvl.limit}
		s.requirements[r.ID] = r
	}

	for i, f := range []model.InflowFee{
		{Name: "Card inflow", Type: model.FeePercentage, Value: 1.5, Cap: 2000},
		{Name: "Bank transfer", Type: model.FeeFlat, Value: 50},
		{Name: "USSD", Type: model.FeeFlat, Value: 20, MaxAmount: 100000},
	} {
		f.ID = uuid.NewString()
		f.CompanyID = companyIDs[i]
		f.IsActive = true
		f.CreatedAt = base
		fee := f
		s.fees[fee.ID] = &fee
	}
	return s
}

func (s *Store) addUserLocked(u model.User, password string) *account {
	u.ID = uuid.NewString()
	if r, ok := s.roles[u.RoleID]; ok {
		u.Role = r.Name
		u.Permissions = permissionNames(r.Permissions)
	}
	a := &account{User: u, password: password}
	s.users[u.ID] = a
	return a
}

func permissionNames(ps []model.Permission) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func (s *Store) sortedCompanyIDsLocked() []string {
	ids := make([]string, 0, len(s.companies))
	for id := range s.companies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.companies[ids[i]].CreatedAt.Before(s.companies[ids[j]].CreatedAt) })
	return ids
}

func (s *Store) sortedCustomerIDsLocked() []string {
	ids := make([]string, 0, len(s.customers))
	for id := range s.customers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.customers[ids[i]].CreatedAt.Before(s.customers[ids[j]].CreatedAt) })
	return ids
}

// Session handling.

func (s *Store) userByEmail(email string) *account {
	for _, a := range s.users {
		if strings.EqualFold(a.Email, email) {
			return a
		}
	}
	return nil
}

func (s *Store) issueToken(userID string) string {
	tok := strings.ReplaceAll(uuid.NewString(), "-", "")
	s.tokens[tok] = userID
	return tok
}

// UserForToken resolves a bearer token.
func (s *Store) UserForToken(tok string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[tok]
	if !ok {
		return model.User{}, false
	}
	a, ok := s.users[id]
	if !ok || !a.IsActive {
		return model.User{}, false
	}
	return a.User, true
}

// RevokeTokens drops every bearer token, as a server-side session expiry would.
func (s *Store) RevokeTokens() {
	s.mu.Lock()
	s.tokens = map[string]string{}
	s.mu.Unlock()
}

// TransferStatus reports the stored status of one transfer.
func (s *Store) TransferStatus(id string) (model.TransferStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return "", false
	}
	return t.Status, true
}
