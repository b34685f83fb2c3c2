// Package admin exposes the back-office resources as typed services. Reads
// go through the shared query cache; every mutation validates locally,
// calls the API, invalidates the affected resources only on success and
// leaves an audit record either way.
package admin

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/treegar/admin-console/internal/apiclient"
	"github.com/treegar/admin-console/internal/audit"
	"github.com/treegar/admin-console/internal/query"
	"github.com/treegar/admin-console/internal/util"
)

// Cache buckets; a mutation invalidates its bucket and any dependants.
const (
	ResourceCompanies       = "companies"
	ResourceUsers           = "users"
	ResourceRoles           = "roles"
	ResourcePermissions     = "permissions"
	ResourceCustomers       = "customers"
	ResourceKYCRequirements = "kyc-requirements"
	ResourceTransactions    = "transactions"
	ResourceTransfers       = "transfers"
	ResourceInflowFees      = "inflow-fees"
	ResourceDashboard       = "dashboard"
)

var ErrMissingID = errors.New("missing id")

// API is the part of apiclient.Client the services use.
type API interface {
	Get(ctx context.Context, path string, params url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
}

type Deps struct {
	API      API
	Cache    *query.Cache
	Audit    *audit.Recorder // optional
	PageSize int
	Log      *zap.Logger
}

// Services groups every resource service over one client and cache.
type Services struct {
	Companies    *Companies
	Users        *Users
	Roles        *Roles
	Permissions  *Permissions
	Customers    *Customers
	Transactions *Transactions
	Transfers    *Transfers
	InflowFees   *InflowFees
	Dashboard    *Dashboard
}

func New(d Deps) *Services {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	b := &base{api: d.API, cache: d.Cache, audit: d.Audit, pageSize: d.PageSize, log: d.Log.Named("admin")}
	return &Services{
		Companies:    newCompanies(b),
		Users:        newUsers(b),
		Roles:        newRoles(b),
		Permissions:  &Permissions{b},
		Customers:    newCustomers(b),
		Transactions: newTransactions(b),
		Transfers:    newTransfers(b),
		InflowFees:   newInflowFees(b),
		Dashboard:    &Dashboard{b},
	}
}

type base struct {
	api      API
	cache    *query.Cache
	audit    *audit.Recorder
	pageSize int
	log      *zap.Logger
}

// mutate runs call and, only if it succeeds, invalidates resource and its
// dependants. The attempt is audited whatever the outcome.
func (b *base) mutate(ctx context.Context, action, resource, id string, call func(context.Context) error, dependants ...string) error {
	if apiclient.RequestIDFrom(ctx) == "" {
		ctx = apiclient.WithRequestID(ctx, util.NewID())
	}

	err := call(ctx)
	if err == nil {
		b.cache.Invalidate(resource)
		for _, r := range dependants {
			b.cache.Invalidate(r)
		}
	} else {
		b.log.Warn("mutation failed", zap.String("action", action), zap.String("id", id), zap.Error(err))
	}

	if b.audit != nil {
		b.audit.Record(ctx, action, resource, id, err)
	}
	return err
}

// path joins escaped segments onto root: path("/companies", id, "approve").
func path(root string, segs ...string) (string, error) {
	var sb strings.Builder
	sb.WriteString(root)
	for _, s := range segs {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", ErrMissingID
		}
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(s))
	}
	return sb.String(), nil
}
