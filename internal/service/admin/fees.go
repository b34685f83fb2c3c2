package admin

import (
	"context"

	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/query"
)

type InflowFees struct {
	*base
	list *query.List[model.InflowFee]
}

func newInflowFees(b *base) *InflowFees {
	return &InflowFees{base: b, list: query.NewList[model.InflowFee](b.cache, b.api, ResourceInflowFees, "/inflow-fees", b.pageSize,
		"search", "companyId", "type", "isActive")}
}

func (s *InflowFees) List(ctx context.Context, f query.Filters, page model.PageRequest) (model.Page[model.InflowFee], error) {
	return s.list.Fetch(ctx, f, page)
}

func (s *InflowFees) Create(ctx context.Context, req model.CreateInflowFeeRequest) (*model.InflowFee, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out model.InflowFee
	err := s.mutate(ctx, "inflow_fee.create", ResourceInflowFees, req.CompanyID, func(ctx context.Context) error {
		return s.api.Post(ctx, "/inflow-fees", req, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InflowFees) Update(ctx context.Context, id string, req model.UpdateInflowFeeRequest) (*model.InflowFee, error) {
	p, err := path("/inflow-fees", id)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out model.InflowFee
	err = s.mutate(ctx, "inflow_fee.update", ResourceInflowFees, id, func(ctx context.Context) error {
		return s.api.Put(ctx, p, req, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type Dashboard struct{ *base }

func (s *Dashboard) Stats(ctx context.Context) (model.DashboardStats, error) {
	return query.Get[model.DashboardStats](ctx, s.cache, s.api, ResourceDashboard, "/dashboard", nil)
}
