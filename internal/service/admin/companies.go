package admin

import (
	"context"

	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/query"
)

type Companies struct {
	*base
	list *query.List[model.Company]
}

func newCompanies(b *base) *Companies {
	return &Companies{base: b, list: query.NewList[model.Company](b.cache, b.api, ResourceCompanies, "/companies", b.pageSize,
		"search", "status", "industry", "from", "to")}
}

func (s *Companies) List(ctx context.Context, f query.Filters, page model.PageRequest) (model.Page[model.Company], error) {
	return s.list.Fetch(ctx, f, page)
}

func (s *Companies) Get(ctx context.Context, id string) (model.Company, error) {
	p, err := path("/companies", id)
	if err != nil {
		return model.Company{}, err
	}
	return query.Get[model.Company](ctx, s.cache, s.api, ResourceCompanies, p, nil)
}

func (s *Companies) Stats(ctx context.Context) (model.CompanyStats, error) {
	return query.Get[model.CompanyStats](ctx, s.cache, s.api, ResourceCompanies, "/companies/stats", nil)
}

func (s *Companies) Create(ctx context.Context, req model.CreateCompanyRequest) (*model.Company, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out model.Company
	err := s.mutate(ctx, "company.create", ResourceCompanies, req.ExternalReference, func(ctx context.Context) error {
		return s.api.Post(ctx, "/companies", req, &out)
	}, ResourceDashboard)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Companies) Approve(ctx context.Context, id string) error {
	p, err := path("/companies", id, "approve")
	if err != nil {
		return err
	}
	return s.mutate(ctx, "company.approve", ResourceCompanies, id, func(ctx context.Context) error {
		return s.api.Post(ctx, p, struct{}{}, nil)
	}, ResourceDashboard)
}

func (s *Companies) Deny(ctx context.Context, id string, req model.DenyCompanyRequest) error {
	p, err := path("/companies", id, "deny")
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, "company.deny", ResourceCompanies, id, func(ctx context.Context) error {
		return s.api.Post(ctx, p, req, nil)
	}, ResourceDashboard)
}
