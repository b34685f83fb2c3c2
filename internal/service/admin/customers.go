package admin

import (
	"context"

	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/query"
	"github.com/treegar/admin-console/internal/util"
)

type Customers struct {
	*base
	list *query.List[model.Customer]
}

func newCustomers(b *base) *Customers {
	return &Customers{base: b, list: query.NewList[model.Customer](b.cache, b.api, ResourceCustomers, "/customers", b.pageSize,
		"search", "phone", "email", "companyId", "kycStatus", "kycLevel")}
}

// List pages customers. A phone filter is normalized to +234 form first so
// "0803..." and "+234803..." share one cache entry.
func (s *Customers) List(ctx context.Context, f query.Filters, page model.PageRequest) (model.Page[model.Customer], error) {
	if raw, ok := f["phone"].(string); ok {
		f = clone(f)
		f["phone"] = util.NormalizePhone(raw)
	}
	return s.list.Fetch(ctx, f, page)
}

func (s *Customers) Get(ctx context.Context, id string) (model.Customer, error) {
	p, err := path("/customers", id)
	if err != nil {
		return model.Customer{}, err
	}
	return query.Get[model.Customer](ctx, s.cache, s.api, ResourceCustomers, p, nil)
}

// Prefetch warms the detail entry so a following Get is served from cache.
func (s *Customers) Prefetch(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}

func (s *Customers) Documents(ctx context.Context, customerID string) ([]model.KYCDocument, error) {
	p, err := path("/customers", customerID, "kyc-documents")
	if err != nil {
		return nil, err
	}
	return query.Get[[]model.KYCDocument](ctx, s.cache, s.api, ResourceCustomers, p, nil)
}

func (s *Customers) ApproveDocument(ctx context.Context, customerID, documentID string) error {
	p, err := path("/customers", customerID, "kyc-documents", documentID, "approve")
	if err != nil {
		return err
	}
	return s.mutate(ctx, "kyc_document.approve", ResourceCustomers, documentID, func(ctx context.Context) error {
		return s.api.Post(ctx, p, struct{}{}, nil)
	})
}

func (s *Customers) RejectDocument(ctx context.Context, customerID, documentID string, req model.RejectDocumentRequest) error {
	p, err := path("/customers", customerID, "kyc-documents", documentID, "reject")
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, "kyc_document.reject", ResourceCustomers, documentID, func(ctx context.Context) error {
		return s.api.Post(ctx, p, req, nil)
	})
}

func (s *Customers) Requirements(ctx context.Context) ([]model.KYCRequirement, error) {
	return query.Get[[]model.KYCRequirement](ctx, s.cache, s.api, ResourceKYCRequirements, "/kyc-requirements", nil)
}

func (s *Customers) UpdateRequirement(ctx context.Context, id string, req model.UpdateKYCRequirementRequest) (*model.KYCRequirement, error) {
	p, err := path("/kyc-requirements", id)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out model.KYCRequirement
	err = s.mutate(ctx, "kyc_requirement.update", ResourceKYCRequirements, id, func(ctx context.Context) error {
		return s.api.Put(ctx, p, req, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func clone(f query.Filters) query.Filters {
	out := make(query.Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
