package admin

import (
	"context"

	"github.com/treegar/admin-console/internal/model"
	"github.com/treegar/admin-console/internal/query"
)

type Transactions struct {
	*base
	list *query.List[model.Transaction]
}

func newTransactions(b *base) *Transactions {
	return &Transactions{base: b, list: query.NewList[model.Transaction](b.cache, b.api, ResourceTransactions, "/transactions", b.pageSize,
		"search", "reference", "companyId", "customerId", "type", "status", "channel", "from", "to", "minAmount", "maxAmount")}
}

func (s *Transactions) List(ctx context.Context, f query.Filters, page model.PageRequest) (model.Page[model.Transaction], error) {
	return s.list.Fetch(ctx, f, page)
}

func (s *Transactions) Get(ctx context.Context, id string) (model.Transaction, error) {
	p, err := path("/transactions", id)
	if err != nil {
		return model.Transaction{}, err
	}
	return query.Get[model.Transaction](ctx, s.cache, s.api, ResourceTransactions, p, nil)
}

// Transfers is the outbound transfer approval queue.
type Transfers struct {
	*base
	all     *query.List[model.Transfer]
	pending *query.List[model.Transfer]
}

func newTransfers(b *base) *Transfers {
	fields := []string{"search", "reference", "companyId", "customerId", "status", "from", "to"}
	return &Transfers{
		base:    b,
		all:     query.NewList[model.Transfer](b.cache, b.api, ResourceTransfers, "/transfers", b.pageSize, fields...),
		pending: query.NewList[model.Transfer](b.cache, b.api, ResourceTransfers, "/transfers/pending", b.pageSize, fields...),
	}
}

func (s *Transfers) List(ctx context.Context, f query.Filters, page model.PageRequest) (model.Page[model.Transfer], error) {
	return s.all.Fetch(ctx, f, page)
}

// ListPending pages the transfers awaiting a decision.
func (s *Transfers) ListPending(ctx context.Context, f query.Filters, page model.PageRequest) (model.Page[model.Transfer], error) {
	return s.pending.Fetch(ctx, f, page)
}

// PendingKey is the cache key ListPending uses for f and page.
func (s *Transfers) PendingKey(f query.Filters, page model.PageRequest) query.Key {
	return s.pending.Key(f, page)
}

// Approve releases a transfer. Ledger and dashboard figures move with it,
// so those caches are refreshed as well.
func (s *Transfers) Approve(ctx context.Context, id string, req model.ApproveTransferRequest) error {
	p, err := path("/transfers", id, "approve")
	if err != nil {
		return err
	}
	return s.mutate(ctx, "transfer.approve", ResourceTransfers, id, func(ctx context.Context) error {
		return s.api.Post(ctx, p, req, nil)
	}, ResourceTransactions, ResourceDashboard)
}

func (s *Transfers) Reject(ctx context.Context, id string, req model.RejectTransferRequest) error {
	p, err := path("/transfers", id, "reject")
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, "transfer.reject", ResourceTransfers, id, func(ctx context.Context) error {
		return s.api.Post(ctx, p, req, nil)
	}, ResourceDashboard)
}
