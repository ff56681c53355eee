package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"schools24/internal/model"
	"schools24/internal/repository"
)

type feeTable struct {
	s *Store
}

func (t *feeTable) CreateHead(ctx context.Context, head *model.FeeHead) error {
	defer t.s.lock()()
	_ = head.BeforeCreate(nil)
	if _, ok := t.s.db.heads[head.ID]; ok {
		return repository.ErrDuplicate
	}
	stamp(&head.CreatedAt, &head.UpdatedAt)
	t.s.db.heads[head.ID] = *head
	return nil
}

func (t *feeTable) ListHeads(ctx context.Context, schoolID uuid.UUID) ([]model.FeeHead, error) {
	defer t.s.lock()()
	out := []model.FeeHead{}
	for _, h := range t.s.db.heads {
		if h.SchoolID == schoolID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *feeTable) FindHeadsByIDs(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]model.FeeHead, error) {
	defer t.s.lock()()
	var out []model.FeeHead
	for _, id := range ids {
		if h, ok := t.s.db.heads[id]; ok && h.SchoolID == schoolID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (t *feeTable) CreateInvoice(ctx context.Context, invoice *model.FeeInvoice) error {
	defer t.s.lock()()
	db := t.s.db
	_ = invoice.BeforeCreate(nil)
	if _, ok := db.invoices[invoice.ID]; ok {
		return repository.ErrDuplicate
	}
	for i := range invoice.Items {
		_ = invoice.Items[i].BeforeCreate(nil)
		invoice.Items[i].InvoiceID = invoice.ID
	}
	stamp(&invoice.CreatedAt, &invoice.UpdatedAt)
	db.invoices[invoice.ID] = copyInvoice(*invoice)
	db.invOrder = append(db.invOrder, invoice.ID)
	return nil
}

func (t *feeTable) FindInvoiceByID(ctx context.Context, id uuid.UUID) (*model.FeeInvoice, error) {
	defer t.s.lock()()
	v, ok := t.s.db.invoices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyInvoice(v)
	return &out, nil
}

func (t *feeTable) FindInvoiceByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.FeeInvoice, error) {
	return t.FindInvoiceByID(ctx, id)
}

func (t *feeTable) UpdateInvoice(ctx context.Context, invoice *model.FeeInvoice) error {
	defer t.s.lock()()
	prev, ok := t.s.db.invoices[invoice.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stamp(&invoice.CreatedAt, &invoice.UpdatedAt)
	next := copyInvoice(*invoice)
	next.Items = prev.Items
	t.s.db.invoices[invoice.ID] = next
	return nil
}

func (t *feeTable) ListInvoices(ctx context.Context, schoolID uuid.UUID) ([]model.FeeInvoice, error) {
	defer t.s.lock()()
	out := []model.FeeInvoice{}
	order := t.s.db.invOrder
	for i := len(order) - 1; i >= 0; i-- {
		v := t.s.db.invoices[order[i]]
		if v.SchoolID == schoolID {
			out = append(out, copyInvoice(v))
		}
	}
	return out, nil
}

func (t *feeTable) CreatePayment(ctx context.Context, payment *model.FeePayment) error {
	defer t.s.lock()()
	_ = payment.BeforeCreate(nil)
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now()
	}
	t.s.db.payments = append(t.s.db.payments, *payment)
	return nil
}

func (t *feeTable) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]model.FeePayment, error) {
	defer t.s.lock()()
	var out []model.FeePayment
	for _, p := range t.s.db.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func copyInvoice(v model.FeeInvoice) model.FeeInvoice {
	v.Items = append([]model.FeeInvoiceItem(nil), v.Items...)
	return v
}
