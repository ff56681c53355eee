package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schools24/internal/model"
)

// FeeRepository defines fee head, invoice and payment persistence operations.
type FeeRepository interface {
	CreateHead(ctx context.Context, head *model.FeeHead) error
	ListHeads(ctx context.Context, schoolID uuid.UUID) ([]model.FeeHead, error)
	FindHeadsByIDs(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]model.FeeHead, error)
	// CreateInvoice stores the invoice together with its items.
	CreateInvoice(ctx context.Context, invoice *model.FeeInvoice) error
	FindInvoiceByID(ctx context.Context, id uuid.UUID) (*model.FeeInvoice, error)
	FindInvoiceByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.FeeInvoice, error)
	UpdateInvoice(ctx context.Context, invoice *model.FeeInvoice) error
	ListInvoices(ctx context.Context, schoolID uuid.UUID) ([]model.FeeInvoice, error)
	CreatePayment(ctx context.Context, payment *model.FeePayment) error
	ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]model.FeePayment, error)
}

type feeRepository struct {
	db *gorm.DB
}

// NewFeeRepository creates a new fee repository.
func NewFeeRepository(db *gorm.DB) FeeRepository {
	return &feeRepository{db: db}
}

func (r *feeRepository) CreateHead(ctx context.Context, head *model.FeeHead) error {
	return translate(r.db.WithContext(ctx).Create(head).Error)
}

func (r *feeRepository) ListHeads(ctx context.Context, schoolID uuid.UUID) ([]model.FeeHead, error) {
	var heads []model.FeeHead
	err := r.db.WithContext(ctx).Where("school_id = ?", schoolID).Order("name ASC").Find(&heads).Error
	return heads, translate(err)
}

func (r *feeRepository) FindHeadsByIDs(ctx context.Context, schoolID uuid.UUID, ids []uuid.UUID) ([]model.FeeHead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var heads []model.FeeHead
	err := r.db.WithContext(ctx).Where("school_id = ? AND id IN ?", schoolID, ids).Find(&heads).Error
	return heads, translate(err)
}

func (r *feeRepository) CreateInvoice(ctx context.Context, invoice *model.FeeInvoice) error {
	return translate(r.db.WithContext(ctx).Create(invoice).Error)
}

func (r *feeRepository) FindInvoiceByID(ctx context.Context, id uuid.UUID) (*model.FeeInvoice, error) {
	return r.findInvoice(r.db.WithContext(ctx), id)
}

// FindInvoiceByIDForUpdate finds an invoice by ID with row-level lock for update.
func (r *feeRepository) FindInvoiceByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.FeeInvoice, error) {
	return r.findInvoice(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *feeRepository) findInvoice(q *gorm.DB, id uuid.UUID) (*model.FeeInvoice, error) {
	var invoice model.FeeInvoice
	if err := q.Preload("Items").Where("id = ?", id).First(&invoice).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *feeRepository) UpdateInvoice(ctx context.Context, invoice *model.FeeInvoice) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(invoice).Error)
}

func (r *feeRepository) ListInvoices(ctx context.Context, schoolID uuid.UUID) ([]model.FeeInvoice, error) {
	var invoices []model.FeeInvoice
	err := r.db.WithContext(ctx).Preload("Items").
		Where("school_id = ?", schoolID).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, translate(err)
}

func (r *feeRepository) CreatePayment(ctx context.Context, payment *model.FeePayment) error {
	return translate(r.db.WithContext(ctx).Create(payment).Error)
}

func (r *feeRepository) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]model.FeePayment, error) {
	var payments []model.FeePayment
	err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).Order("paid_at ASC").Find(&payments).Error
	return payments, translate(err)
}
