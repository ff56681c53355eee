package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"schools24/internal/authz"
	"schools24/internal/errors"
	"schools24/internal/model"
	"schools24/internal/repository"
)

// FeeService handles fee heads, invoices and payments of a school.
type FeeService interface {
	CreateHead(ctx context.Context, name string, amount decimal.Decimal) (*model.FeeHead, error)
	ListHeads(ctx context.Context) ([]model.FeeHead, error)
	// CreateInvoice bills a student for the given heads at their current amounts.
	CreateInvoice(ctx context.Context, studentID uuid.UUID, headIDs []uuid.UUID) (*model.FeeInvoice, error)
	RecordPayment(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, method model.PaymentMethod) (*model.FeeInvoice, error)
	Collections(ctx context.Context) (*model.Collections, error)
}

type feeService struct {
	store repository.Store
}

// NewFeeService creates a new fee service.
func NewFeeService(store repository.Store) FeeService {
	return &feeService{store: store}
}

// feeSchool is the caller's school; fees only exist in multi-school installs.
func (s *feeService) feeSchool(ctx context.Context) (uuid.UUID, error) {
	schoolID := actorSchool(ctx)
	if err := authz.Authorize(ctx, authz.OpManageFees, authz.InSchool(schoolID)); err != nil {
		return uuid.Nil, err
	}
	if schoolID == nil {
		return uuid.Nil, errors.Forbidden("fees require a school")
	}
	return *schoolID, nil
}

func (s *feeService) CreateHead(ctx context.Context, name string, amount decimal.Decimal) (*model.FeeHead, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "fee head name is required")
	}
	if amount.IsNegative() {
		return nil, errors.NewValidationError("amount", "amount must not be negative")
	}
	schoolID, err := s.feeSchool(ctx)
	if err != nil {
		return nil, err
	}

	head := &model.FeeHead{SchoolID: schoolID, Name: name, Amount: amount}
	if err := s.store.Fees().CreateHead(ctx, head); err != nil {
		return nil, fmt.Errorf("create fee head: %w", err)
	}
	return head, nil
}

func (s *feeService) ListHeads(ctx context.Context) ([]model.FeeHead, error) {
	schoolID, err := s.feeSchool(ctx)
	if err != nil {
		return nil, err
	}
	heads, err := s.store.Fees().ListHeads(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list fee heads: %w", err)
	}
	return heads, nil
}

func (s *feeService) CreateInvoice(ctx context.Context, studentID uuid.UUID, headIDs []uuid.UUID) (*model.FeeInvoice, error) {
	headIDs = uniqueIDs(headIDs)
	if len(headIDs) == 0 {
		return nil, errors.NewValidationError("heads", "at least one fee head is required")
	}
	schoolID, err := s.feeSchool(ctx)
	if err != nil {
		return nil, err
	}

	var invoice *model.FeeInvoice
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		student, err := tx.Users().FindByID(ctx, studentID)
		if err != nil && err != repository.ErrNotFound {
			return fmt.Errorf("load student: %w", err)
		}
		if err == repository.ErrNotFound || student.Role != model.RoleStudent ||
			!model.SameSchool(student.SchoolID, &schoolID) {
			return errors.InvalidReference("student")
		}

		heads, err := tx.Fees().FindHeadsByIDs(ctx, schoolID, headIDs)
		if err != nil {
			return fmt.Errorf("load fee heads: %w", err)
		}
		if len(heads) != len(headIDs) {
			return errors.InvalidReference("fee head")
		}

		invoice = &model.FeeInvoice{
			SchoolID:    schoolID,
			StudentID:   studentID,
			TotalAmount: decimal.Zero,
			PaidAmount:  decimal.Zero,
			Status:      model.InvoiceStatusUnpaid,
		}
		for _, h := range heads {
			invoice.TotalAmount = invoice.TotalAmount.Add(h.Amount)
			invoice.Items = append(invoice.Items, model.FeeInvoiceItem{HeadID: h.ID, Amount: h.Amount})
		}
		if invoice.TotalAmount.IsZero() {
			invoice.Status = model.InvoiceStatusPaid
		}
		if err := tx.Fees().CreateInvoice(ctx, invoice); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// RecordPayment applies a payment with the invoice row locked.
func (s *feeService) RecordPayment(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, method model.PaymentMethod) (*model.FeeInvoice, error) {
	if !amount.IsPositive() {
		return nil, errors.NewValidationError("amount", "amount must be greater than zero")
	}
	if !method.Valid() {
		return nil, errors.NewValidationError("method", "method must be CASH, CARD or UPI")
	}
	schoolID, err := s.feeSchool(ctx)
	if err != nil {
		return nil, err
	}

	var invoice *model.FeeInvoice
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		invoice, err = tx.Fees().FindInvoiceByIDForUpdate(ctx, invoiceID)
		if err != nil {
			if err == repository.ErrNotFound {
				return errors.InvalidReference("invoice")
			}
			return fmt.Errorf("load invoice: %w", err)
		}
		if invoice.SchoolID != schoolID {
			return errors.InvalidReference("invoice")
		}
		if amount.GreaterThan(invoice.Due()) {
			return errors.NewValidationError("amount", "amount exceeds the amount due")
		}

		payment := &model.FeePayment{InvoiceID: invoice.ID, Amount: amount, Method: method, PaidAt: time.Now()}
		if err := tx.Fees().CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		invoice.ApplyPayment(amount)
		if err := tx.Fees().UpdateInvoice(ctx, invoice); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// Collections sums billed, collected and due amounts of the caller's school.
func (s *feeService) Collections(ctx context.Context) (*model.Collections, error) {
	schoolID, err := s.feeSchool(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := s.store.Fees().ListInvoices(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	out := &model.Collections{Billed: decimal.Zero, Collected: decimal.Zero, Due: decimal.Zero}
	for i := range invoices {
		out.Billed = out.Billed.Add(invoices[i].TotalAmount)
		out.Collected = out.Collected.Add(invoices[i].PaidAmount)
	}
	out.Due = out.Billed.Sub(out.Collected)
	return out, nil
}
