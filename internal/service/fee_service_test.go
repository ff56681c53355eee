package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schools24/internal/errors"
	"schools24/internal/model"
)

func TestFeeService_InvoiceLifecycle(t *testing.T) {
	f := newFixture(t)
	school := uuid.New()
	ctx := f.asAdminOf(&school)
	student := f.user(model.RoleStudent, "S1", &school)
	svc := NewFeeService(f.store)

	tuition, err := svc.CreateHead(ctx, "Tuition", decimal.RequireFromString("1200.50"))
	require.NoError(t, err)
	transport, err := svc.CreateHead(ctx, "Transport", decimal.RequireFromString("300"))
	require.NoError(t, err)

	heads, err := svc.ListHeads(ctx)
	require.NoError(t, err)
	assert.Len(t, heads, 2)

	invoice, err := svc.CreateInvoice(ctx, student.ID, []uuid.UUID{tuition.ID, transport.ID, tuition.ID})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(invoice.TotalAmount))
	assert.Equal(t, model.InvoiceStatusUnpaid, invoice.Status)
	assert.Len(t, invoice.Items, 2)

	invoice, err = svc.RecordPayment(ctx, invoice.ID, decimal.RequireFromString("500"), model.PaymentMethodUPI)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPartial, invoice.Status)
	assert.True(t, decimal.RequireFromString("1000.50").Equal(invoice.Due()))

	_, err = svc.RecordPayment(ctx, invoice.ID, decimal.RequireFromString("2000"), model.PaymentMethodCash)
	assert.Equal(t, errors.NewValidationError("amount", "amount exceeds the amount due"), err)

	invoice, err = svc.RecordPayment(ctx, invoice.ID, decimal.RequireFromString("1000.50"), model.PaymentMethodCard)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, invoice.Status)

	collections, err := svc.Collections(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(collections.Billed))
	assert.True(t, decimal.RequireFromString("1500.50").Equal(collections.Collected))
	assert.True(t, collections.Due.IsZero())
}

func TestFeeService_Rejects(t *testing.T) {
	f := newFixture(t)
	school, other := uuid.New(), uuid.New()
	ctx := f.asAdminOf(&school)
	student := f.user(model.RoleStudent, "S1", &school)
	outsider := f.user(model.RoleStudent, "S2", &other)
	svc := NewFeeService(f.store)

	head, err := svc.CreateHead(ctx, "Tuition", decimal.NewFromInt(100))
	require.NoError(t, err)

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{
			name: "single-tenant admin",
			run: func() error {
				_, err := svc.ListHeads(f.ctx)
				return err
			},
			want: errors.Forbidden("fees require a school"),
		},
		{
			name: "negative head",
			run: func() error {
				_, err := svc.CreateHead(ctx, "Refund", decimal.NewFromInt(-1))
				return err
			},
			want: errors.NewValidationError("amount", "amount must not be negative"),
		},
		{
			name: "no heads",
			run: func() error {
				_, err := svc.CreateInvoice(ctx, student.ID, nil)
				return err
			},
			want: errors.NewValidationError("heads", "at least one fee head is required"),
		},
		{
			name: "student of another school",
			run: func() error {
				_, err := svc.CreateInvoice(ctx, outsider.ID, []uuid.UUID{head.ID})
				return err
			},
			want: errors.InvalidReference("student"),
		},
		{
			name: "unknown head",
			run: func() error {
				_, err := svc.CreateInvoice(ctx, student.ID, []uuid.UUID{uuid.New()})
				return err
			},
			want: errors.InvalidReference("fee head"),
		},
		{
			name: "unknown invoice",
			run: func() error {
				_, err := svc.RecordPayment(ctx, uuid.New(), decimal.NewFromInt(1), model.PaymentMethodCash)
				return err
			},
			want: errors.InvalidReference("invoice"),
		},
		{
			name: "bad method",
			run: func() error {
				_, err := svc.RecordPayment(ctx, uuid.New(), decimal.NewFromInt(1), "CHEQUE")
				return err
			},
			want: errors.NewValidationError("method", "method must be CASH, CARD or UPI"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.run())
		})
	}
}
