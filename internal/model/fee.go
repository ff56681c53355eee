package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents how much of an invoice has been paid.
type InvoiceStatus string

const (
	InvoiceStatusUnpaid  InvoiceStatus = "UNPAID"
	InvoiceStatusPartial InvoiceStatus = "PARTIAL"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

// PaymentMethod is how a fee payment was made.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "CASH"
	PaymentMethodCard PaymentMethod = "CARD"
	PaymentMethodUPI  PaymentMethod = "UPI"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI:
		return true
	}
	return false
}

// FeeHead is a billable fee category of a school, e.g. Tuition or Transport.
type FeeHead struct {
	ID        uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	SchoolID  uuid.UUID       `json:"school" gorm:"type:char(36);not null;index"`
	Name      string          `json:"name" gorm:"size:255;not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null;default:0"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (h *FeeHead) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// FeeInvoice bills a student for a set of fee heads.
type FeeInvoice struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	SchoolID    uuid.UUID       `json:"school" gorm:"type:char(36);not null;index"`
	StudentID   uuid.UUID       `json:"student" gorm:"type:char(36);not null;index"`
	TotalAmount decimal.Decimal `json:"totalAmount" gorm:"type:decimal(20,2);not null;default:0"`
	PaidAmount  decimal.Decimal `json:"paidAmount" gorm:"type:decimal(20,2);not null;default:0"`
	Status      InvoiceStatus   `json:"status" gorm:"type:varchar(10);not null;default:'UNPAID';index"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`

	// Relations
	Items []FeeInvoiceItem `json:"items" gorm:"foreignKey:InvoiceID"`
}

// BeforeCreate sets UUID before creating the record.
func (i *FeeInvoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// ApplyPayment adds amount to the paid total and recomputes the status.
func (i *FeeInvoice) ApplyPayment(amount decimal.Decimal) {
	i.PaidAmount = i.PaidAmount.Add(amount)
	switch {
	case i.PaidAmount.GreaterThanOrEqual(i.TotalAmount):
		i.Status = InvoiceStatusPaid
	case i.PaidAmount.GreaterThan(decimal.Zero):
		i.Status = InvoiceStatusPartial
	default:
		i.Status = InvoiceStatusUnpaid
	}
}

// Due is the amount still owed.
func (i *FeeInvoice) Due() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// FeeInvoiceItem is one fee head line on an invoice.
type FeeInvoiceItem struct {
	ID        uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	InvoiceID uuid.UUID       `json:"-" gorm:"type:char(36);not null;index"`
	HeadID    uuid.UUID       `json:"head" gorm:"type:char(36);not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
}

// BeforeCreate sets UUID before creating the record.
func (it *FeeInvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// FeePayment is money received against an invoice.
type FeePayment struct {
	ID        uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	InvoiceID uuid.UUID       `json:"invoice" gorm:"type:char(36);not null;index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Method    PaymentMethod   `json:"method" gorm:"type:varchar(10);not null"`
	PaidAt    time.Time       `json:"paidAt"`
}

// BeforeCreate sets UUID before creating the record.
func (p *FeePayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Collections summarises a school's fee position.
type Collections struct {
	Billed    decimal.Decimal `json:"billed"`
	Collected decimal.Decimal `json:"collected"`
	Due       decimal.Decimal `json:"due"`
}
