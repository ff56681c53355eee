package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"schools24/internal/errors"
	"schools24/internal/model"
	"schools24/internal/service"
)

// FeeHandler handles school fee endpoints.
type FeeHandler struct {
	feeService service.FeeService
}

// NewFeeHandler creates a new fee handler.
func NewFeeHandler(feeService service.FeeService) *FeeHandler {
	return &FeeHandler{feeService: feeService}
}

// CreateFeeHeadRequest represents a new fee head.
type CreateFeeHeadRequest struct {
	Name   string `json:"name" validate:"required,notblank"`
	Amount string `json:"amount" validate:"required"`
}

// CreateInvoiceRequest bills a student for fee heads.
type CreateInvoiceRequest struct {
	StudentID string   `json:"studentId" validate:"required,uuid"`
	HeadIDs   []string `json:"heads" validate:"required,min=1,dive,uuid"`
}

// RecordPaymentRequest records a payment against an invoice.
type RecordPaymentRequest struct {
	InvoiceID string              `json:"invoiceId" validate:"required,uuid"`
	Amount    string              `json:"amount" validate:"required"`
	Method    model.PaymentMethod `json:"method" validate:"required,oneof=CASH CARD UPI"`
}

func parseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, serviceError(errors.NewValidationError("amount", "invalid amount"))
	}
	return amount, nil
}

// CreateHead godoc
// @Summary Create a fee head
// @Tags fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateFeeHeadRequest true "Fee head"
// @Success 201 {object} model.FeeHead
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/fees/heads [post]
func (h *FeeHandler) CreateHead(c echo.Context) error {
	var req CreateFeeHeadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}
	head, err := h.feeService.CreateHead(c.Request().Context(), req.Name, amount)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, head)
}

// ListHeads godoc
// @Summary List fee heads
// @Tags fees
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.FeeHead
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/fees/heads [get]
func (h *FeeHandler) ListHeads(c echo.Context) error {
	heads, err := h.feeService.ListHeads(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, heads)
}

// CreateInvoice godoc
// @Summary Bill a student
// @Tags fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateInvoiceRequest true "Invoice"
// @Success 201 {object} model.FeeInvoice
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/fees/invoices [post]
func (h *FeeHandler) CreateInvoice(c echo.Context) error {
	var req CreateInvoiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	studentID, err := bodyID("studentId", req.StudentID)
	if err != nil {
		return err
	}
	heads := make([]uuid.UUID, 0, len(req.HeadIDs))
	for _, raw := range req.HeadIDs {
		id, err := bodyID("heads", raw)
		if err != nil {
			return err
		}
		heads = append(heads, id)
	}

	invoice, err := h.feeService.CreateInvoice(c.Request().Context(), studentID, heads)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, invoice)
}

// RecordPayment godoc
// @Summary Record a fee payment
// @Tags fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RecordPaymentRequest true "Payment"
// @Success 200 {object} model.FeeInvoice
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/fees/payments [post]
func (h *FeeHandler) RecordPayment(c echo.Context) error {
	var req RecordPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	invoiceID, err := bodyID("invoiceId", req.InvoiceID)
	if err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	invoice, err := h.feeService.RecordPayment(c.Request().Context(), invoiceID, amount, req.Method)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// Collections godoc
// @Summary Billed, collected and due totals
// @Tags fees
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Collections
// @Router /admin/fees/collections [get]
func (h *FeeHandler) Collections(c echo.Context) error {
	collections, err := h.feeService.Collections(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, collections)
}
