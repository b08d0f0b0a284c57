package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"civicfix/internal/model"
	"civicfix/internal/repository"
	"civicfix/internal/service"
)

// PaymentHandler handles checkout sessions, gateway confirmations and the
// caller's payment history.
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CheckoutRequest starts a payment. IssueID is required for boost_issue.
type CheckoutRequest struct {
	PaymentType string `json:"paymentType" validate:"required,oneof=subscription boost_issue"`
	IssueID     string `json:"issueId" validate:"omitempty,uuid"`
}

// ConfirmPaymentRequest is the gateway success callback payload. The session
// may also arrive as a session_id query parameter on the redirect.
type ConfirmPaymentRequest struct {
	SessionID     string `json:"sessionId"`
	TransactionID string `json:"transactionId"`
}

// CreateCheckoutSession godoc
// @Summary Start a subscription or boost checkout
// @Tags payments
// @Accept json
// @Produce json
// @Param request body CheckoutRequest true "Checkout data"
// @Success 201 {object} service.CheckoutSession
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /payments/checkout-session [post]
func (h *PaymentHandler) CreateCheckoutSession(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	in := service.CheckoutInput{PaymentType: model.PaymentType(req.PaymentType)}
	if req.IssueID != "" {
		id, err := uuid.Parse(req.IssueID)
		if err != nil {
			return badRequest("invalid issue id", "INVALID_ID")
		}
		in.IssueID = &id
	}

	session, err := h.paymentService.CreateCheckoutSession(c.Request().Context(), actor, in)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, session)
}

// ConfirmPayment godoc
// @Summary Confirm a checkout session after gateway success
// @Tags payments
// @Accept json
// @Produce json
// @Param session_id query string false "Checkout session ID"
// @Param request body ConfirmPaymentRequest false "Session and transaction IDs"
// @Success 200 {object} model.Payment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /payments/confirm [patch]
func (h *PaymentHandler) ConfirmPayment(c echo.Context) error {
	var req ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if req.SessionID == "" {
		req.SessionID = c.QueryParam("session_id")
	}
	if req.SessionID == "" {
		return badRequest("session id is required", "VALIDATION_ERROR")
	}

	payment, err := h.paymentService.ConfirmPayment(c.Request().Context(), req.SessionID, req.TransactionID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, payment)
}

// ListOwn godoc
// @Summary List the caller's finalized payments
// @Tags payments
// @Produce json
// @Param type query string false "Filter by payment type"
// @Param search query string false "Search by issue title"
// @Success 200 {array} model.Payment
// @Security BearerAuth
// @Router /my/payments [get]
func (h *PaymentHandler) ListOwn(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	filter := repository.PaymentFilter{
		PaymentType: model.PaymentType(c.QueryParam("type")),
		Search:      c.QueryParam("search"),
	}
	payments, err := h.paymentService.ListOwn(c.Request().Context(), actor, filter)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, payments)
}
