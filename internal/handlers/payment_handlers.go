package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"plangate/internal/common"
	"plangate/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PaymentHandlers exposes the append-only payment ledger. Payments are
// recorded manually by operators; receipts are optional supporting files.
type PaymentHandlers struct {
	paymentService services.PaymentService
	receiptService services.ReceiptService
}

func NewPaymentHandlers(paymentService services.PaymentService, receiptService services.ReceiptService) *PaymentHandlers {
	return &PaymentHandlers{
		paymentService: paymentService,
		receiptService: receiptService,
	}
}

// ListBySubscription handles GET /subscriptions/:id/payments
func (h *PaymentHandlers) ListBySubscription(c echo.Context) error {
	subscriptionID, err := common.ValidateUUID(c.Param("id"), "subscription id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	limit, offset := parsePagination(c)
	payments, err := h.paymentService.ListBySubscription(c.Request().Context(), subscriptionID, limit, offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list payments")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"payments": payments,
		"limit":    limit,
		"offset":   offset,
	})
}

// RecordManual handles POST /payments (operator only)
func (h *PaymentHandlers) RecordManual(c echo.Context) error {
	var req services.RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	payment, err := h.paymentService.RecordManual(c.Request().Context(), &req)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusCreated, payment)
}

// UploadReceipt handles POST /payments/receipts (operator only, multipart).
// Returns the stored object name; the caller attaches it to a payment via
// receipt_object when recording.
func (h *PaymentHandlers) UploadReceipt(c echo.Context) error {
	file, err := c.FormFile("receipt")
	if err != nil {
		return common.SendClientError(c, "Receipt file is required")
	}

	src, err := file.Open()
	if err != nil {
		return common.SendServerError(c, "Failed to read uploaded file")
	}
	defer src.Close()

	objectName := fmt.Sprintf("receipts/%s%s", uuid.New().String(), filepath.Ext(file.Filename))
	contentType := file.Header.Get("Content-Type")

	if err := h.receiptService.UploadReceipt(c.Request().Context(), objectName, src, file.Size, contentType); err != nil {
		return common.SendServerError(c, "Failed to store receipt")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"receipt_object": objectName,
	})
}

// GetReceiptURL handles GET /payments/receipts/url?object=... (operator only)
func (h *PaymentHandlers) GetReceiptURL(c echo.Context) error {
	objectName := c.QueryParam("object")
	if objectName == "" {
		return common.SendValidationError(c, "object", "object is required")
	}

	url, err := h.receiptService.GetPresignedURL(objectName, 15*time.Minute)
	if err != nil {
		return common.SendServerError(c, "Failed to generate receipt URL")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"url":        url,
		"expires_in": int((15 * time.Minute).Seconds()),
	})
}

// ListDuplicates handles GET /payments/duplicates (operator only): the
// reconciliation preview.
func (h *PaymentHandlers) ListDuplicates(c echo.Context) error {
	duplicates, err := h.paymentService.FindDuplicates(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to find duplicate payments")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"duplicates": duplicates,
		"count":      len(duplicates),
	})
}

// ReconcileDuplicates handles POST /payments/reconcile (operator only)
func (h *PaymentHandlers) ReconcileDuplicates(c echo.Context) error {
	removed, err := h.paymentService.ReconcileDuplicates(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Payment reconciliation failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"removed": removed,
	})
}
