// Package httpx provides HTTP handlers and utilities for the invoice API.
package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ledgerline/invoice-api/internal/domain/model"
	"github.com/ledgerline/invoice-api/internal/service"
)

// InvoiceHandlers provides HTTP handlers for invoice operations.
type InvoiceHandlers struct {
	Svc *service.InvoiceService
}

// createInvoiceRequest carries caller-supplied invoice fields.
type createInvoiceRequest struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Amount float64 `json:"amount"`
}

// updateInvoiceRequest carries a partial invoice update. Absent fields
// keep their stored values.
type updateInvoiceRequest struct {
	Name   *string  `json:"name"`
	Email  *string  `json:"email"`
	Amount *float64 `json:"amount"`
}

// Create handles HTTP requests to create a new invoice.
func (h *InvoiceHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	inv, err := h.Svc.Create(r.Context(), service.CreateInvoiceInput{
		Name:   req.Name,
		Email:  req.Email,
		Amount: req.Amount,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, inv)
}

// List handles HTTP requests to list invoices. The result set is capped;
// callers wanting to walk the full set use ListPaginated.
func (h *InvoiceHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", 0)

	invoices, err := h.Svc.List(r.Context(), limit)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "list_failed", Err: err})
		return
	}
	if invoices == nil {
		invoices = []model.Invoice{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"invoices": invoices,
	})
}

// ListPaginated handles HTTP requests to page through invoices with
// skip/limit query parameters.
func (h *InvoiceHandlers) ListPaginated(w http.ResponseWriter, r *http.Request) {
	skip := parseQueryInt(r, "skip", 0)
	limit := parseQueryInt(r, "limit", 0)

	invoices, err := h.Svc.ListPage(r.Context(), skip, limit)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "list_failed", Err: err})
		return
	}
	if invoices == nil {
		invoices = []model.Invoice{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"invoices": invoices,
		"skip":     skip,
		"limit":    limit,
	})
}

// GetByNumber handles HTTP requests to fetch a single invoice.
func (h *InvoiceHandlers) GetByNumber(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("invoice_number")
	if number == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("invoice number is required"),
		})
		return
	}

	inv, err := h.Svc.Get(r.Context(), number)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, inv)
}

// Update handles HTTP requests to partially update an invoice.
func (h *InvoiceHandlers) Update(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("invoice_number")
	if number == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("invoice number is required"),
		})
		return
	}

	var req updateInvoiceRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	inv, err := h.Svc.Update(r.Context(), number, model.InvoiceUpdate{
		Name:   req.Name,
		Email:  req.Email,
		Amount: req.Amount,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, inv)
}

// Delete handles HTTP requests to delete an invoice.
func (h *InvoiceHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("invoice_number")
	if number == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("invoice number is required"),
		})
		return
	}

	if err := h.Svc.Delete(r.Context(), number); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":         "deleted",
		"invoice_number": number,
	})
}

// parseQueryInt reads a non-negative integer query parameter, falling
// back to def on absence or garbage.
func parseQueryInt(r *http.Request, name string, def int64) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}
