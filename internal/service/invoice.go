package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledgerline/invoice-api/internal/domain/model"
	apperrors "github.com/ledgerline/invoice-api/internal/errors"
	"github.com/ledgerline/invoice-api/internal/ports"
)

const (
	defaultListLimit int64 = 100
	maxListLimit     int64 = 500
)

// CreateInvoiceInput carries caller-supplied fields for a new invoice.
// The invoice number and creation time are assigned by the service.
type CreateInvoiceInput struct {
	Name   string
	Email  string
	Amount float64
}

// InvoiceServiceOptions groups dependencies for InvoiceService.
type InvoiceServiceOptions struct {
	Repo   ports.InvoiceRepository // Required: invoice repository
	Logger *slog.Logger            // Optional: structured logger
	Now    func() time.Time        // Optional clock override for tests
}

// InvoiceService implements invoice business logic: validation,
// daily invoice number assignment, and CRUD orchestration.
type InvoiceService struct {
	repo   ports.InvoiceRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewInvoiceService constructs a new InvoiceService.
func NewInvoiceService(opts InvoiceServiceOptions) (*InvoiceService, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("InvoiceRepository is required")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &InvoiceService{
		repo:   opts.Repo,
		logger: logger.With("component", "invoice_service"),
		now:    now,
	}, nil
}

// Create validates the input, assigns the next invoice number for the
// current day, and persists the invoice.
func (s *InvoiceService) Create(ctx context.Context, in CreateInvoiceInput) (model.Invoice, error) {
	if err := validateCreateInput(in); err != nil {
		return model.Invoice{}, err
	}

	now := s.now()
	prefix := model.InvoiceNumberPrefixFor(now)

	latest, err := s.repo.LatestNumberWithPrefix(ctx, prefix)
	if err != nil {
		return model.Invoice{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "look up latest invoice number")
	}

	seq, err := model.NextSequence(latest)
	if err != nil {
		return model.Invoice{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "parse latest invoice number")
	}

	inv := model.Invoice{
		InvoiceNumber: model.FormatInvoiceNumber(now, seq),
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.TrimSpace(in.Email),
		Amount:        in.Amount,
		CreatedAt:     now,
	}

	created, err := s.repo.Insert(ctx, inv)
	if err != nil {
		return model.Invoice{}, err
	}

	s.logger.InfoContext(ctx, "invoice created",
		"invoice_number", created.InvoiceNumber,
		"amount", created.Amount,
	)

	return created, nil
}

// List returns up to limit invoices. A non-positive limit falls back to
// the default; oversized limits are clamped.
func (s *InvoiceService) List(ctx context.Context, limit int64) ([]model.Invoice, error) {
	return s.repo.List(ctx, clampLimit(limit))
}

// ListPage returns one page of invoices with skip/limit pagination.
func (s *InvoiceService) ListPage(ctx context.Context, skip, limit int64) ([]model.Invoice, error) {
	if skip < 0 {
		skip = 0
	}
	return s.repo.ListPage(ctx, skip, clampLimit(limit))
}

// Get fetches a single invoice by its invoice number.
func (s *InvoiceService) Get(ctx context.Context, invoiceNumber string) (model.Invoice, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return model.Invoice{}, apperrors.ValidationField("invoice_number", "invoice number is required")
	}
	return s.repo.FindByNumber(ctx, invoiceNumber)
}

// Update applies a partial update to the invoice identified by
// invoiceNumber and returns the updated document. An update with no
// fields set returns the existing invoice unchanged.
func (s *InvoiceService) Update(ctx context.Context, invoiceNumber string, update model.InvoiceUpdate) (model.Invoice, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return model.Invoice{}, apperrors.ValidationField("invoice_number", "invoice number is required")
	}
	if err := validateUpdate(update); err != nil {
		return model.Invoice{}, err
	}

	updated, err := s.repo.UpdateByNumber(ctx, invoiceNumber, update)
	if err != nil {
		return model.Invoice{}, err
	}

	s.logger.InfoContext(ctx, "invoice updated", "invoice_number", invoiceNumber)
	return updated, nil
}

// Delete removes an invoice by number. Deleting a missing invoice
// returns a not-found error.
func (s *InvoiceService) Delete(ctx context.Context, invoiceNumber string) error {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return apperrors.ValidationField("invoice_number", "invoice number is required")
	}

	deleted, err := s.repo.DeleteByNumber(ctx, invoiceNumber)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "delete invoice")
	}
	if !deleted {
		return apperrors.NotFoundf("invoice %s not found", invoiceNumber)
	}

	s.logger.InfoContext(ctx, "invoice deleted", "invoice_number", invoiceNumber)
	return nil
}

func validateCreateInput(in CreateInvoiceInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.ValidationField("name", "name is required")
	}
	if in.Amount <= 0 {
		return apperrors.ValidationField("amount", "amount must be greater than zero")
	}
	return nil
}

func validateUpdate(update model.InvoiceUpdate) error {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return apperrors.ValidationField("name", "name cannot be empty")
	}
	if update.Amount != nil && *update.Amount <= 0 {
		return apperrors.ValidationField("amount", "amount must be greater than zero")
	}
	return nil
}

func clampLimit(limit int64) int64 {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
