package ports

import (
	"context"

	"github.com/ledgerline/invoice-api/internal/domain/model"
)

// InvoiceRepository persists invoice documents.
// Not-found conditions surface as internal/errors NotFound values.
type InvoiceRepository interface {
	Insert(ctx context.Context, inv model.Invoice) (model.Invoice, error)
	List(ctx context.Context, limit int64) ([]model.Invoice, error)
	ListPage(ctx context.Context, skip, limit int64) ([]model.Invoice, error)
	FindByNumber(ctx context.Context, number string) (model.Invoice, error)
	UpdateByNumber(ctx context.Context, number string, upd model.InvoiceUpdate) (model.Invoice, error)
	DeleteByNumber(ctx context.Context, number string) (bool, error)

	// LatestNumberWithPrefix returns the lexicographically greatest invoice
	// number sharing the given day prefix, or "" when none exists. Used for
	// per-day sequence allocation.
	LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error)
}
