package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ledgerline/invoice-api/internal/domain/model"
	apperrors "github.com/ledgerline/invoice-api/internal/errors"
	"github.com/ledgerline/invoice-api/internal/ports"
)

const invoiceCollection = "invoices"

// InvoiceRepo is a MongoDB-backed invoice repository.
type InvoiceRepo struct {
	coll *mongo.Collection
}

var _ ports.InvoiceRepository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates an invoice repository on the given database.
func NewInvoiceRepo(db *mongo.Database) *InvoiceRepo {
	return &InvoiceRepo{coll: db.Collection(invoiceCollection)}
}

// EnsureIndexes creates the unique invoice_number index. Safe to call on
// every startup.
func (r *InvoiceRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "invoice_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create invoice indexes: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) Insert(ctx context.Context, inv model.Invoice) (model.Invoice, error) {
	res, err := r.coll.InsertOne(ctx, inv)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Invoice{}, apperrors.Wrapf(err, apperrors.ErrCodeConflict,
				"invoice %s already exists", inv.InvoiceNumber)
		}
		return model.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}

	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		inv.ID = id
	}
	return inv, nil
}

func (r *InvoiceRepo) List(ctx context.Context, limit int64) ([]model.Invoice, error) {
	return r.find(ctx, options.Find().SetLimit(limit))
}

func (r *InvoiceRepo) ListPage(ctx context.Context, skip, limit int64) ([]model.Invoice, error) {
	return r.find(ctx, options.Find().SetSkip(skip).SetLimit(limit))
}

func (r *InvoiceRepo) find(ctx context.Context, opts *options.FindOptionsBuilder) ([]model.Invoice, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	var invoices []model.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("decode invoices: %w", err)
	}
	return invoices, nil
}

func (r *InvoiceRepo) FindByNumber(ctx context.Context, number string) (model.Invoice, error) {
	var inv model.Invoice
	err := r.coll.FindOne(ctx, bson.M{"invoice_number": number}).Decode(&inv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Invoice{}, apperrors.NotFoundf("invoice %s not found", number)
		}
		return model.Invoice{}, fmt.Errorf("find invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) UpdateByNumber(
	ctx context.Context,
	number string,
	upd model.InvoiceUpdate,
) (model.Invoice, error) {
	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Amount != nil {
		set["amount"] = *upd.Amount
	}
	if len(set) == 0 {
		return r.FindByNumber(ctx, number)
	}

	var inv model.Invoice
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"invoice_number": number},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&inv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Invoice{}, apperrors.NotFoundf("invoice %s not found", number)
		}
		return model.Invoice{}, fmt.Errorf("update invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) DeleteByNumber(ctx context.Context, number string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"invoice_number": number})
	if err != nil {
		return false, fmt.Errorf("delete invoice: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// LatestNumberWithPrefix finds the highest invoice number issued under the
// given day prefix by sorting the matching numbers descending.
func (r *InvoiceRepo) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	filter := bson.M{"invoice_number": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}

	var inv model.Invoice
	err := r.coll.FindOne(ctx, filter,
		options.FindOne().SetSort(bson.D{{Key: "invoice_number", Value: -1}}),
	).Decode(&inv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("find latest invoice number: %w", err)
	}
	return inv.InvoiceNumber, nil
}
