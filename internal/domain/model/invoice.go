package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Invoice represents a single invoice document.
type Invoice struct {
	ID            bson.ObjectID `bson:"_id,omitempty"  json:"id,omitempty"`
	InvoiceNumber string        `bson:"invoice_number" json:"invoice_number"`
	Name          string        `bson:"name"           json:"name"`
	Email         string        `bson:"email"          json:"email"`
	Amount        float64       `bson:"amount"         json:"amount"`
	CreatedAt     time.Time     `bson:"created_at"     json:"created_at"`
}

// InvoiceUpdate carries a partial update; nil fields are left untouched.
type InvoiceUpdate struct {
	Name   *string  `json:"name,omitempty"`
	Email  *string  `json:"email,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u InvoiceUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Amount == nil
}

// invoiceNumberPrefix is the fixed prefix of every invoice number.
const invoiceNumberPrefix = "INV"

// istOffset shifts UTC to Indian Standard Time; invoice numbering days are
// anchored to IST business days.
const istOffset = 5*time.Hour + 30*time.Minute

// InvoiceDateString formats the numbering day (dd-mm-yyyy, IST) for a given
// instant.
func InvoiceDateString(t time.Time) string {
	return t.UTC().Add(istOffset).Format("02-01-2006")
}

// InvoiceNumberPrefixFor returns the shared prefix of all invoice numbers
// issued on the numbering day containing t, e.g. "INV-22-02-2023".
func InvoiceNumberPrefixFor(t time.Time) string {
	return invoiceNumberPrefix + "-" + InvoiceDateString(t)
}

// FormatInvoiceNumber builds the full number for a day and sequence,
// e.g. "INV-22-02-2023-0001".
func FormatInvoiceNumber(t time.Time, seq int) string {
	return fmt.Sprintf("%s-%04d", InvoiceNumberPrefixFor(t), seq)
}

// NextSequence extracts the numeric suffix of an existing invoice number and
// returns the next sequence value. An empty latest number starts at 1.
func NextSequence(latest string) (int, error) {
	if latest == "" {
		return 1, nil
	}
	idx := strings.LastIndex(latest, "-")
	if idx < 0 || idx == len(latest)-1 {
		return 0, fmt.Errorf("malformed invoice number %q", latest)
	}
	n, err := strconv.Atoi(latest[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("malformed invoice number %q: %w", latest, err)
	}
	return n + 1, nil
}
