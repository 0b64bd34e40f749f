// Package invoice defines per-session invoice metadata and the snapshot
// consumed by document assembly and export.
package invoice

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/RentFlow/internal/domain/identity"
	"github.com/Strob0t/RentFlow/internal/domain/lineitem"
)

// idLength is the number of characters in an invoice id.
const idLength = 8

// DateLayout is the display format of the issue date.
const DateLayout = "02 Jan 2006"

// Metadata identifies one invoice session. It is immutable once created.
type Metadata struct {
	ID        string    `json:"invoice_id"`
	IssueDate time.Time `json:"issue_date"`
}

// NewMetadata generates a short upper-case alphanumeric id and captures the
// issue date from now, truncated to the calendar day.
func NewMetadata(now time.Time) Metadata {
	return Metadata{
		ID:        newInvoiceID(),
		IssueDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
}

// FormattedDate renders the issue date for display.
func (m Metadata) FormattedDate() string {
	return m.IssueDate.Format(DateLayout)
}

func newInvoiceID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(hex[:idLength])
}

// Snapshot is the full invoice state captured at one instant.
type Snapshot struct {
	Items    []lineitem.LineItem `json:"items"`
	Landlord identity.Landlord   `json:"landlord"`
	Tenant   identity.Tenant     `json:"tenant"`
	Totals   lineitem.Totals     `json:"totals"`
	Metadata Metadata            `json:"metadata"`
}

// NewSnapshot copies items and derives totals from them.
func NewSnapshot(items []lineitem.LineItem, landlord identity.Landlord, tenant identity.Tenant, meta Metadata) Snapshot {
	items = slices.Clone(items)
	return Snapshot{
		Items:    items,
		Landlord: landlord,
		Tenant:   tenant,
		Totals:   lineitem.ComputeTotals(items),
		Metadata: meta,
	}
}

// FileName returns the export file name, e.g. invoice-1A2B3C4D.pdf.
func (s Snapshot) FileName(ext string) string {
	return "invoice-" + s.Metadata.ID + "." + strings.TrimPrefix(ext, ".")
}
