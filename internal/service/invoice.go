package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	cfotel "github.com/Strob0t/RentFlow/internal/adapter/otel"
	"github.com/Strob0t/RentFlow/internal/domain"
	"github.com/Strob0t/RentFlow/internal/domain/document"
	"github.com/Strob0t/RentFlow/internal/domain/identity"
	"github.com/Strob0t/RentFlow/internal/domain/invoice"
	"github.com/Strob0t/RentFlow/internal/domain/lineitem"
	"github.com/Strob0t/RentFlow/internal/port/broadcast"
	"github.com/Strob0t/RentFlow/internal/port/render"
)

// EventInvoiceChanged is broadcast after every mutation of the session.
const EventInvoiceChanged = "invoice.changed"

// ChangedEvent is the payload of EventInvoiceChanged. Revision increases
// with every mutation so clients can discard out-of-order events.
type ChangedEvent struct {
	InvoiceID     string `json:"invoice_id"`
	Revision      uint64 `json:"revision"`
	Reason        string `json:"reason"`
	ItemCount     int    `json:"item_count"`
	Subtotal      string `json:"subtotal"`
	DiscountTotal string `json:"discount_total"`
	Total         string `json:"total"`
}

// ExportResult is a rendered invoice file held in memory.
type ExportResult struct {
	InvoiceID   string
	FileName    string
	ContentType string
	Data        []byte
}

// InvoiceService owns one interactive invoice session. All state changes
// go through its mutex, so each action completes before the next starts.
type InvoiceService struct {
	identities *IdentityCache
	engine     render.Engine
	layout     document.Layout
	now        func() time.Time

	mu       sync.Mutex
	ready    bool
	revision uint64
	items    *lineitem.Store
	landlord identity.Landlord
	tenant   identity.Tenant
	meta     invoice.Metadata
	events   broadcast.Broadcaster
	metrics  *cfotel.Metrics

	// saveMu orders identity writes, which run outside mu. saved holds the
	// revision of the last record written per kind.
	saveMu sync.Mutex
	saved  map[identity.Kind]uint64
}

// NewInvoiceService creates a session in the uninitialized state; call Open
// before anything else.
func NewInvoiceService(identities *IdentityCache, engine render.Engine, layout document.Layout) *InvoiceService {
	return &InvoiceService{
		identities: identities,
		engine:     engine,
		layout:     layout,
		now:        time.Now,
		items:      lineitem.NewStore(),
		saved:      make(map[identity.Kind]uint64),
	}
}

// SetBroadcaster registers the receiver of change events.
func (s *InvoiceService) SetBroadcaster(b broadcast.Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = b
}

// SetMetrics registers the metric instruments. A nil value records nothing.
func (s *InvoiceService) SetMetrics(m *cfotel.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// Open loads the stored identities and fixes the invoice id and date.
// Calling it again is a no-op.
func (s *InvoiceService) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	s.landlord, s.tenant = s.identities.Load(ctx)
	s.meta = invoice.NewMetadata(s.now())
	s.ready = true
	slog.InfoContext(ctx, "invoice session opened",
		"invoice_id", s.meta.ID,
		"landlord_loaded", !s.landlord.IsEmpty(),
		"tenant_loaded", !s.tenant.IsEmpty(),
	)
	return nil
}

// Ready reports whether Open has completed.
func (s *InvoiceService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// AddItem appends an empty item of kind and returns the updated items.
func (s *InvoiceService) AddItem(ctx context.Context, kind lineitem.Kind) ([]lineitem.LineItem, error) {
	return s.mutateItems(ctx, "item.added", func() ([]lineitem.LineItem, error) {
		return s.items.Add(kind), nil
	})
}

// RemoveItem deletes the item with id. An unknown id is a no-op.
func (s *InvoiceService) RemoveItem(ctx context.Context, id string) ([]lineitem.LineItem, error) {
	return s.mutateItems(ctx, "item.removed", func() ([]lineitem.LineItem, error) {
		return s.items.Remove(id), nil
	})
}

// UpdateItem sets one field of the item with id.
func (s *InvoiceService) UpdateItem(ctx context.Context, id, field, value string) ([]lineitem.LineItem, error) {
	return s.mutateItems(ctx, "item.updated", func() ([]lineitem.LineItem, error) {
		return s.items.Update(id, field, value)
	})
}

func (s *InvoiceService) mutateItems(ctx context.Context, reason string, fn func() ([]lineitem.LineItem, error)) ([]lineitem.LineItem, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return nil, domain.ErrNotReady
	}
	items, err := fn()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	ch := s.changedLocked(reason)
	s.mu.Unlock()

	s.publish(ctx, ch)
	return items, nil
}

// SetLandlordField updates one landlord field and persists the record.
func (s *InvoiceService) SetLandlordField(ctx context.Context, field, value string) (identity.Landlord, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return identity.Landlord{}, domain.ErrNotReady
	}
	if err := s.landlord.SetField(field, value); err != nil {
		s.mu.Unlock()
		return identity.Landlord{}, err
	}
	rec := s.landlord
	ch := s.changedLocked("landlord.updated")
	s.mu.Unlock()

	s.persist(ctx, rec, ch.revision)
	s.publish(ctx, ch)
	return rec, nil
}

// SetTenantField updates one tenant field and persists the record.
func (s *InvoiceService) SetTenantField(ctx context.Context, field, value string) (identity.Tenant, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return identity.Tenant{}, domain.ErrNotReady
	}
	if err := s.tenant.SetField(field, value); err != nil {
		s.mu.Unlock()
		return identity.Tenant{}, err
	}
	rec := s.tenant
	ch := s.changedLocked("tenant.updated")
	s.mu.Unlock()

	s.persist(ctx, rec, ch.revision)
	s.publish(ctx, ch)
	return rec, nil
}

// SetIdentityField dispatches to SetLandlordField or SetTenantField.
func (s *InvoiceService) SetIdentityField(ctx context.Context, kind identity.Kind, field, value string) (identity.Record, error) {
	switch kind {
	case identity.KindLandlord:
		return s.SetLandlordField(ctx, field, value)
	case identity.KindTenant:
		return s.SetTenantField(ctx, field, value)
	}
	return nil, fmt.Errorf("unknown identity kind %q: %w", kind, domain.ErrValidation)
}

// Totals computes the totals of the current items.
func (s *InvoiceService) Totals() (lineitem.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return lineitem.Totals{}, domain.ErrNotReady
	}
	return lineitem.ComputeTotals(s.items.Items()), nil
}

// Snapshot captures the whole session state.
func (s *InvoiceService) Snapshot() (invoice.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return invoice.Snapshot{}, domain.ErrNotReady
	}
	return s.snapshotLocked(), nil
}

// Preview assembles the document for the current state without rendering.
func (s *InvoiceService) Preview() (document.Document, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return document.Document{}, err
	}
	return document.Assemble(snap, s.layout, s.engine), nil
}

// Export renders the current state into memory. The snapshot is taken under
// the lock, so later edits cannot change an export in progress. Rendering
// failures wrap domain.ErrExport and leave the session untouched.
func (s *InvoiceService) Export(ctx context.Context) (*ExportResult, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	ctx, span := cfotel.StartExportSpan(ctx, snap.Metadata.ID, len(snap.Items), s.engine.Extension())
	res, err := s.render(ctx, snap)
	cfotel.EndSpan(span, err)
	s.recordExport(ctx, res, err)
	if err != nil {
		slog.ErrorContext(ctx, "invoice export failed", "invoice_id", snap.Metadata.ID, "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "invoice exported",
		"invoice_id", res.InvoiceID,
		"file", res.FileName,
		"bytes", len(res.Data),
		"total", invoice.FormatMoney(s.layout.CurrencySymbol, snap.Totals.Total),
	)
	return res, nil
}

func (s *InvoiceService) render(ctx context.Context, snap invoice.Snapshot) (*ExportResult, error) {
	doc := document.Assemble(snap, s.layout, s.engine)

	var buf bytes.Buffer
	if err := s.engine.Render(ctx, doc, &buf); err != nil {
		return nil, fmt.Errorf("%w: render %s: %w", domain.ErrExport, snap.Metadata.ID, err)
	}
	return &ExportResult{
		InvoiceID:   snap.Metadata.ID,
		FileName:    snap.FileName(s.engine.Extension()),
		ContentType: s.engine.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// ExportToDir exports and writes the file into dir, returning its path. The
// file appears atomically: a failed export leaves nothing behind.
func (s *InvoiceService) ExportToDir(ctx context.Context, dir string) (string, error) {
	res, err := s.Export(ctx)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("%w: create %s: %w", domain.ErrExport, dir, err)
	}
	path := filepath.Join(dir, res.FileName)
	if err := writeFileAtomic(path, res.Data); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExport, err)
	}
	return path, nil
}

func (s *InvoiceService) recordExport(ctx context.Context, res *ExportResult, err error) {
	s.mu.Lock()
	metrics := s.metrics
	s.mu.Unlock()

	size := 0
	if res != nil {
		size = len(res.Data)
	}
	metrics.RecordExport(ctx, s.engine.Extension(), size, err)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// snapshotLocked must be called with s.mu held.
func (s *InvoiceService) snapshotLocked() invoice.Snapshot {
	return invoice.NewSnapshot(s.items.Items(), s.landlord, s.tenant, s.meta)
}

// persist writes rec unless a record of the same kind from a later revision
// has already been written.
func (s *InvoiceService) persist(ctx context.Context, rec identity.Record, revision uint64) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if revision <= s.saved[rec.Kind()] {
		return
	}
	s.identities.Save(ctx, rec)
	s.saved[rec.Kind()] = revision
}

// change is the state captured under the lock for one mutation.
type change struct {
	invoiceID string
	revision  uint64
	reason    string
	itemCount int
	totals    lineitem.Totals
	events    broadcast.Broadcaster
	metrics   *cfotel.Metrics
}

// changedLocked bumps the revision and captures what the change event needs.
// It must be called with s.mu held.
func (s *InvoiceService) changedLocked(reason string) change {
	s.revision++
	items := s.items.Items()
	return change{
		invoiceID: s.meta.ID,
		revision:  s.revision,
		reason:    reason,
		itemCount: len(items),
		totals:    lineitem.ComputeTotals(items),
		events:    s.events,
		metrics:   s.metrics,
	}
}

// publish records the mutation and broadcasts the change event. It must be
// called without s.mu held.
func (s *InvoiceService) publish(ctx context.Context, ch change) {
	ch.metrics.RecordMutation(ctx, ch.reason)
	if ch.events == nil {
		return
	}
	sym := s.layout.CurrencySymbol
	ch.events.BroadcastEvent(ctx, EventInvoiceChanged, ChangedEvent{
		InvoiceID:     ch.invoiceID,
		Revision:      ch.revision,
		Reason:        ch.reason,
		ItemCount:     ch.itemCount,
		Subtotal:      invoice.FormatMoney(sym, ch.totals.Subtotal),
		DiscountTotal: invoice.FormatMoney(sym, ch.totals.DiscountTotal),
		Total:         invoice.FormatMoney(sym, ch.totals.Total),
	})
}
