package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/Strob0t/RentFlow/internal/domain/identity"
	"github.com/Strob0t/RentFlow/internal/domain/invoice"
	"github.com/Strob0t/RentFlow/internal/domain/lineitem"
	"github.com/Strob0t/RentFlow/internal/service"
)

// Handlers holds the HTTP handlers of the invoice preview surface.
type Handlers struct {
	Invoice        *service.InvoiceService
	OutputDir      string
	CurrencySymbol string
}

// totalsView carries totals formatted for display alongside the raw figures.
type totalsView struct {
	Subtotal      string `json:"subtotal"`
	DiscountTotal string `json:"discount_total"`
	Total         string `json:"total"`
}

// InvoiceView is the JSON shape of the invoice state.
type InvoiceView struct {
	InvoiceID string              `json:"invoice_id"`
	IssueDate string              `json:"issue_date"`
	Items     []lineitem.LineItem `json:"items"`
	Landlord  identity.Landlord   `json:"landlord"`
	Tenant    identity.Tenant     `json:"tenant"`
	Totals    lineitem.Totals     `json:"totals"`
	Display   totalsView          `json:"display"`
}

// NewInvoiceView formats a snapshot for API and WebSocket clients.
func NewInvoiceView(snap invoice.Snapshot, symbol string) InvoiceView {
	return InvoiceView{
		InvoiceID: snap.Metadata.ID,
		IssueDate: snap.Metadata.FormattedDate(),
		Items:     nonNil(snap.Items),
		Landlord:  snap.Landlord,
		Tenant:    snap.Tenant,
		Totals:    snap.Totals,
		Display:   formatTotals(symbol, snap.Totals),
	}
}

func formatTotals(symbol string, t lineitem.Totals) totalsView {
	return totalsView{
		Subtotal:      invoice.FormatMoney(symbol, t.Subtotal),
		DiscountTotal: invoice.FormatDeduction(symbol, t.DiscountTotal),
		Total:         invoice.FormatMoney(symbol, t.Total),
	}
}

func nonNil(items []lineitem.LineItem) []lineitem.LineItem {
	if items == nil {
		return []lineitem.LineItem{}
	}
	return items
}

type addItemRequest struct {
	Kind string `json:"kind"`
}

type fieldRequest struct {
	Field string     `json:"field"`
	Value fieldValue `json:"value"`
}

// fieldValue accepts a JSON string, number, boolean or null. Numbers keep
// their literal text so amount coercion sees exactly what the client sent.
type fieldValue string

func (v *fieldValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = fieldValue(s)
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		return errors.New("value must be a string or number")
	default:
		*v = fieldValue(b)
	}
	return nil
}

type itemsResponse struct {
	Items  []lineitem.LineItem `json:"items"`
	Totals totalsView          `json:"totals"`
}

type exportResponse struct {
	InvoiceID string `json:"invoice_id"`
	FileName  string `json:"file_name"`
	Path      string `json:"path"`
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	code := http.StatusOK
	if !h.Invoice.Ready() {
		status = "loading"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

// GetInvoice handles GET /api/v1/invoice.
func (h *Handlers) GetInvoice(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Invoice.Snapshot()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewInvoiceView(snap, h.CurrencySymbol))
}

// AddItem handles POST /api/v1/items.
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[addItemRequest](w, r)
	if !ok {
		return
	}
	kind, ok := lineitem.ParseKind(req.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, "kind must be charge or discount")
		return
	}

	items, err := h.Invoice.AddItem(r.Context(), kind)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.itemsResponse(items))
}

// UpdateItem handles PUT /api/v1/items/{id}.
func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[fieldRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Field, "field") {
		return
	}

	items, err := h.Invoice.UpdateItem(r.Context(), urlParam(r, "id"), req.Field, string(req.Value))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.itemsResponse(items))
}

// RemoveItem handles DELETE /api/v1/items/{id}.
func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	items, err := h.Invoice.RemoveItem(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.itemsResponse(items))
}

// SetIdentityField handles PUT /api/v1/identity/{kind}.
func (h *Handlers) SetIdentityField(w http.ResponseWriter, r *http.Request) {
	kind, err := identity.ParseKind(urlParam(r, "kind"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	req, ok := readJSON[fieldRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Field, "field") {
		return
	}

	rec, err := h.Invoice.SetIdentityField(r.Context(), kind, req.Field, string(req.Value))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetDocument handles GET /api/v1/invoice/document and returns the draw
// instructions for a client-side preview.
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Invoice.Preview()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DownloadInvoice handles GET /api/v1/invoice/export.
func (h *Handlers) DownloadInvoice(w http.ResponseWriter, r *http.Request) {
	res, err := h.Invoice.Export(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		slog.WarnContext(r.Context(), "invoice download interrupted", "invoice_id", res.InvoiceID, "error", err)
	}
}

// SaveInvoice handles POST /api/v1/invoice/export and writes the file into
// the configured output directory.
func (h *Handlers) SaveInvoice(w http.ResponseWriter, r *http.Request) {
	path, err := h.Invoice.ExportToDir(r.Context(), h.OutputDir)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	snap, err := h.Invoice.Snapshot()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, exportResponse{
		InvoiceID: snap.Metadata.ID,
		FileName:  filepath.Base(path),
		Path:      path,
	})
}

func (h *Handlers) itemsResponse(items []lineitem.LineItem) itemsResponse {
	return itemsResponse{
		Items:  nonNil(items),
		Totals: formatTotals(h.CurrencySymbol, lineitem.ComputeTotals(items)),
	}
}
