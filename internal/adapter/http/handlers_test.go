package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/RentFlow/internal/adapter/filekv"
	rfhttp "github.com/Strob0t/RentFlow/internal/adapter/http"
	"github.com/Strob0t/RentFlow/internal/adapter/pdf"
	"github.com/Strob0t/RentFlow/internal/domain/document"
	"github.com/Strob0t/RentFlow/internal/service"
)

type testServer struct {
	svc       *service.InvoiceService
	handler   http.Handler
	outputDir string
	storePath string
}

func newTestServer(t *testing.T, open bool) testServer {
	t.Helper()
	dir := t.TempDir()
	ts := testServer{
		outputDir: filepath.Join(dir, "invoices"),
		storePath: filepath.Join(dir, "identity.json"),
	}
	ts.svc = newService(t, ts.storePath)
	if open {
		if err := ts.svc.Open(context.Background()); err != nil {
			t.Fatalf("Open: %v", err)
		}
	}

	h := &rfhttp.Handlers{Invoice: ts.svc, OutputDir: ts.outputDir, CurrencySymbol: "₹"}
	r := chi.NewRouter()
	rfhttp.MountRoutes(r, h, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	})
	ts.handler = r
	return ts
}

func newService(t *testing.T, storePath string) *service.InvoiceService {
	t.Helper()
	store, err := filekv.Open(storePath)
	if err != nil {
		t.Fatalf("filekv.Open: %v", err)
	}
	engine := pdf.New(pdf.Options{Replacements: map[string]string{"₹": "Rs."}})
	return service.NewInvoiceService(
		service.NewIdentityCache(store, service.DefaultKeyPrefix, nil),
		engine,
		document.DefaultLayout(),
	)
}

func (ts testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

type itemsBody struct {
	Items []struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Amount string `json:"amount"`
		Kind   string `json:"kind"`
	} `json:"items"`
	Totals struct {
		Subtotal      string `json:"subtotal"`
		DiscountTotal string `json:"discount_total"`
		Total         string `json:"total"`
	} `json:"totals"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func (ts testServer) addItem(t *testing.T, kind, title, amount string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/items", `{"kind":"`+kind+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add item: status %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[itemsBody](t, rec)
	id := body.Items[len(body.Items)-1].ID
	for field, value := range map[string]string{"title": title, "amount": amount} {
		rec := ts.do(t, http.MethodPut, "/api/v1/items/"+id, `{"field":"`+field+`","value":"`+value+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("update %s: status %d: %s", field, rec.Code, rec.Body.String())
		}
	}
	return id
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name string
		open bool
		want int
	}{
		{"loading", false, http.StatusServiceUnavailable},
		{"ready", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.open)
			if rec := ts.do(t, http.MethodGet, "/health", ""); rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestNotReadyReturns503(t *testing.T) {
	ts := newTestServer(t, false)
	for _, c := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/invoice", ""},
		{http.MethodPost, "/api/v1/items", `{"kind":"charge"}`},
		{http.MethodGet, "/api/v1/invoice/export", ""},
	} {
		if rec := ts.do(t, c.method, c.path, c.body); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: status = %d, want 503", c.method, c.path, rec.Code)
		}
	}
}

func TestItemsLifecycle(t *testing.T) {
	ts := newTestServer(t, true)
	ts.addItem(t, "charge", "Rent", "15000")
	discount := ts.addItem(t, "discount", "Loyalty", "1000")

	rec := ts.do(t, http.MethodGet, "/api/v1/invoice", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get invoice: status %d", rec.Code)
	}
	var view struct {
		InvoiceID string            `json:"invoice_id"`
		Items     []json.RawMessage `json:"items"`
		Display   struct {
			Subtotal      string `json:"subtotal"`
			DiscountTotal string `json:"discount_total"`
			Total         string `json:"total"`
		} `json:"display"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.InvoiceID) != 8 || len(view.Items) != 2 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Display.Subtotal != "₹15000.00" || view.Display.DiscountTotal != "- ₹1000.00" || view.Display.Total != "₹14000.00" {
		t.Fatalf("unexpected totals %+v", view.Display)
	}

	rec = ts.do(t, http.MethodDelete, "/api/v1/items/"+discount, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	body := decode[itemsBody](t, rec)
	if len(body.Items) != 1 || body.Totals.Total != "₹15000.00" {
		t.Fatalf("unexpected items after delete %+v", body)
	}

	// Removing an unknown id is a no-op.
	rec = ts.do(t, http.MethodDelete, "/api/v1/items/missing", "")
	if rec.Code != http.StatusOK || len(decode[itemsBody](t, rec).Items) != 1 {
		t.Fatal("unknown id should leave items unchanged")
	}
}

func TestItemsValidation(t *testing.T) {
	ts := newTestServer(t, true)
	id := ts.addItem(t, "regular", "Rent", "100")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad kind", http.MethodPost, "/api/v1/items", `{"kind":"refund"}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/v1/items", `{"kind":`, http.StatusBadRequest},
		{"missing field", http.MethodPut, "/api/v1/items/" + id, `{"value":"x"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPut, "/api/v1/items/" + id, `{"field":"colour","value":"red"}`, http.StatusBadRequest},
		{"oversized body", http.MethodPost, "/api/v1/items", `{"kind":"` + strings.Repeat("x", 70<<10) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := ts.do(t, tt.method, tt.path, tt.body); rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestItemsAmountCoercion(t *testing.T) {
	ts := newTestServer(t, true)
	ts.addItem(t, "charge", "Rent", "abc")
	ts.addItem(t, "charge", "Water", "-50")
	ts.addItem(t, "charge", "Power", "1.005")

	rec := ts.do(t, http.MethodGet, "/api/v1/invoice", "")
	view := decode[struct {
		Display struct {
			Total string `json:"total"`
		} `json:"display"`
	}](t, rec)
	if view.Display.Total != "₹1.01" {
		t.Fatalf("total = %q, want ₹1.01", view.Display.Total)
	}
}

func TestItemsAmountAcceptsJSONNumbers(t *testing.T) {
	ts := newTestServer(t, true)
	id := ts.addItem(t, "charge", "Rent", "0")

	tests := []struct {
		value string
		want  string
	}{
		{`15000`, "15000"},
		{`12.5`, "12.5"},
		{`1.5e3`, "1500"},
		{`-50`, "0"},
		{`null`, "0"},
		{`1e900000000`, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			rec := ts.do(t, http.MethodPut, "/api/v1/items/"+id, `{"field":"amount","value":`+tt.value+`}`)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			body := decode[itemsBody](t, rec)
			if got := body.Items[0].Amount; got != tt.want {
				t.Fatalf("amount = %q, want %q", got, tt.want)
			}
		})
	}

	rec := ts.do(t, http.MethodPut, "/api/v1/items/"+id, `{"field":"amount","value":{"n":1}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("object value: status = %d, want 400", rec.Code)
	}
}

func TestSetIdentityField(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(t, http.MethodPut, "/api/v1/identity/landlord", `{"field":"name","value":"R. Sharma"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[map[string]string](t, rec)["name"]; got != "R. Sharma" {
		t.Fatalf("name = %q", got)
	}

	for _, c := range []struct{ path, body string }{
		{"/api/v1/identity/agent", `{"field":"name","value":"x"}`},
		{"/api/v1/identity/tenant", `{"field":"email","value":"x"}`},
		{"/api/v1/identity/tenant", `{"value":"x"}`},
	} {
		if rec := ts.do(t, http.MethodPut, c.path, c.body); rec.Code != http.StatusBadRequest {
			t.Errorf("PUT %s %s: status = %d, want 400", c.path, c.body, rec.Code)
		}
	}

	// A fresh session over the same store loads the saved landlord.
	next := newService(t, ts.storePath)
	if err := next.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	snap, err := next.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Landlord.Name != "R. Sharma" {
		t.Fatalf("landlord not persisted: %+v", snap.Landlord)
	}
}

func TestGetDocument(t *testing.T) {
	ts := newTestServer(t, true)
	ts.addItem(t, "charge", "Rent", "15000")

	rec := ts.do(t, http.MethodGet, "/api/v1/invoice/document", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	doc := decode[document.Document](t, rec)
	if len(doc.Instructions) == 0 {
		t.Fatal("expected draw instructions")
	}
	found := false
	for _, s := range doc.Texts() {
		if s == "₹15000.00" {
			found = true
		}
	}
	if !found {
		t.Fatalf("amount missing from preview: %v", doc.Texts())
	}
}

func TestDownloadInvoice(t *testing.T) {
	ts := newTestServer(t, true)
	ts.addItem(t, "charge", "Rent", "15000")
	snap, _ := ts.svc.Snapshot()

	rec := ts.do(t, http.MethodGet, "/api/v1/invoice/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	want := "attachment; filename=invoice-" + snap.Metadata.ID + ".pdf"
	if cd := rec.Header().Get("Content-Disposition"); cd != want {
		t.Errorf("content disposition = %q, want %q", cd, want)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
}

func TestSaveInvoice(t *testing.T) {
	ts := newTestServer(t, true)
	ts.addItem(t, "charge", "Rent", "15000")

	rec := ts.do(t, http.MethodPost, "/api/v1/invoice/export", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[struct {
		InvoiceID string `json:"invoice_id"`
		FileName  string `json:"file_name"`
		Path      string `json:"path"`
	}](t, rec)
	if resp.FileName != "invoice-"+resp.InvoiceID+".pdf" {
		t.Fatalf("unexpected file name %q", resp.FileName)
	}
	data, err := os.ReadFile(filepath.Join(ts.outputDir, resp.FileName))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatal("saved file is not a PDF")
	}
}
