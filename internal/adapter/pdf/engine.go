// Package pdf implements the render port using jung-kurt/gofpdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/Strob0t/RentFlow/internal/domain/document"
)

const (
	fontFamily = "Helvetica"
	// cp1252 is the encoding of the core fonts; "" selects it.
	codePage = ""
)

// Options configures the engine.
type Options struct {
	// Replacements maps runes the core fonts cannot encode to ASCII text,
	// e.g. "₹" to "Rs.".
	Replacements map[string]string
	Title        string
	Creator      string
}

// Engine renders documents to single-page PDF files.
type Engine struct {
	opts     Options
	replacer *strings.Replacer

	// gofpdf is not safe for concurrent use; measure is only touched
	// under mu.
	mu      sync.Mutex
	measure *gofpdf.Fpdf
	tr      func(string) string
}

// New creates a PDF engine.
func New(opts Options) *Engine {
	pairs := make([]string, 0, 2*len(opts.Replacements))
	for from, to := range opts.Replacements {
		pairs = append(pairs, from, to)
	}
	m := gofpdf.New("P", "mm", "A4", "")
	return &Engine{
		opts:     opts,
		replacer: strings.NewReplacer(pairs...),
		measure:  m,
		tr:       m.UnicodeTranslatorFromDescriptor(codePage),
	}
}

// Extension implements render.Engine.
func (e *Engine) Extension() string { return "pdf" }

// ContentType implements render.Engine.
func (e *Engine) ContentType() string { return "application/pdf" }

// encode maps content to the single-byte encoding of the core fonts.
func (e *Engine) encode(content string) string {
	return e.tr(e.replacer.Replace(content))
}

// unsupported returns the distinct runes of content that the core fonts
// cannot draw once replacements are applied.
func (e *Engine) unsupported(content string) []rune {
	var out []rune
	for _, r := range e.replacer.Replace(content) {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok && !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}

// WrapText implements document.Wrapper using Helvetica metrics.
func (e *Engine) WrapText(content string, maxWidth, size float64) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.measure.SetFont(fontFamily, "", size)
	return document.WordWrap(content, maxWidth, func(s string) float64 {
		return e.measure.GetStringWidth(e.encode(s))
	})
}

// Render draws every instruction in order on one page and writes the
// finished file to w.
func (e *Engine) Render(ctx context.Context, doc document.Document, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: doc.Page.Width, Ht: doc.Page.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if e.opts.Title != "" {
		pdf.SetTitle(e.opts.Title, true)
	}
	if e.opts.Creator != "" {
		pdf.SetCreator(e.opts.Creator, true)
	}
	pdf.AddPage()

	var dropped []rune
	for i, in := range doc.Instructions {
		switch in.Op {
		case document.OpRect:
			pdf.SetFillColor(rgb(in.Color))
			pdf.Rect(in.X, in.Y, in.W, in.H, "F")
		case document.OpRule:
			pdf.SetDrawColor(rgb(in.Color))
			pdf.SetLineWidth(0.3)
			pdf.Line(in.X, in.Y, in.X2, in.Y)
		case document.OpText:
			for _, r := range e.unsupported(in.Text) {
				if !slices.Contains(dropped, r) {
					dropped = append(dropped, r)
				}
			}
			e.drawText(pdf, in)
		default:
			return fmt.Errorf("render pdf: instruction %d: unknown op %q", i, in.Op)
		}
		if pdf.Err() {
			return fmt.Errorf("render pdf: instruction %d: %w", i, pdf.Error())
		}
	}

	if len(dropped) > 0 {
		slog.WarnContext(ctx, "pdf core fonts cannot draw some characters; they are omitted",
			"chars", string(dropped),
			"count", len(dropped),
		)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (e *Engine) drawText(pdf *gofpdf.Fpdf, in document.Instruction) {
	style := ""
	if in.Bold {
		style = "B"
	}
	pdf.SetFont(fontFamily, style, in.Size)
	pdf.SetTextColor(rgb(in.Color))

	txt := e.encode(in.Text)
	x := in.X
	switch in.Align {
	case document.AlignRight:
		x -= pdf.GetStringWidth(txt)
	case document.AlignCenter:
		x -= pdf.GetStringWidth(txt) / 2
	}
	pdf.Text(x, in.Y, txt)
}

func rgb(c document.Color) (r, g, b int) {
	return int(c.R), int(c.G), int(c.B)
}
