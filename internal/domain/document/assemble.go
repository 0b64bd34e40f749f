package document

import (
	"github.com/Strob0t/RentFlow/internal/domain/identity"
	"github.com/Strob0t/RentFlow/internal/domain/invoice"
	"github.com/Strob0t/RentFlow/internal/domain/lineitem"
)

// Font sizes in points.
const (
	sizeTitle  = 22
	sizeMeta   = 10
	sizeLabel  = 9
	sizeName   = 11
	sizeBody   = 10
	sizeTotal  = 13
	sizeFooter = 8

	// cellPad insets table text from the band edges.
	cellPad = 3
	// textDrop places a baseline inside a row of RowHeight.
	textDrop = 6
)

// Assemble lays out the snapshot top to bottom: header band, FROM / BILL TO
// columns, item table, totals, footer. It performs no I/O.
func Assemble(snap invoice.Snapshot, l Layout, wrap Wrapper) Document {
	if wrap == nil {
		wrap = DefaultWrapper
	}
	a := &assembler{l: l, wrap: wrap}
	a.header(snap.Metadata)
	a.parties(snap.Landlord, snap.Tenant)
	a.table(snap.Items)
	a.totals(snap.Totals)
	a.footer()
	return Document{Page: l.Page, Instructions: a.out}
}

type assembler struct {
	l      Layout
	wrap   Wrapper
	cursor float64
	out    []Instruction
}

func (a *assembler) emit(in ...Instruction) {
	a.out = append(a.out, in...)
}

// advance moves the cursor down; negative steps are ignored.
func (a *assembler) advance(dy float64) {
	if dy > 0 {
		a.cursor += dy
	}
}

// moveTo jumps to y unless the cursor is already below it.
func (a *assembler) moveTo(y float64) {
	if y > a.cursor {
		a.cursor = y
	}
}

func (a *assembler) header(meta invoice.Metadata) {
	l := a.l
	a.emit(
		Rect(0, 0, l.Page.Width, l.HeaderHeight, l.Accent),
		Text(l.Margin, 18, l.Title, TextStyle{Size: sizeTitle, Bold: true, Color: l.OnDark}),
		Text(l.rightEdge(), 16, "Invoice #"+meta.ID, TextStyle{Size: sizeMeta, Bold: true, Color: l.OnDark, Align: AlignRight}),
		Text(l.rightEdge(), 23, "Date: "+meta.FormattedDate(), TextStyle{Size: sizeMeta, Color: l.OnDark, Align: AlignRight}),
	)
	a.moveTo(l.HeaderHeight + l.SectionGap)
}

type partyLine struct {
	text string
	bold bool
}

func (a *assembler) parties(landlord identity.Landlord, tenant identity.Tenant) {
	l := a.l
	top := a.cursor
	labelStyle := TextStyle{Size: sizeLabel, Bold: true, Color: l.Muted}
	a.emit(
		Text(l.Margin, top+5, "FROM", labelStyle),
		Text(l.secondColumnX(), top+5, "BILL TO", labelStyle),
	)

	var left []partyLine
	if landlord.Name != "" {
		left = append(left, partyLine{text: landlord.Name, bold: true})
	}
	if landlord.Phone != "" {
		left = append(left, partyLine{text: "Phone: " + landlord.Phone})
	}

	var right []partyLine
	if tenant.Name != "" {
		right = append(right, partyLine{text: tenant.Name, bold: true})
	}
	for _, ln := range a.wrap.WrapText(tenant.Address, l.ColumnWidth, sizeBody) {
		right = append(right, partyLine{text: ln})
	}
	if tenant.Contact != "" {
		right = append(right, partyLine{text: "Contact: " + tenant.Contact})
	}

	a.emitColumn(l.Margin, top, left)
	a.emitColumn(l.secondColumnX(), top, right)

	rows := max(len(left), len(right))
	a.advance(l.LabelHeight + float64(rows)*l.LineHeight + l.SectionGap)
}

func (a *assembler) emitColumn(x, top float64, lines []partyLine) {
	l := a.l
	for i, ln := range lines {
		st := TextStyle{Size: sizeBody, Color: l.Ink, Bold: ln.bold}
		if ln.bold {
			st.Size = sizeName
		}
		a.emit(Text(x, top+l.LabelHeight+float64(i+1)*l.LineHeight, ln.text, st))
	}
}

func (a *assembler) table(items []lineitem.LineItem) {
	l := a.l
	headStyle := TextStyle{Size: sizeLabel, Bold: true, Color: l.Muted}
	a.emit(
		Rect(l.Margin, a.cursor, l.contentWidth(), l.RowHeight, l.Band),
		Text(l.Margin+cellPad, a.cursor+textDrop, "DESCRIPTION", headStyle),
		Text(l.rightEdge()-cellPad, a.cursor+textDrop, "AMOUNT", withAlign(headStyle, AlignRight)),
	)
	a.advance(l.RowHeight)

	if len(items) == 0 {
		a.emit(
			Text(l.Page.Width/2, a.cursor+textDrop, l.EmptyLabel, TextStyle{Size: sizeBody, Color: l.Muted, Align: AlignCenter}),
			Rule(l.Margin, a.cursor+l.RowHeight, l.rightEdge(), l.Hair),
		)
		a.advance(l.RowHeight)
		return
	}

	for _, li := range items {
		amount := invoice.FormatMoney(l.CurrencySymbol, li.Amount)
		amountColor := l.Ink
		if li.IsDiscount() {
			amount = invoice.FormatDeduction(l.CurrencySymbol, li.Amount)
			amountColor = l.Danger
		}
		a.emit(
			Text(l.Margin+cellPad, a.cursor+textDrop, li.DisplayTitle(), TextStyle{Size: sizeBody, Color: l.Ink}),
			Text(l.rightEdge()-cellPad, a.cursor+textDrop, amount, TextStyle{Size: sizeBody, Color: amountColor, Align: AlignRight}),
			Rule(l.Margin, a.cursor+l.RowHeight, l.rightEdge(), l.Hair),
		)
		a.advance(l.RowHeight)
	}
}

func (a *assembler) totals(t lineitem.Totals) {
	l := a.l
	labelX := l.rightEdge() - 65
	valueX := l.rightEdge() - cellPad
	top := a.cursor + 4

	label := TextStyle{Size: sizeBody, Color: l.Muted}
	value := TextStyle{Size: sizeBody, Color: l.Ink, Align: AlignRight}
	grand := TextStyle{Size: sizeTotal, Bold: true, Color: l.Ink}

	a.emit(
		Text(labelX, top+5, "Subtotal", label),
		Text(valueX, top+5, invoice.FormatMoney(l.CurrencySymbol, t.Subtotal), value),
		Text(labelX, top+11, "Discount", label),
		Text(valueX, top+11, invoice.FormatDeduction(l.CurrencySymbol, t.DiscountTotal), TextStyle{Size: sizeBody, Color: l.Danger, Align: AlignRight}),
		Rule(labelX, top+15, l.rightEdge(), l.Ink),
		Text(labelX, top+23, "Total", grand),
		Text(valueX, top+23, invoice.FormatMoney(l.CurrencySymbol, t.Total), withAlign(grand, AlignRight)),
	)
	a.advance(l.TotalsHeight)
}

func (a *assembler) footer() {
	l := a.l
	a.moveTo(l.FooterY)
	a.emit(
		Rule(l.Margin, a.cursor, l.rightEdge(), l.Hair),
		Text(l.Page.Width/2, a.cursor+6, l.Footer, TextStyle{Size: sizeFooter, Color: l.Muted, Align: AlignCenter}),
	)
}

func withAlign(st TextStyle, al Align) TextStyle {
	st.Align = al
	return st
}
