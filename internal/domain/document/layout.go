package document

// Layout carries the fixed geometry, palette, and copy of the invoice page.
type Layout struct {
	Page         Page
	Margin       float64
	HeaderHeight float64
	SectionGap   float64
	LabelHeight  float64
	LineHeight   float64
	ColumnWidth  float64
	RowHeight    float64
	TotalsHeight float64
	FooterY      float64

	Title          string
	CurrencySymbol string
	Footer         string
	EmptyLabel     string

	Accent Color
	OnDark Color
	Ink    Color
	Muted  Color
	Danger Color
	Band   Color
	Hair   Color
}

// DefaultLayout is an A4 portrait page with an indigo header band.
func DefaultLayout() Layout {
	return Layout{
		Page:         Page{Width: 210, Height: 297},
		Margin:       15,
		HeaderHeight: 40,
		SectionGap:   10,
		LabelHeight:  7,
		LineHeight:   5.5,
		ColumnWidth:  85,
		RowHeight:    9,
		TotalsHeight: 32,
		FooterY:      280,

		Title:          "RENT INVOICE",
		CurrencySymbol: "₹",
		Footer:         "Generated with RentFlow",
		EmptyLabel:     "No items added",

		Accent: Color{R: 79, G: 70, B: 229},
		OnDark: Color{R: 255, G: 255, B: 255},
		Ink:    Color{R: 17, G: 24, B: 39},
		Muted:  Color{R: 107, G: 114, B: 128},
		Danger: Color{R: 220, G: 38, B: 38},
		Band:   Color{R: 243, G: 244, B: 246},
		Hair:   Color{R: 229, G: 231, B: 235},
	}
}

func (l Layout) contentWidth() float64 { return l.Page.Width - 2*l.Margin }

func (l Layout) rightEdge() float64 { return l.Page.Width - l.Margin }

// secondColumnX is where the BILL TO column starts.
func (l Layout) secondColumnX() float64 { return l.Margin + l.contentWidth()/2 + 5 }
