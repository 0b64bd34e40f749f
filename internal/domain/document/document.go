// Package document turns an invoice snapshot into an ordered list of
// absolute-positioned draw instructions on a single fixed-size page.
// Units are millimetres with the origin at the top-left corner.
package document

// Op is the kind of a draw instruction.
type Op string

const (
	OpRect Op = "rect"
	OpText Op = "text"
	OpRule Op = "rule"
)

// Align is the horizontal anchoring of a text instruction relative to X.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Color is an RGB colour.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Page is the fixed page size.
type Page struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Instruction is one drawing command.
//
//   - OpRect fills (X, Y, W, H) with Color.
//   - OpText draws Text with its baseline at Y, anchored at X per Align.
//   - OpRule strokes a horizontal line from (X, Y) to (X2, Y).
type Instruction struct {
	Op    Op      `json:"op"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w,omitempty"`
	H     float64 `json:"h,omitempty"`
	X2    float64 `json:"x2,omitempty"`
	Text  string  `json:"text,omitempty"`
	Size  float64 `json:"size,omitempty"`
	Bold  bool    `json:"bold,omitempty"`
	Align Align   `json:"align,omitempty"`
	Color Color   `json:"color"`
}

// Document is the assembled page.
type Document struct {
	Page         Page          `json:"page"`
	Instructions []Instruction `json:"instructions"`
}

// Texts returns the content of every text instruction in emission order.
func (d Document) Texts() []string {
	var out []string
	for _, in := range d.Instructions {
		if in.Op == OpText {
			out = append(out, in.Text)
		}
	}
	return out
}

// Rect builds a filled rectangle instruction.
func Rect(x, y, w, h float64, c Color) Instruction {
	return Instruction{Op: OpRect, X: x, Y: y, W: w, H: h, Color: c}
}

// Rule builds a horizontal line instruction.
func Rule(x1, y, x2 float64, c Color) Instruction {
	return Instruction{Op: OpRule, X: x1, Y: y, X2: x2, Color: c}
}

// TextStyle groups the typographic attributes of a text instruction.
type TextStyle struct {
	Size  float64
	Bold  bool
	Color Color
	Align Align
}

// Text builds a text instruction.
func Text(x, y float64, content string, st TextStyle) Instruction {
	align := st.Align
	if align == "" {
		align = AlignLeft
	}
	return Instruction{
		Op:    OpText,
		X:     x,
		Y:     y,
		Text:  content,
		Size:  st.Size,
		Bold:  st.Bold,
		Color: st.Color,
		Align: align,
	}
}
