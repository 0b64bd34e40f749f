package document

import (
	"strings"
	"unicode/utf8"
)

// pointToMM converts a font size in points to millimetres.
const pointToMM = 25.4 / 72

// Wrapper splits text into lines that fit a column width at a font size.
type Wrapper interface {
	WrapText(content string, maxWidth, size float64) []string
}

// WordWrap greedily packs whole words into lines whose measured width does
// not exceed maxWidth. Words are never split; a word wider than maxWidth
// gets a line of its own. Explicit line breaks in content are kept.
func WordWrap(content string, maxWidth float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(content, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if measure(candidate) <= maxWidth {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}
	return lines
}

// FixedWidth measures every rune as the same fraction of the font size.
// It is deterministic and independent of any font files.
type FixedWidth struct {
	EmRatio float64
}

// DefaultWrapper approximates Helvetica's average glyph width.
var DefaultWrapper = FixedWidth{EmRatio: 0.5}

// Width returns the width of s in millimetres at the given size in points.
func (f FixedWidth) Width(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size * f.EmRatio * pointToMM
}

// WrapText implements Wrapper.
func (f FixedWidth) WrapText(content string, maxWidth, size float64) []string {
	return WordWrap(content, maxWidth, func(s string) float64 { return f.Width(s, size) })
}
