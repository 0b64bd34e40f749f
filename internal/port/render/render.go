// Package render defines the port interface for document rendering engines.
package render

import (
	"context"
	"io"

	"github.com/Strob0t/RentFlow/internal/domain/document"
)

// Engine turns an assembled document into an output file format.
//
// WrapText must measure text the same way Render draws it, so the
// assembler can size wrapped blocks before rendering. Render either writes
// the complete file to w or returns an error without writing anything.
type Engine interface {
	document.Wrapper
	Render(ctx context.Context, doc document.Document, w io.Writer) error
	Extension() string
	ContentType() string
}
