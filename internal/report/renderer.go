package report

import (
	"context"
	"io"
)

// Renderer produces a paginated PDF from a document.
type Renderer interface {
	Render(ctx context.Context, doc *Document, w io.Writer) error
}
