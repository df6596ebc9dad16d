// Package chromium prints the HTML report to PDF with headless Chrome.
package chromium

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/vbonduro/actreport/internal/report"
)

// A4 in inches, with 1 inch margins.
const (
	paperWidth  = 8.27
	paperHeight = 11.69
	margin      = 1.0
)

const footerTemplate = `<div style="width:100%;text-align:center;font-family:'Times New Roman',serif;font-size:10pt;">` +
	`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

type Renderer struct {
	bin       string
	noSandbox bool
	logger    *slog.Logger
}

// New returns a renderer that launches bin, or the browser rod finds (or
// downloads) when bin is empty.
func New(bin string, noSandbox bool, logger *slog.Logger) *Renderer {
	return &Renderer{bin: bin, noSandbox: noSandbox, logger: logger}
}

func (r *Renderer) Render(ctx context.Context, doc *report.Document, w io.Writer) error {
	html, err := report.HTML(doc)
	if err != nil {
		return err
	}

	l := launcher.New().Context(ctx).Headless(true).NoSandbox(r.noSandbox)
	if r.bin != "" {
		l = l.Bin(r.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch chrome: %w", err)
	}
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to chrome: %w", err)
	}
	defer func() {
		if cerr := browser.Close(); cerr != nil {
			r.logger.Warn("failed to close chrome", "error", cerr)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("failed to open page: %w", err)
	}
	if err := page.SetDocumentContent(html); err != nil {
		return fmt.Errorf("failed to load report html: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for report html: %w", err)
	}

	req := &proto.PagePrintToPDF{
		PaperWidth:      gson.Num(paperWidth),
		PaperHeight:     gson.Num(paperHeight),
		MarginTop:       gson.Num(margin),
		MarginBottom:    gson.Num(margin),
		MarginLeft:      gson.Num(margin),
		MarginRight:     gson.Num(margin),
		PrintBackground: true,
	}
	if doc.Options.PageNumbers {
		req.DisplayHeaderFooter = true
		req.HeaderTemplate = "<span></span>"
		req.FooterTemplate = footerTemplate
	}

	stream, err := page.PDF(req)
	if err != nil {
		return fmt.Errorf("failed to print pdf: %w", err)
	}
	if _, err := io.Copy(w, stream); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}

	r.logger.Debug("chrome rendered report", "activity_id", doc.ActivityID)
	return nil
}
