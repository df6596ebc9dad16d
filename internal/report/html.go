package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/report.html
var templateFS embed.FS

var reportTmpl = template.Must(template.ParseFS(templateFS, "templates/report.html"))

// WriteHTML executes the report template for doc.
func WriteHTML(w io.Writer, doc *Document) error {
	if err := reportTmpl.ExecuteTemplate(w, "report.html", doc); err != nil {
		return fmt.Errorf("failed to execute report template: %w", err)
	}
	return nil
}

// HTML returns the report as a self-contained HTML page.
func HTML(doc *Document) (string, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
