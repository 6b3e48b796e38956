package pdf

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/muaina/portal/internal/analysis"
	"github.com/muaina/portal/internal/models"
)

// Renderer turns an approved report into a PDF document. The caller is
// responsible for the approval gate; Render only refuses to run past a
// cancelled context so a timed-out request never receives partial bytes.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (Renderer) Render(ctx context.Context, r *models.Report, res *analysis.Result) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Muaina Clinical Report", false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, "Clinical Report")
	doc.Ln(12)

	doc.SetFont("Helvetica", "", 11)
	writeField(doc, "Report ID", r.ID.String())
	writeField(doc, "Patient", r.PatientInfo.Name)
	if r.PatientInfo.Age != nil {
		writeField(doc, "Age", fmt.Sprintf("%d", *r.PatientInfo.Age))
	}
	if r.PatientInfo.Physician != "" {
		writeField(doc, "Physician", r.PatientInfo.Physician)
	}
	writeField(doc, "Created", r.CreatedAt.UTC().Format(time.RFC1123))
	if r.ReviewedAt != nil {
		writeField(doc, "Approved", r.ReviewedAt.UTC().Format(time.RFC1123))
	}
	doc.Ln(6)

	if res.Classification != "" {
		doc.SetFont("Helvetica", "B", 12)
		doc.Cell(0, 8, "Classification: "+res.Classification)
		doc.Ln(10)
	}

	if len(res.Findings) > 0 {
		doc.SetFont("Helvetica", "B", 12)
		doc.Cell(0, 8, "Findings")
		doc.Ln(8)
		doc.SetFont("Helvetica", "", 11)
		for _, f := range res.Findings {
			line := "- " + f.Label
			if f.Severity != "" {
				line += " (" + f.Severity + ")"
			}
			if f.Detail != "" {
				line += ": " + f.Detail
			}
			doc.MultiCell(0, 6, line, "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}

	// The deadline is a hard ceiling: discard the finished document if the
	// request expired while it was being built.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}
	return buf.Bytes(), nil
}

func writeField(doc *fpdf.Fpdf, label, value string) {
	doc.SetFont("Helvetica", "B", 11)
	doc.Cell(35, 7, label+":")
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 7, value)
	doc.Ln(7)
}
