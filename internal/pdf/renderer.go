// Package pdf renders assessment summaries into PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"credit-assessor/internal/assessment"
)

// Renderer produces the PDF attachment for a dispatched summary.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render implements dispatch.Renderer.
func (r *Renderer) Render(ctx context.Context, summary assessment.CreditSummary) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled before rendering: %w", err)
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Credit Assessment", false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 12, "Credit Assessment Summary")
	doc.Ln(16)

	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 6, fmt.Sprintf("Prepared for: %s", summary.Recipient))
	doc.Ln(6)
	doc.Cell(0, 6, fmt.Sprintf("Generated at: %s", summary.GeneratedAt.Format("2006-01-02 15:04 MST")))
	doc.Ln(12)

	doc.SetFont("Helvetica", "B", 12)
	doc.Cell(0, 8, "Eligibility questionnaire")
	doc.Ln(10)
	r.writePairs(doc, summary.BasicAnswers)

	if len(summary.FinancialAnswers) > 0 {
		doc.Ln(4)
		doc.SetFont("Helvetica", "B", 12)
		doc.Cell(0, 8, "Financial details")
		doc.Ln(10)
		r.writePairs(doc, summary.FinancialAnswers)
	}

	doc.Ln(6)
	doc.SetFont("Helvetica", "B", 12)
	if summary.Approved {
		doc.Cell(0, 8, fmt.Sprintf("Approved credit line: %s", assessment.FormatAmount(summary.CreditAmount)))
	} else {
		doc.Cell(0, 8, "No credit line approved.")
	}
	doc.Ln(8)

	if doc.Err() {
		return nil, fmt.Errorf("pdf build failed: %v", doc.Error())
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output failed: %w", err)
	}

	return buf.Bytes(), nil
}

func (r *Renderer) writePairs(doc *gofpdf.Fpdf, pairs []assessment.QA) {
	for _, qa := range pairs {
		doc.SetFont("Helvetica", "", 10)
		doc.Cell(130, 6, qa.Question)
		doc.SetFont("Helvetica", "B", 10)
		doc.Cell(0, 6, qa.Answer)
		doc.Ln(6)
	}
}
