package dispatch

import (
	"fmt"
	"html"
	"strings"

	"credit-assessor/internal/assessment"
)

const (
	subjectApproved = "Your credit assessment: offer enclosed"
	subjectRejected = "Your credit assessment result"

	attachmentFilename = "credit-assessment.pdf"
	attachmentMimeType = "application/pdf"
)

func subjectFor(summary assessment.CreditSummary) string {
	if summary.Approved {
		return subjectApproved
	}
	return subjectRejected
}

// composeTextBody renders the plain-text variant of the summary mail.
func composeTextBody(summary assessment.CreditSummary) string {
	var b strings.Builder

	b.WriteString("Hello,\n\n")
	b.WriteString("thank you for completing our credit assessment.\n\n")

	if summary.Approved {
		fmt.Fprintf(&b, "We are pleased to offer you a credit line of %s.\n\n",
			assessment.FormatAmount(summary.CreditAmount))
	} else {
		b.WriteString("Unfortunately we cannot offer you a credit line at this time.\n\n")
	}

	b.WriteString("Your answers:\n")
	for _, qa := range summary.BasicAnswers {
		fmt.Fprintf(&b, "  - %s %s\n", qa.Question, qa.Answer)
	}
	for _, qa := range summary.FinancialAnswers {
		fmt.Fprintf(&b, "  - %s %s\n", qa.Question, qa.Answer)
	}

	fmt.Fprintf(&b, "\nA PDF copy is attached. Generated at %s.\n",
		summary.GeneratedAt.Format("2006-01-02 15:04 MST"))

	return b.String()
}

// composeHTMLBody renders the HTML variant. Presentation stays minimal;
// anything fancier belongs to a templating layer outside this core.
func composeHTMLBody(summary assessment.CreditSummary) string {
	var b strings.Builder

	b.WriteString("<html><body>")
	b.WriteString("<p>Hello,</p><p>thank you for completing our credit assessment.</p>")

	if summary.Approved {
		fmt.Fprintf(&b, "<p>We are pleased to offer you a credit line of <strong>%s</strong>.</p>",
			html.EscapeString(assessment.FormatAmount(summary.CreditAmount)))
	} else {
		b.WriteString("<p>Unfortunately we cannot offer you a credit line at this time.</p>")
	}

	b.WriteString("<ul>")
	for _, qa := range summary.BasicAnswers {
		fmt.Fprintf(&b, "<li>%s %s</li>",
			html.EscapeString(qa.Question), html.EscapeString(qa.Answer))
	}
	for _, qa := range summary.FinancialAnswers {
		fmt.Fprintf(&b, "<li>%s %s</li>",
			html.EscapeString(qa.Question), html.EscapeString(qa.Answer))
	}
	b.WriteString("</ul>")

	fmt.Fprintf(&b, "<p>A PDF copy is attached. Generated at %s.</p>",
		summary.GeneratedAt.Format("2006-01-02 15:04 MST"))
	b.WriteString("</body></html>")

	return b.String()
}
