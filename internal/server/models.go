package server

import (
	"credit-assessor/internal/assessment"
	"credit-assessor/internal/common/validation"
	"credit-assessor/internal/session"
)

// StateView is the read model the driving UI polls between transitions.
type StateView struct {
	SessionID       string                       `json:"sessionId"`
	Phase           assessment.Phase             `json:"phase"`
	Step            int                          `json:"step"`
	TotalSteps      int                          `json:"totalSteps"`
	CurrentQuestion string                       `json:"currentQuestion,omitempty"`
	Score           int                          `json:"score"`
	CreditAmount    int                          `json:"creditAmount"`
	CreditFormatted string                       `json:"creditFormatted"`
	Financials      *assessment.FinancialAnswers `json:"financials,omitempty"`
	EmailAddress    string                       `json:"emailAddress,omitempty"`
	EmailValid      bool                         `json:"emailValid"`
	EmailMessage    string                       `json:"emailMessage,omitempty"`
}

func newStateView(sess *session.Session, machine *assessment.Machine) StateView {
	st := sess.State
	view := StateView{
		SessionID:       sess.ID,
		Phase:           st.Phase(),
		Step:            st.Step(),
		TotalSteps:      len(machine.Questions()),
		Score:           st.Score(),
		CreditAmount:    st.CreditAmount(),
		CreditFormatted: assessment.FormatAmount(st.CreditAmount()),
		Financials:      st.Financials(),
		EmailAddress:    st.EmailAddress(),
		EmailValid:      st.EmailValid(),
		EmailMessage:    st.EmailMessage(),
	}

	if st.Phase() == assessment.PhaseQuestioning && st.Step() < view.TotalSteps {
		view.CurrentQuestion = machine.Questions()[st.Step()].Text
	}

	return view
}

// SendResponse reports a completed dispatch.
type SendResponse struct {
	MessageID string    `json:"messageId"`
	SentAt    string    `json:"sentAt"`
	State     StateView `json:"state"`
}

func intPtr(i int) *int {
	return &i
}

func advanceSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"answer"},
		Properties: map[string]validation.Property{
			"answer": {
				Type:        "string",
				Description: "Raw answer for the current question",
				MaxLength:   intPtr(200),
			},
		},
		AdditionalProperties: false,
	}
}

func financialsSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"monthlyIncome", "monthlyExpenses"},
		Properties: map[string]validation.Property{
			// Untyped on purpose: numbers arrive as JSON numbers or as
			// user-typed strings, both coerced downstream.
			"monthlyIncome": {
				Description: "Total monthly income",
			},
			"monthlyExpenses": {
				Description: "Total monthly expenses",
			},
		},
		AdditionalProperties: false,
	}
}

func emailSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"email"},
		Properties: map[string]validation.Property{
			// Untyped on purpose: a non-string value must reach the
			// validator so the UI gets its "must be text" diagnostic.
			"email": {
				Description: "Candidate recipient address",
			},
		},
		AdditionalProperties: false,
	}
}

// coerceAmount converts an untyped JSON value into an integer amount.
// Unparsable input coerces to 0 rather than failing the transition.
func coerceAmount(raw interface{}) int {
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		return assessment.ParseAmount(v)
	default:
		return 0
	}
}
