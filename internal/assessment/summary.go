package assessment

import "time"

// QA is one resolved question/answer pair of a summary.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// CreditSummary is the immutable snapshot handed to the PDF and mail
// collaborators. It is built fresh per send attempt and never mutated.
type CreditSummary struct {
	Recipient        string    `json:"recipient"`
	BasicAnswers     []QA      `json:"basicAnswers"`
	FinancialAnswers []QA      `json:"financialAnswers"`
	CreditAmount     int       `json:"creditAmount"`
	Approved         bool      `json:"approved"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// UnansweredSentinel substitutes for any questionnaire index without a
// recorded answer when a summary is assembled.
const UnansweredSentinel = "N/A"

// Clock supplies the assembly timestamp; substitutable for testing.
type Clock func() time.Time

// Assembler builds CreditSummary snapshots from session state.
type Assembler struct {
	questions []Question
	now       Clock
}

// NewAssembler creates an Assembler over the given scoring table. A nil
// clock falls back to time.Now.
func NewAssembler(questions []Question, now Clock) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{questions: questions, now: now}
}

// Assemble maps the current state into a fully-resolved summary. The
// timestamp is taken at assembly, not earlier, so a re-send after further
// mutation reflects the latest data.
func (a *Assembler) Assemble(st *State) CreditSummary {
	basic := make([]QA, 0, len(a.questions))
	for step, q := range a.questions {
		answer, ok := st.ledger.Answer(step)
		if !ok || answer == "" {
			answer = UnansweredSentinel
		}
		basic = append(basic, QA{Question: q.Text, Answer: answer})
	}

	financial := []QA{}
	if st.phase == PhaseApproved && st.financials != nil {
		financial = []QA{
			{Question: IncomeQuestionText, Answer: FormatAmount(st.financials.MonthlyIncome)},
			{Question: ExpenseQuestionText, Answer: FormatAmount(st.financials.MonthlyExpenses)},
		}
	}

	return CreditSummary{
		Recipient:        st.emailAddress,
		BasicAnswers:     basic,
		FinancialAnswers: financial,
		CreditAmount:     st.creditAmount,
		Approved:         st.creditAmount > 0,
		GeneratedAt:      a.now(),
	}
}
