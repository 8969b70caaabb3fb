package assessment

// Question is a single entry of the scoring table: the text shown to the
// user and the points an affirmative answer contributes.
type Question struct {
	Text   string `json:"text"`
	Weight int    `json:"weight"`
}

// DefaultThreshold is the score a candidate must strictly exceed after the
// questionnaire to reach the financial step. A final score equal to the
// threshold is rejected.
const DefaultThreshold = 6

// DefaultQuestions returns the standard five-question eligibility table.
// The order is fixed; answers are recorded by index.
func DefaultQuestions() []Question {
	return []Question{
		{Text: "Do you have a permanent employment contract?", Weight: 4},
		{Text: "Have you been with your current employer for more than two years?", Weight: 2},
		{Text: "Do you own your home or another property?", Weight: 2},
		{Text: "Do you have an existing savings account with us?", Weight: 1},
		{Text: "Are you free of outstanding loan obligations?", Weight: 2},
	}
}

// Canonical question texts for the financial sub-form. They appear in the
// summary alongside the questionnaire answers.
const (
	IncomeQuestionText  = "What is your total monthly income?"
	ExpenseQuestionText = "What are your total monthly expenses?"
)
