package assessment

import (
	"context"
	"time"

	"credit-assessor/internal/common/errors"
	"credit-assessor/internal/common/logger"
)

// Phase is the coarse-grained stage of an assessment session.
type Phase string

const (
	PhaseQuestioning        Phase = "questioning"
	PhaseAwaitingFinancials Phase = "awaiting_financials"
	PhaseRejected           Phase = "rejected"
	PhaseApproved           Phase = "approved"
)

// FinancialAnswers holds the raw income/expense pair from the financial
// sub-form.
type FinancialAnswers struct {
	MonthlyIncome   int `json:"monthlyIncome"`
	MonthlyExpenses int `json:"monthlyExpenses"`
}

// State is the mutable per-session assessment state. It is exclusively
// owned by one session and mutated only through Machine transitions, so
// the derived score can never drift from the ledger.
type State struct {
	step         int
	ledger       Ledger
	score        int
	phase        Phase
	financials   *FinancialAnswers
	creditAmount int
	emailAddress string
	emailValid   bool
	emailMessage string
}

func (s *State) Step() int                     { return s.step }
func (s *State) Score() int                    { return s.score }
func (s *State) Phase() Phase                  { return s.phase }
func (s *State) CreditAmount() int             { return s.creditAmount }
func (s *State) EmailAddress() string          { return s.emailAddress }
func (s *State) EmailValid() bool              { return s.emailValid }
func (s *State) EmailMessage() string          { return s.emailMessage }
func (s *State) Financials() *FinancialAnswers { return s.financials }

// Answer returns the ledger entry for step.
func (s *State) Answer(step int) (string, bool) {
	return s.ledger.Answer(step)
}

// DispatchReceipt reports a completed send.
type DispatchReceipt struct {
	MessageID string    `json:"messageId"`
	SentAt    time.Time `json:"sentAt"`
}

// Dispatcher is the render-then-deliver collaborator SendAssessment hands
// the summary to.
type Dispatcher interface {
	Dispatch(ctx context.Context, summary CreditSummary, recipient string) (*DispatchReceipt, error)
}

// Machine owns the scoring table and threshold and applies transitions to
// session state. It holds no per-session data itself, so one Machine serves
// any number of concurrent sessions.
type Machine struct {
	questions []Question
	threshold int
	assembler *Assembler
	logger    logger.Logger
}

// NewMachine creates a Machine over the given table. threshold is exclusive:
// a final score must be strictly greater to reach the financial step.
// A nil clock falls back to time.Now for summary timestamps.
func NewMachine(questions []Question, threshold int, now Clock, log logger.Logger) *Machine {
	return &Machine{
		questions: questions,
		threshold: threshold,
		assembler: NewAssembler(questions, now),
		logger:    log.WithFields(map[string]interface{}{"component": "assessment"}),
	}
}

// Questions returns the scoring table in presentation order.
func (m *Machine) Questions() []Question { return m.questions }

// Threshold returns the qualification threshold.
func (m *Machine) Threshold() int { return m.threshold }

// NewState returns the initial state: Questioning at step 0, empty ledger,
// score 0.
func (m *Machine) NewState() *State {
	return &State{
		step:   0,
		ledger: NewLedger(),
		phase:  PhaseQuestioning,
	}
}

// Advance records answer at the current step and moves forward. Exhausting
// the questionnaire branches on the score: strictly above the threshold
// enters the financial step, anything else is rejected.
func (m *Machine) Advance(st *State, answer string) error {
	if st.phase != PhaseQuestioning {
		return errors.NewInvalidTransitionError("advance", string(st.phase))
	}

	st.ledger.Record(st.step, answer)
	st.score = st.ledger.Score(m.questions)
	st.step++

	if st.step >= len(m.questions) {
		st.step = len(m.questions)
		if st.score > m.threshold {
			st.phase = PhaseAwaitingFinancials
		} else {
			st.phase = PhaseRejected
		}
		m.logger.Info("questionnaire complete", map[string]interface{}{
			"score": st.score,
			"phase": st.phase,
		})
	}

	return nil
}

// Retreat steps back to the previous question. The answer of the step being
// left stays in the ledger; the score is recomputed for uniformity even
// though the ledger is unchanged. At step 0 it is a no-op. Outside the
// questionnaire it is an invalid transition.
func (m *Machine) Retreat(st *State) error {
	if st.phase != PhaseQuestioning {
		return errors.NewInvalidTransitionError("retreat", string(st.phase))
	}
	if st.step == 0 {
		return nil
	}

	st.step--
	st.score = st.ledger.Score(m.questions)
	return nil
}

// SubmitFinancials computes the credit amount from the raw income/expense
// pair and moves to Approved. The phase name does not decide approval:
// downstream consumers grant credit only when the amount is positive.
func (m *Machine) SubmitFinancials(st *State, monthlyIncome, monthlyExpenses int) error {
	if st.phase != PhaseAwaitingFinancials {
		return errors.NewInvalidTransitionError("submit-financials", string(st.phase))
	}

	st.financials = &FinancialAnswers{
		MonthlyIncome:   monthlyIncome,
		MonthlyExpenses: monthlyExpenses,
	}
	st.creditAmount = ComputeCreditAmount(monthlyIncome, monthlyExpenses)
	st.phase = PhaseApproved

	m.logger.Info("financials submitted", map[string]interface{}{
		"creditAmount": st.creditAmount,
		"granted":      st.creditAmount > 0,
	})

	return nil
}

// ValidateEmail records candidate and its verdict on the state. It never
// fails: a malformed address is a normal outcome carried in the returned
// check, not an error. Only meaningful once the questionnaire is over.
func (m *Machine) ValidateEmail(st *State, candidate interface{}) EmailCheck {
	check := ValidateEmailValue(candidate)

	if s, ok := candidate.(string); ok {
		st.emailAddress = s
	} else {
		st.emailAddress = ""
	}
	st.emailValid = check.OK
	st.emailMessage = check.Message

	return check
}

// JumpToStart resets the session to its initial state for a fresh run.
// Valid in any phase.
func (m *Machine) JumpToStart(st *State) {
	*st = *m.NewState()
}

// SendAssessment assembles a fresh summary and hands it to the dispatcher.
// It requires a validated address and a decided session (Approved or
// Rejected; rejection notices are deliberately not precluded). A failed
// dispatch leaves the state untouched so the send can simply be retried.
func (m *Machine) SendAssessment(ctx context.Context, st *State, d Dispatcher) (*DispatchReceipt, error) {
	if st.phase != PhaseApproved && st.phase != PhaseRejected {
		return nil, errors.NewInvalidTransitionError("send-assessment", string(st.phase))
	}
	if !st.emailValid {
		return nil, errors.NewEmailNotValidatedError()
	}

	summary := m.assembler.Assemble(st)

	receipt, err := d.Dispatch(ctx, summary, summary.Recipient)
	if err != nil {
		m.logger.WithError(err).Warn("summary dispatch failed", map[string]interface{}{
			"recipient": summary.Recipient,
		})
		return nil, err
	}

	m.logger.Info("summary dispatched", map[string]interface{}{
		"recipient": summary.Recipient,
		"messageId": receipt.MessageID,
		"approved":  summary.Approved,
	})

	return receipt, nil
}

// Summary exposes assembly without sending, for previews and testing.
func (m *Machine) Summary(st *State) CreditSummary {
	return m.assembler.Assemble(st)
}
