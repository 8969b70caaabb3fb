// Package server exposes the assessment state machine to the driving UI as
// discrete transition endpoints over HTTP. The core never imports this
// package; it only receives events from it.
package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"credit-assessor/internal/assessment"
	"credit-assessor/internal/common/errors"
	"credit-assessor/internal/common/logger"
	"credit-assessor/internal/common/metrics"
	"credit-assessor/internal/common/validation"
	"credit-assessor/internal/session"
)

type Server struct {
	machine    *assessment.Machine
	store      *session.Store
	dispatcher assessment.Dispatcher
	logger     logger.Logger
}

func New(machine *assessment.Machine, store *session.Store, dispatcher assessment.Dispatcher, log logger.Logger) *Server {
	return &Server{
		machine:    machine,
		store:      store,
		dispatcher: dispatcher,
		logger:     log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

// Routes mounts all transition endpoints on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /sessions/{id}/advance", s.handleAdvance)
	mux.HandleFunc("POST /sessions/{id}/retreat", s.handleRetreat)
	mux.HandleFunc("POST /sessions/{id}/financials", s.handleFinancials)
	mux.HandleFunc("POST /sessions/{id}/email", s.handleEmail)
	mux.HandleFunc("POST /sessions/{id}/send", s.handleSend)
	mux.HandleFunc("POST /sessions/{id}/restart", s.handleRestart)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return mux
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Create()
	metrics.SessionsStarted.Inc()
	s.writeJSON(w, http.StatusCreated, newStateView(sess, s.machine))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStateView(sess, s.machine))
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	payload, err := s.decodeValidated(r, advanceSchema())
	if err != nil {
		s.writeError(w, err)
		return
	}

	answer, _ := payload["answer"].(string)

	err = sess.Do(func(st *assessment.State) error {
		return s.machine.Advance(st, answer)
	})
	if err != nil {
		metrics.Transitions.WithLabelValues("advance", "invalid").Inc()
		s.writeError(w, err)
		return
	}
	metrics.Transitions.WithLabelValues("advance", "success").Inc()

	phase := sess.State.Phase()
	if phase == assessment.PhaseAwaitingFinancials || phase == assessment.PhaseRejected {
		metrics.SessionsFinished.WithLabelValues(string(phase)).Inc()
	}

	s.writeJSON(w, http.StatusOK, newStateView(sess, s.machine))
}

func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	err = sess.Do(func(st *assessment.State) error {
		return s.machine.Retreat(st)
	})
	if err != nil {
		metrics.Transitions.WithLabelValues("retreat", "invalid").Inc()
		s.writeError(w, err)
		return
	}
	metrics.Transitions.WithLabelValues("retreat", "success").Inc()

	s.writeJSON(w, http.StatusOK, newStateView(sess, s.machine))
}

func (s *Server) handleFinancials(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	payload, err := s.decodeValidated(r, financialsSchema())
	if err != nil {
		s.writeError(w, err)
		return
	}

	income := coerceAmount(payload["monthlyIncome"])
	expenses := coerceAmount(payload["monthlyExpenses"])

	err = sess.Do(func(st *assessment.State) error {
		return s.machine.SubmitFinancials(st, income, expenses)
	})
	if err != nil {
		metrics.Transitions.WithLabelValues("submit-financials", "invalid").Inc()
		s.writeError(w, err)
		return
	}
	metrics.Transitions.WithLabelValues("submit-financials", "success").Inc()

	s.writeJSON(w, http.StatusOK, newStateView(sess, s.machine))
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	payload, err := s.decodeValidated(r, emailSchema())
	if err != nil {
		s.writeError(w, err)
		return
	}

	var check assessment.EmailCheck
	_ = sess.Do(func(st *assessment.State) error {
		check = s.machine.ValidateEmail(st, payload["email"])
		return nil
	})

	result := "valid"
	if !check.OK {
		result = "invalid"
	}
	metrics.Transitions.WithLabelValues("validate-email", result).Inc()

	s.writeJSON(w, http.StatusOK, newStateView(sess, s.machine))
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var receipt *assessment.DispatchReceipt
	err = sess.Do(func(st *assessment.State) error {
		var sendErr error
		receipt, sendErr = s.machine.SendAssessment(r.Context(), st, s.dispatcher)
		return sendErr
	})
	if err != nil {
		metrics.Transitions.WithLabelValues("send-assessment", "failure").Inc()
		s.writeError(w, err)
		return
	}
	metrics.Transitions.WithLabelValues("send-assessment", "success").Inc()

	s.writeJSON(w, http.StatusOK, SendResponse{
		MessageID: receipt.MessageID,
		SentAt:    receipt.SentAt.Format("2006-01-02T15:04:05Z07:00"),
		State:     newStateView(sess, s.machine),
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	_ = sess.Do(func(st *assessment.State) error {
		s.machine.JumpToStart(st)
		return nil
	})
	metrics.Transitions.WithLabelValues("jump-to-start", "success").Inc()

	s.writeJSON(w, http.StatusOK, newStateView(sess, s.machine))
}

// decodeValidated parses the request body into a map and checks it against
// the transition's schema.
func (s *Server) decodeValidated(r *http.Request, schema validation.JSONSchema) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, errors.NewParseError(err.Error())
	}

	if result := validation.ValidateInput(payload, schema); !result.Valid {
		return nil, errors.NewParseError(strings.Join(result.GetErrorMessages(), "; "))
	}

	return payload, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode response", nil)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	stdErr, ok := err.(*errors.StandardError)
	if !ok {
		s.logger.WithError(err).Error("unexpected error", nil)
		http.Error(w, `{"code":"INTERNAL","message":"internal error"}`, http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch stdErr.Code {
	case errors.ErrCodeParseError:
		status = http.StatusBadRequest
	case errors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeSessionExpired:
		status = http.StatusGone
	case errors.ErrCodeInvalidTransition, errors.ErrCodeEmailNotValidated:
		status = http.StatusConflict
	case errors.ErrCodePDFRenderFailed, errors.ErrCodeEmailDeliveryFailed:
		status = http.StatusBadGateway
	}

	s.writeJSON(w, status, stdErr)
}
