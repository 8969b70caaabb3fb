package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-assessor/internal/assessment"
	"credit-assessor/internal/common/errors"
	"credit-assessor/internal/common/logger"
	"credit-assessor/internal/session"
)

type stubDispatcher struct {
	calls    int
	lastSent assessment.CreditSummary
	err      error
}

func (d *stubDispatcher) Dispatch(_ context.Context, summary assessment.CreditSummary, _ string) (*assessment.DispatchReceipt, error) {
	d.calls++
	d.lastSent = summary
	if d.err != nil {
		return nil, d.err
	}
	return &assessment.DispatchReceipt{MessageID: "msg-123", SentAt: time.Now().UTC()}, nil
}

type testHarness struct {
	server     *httptest.Server
	dispatcher *stubDispatcher
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	log := logger.NewTestLogger(t)
	machine := assessment.NewMachine(assessment.DefaultQuestions(), assessment.DefaultThreshold, nil, log)
	store := session.NewStore(machine, time.Minute, log)
	dispatcher := &stubDispatcher{}
	srv := New(machine, store, dispatcher, log)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	return &testHarness{server: ts, dispatcher: dispatcher}
}

func (h *testHarness) post(t *testing.T, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(h.server.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (h *testHarness) get(t *testing.T, path string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(h.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (h *testHarness) createSession(t *testing.T) string {
	t.Helper()
	resp, body := h.post(t, "/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["sessionId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestServer_CreateSession(t *testing.T) {
	h := newHarness(t)

	resp, body := h.post(t, "/sessions", nil)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "questioning", body["phase"])
	assert.Equal(t, float64(0), body["step"])
	assert.Equal(t, float64(5), body["totalSteps"])
	assert.Equal(t, assessment.DefaultQuestions()[0].Text, body["currentQuestion"])
}

func TestServer_GetSession_NotFound(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get(t, "/sessions/does-not-exist")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "SESSION_NOT_FOUND", body["code"])
}

func TestServer_FullApprovalFlow(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t)

	// All five affirmative answers score 4+2+2+1+2 = 11, above the threshold.
	var body map[string]interface{}
	for i := 0; i < 5; i++ {
		var resp *http.Response
		resp, body = h.post(t, "/sessions/"+id+"/advance", map[string]string{"answer": "yes"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, "awaiting_financials", body["phase"])
	assert.Equal(t, float64(11), body["score"])

	resp, body := h.post(t, "/sessions/"+id+"/financials", map[string]interface{}{
		"monthlyIncome":   8000,
		"monthlyExpenses": 4000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", body["phase"])
	assert.Equal(t, float64(48000), body["creditAmount"])
	assert.Equal(t, "$48,000", body["creditFormatted"])

	resp, body = h.post(t, "/sessions/"+id+"/email", map[string]string{"email": "highearner@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["emailValid"])
	assert.Equal(t, "Email address looks good.", body["emailMessage"])

	resp, body = h.post(t, "/sessions/"+id+"/send", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "msg-123", body["messageId"])

	require.Equal(t, 1, h.dispatcher.calls)
	sent := h.dispatcher.lastSent
	assert.Equal(t, "highearner@example.com", sent.Recipient)
	assert.True(t, sent.Approved)
	assert.Equal(t, 48000, sent.CreditAmount)
	require.Len(t, sent.FinancialAnswers, 2)
	assert.Equal(t, "$8,000", sent.FinancialAnswers[0].Answer)
}

func TestServer_RejectionFlow(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t)

	// Only the first question affirmative: score 4, at or below the threshold.
	answers := []string{"yes", "no", "no", "no", "no"}
	var body map[string]interface{}
	for _, a := range answers {
		_, body = h.post(t, "/sessions/"+id+"/advance", map[string]string{"answer": a})
	}

	assert.Equal(t, "rejected", body["phase"])
	assert.Equal(t, float64(4), body["score"])

	// The financial step is unreachable once rejected.
	resp, errBody := h.post(t, "/sessions/"+id+"/financials", map[string]interface{}{
		"monthlyIncome":   8000,
		"monthlyExpenses": 4000,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", errBody["code"])
}

func TestServer_Retreat(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t)

	h.post(t, "/sessions/"+id+"/advance", map[string]string{"answer": "yes"})
	resp, body := h.post(t, "/sessions/"+id+"/retreat", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["step"])
	// The recorded answer is preserved; the score still reflects it.
	assert.Equal(t, float64(4), body["score"])
}

func TestServer_Advance_MissingAnswer(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t)

	resp, body := h.post(t, "/sessions/"+id+"/advance", map[string]string{"wrong": "field"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "PARSE_ERROR", body["code"])
}

func TestServer_Financials_StringAmountsCoerced(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t)

	for i := 0; i < 5; i++ {
		h.post(t, "/sessions/"+id+"/advance", map[string]string{"answer": "yes"})
	}

	resp, body := h.post(t, "/sessions/"+id+"/financials", map[string]interface{}{
		"monthlyIncome":   "$8,000",
		"monthlyExpenses": "not a number",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(96000), body["creditAmount"])
}

func TestServer_Email_NonStringInput(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t)

	resp, body := h.post(t, "/sessions/"+id+"/email", map[string]interface{}{"email": 42})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["emailValid"])
	assert.Equal(t, "Email address input must be text.", body["emailMessage"])
}

func TestServer_Send_BeforeDecisionIsConflict(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t)

	resp, body := h.post(t, "/sessions/"+id+"/send", nil)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
	assert.Equal(t, 0, h.dispatcher.calls)
}

func TestServer_Send_DeliveryFailureIsRetryable(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t)

	for i := 0; i < 5; i++ {
		h.post(t, "/sessions/"+id+"/advance", map[string]string{"answer": "yes"})
	}
	h.post(t, "/sessions/"+id+"/financials", map[string]interface{}{
		"monthlyIncome": 8000, "monthlyExpenses": 4000,
	})
	h.post(t, "/sessions/"+id+"/email", map[string]string{"email": "highearner@example.com"})

	h.dispatcher.err = errors.NewEmailDeliveryFailedError("smtp: connection reset")
	resp, body := h.post(t, "/sessions/"+id+"/send", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "EMAIL_DELIVERY_FAILED", body["code"])

	// The session is untouched; the same send simply succeeds on retry.
	h.dispatcher.err = nil
	resp, body = h.post(t, "/sessions/"+id+"/send", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "msg-123", body["messageId"])
}

func TestServer_Restart(t *testing.T) {
	h := newHarness(t)
	id := h.createSession(t)

	for i := 0; i < 5; i++ {
		h.post(t, "/sessions/"+id+"/advance", map[string]string{"answer": "yes"})
	}

	resp, body := h.post(t, "/sessions/"+id+"/restart", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "questioning", body["phase"])
	assert.Equal(t, float64(0), body["step"])
	assert.Equal(t, float64(0), body["score"])
	assert.Equal(t, id, body["sessionId"], "restart keeps the session id")
}
