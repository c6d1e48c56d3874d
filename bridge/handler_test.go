package bridge_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/agentcore/agent"
	"github.com/viant/agentcore/bridge"
	"github.com/viant/agentcore/internal/logging"
	"github.com/viant/agentcore/internal/metrics"
)

type responderFunc func(ctx context.Context, prompt string) (string, error)

func (f responderFunc) Respond(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func TestHandler_Invocations(t *testing.T) {
	var testCases = []struct {
		description string
		body        string
		answer      string
		err         error
		expectCode  int
		expectBody  string
		expectInput string
	}{
		{
			description: "prompt answered",
			body:        `{"prompt":"What is 3 + 4?"}`,
			answer:      "7",
			expectCode:  http.StatusOK,
			expectBody:  `{"result":"7"}`,
			expectInput: "What is 3 + 4?",
		},
		{
			description: "missing prompt defaults",
			body:        `{}`,
			answer:      "Hi there",
			expectCode:  http.StatusOK,
			expectBody:  `{"result":"Hi there"}`,
			expectInput: "Hello",
		},
		{
			description: "explicit empty prompt kept",
			body:        `{"prompt":""}`,
			answer:      "What would you like to ask?",
			expectCode:  http.StatusOK,
			expectBody:  `{"result":"What would you like to ask?"}`,
			expectInput: "",
		},
		{
			description: "null prompt defaults",
			body:        `{"prompt":null}`,
			answer:      "Hi there",
			expectCode:  http.StatusOK,
			expectBody:  `{"result":"Hi there"}`,
			expectInput: "Hello",
		},
		{
			description: "empty body defaults",
			answer:      "Hi there",
			expectCode:  http.StatusOK,
			expectBody:  `{"result":"Hi there"}`,
			expectInput: "Hello",
		},
		{
			description: "round budget exhausted",
			body:        `{"prompt":"loop"}`,
			err:         &agent.RoundBudgetError{Rounds: 8},
			expectCode:  http.StatusInternalServerError,
			expectBody:  `{"error":"tool-call round budget of 8 exhausted"}`,
			expectInput: "loop",
		},
		{
			description: "other failure explained in result",
			body:        `{"prompt":"slow"}`,
			err:         &agent.TimeoutError{Elapsed: 2 * time.Minute},
			expectCode:  http.StatusOK,
			expectBody:  `{"result":"Sorry, I could not complete the request: response timed out after 2m0s"}`,
			expectInput: "slow",
		},
		{
			description: "malformed payload",
			body:        `{"prompt":`,
			expectCode:  http.StatusBadRequest,
			expectInput: "<not called>",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			received := "<not called>"
			handler := bridge.NewHandler(responderFunc(func(ctx context.Context, prompt string) (string, error) {
				received = prompt
				return testCase.answer, testCase.err
			}), bridge.WithLogger(logging.Nop()))
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(testCase.body)))
			assert.Equal(t, testCase.expectCode, recorder.Code)
			assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
			assert.Equal(t, testCase.expectInput, received)
			if testCase.expectBody != "" {
				assert.JSONEq(t, testCase.expectBody, recorder.Body.String())
			}
		})
	}
}

func TestHandler_Ping(t *testing.T) {
	handler := bridge.NewHandler(responderFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("not called")
	}))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"Healthy"}`, recorder.Body.String())

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/invocations", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestHandler_Metrics(t *testing.T) {
	m := metrics.New()
	m.ToolCall("add", metrics.OutcomeOK)
	server := httptest.NewServer(bridge.NewHandler(responderFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", nil
	}), bridge.WithMetricsHandler(m.Handler())))
	defer server.Close()

	response, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, string(body), `agentcore_tool_calls_total{outcome="ok",tool="add"} 1`)
}

func TestRun_InvalidFlag(t *testing.T) {
	err := bridge.Run([]string{"--no-such-flag"})
	assert.Error(t, err)
}
