package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/agentcore/client"
	"github.com/viant/agentcore/client/auth"
	"github.com/viant/agentcore/client/streamable"
	"github.com/viant/agentcore/internal/mcptest"
	"github.com/viant/mcp-protocol/schema"
)

type sequenceSource struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceSource) Acquire(ctx context.Context) (*auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return &auth.Credential{AccessToken: fmt.Sprintf("token-%d", s.n), Expiry: time.Now().Add(time.Hour)}, nil
}

func newSession(t *testing.T, server *mcptest.Server, options ...client.Option) (*client.Session, *auth.Cache) {
	cache := auth.NewCache(&sequenceSource{}, auth.TokenKey{Issuer: "test", Scopes: auth.DefaultScope})
	options = append(options, client.WithID("correlation-1"))
	session, err := client.New(server.URL, streamable.NewFactory(), cache, options...)
	require.NoError(t, err)
	return session, cache
}

func toolNames(tools []schema.Tool) []string {
	var ret []string
	for _, tool := range tools {
		ret = append(ret, tool.Name)
	}
	return ret
}

func TestSession_Lifecycle(t *testing.T) {
	for _, mode := range []mcptest.Mode{mcptest.ModeJSON, mcptest.ModeSSE} {
		t.Run(fmt.Sprintf("mode %d", mode), func(t *testing.T) {
			server := mcptest.New(mcptest.WithMode(mode))
			defer server.Close()
			ctx := context.Background()
			session, _ := newSession(t, server)
			assert.Equal(t, client.StateUnopened, session.State())

			_, err := session.CallTool(ctx, "add", map[string]interface{}{"a": 1, "b": 2})
			assert.ErrorIs(t, err, client.ErrNotOpen)

			initialized, err := session.Open(ctx)
			require.NoError(t, err)
			assert.Equal(t, "calculator", initialized.ServerInfo.Name)
			assert.Equal(t, client.StateOpen, session.State())
			require.Len(t, server.Calls(schema.MethodNotificationInitialized), 1)

			first, err := session.ListTools(ctx)
			require.NoError(t, err)
			second, err := session.ListTools(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"add", "subtract", "multiply", "divide"}, toolNames(first))
			assert.Equal(t, toolNames(first), toolNames(second))

			result, err := session.CallTool(ctx, "add", map[string]interface{}{"a": 10, "b": 5})
			require.NoError(t, err)
			assert.Equal(t, "15", client.Text(result))

			for _, request := range server.Requests() {
				assert.Equal(t, "correlation-1", request.Header.Get(client.DefaultCorrelationHeader))
				if request.Method != schema.MethodInitialize {
					assert.Equal(t, server.SessionID(), request.Header.Get(streamable.HeaderSessionID))
				}
			}

			require.NoError(t, session.Close(ctx))
			assert.Equal(t, client.StateClosed, session.State())
			assert.Equal(t, 1, server.Deletes())
			_, err = session.CallTool(ctx, "add", map[string]interface{}{"a": 1, "b": 2})
			assert.ErrorIs(t, err, client.ErrSessionClosed)
			_, err = session.Open(ctx)
			assert.ErrorIs(t, err, client.ErrSessionClosed)
			require.NoError(t, session.Close(ctx))
			assert.Equal(t, 1, server.Deletes())
		})
	}
}

func TestSession_ListTools_Pagination(t *testing.T) {
	server := mcptest.New(mcptest.WithPageSize(3))
	defer server.Close()
	ctx := context.Background()
	session, _ := newSession(t, server)
	_, err := session.Open(ctx)
	require.NoError(t, err)

	tools, err := session.ListTools(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"add", "subtract", "multiply", "divide"}, toolNames(tools))
	assert.Len(t, server.Calls(schema.MethodToolsList), 2)
}

func TestSession_CallTool_ToolError(t *testing.T) {
	testCases := []struct {
		description string
		asResult    bool
	}{
		{description: "error object"},
		{description: "isError result", asResult: true},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			server := mcptest.New()
			defer server.Close()
			server.ToolErrorsAsResult = tc.asResult
			ctx := context.Background()
			session, _ := newSession(t, server)
			_, err := session.Open(ctx)
			require.NoError(t, err)

			_, err = session.CallTool(ctx, "divide", map[string]interface{}{"a": 10, "b": 0})
			var toolErr *client.ToolError
			require.True(t, errors.As(err, &toolErr), "got %v", err)
			assert.Equal(t, "divide", toolErr.Tool)
			assert.Contains(t, toolErr.Message, "Cannot divide by zero")
			var transportErr *client.TransportError
			assert.False(t, errors.As(err, &transportErr))

			result, err := session.CallTool(ctx, "divide", map[string]interface{}{"a": 10, "b": 4})
			require.NoError(t, err)
			assert.Equal(t, "2.5", client.Text(result))
		})
	}
}

func TestSession_MismatchedID(t *testing.T) {
	server := mcptest.New()
	defer server.Close()
	ctx := context.Background()
	session, _ := newSession(t, server)
	_, err := session.Open(ctx)
	require.NoError(t, err)

	server.RewriteID = func(method string, id json.RawMessage) json.RawMessage {
		return json.RawMessage(`"someone-else"`)
	}
	_, err = session.CallTool(ctx, "add", map[string]interface{}{"a": 1, "b": 2})
	var protocolErr *client.ProtocolError
	require.True(t, errors.As(err, &protocolErr), "got %v", err)

	server.RewriteID = nil
	result, err := session.CallTool(ctx, "add", map[string]interface{}{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, "3", client.Text(result))
	assert.Equal(t, 0, session.Outstanding())
}

func TestSession_OutstandingTracksInFlight(t *testing.T) {
	server := mcptest.New()
	defer server.Close()
	ctx := context.Background()
	session, _ := newSession(t, server)
	_, err := session.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, session.Outstanding())

	server.Delay = 300 * time.Millisecond
	done := make(chan error, 1)
	go func() {
		_, err := session.CallTool(ctx, "add", map[string]interface{}{"a": 1, "b": 2})
		done <- err
	}()
	require.Eventually(t, func() bool { return session.Outstanding() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, <-done)
	assert.Equal(t, 0, session.Outstanding())
}

func TestSession_ConcurrentExchangeIDs(t *testing.T) {
	server := mcptest.New(mcptest.WithMode(mcptest.ModeSSE))
	defer server.Close()
	ctx := context.Background()
	session, _ := newSession(t, server)
	_, err := session.Open(ctx)
	require.NoError(t, err)

	const calls = 24
	var wg sync.WaitGroup
	results := make([]string, calls)
	errs := make([]error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := session.CallTool(ctx, "multiply", map[string]interface{}{"a": i, "b": 2})
			errs[i] = err
			results[i] = client.Text(result)
		}(i)
	}
	wg.Wait()
	for i := 0; i < calls; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("%d", i*2), results[i])
	}

	var ids []int
	for _, request := range server.Requests() {
		if len(request.ID) == 0 {
			continue
		}
		var id int
		require.NoError(t, json.Unmarshal(request.ID, &id))
		ids = append(ids, id)
	}
	sort.Ints(ids)
	require.Len(t, ids, calls+1)
	for i, id := range ids {
		assert.Equal(t, i+1, id)
	}
}

func TestSession_UnauthorizedThenRefresh(t *testing.T) {
	server := mcptest.New()
	defer server.Close()
	var mu sync.Mutex
	revoked := map[string]bool{}
	server.Authorize = func(token string) bool {
		mu.Lock()
		defer mu.Unlock()
		return !revoked[token]
	}
	ctx := context.Background()
	session, cache := newSession(t, server)
	_, err := session.Open(ctx)
	require.NoError(t, err)

	mu.Lock()
	revoked["token-1"] = true
	mu.Unlock()

	_, err = session.CallTool(ctx, "add", map[string]interface{}{"a": 1, "b": 1})
	var transportErr *client.TransportError
	require.True(t, errors.As(err, &transportErr), "got %v", err)
	assert.Equal(t, streamable.ErrorTypeAuth, transportErr.Type)
	assert.Equal(t, client.StateOpen, session.State())

	result, err := session.CallTool(ctx, "add", map[string]interface{}{"a": 1, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, "2", client.Text(result))

	credential, err := cache.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-2", credential.AccessToken)
	calls := server.Calls(schema.MethodToolsCall)
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer token-2", calls[0].Header.Get("Authorization"))
	assert.Equal(t, server.SessionID(), calls[0].Header.Get(streamable.HeaderSessionID))
	assert.Equal(t, "correlation-1", calls[0].Header.Get(client.DefaultCorrelationHeader))
}

func TestSession_Timeout(t *testing.T) {
	server := mcptest.New()
	defer server.Close()
	ctx := context.Background()
	session, _ := newSession(t, server)
	_, err := session.Open(ctx)
	require.NoError(t, err)

	server.Delay = 300 * time.Millisecond
	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = session.CallTool(timeoutCtx, "add", map[string]interface{}{"a": 1, "b": 1})
	var transportErr *client.TransportError
	require.True(t, errors.As(err, &transportErr), "got %v", err)
	assert.Equal(t, streamable.ErrorTypeTimeout, transportErr.Type)
	assert.Equal(t, client.StateOpen, session.State())
}

func TestNew_Validation(t *testing.T) {
	cache := auth.NewCache(&sequenceSource{}, auth.TokenKey{})
	_, err := client.New("", streamable.NewFactory(), cache)
	assert.Error(t, err)
	_, err = client.New("http://localhost", nil, cache)
	assert.Error(t, err)
	session, err := client.New("http://localhost", streamable.NewFactory(), cache)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID())
}
