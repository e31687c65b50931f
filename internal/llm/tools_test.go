package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingExec struct {
	calls []string
}

func (r *recordingExec) Definitions() []ToolDefinition {
	return []ToolDefinition{{Type: "function", Function: FunctionDef{Name: "press_enter", Parameters: json.RawMessage(`{"type":"object"}`)}}}
}

func (r *recordingExec) Execute(ctx context.Context, name string, args json.RawMessage) any {
	r.calls = append(r.calls, name+string(args))
	return map[string]any{"ok": true}
}

func TestRunTools_LoopsUntilText(t *testing.T) {
	var mu sync.Mutex
	var requests []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		requests = append(requests, body)
		n := len(requests)
		mu.Unlock()
		if n == 1 {
			writeChoice(w, "", ToolCall{ID: "call_1", Type: "function", Function: FunctionCall{Name: "press_enter", Arguments: `{"times":1}`}})
			return
		}
		writeChoice(w, "sent")
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	exec := &recordingExec{}
	run, err := c.RunTools(context.Background(), "sys", "user", exec)
	require.NoError(t, err)

	require.True(t, run.DidTools)
	require.Equal(t, "sent", run.Text)
	require.Equal(t, 2, run.Iterations)
	require.True(t, run.Called("press_enter"))
	require.Equal(t, []string{`press_enter{"times":1}`}, exec.calls)

	// second request carries the assistant tool call and the tool result
	msgs := requests[1]["messages"].([]any)
	require.Len(t, msgs, 4)
	assistant := msgs[2].(map[string]any)
	require.Equal(t, "assistant", assistant["role"])
	require.Len(t, assistant["tool_calls"], 1)
	tool := msgs[3].(map[string]any)
	require.Equal(t, "tool", tool["role"])
	require.Equal(t, "call_1", tool["tool_call_id"])
	require.Equal(t, "press_enter", tool["name"])
	require.JSONEq(t, `{"ok":true}`, tool["content"].(string))
}

func TestRunTools_IterationCap(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeChoice(w, "", ToolCall{ID: "c", Type: "function", Function: FunctionCall{Name: "press_enter"}})
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	c.opts.MaxToolIterations = 3
	run, err := c.RunTools(context.Background(), "sys", "user", &recordingExec{})
	require.NoError(t, err)
	require.True(t, run.Truncated)
	require.Equal(t, 3, run.Iterations)
	require.Equal(t, 3, calls)
	require.Len(t, run.Calls, 3)
}

func TestRunTools_NativeFallbackHasNoTools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == openAIPath {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"message":{"content":"I cannot use tools"}}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(srv.URL)
	exec := &recordingExec{}
	run, err := c.RunTools(context.Background(), "sys", "user", exec)
	require.NoError(t, err)
	require.False(t, run.DidTools)
	require.True(t, run.Native)
	require.Empty(t, exec.calls)
}
