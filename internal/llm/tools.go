package llm

import (
	"context"
	"encoding/json"
)

// ToolExecutor runs the tools offered to the model.
type ToolExecutor interface {
	Definitions() []ToolDefinition
	// Execute runs one call and returns a JSON-serialisable result. Tool
	// failures are reported in the result, not as errors.
	Execute(ctx context.Context, name string, args json.RawMessage) any
}

// ToolCallRecord is one executed call.
type ToolCallRecord struct {
	Name      string          `yaml:"name"   json:"name"`
	Arguments json.RawMessage `yaml:"-"      json:"arguments"`
	Result    any             `yaml:"result" json:"result"`
}

// ToolRun is the outcome of RunTools.
type ToolRun struct {
	DidTools   bool             `yaml:"did_tools"           json:"did_tools"`
	Text       string           `yaml:"text,omitempty"      json:"text,omitempty"`
	Iterations int              `yaml:"iterations"          json:"iterations"`
	Calls      []ToolCallRecord `yaml:"calls,omitempty"     json:"calls,omitempty"`
	Truncated  bool             `yaml:"truncated,omitempty" json:"truncated,omitempty"`
	Native     bool             `yaml:"native,omitempty"    json:"native,omitempty"`
}

// Called reports whether a tool with the given name was executed.
func (r *ToolRun) Called(name string) bool {
	for _, c := range r.Calls {
		if c.Name == name {
			return true
		}
	}
	return false
}

// RunTools drives the tool-calling loop: ask the model, execute any tool
// calls it returns, feed the results back, and repeat until it answers with
// plain text or MaxToolIterations requests have been made.
func (c *Client) RunTools(ctx context.Context, system, user string, exec ToolExecutor) (*ToolRun, error) {
	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	defs := exec.Definitions()
	run := &ToolRun{}

	for run.Iterations < c.opts.MaxToolIterations {
		run.Iterations++
		resp, err := c.Chat(ctx, messages, defs)
		if err != nil {
			return run, err
		}
		if resp.Native {
			run.Native = true
			run.Text = resp.Content
			return run, nil
		}
		if len(resp.ToolCalls) == 0 {
			run.Text = resp.Content
			return run, nil
		}

		run.DidTools = true
		messages = append(messages, Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			args := json.RawMessage(tc.Function.Arguments)
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			result := exec.Execute(ctx, tc.Function.Name, args)
			c.logger.Debug("tool executed", "tool", tc.Function.Name, "result", result)
			run.Calls = append(run.Calls, ToolCallRecord{Name: tc.Function.Name, Arguments: args, Result: result})

			content, err := json.Marshal(result)
			if err != nil {
				content = []byte(`{"ok":false,"error":"unserialisable result"}`)
			}
			messages = append(messages, Message{
				Role:       "tool",
				ToolCallID: tc.ID,
				Name:       tc.Function.Name,
				Content:    string(content),
			})
		}
		if err := ctx.Err(); err != nil {
			return run, err
		}
	}

	run.Truncated = true
	c.logger.Warn("tool loop stopped at iteration cap", "iterations", run.Iterations)
	return run, nil
}
