package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/orchestrator"
)

// decode unmarshals tool arguments into a typed struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// textResult serializes v to YAML.
func textResult(v any) (*mcp.CallToolResult, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// errorResult reports err to the client as a tool error carrying its code.
func errorResult(err error) *mcp.CallToolResult {
	code := werrors.CodeOf(err)
	if code == "" {
		code = werrors.ErrInternal
	}
	b, _ := yaml.Marshal(map[string]any{"error": map[string]any{
		"code":    string(code),
		"message": err.Error(),
	}})
	return mcp.NewToolResultError(string(b))
}

// locked runs fn under the provider mutex.
func (s *Server) locked(fn func() (any, error)) (*mcp.CallToolResult, error) {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()
	v, err := fn()
	if err != nil {
		s.logger.Debug("tool failed", "error", err)
		return errorResult(err), nil
	}
	return textResult(v)
}

// written drops cached trees after anything that changes window content.
func (s *Server) written() {
	if s.cache != nil {
		s.cache.InvalidateAll()
	}
}

func (s *Server) handleListWindows(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all := req.GetBool("all", false)
	return s.locked(func() (any, error) {
		return s.windows.List(all)
	})
}

func (s *Server) handleReadProfile(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.locked(func() (any, error) {
		return s.pipeline.ReadProfile(ctx)
	})
}

func (s *Server) handleReadChat(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.locked(func() (any, error) {
		return s.pipeline.ReadChat(ctx)
	})
}

type suggestArgs struct {
	Name          string `json:"name"`
	Tone          string `json:"tone"`
	CustomRequest string `json:"custom_request"`
	Read          bool   `json:"read"`
}

func (s *Server) handleSuggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[suggestArgs](req)
	if err != nil {
		return errorResult(werrors.NewInvalidRequest(err.Error())), nil
	}
	return s.locked(func() (any, error) {
		return s.pipeline.Suggest(ctx, orchestrator.SuggestRequest{
			Name:          args.Name,
			Tone:          args.Tone,
			CustomRequest: args.CustomRequest,
			Read:          args.Read,
		})
	})
}

type pasteArgs struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
	Send bool   `json:"send"`
}

func (s *Server) handlePaste(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[pasteArgs](req)
	if err != nil {
		return errorResult(werrors.NewInvalidRequest(err.Error())), nil
	}
	defer s.written()
	return s.locked(func() (any, error) {
		return s.pipeline.Paste(ctx, orchestrator.PasteRequest{Text: args.Text, Mode: args.Mode, Send: args.Send})
	})
}

type aiTypeArgs struct {
	Text       string `json:"text"`
	SendAfter  bool   `json:"send_after"`
	TitleRegex string `json:"title_regex"`
}

func (s *Server) handleAIType(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[aiTypeArgs](req)
	if err != nil {
		return errorResult(werrors.NewInvalidRequest(err.Error())), nil
	}
	defer s.written()
	return s.locked(func() (any, error) {
		return s.pipeline.AIType(ctx, orchestrator.AITypeRequest{
			Text:       args.Text,
			SendAfter:  args.SendAfter,
			TitleRegex: args.TitleRegex,
		})
	})
}

func (s *Server) handleLocateInput(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	annotate := req.GetString("annotate", "")
	return s.locked(func() (any, error) {
		return s.pipeline.LocateInput(ctx, annotate)
	})
}

func (s *Server) handleDetectDisplays(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.locked(func() (any, error) {
		return s.pipeline.DetectDisplays(ctx)
	})
}

func (s *Server) handleWarm(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.locked(func() (any, error) {
		d, err := s.pipeline.Warm(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"warm": true, "elapsed_ms": d.Milliseconds()}, nil
	})
}
