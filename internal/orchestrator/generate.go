package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	werrors "github.com/mj1618/wingman/internal/errors"
	"github.com/mj1618/wingman/internal/llm"
)

// MaxReplies caps the number of parsed suggestions.
const MaxReplies = 5

// ReplySystemPrompt instructs the model to propose replies.
const ReplySystemPrompt = "You are Wingman, a helpful assistant for dating chats. " +
	"Given a bio and recent chat text, propose 3–5 concise replies " +
	"(<= 25 words, 1–2 sentences, playful, respectful). " +
	"Prefer ending with a light question when natural. " +
	"Do not send messages automatically."

// GenerateRequest is the input to Generate.
type GenerateRequest struct {
	Bio                string `json:"bio"`
	History            string `json:"history"`
	Tone               string `json:"tone"`
	AskQuestionDefault string `json:"ask_question_default"`
	MaxChars           int    `json:"max_chars"`
	CustomRequest      string `json:"custom_request"`
}

// withDefaults fills unset preferences from the ui config.
func (s *Service) withDefaults(req GenerateRequest) GenerateRequest {
	if req.Tone == "" {
		req.Tone = s.Config.UI.Tone
	}
	if req.Tone == "" {
		req.Tone = "playful"
	}
	if req.AskQuestionDefault == "" {
		req.AskQuestionDefault = s.Config.UI.AskQuestionDefault
	}
	if req.MaxChars <= 0 {
		req.MaxChars = s.Config.UI.MaxReplyChars
	}
	return req
}

// Generate asks the model for up to MaxReplies suggestions. The returned
// prompt is the user payload that was sent.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) ([]string, string, error) {
	req = s.withDefaults(req)
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, "", werrors.NewInternal(err)
	}
	prompt := string(payload)

	resp, err := s.Model.Chat(ctx, []llm.Message{
		{Role: "system", Content: ReplySystemPrompt},
		{Role: "user", Content: prompt},
	}, nil)
	if err != nil {
		return nil, prompt, err
	}
	replies := ParseReplies(resp.Content)
	if len(replies) == 0 {
		return nil, prompt, werrors.NewGenerationFailed(errors.New("model returned no suggestions"))
	}
	s.logger.Info("generated suggestions", "count", len(replies), "custom", req.CustomRequest != "")
	return replies, prompt, nil
}

// ParseReplies extracts reply strings from model output: a JSON array
// (optionally inside a code fence) when possible, otherwise one reply per
// non-empty line with bullets and inline markdown removed. At most
// MaxReplies are returned.
func ParseReplies(content string) []string {
	content = strings.TrimSpace(content)
	if replies, ok := parseJSONReplies(stripFence(content)); ok {
		return capReplies(replies)
	}

	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "-• ")
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		if plain := stripInlineMarkdown(line); plain != "" {
			out = append(out, plain)
		}
	}
	return capReplies(out)
}

func capReplies(r []string) []string {
	if len(r) > MaxReplies {
		return r[:MaxReplies]
	}
	return r
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func parseJSONReplies(s string) ([]string, bool) {
	var items []any
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var str string
		switch v := it.(type) {
		case string:
			str = v
		case map[string]any:
			if t, ok := v["text"].(string); ok {
				str = t
			} else {
				b, _ := json.Marshal(v)
				str = string(b)
			}
		case nil:
			continue
		default:
			str = fmt.Sprint(v)
		}
		if str = strings.TrimSpace(str); str != "" {
			out = append(out, str)
		}
	}
	return out, true
}

var markdown = goldmark.New()

// stripInlineMarkdown renders one line of markdown to plain text.
func stripInlineMarkdown(line string) string {
	src := []byte(line)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			buf.Write(t.Label(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}
