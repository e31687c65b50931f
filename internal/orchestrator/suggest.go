package orchestrator

import (
	"context"
	"image"

	werrors "github.com/mj1618/wingman/internal/errors"
)

// SuggestRequest drives the read, generate and persist pipeline.
type SuggestRequest struct {
	Name          string
	Tone          string
	CustomRequest string
	// Read forces fresh reads of the window. Otherwise the session's bio
	// and chat are reused when present.
	Read bool
}

// SuggestResult is the outcome of Suggest.
type SuggestResult struct {
	Suggestions []string `yaml:"suggestions"           json:"suggestions"`
	BatchID     string   `yaml:"batch_id,omitempty"    json:"batch_id,omitempty"`
	MatchID     int64    `yaml:"match_id,omitempty"    json:"match_id,omitempty"`
	Folder      string   `yaml:"folder,omitempty"      json:"folder,omitempty"`
	BioSource   string   `yaml:"bio_source,omitempty"  json:"bio_source,omitempty"`
	ChatSource  string   `yaml:"chat_source,omitempty" json:"chat_source,omitempty"`
	Warnings    []string `yaml:"warnings,omitempty"    json:"warnings,omitempty"`
}

// Suggest reads the window (or reuses the session), generates replies, and
// records everything.
func (s *Service) Suggest(ctx context.Context, req SuggestRequest) (*SuggestResult, error) {
	sess := s.loadSession()
	out := &SuggestResult{}
	var shot image.Image

	if req.Read || sess.Bio == "" {
		if pr, err := s.ReadProfile(ctx); err != nil {
			if !werrors.Is(err, werrors.ErrNoText) {
				return nil, err
			}
			out.Warnings = append(out.Warnings, err.Error())
		} else {
			sess.Bio, sess.BioSource, shot = pr.Text, pr.Source, pr.Screenshot
			out.Warnings = append(out.Warnings, pr.Warnings...)
		}
	}
	if req.Read || sess.Chat == "" {
		if cr, err := s.ReadChat(ctx); err != nil {
			if !werrors.Is(err, werrors.ErrNoText) {
				return nil, err
			}
			out.Warnings = append(out.Warnings, err.Error())
		} else {
			sess.Chat, sess.ChatSource = cr.Text, cr.Source
			out.Warnings = append(out.Warnings, cr.Warnings...)
		}
	}
	if sess.Bio == "" && sess.Chat == "" {
		return nil, werrors.NewNoText("chat or profile")
	}
	if req.Name != "" {
		sess.Name = req.Name
	}

	replies, prompt, err := s.Generate(ctx, GenerateRequest{
		Bio:           sess.Bio,
		History:       sess.Chat,
		Tone:          req.Tone,
		CustomRequest: req.CustomRequest,
	})
	if err != nil {
		return nil, err
	}

	pr := s.Persist(ctx, PersistRequest{
		Name:        sess.Name,
		Bio:         sess.Bio,
		Screenshot:  shot,
		Chat:        sess.Chat,
		Prompt:      prompt,
		Suggestions: replies,
	})

	// ReadProfile and ReadChat saved their own copies; merge on top.
	latest := s.loadSession()
	latest.Name = sess.Name
	latest.Bio, latest.BioSource = sess.Bio, sess.BioSource
	latest.Chat, latest.ChatSource = sess.Chat, sess.ChatSource
	latest.Suggestions = replies
	latest.BatchID, latest.MatchID, latest.Folder = pr.BatchID, pr.MatchID, pr.Folder
	s.saveSession(latest)

	out.Suggestions = replies
	out.BatchID, out.MatchID, out.Folder = pr.BatchID, pr.MatchID, pr.Folder
	out.BioSource, out.ChatSource = sess.BioSource, sess.ChatSource
	out.Warnings = append(out.Warnings, pr.Warnings...)
	return out, nil
}
