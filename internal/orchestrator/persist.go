package orchestrator

import (
	"context"
	"fmt"
	"image"
)

// MatchSource is the source recorded for matches read from the phone window.
const MatchSource = "phone_link"

// PersistRequest is everything recorded for one generation.
type PersistRequest struct {
	Name        string
	Bio         string
	Screenshot  image.Image
	Chat        string
	Prompt      string
	Suggestions []string
}

// PersistResult reports what was recorded. Warnings lists every write that
// failed; the others still happened.
type PersistResult struct {
	MatchID  int64    `yaml:"match_id,omitempty" json:"match_id,omitempty"`
	Folder   string   `yaml:"folder,omitempty"   json:"folder,omitempty"`
	BatchID  string   `yaml:"batch_id,omitempty" json:"batch_id,omitempty"`
	Warnings []string `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// Persist writes the person folder, profile and chat artifacts, and the
// database rows. No failure stops the remaining writes.
func (s *Service) Persist(ctx context.Context, req PersistRequest) *PersistResult {
	res := &PersistResult{}
	warn := func(what string, err error) {
		s.logger.Warn("persist step failed", "step", what, "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", what, err))
	}
	name := req.Name
	if name == "" {
		name = "unknown"
	}

	if s.Artifacts != nil {
		folder, err := s.Artifacts.EnsurePersonFolder(name)
		if err != nil {
			warn("folder", err)
		}
		res.Folder = folder
	}

	matchOK := false
	if s.Store != nil {
		id, err := s.Store.UpsertMatch(ctx, name, MatchSource, "", res.Folder)
		if err != nil {
			warn("match", err)
		} else {
			res.MatchID, matchOK = id, true
		}
	}

	var shotPath string
	if res.Folder != "" {
		p, err := s.Artifacts.SaveProfile(res.Folder, req.Bio, nil, req.Screenshot)
		if err != nil {
			warn("profile artifacts", err)
		}
		shotPath = p
		if req.Chat != "" {
			if _, err := s.Artifacts.SaveChatHistory(res.Folder, req.Chat); err != nil {
				warn("chat history", err)
			}
		}
	}

	if matchOK {
		if err := s.Store.SaveProfile(ctx, res.MatchID, req.Bio, "", shotPath); err != nil {
			warn("db profile", err)
		}
		if err := s.Store.SaveChat(ctx, res.MatchID, req.Chat, ""); err != nil {
			warn("db chat", err)
		}
		batch, err := s.Store.SaveSuggestions(ctx, res.MatchID, req.Prompt, req.Suggestions)
		if err != nil {
			warn("db suggestions", err)
		}
		res.BatchID = batch
	}
	return res
}
