package store

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	werrors "github.com/mj1618/wingman/internal/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "wingman.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := openTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode;").Scan(&mode))
	require.Equal(t, "wal", mode)

	version, err := GetUserVersion(s.db)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, version)

	for _, table := range []string{"matches", "profiles", "chats", "suggestions"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wingman.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.UpsertMatch(context.Background(), "Jane", SourcePhoneLink, "", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	matches, err := s.ListMatches(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestUpsertMatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.UpsertMatch(ctx, "Jane", SourcePhoneLink, "", "/people/jane")
	require.NoError(t, err)
	id2, err := s.UpsertMatch(ctx, "Jane", SourcePhoneLink, "", "/elsewhere")
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	id3, err := s.UpsertMatch(ctx, "Jane", "browser", "", "")
	require.NoError(t, err)
	require.NotEqual(t, id1, id3)

	matches, err := s.ListMatches(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "/people/jane", matches[1].Folder, "existing match keeps its folder")
}

func TestSuggestionsWorkflow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	s.WithClock(func() time.Time { return now })

	id, err := s.UpsertMatch(ctx, "Jane", SourcePhoneLink, "", "")
	require.NoError(t, err)
	require.NoError(t, s.SaveProfile(ctx, id, "likes hiking", "", ""))
	require.NoError(t, s.SaveChat(ctx, id, "hey\nhi", ""))

	batch, err := s.SaveSuggestions(ctx, id, "prompt", []string{"Hi!", "How are you?"})
	require.NoError(t, err)
	require.Len(t, batch, 26)

	other, err := s.SaveSuggestions(ctx, id, "prompt", []string{"Yo"})
	require.NoError(t, err)
	require.NotEqual(t, batch, other)

	require.NoError(t, s.MarkChosen(ctx, batch, "How are you?"))

	got, err := s.RecentSuggestions(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, other, got[0].BatchID)
	require.Equal(t, batch, got[1].BatchID)
	require.Equal(t, "Jane", got[1].MatchName)
	require.Equal(t, []Suggestion{{Text: "Hi!"}, {Text: "How are you?"}}, got[1].Suggestions)
	require.Equal(t, "How are you?", got[1].ChosenText)
	require.Equal(t, now.Unix(), got[1].CreatedAt.Unix())

	var raw string
	require.NoError(t, s.db.QueryRow("SELECT suggestions_json FROM suggestions WHERE batch_id = ?", batch).Scan(&raw))
	require.JSONEq(t, `[{"text":"Hi!"},{"text":"How are you?"}]`, raw)

	all, err := s.RecentSuggestions(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestMarkChosen_UnknownBatch(t *testing.T) {
	s := openTestStore(t)
	err := s.MarkChosen(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ", "x")
	require.True(t, werrors.Is(err, werrors.ErrPersistenceFailed))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Doe!", "jane_doe"},
		{"  Anna-Lena  ", "anna-lena"},
		{"Zoë 2", "zoë_2"},
		{"!!!", "unknown"},
		{"", "unknown"},
		{"a_b c", "a_b_c"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArtifacts(t *testing.T) {
	base := t.TempDir()
	now := time.Date(2026, 3, 1, 9, 30, 5, 0, time.Local)
	a := NewArtifacts(base).WithClock(func() time.Time { return now })

	folder, err := a.EnsurePersonFolder("Jane Doe!")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, "jane_doe"), folder)

	shot, err := a.SaveProfile(folder, "likes hiking", map[string]any{"age": 29}, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(folder, ProfileImage), shot)

	bio, err := os.ReadFile(filepath.Join(folder, ProfileText))
	require.NoError(t, err)
	require.Equal(t, "likes hiking", string(bio))
	traits, err := os.ReadFile(filepath.Join(folder, ProfileJSON))
	require.NoError(t, err)
	require.JSONEq(t, `{"age":29}`, string(traits))

	chat, err := a.SaveChatHistory(folder, "hey")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(folder, "chat_20260301-093005.md"), chat)
}

func TestArtifacts_EmptyProfileWritesNothing(t *testing.T) {
	a := NewArtifacts(t.TempDir())
	folder, err := a.EnsurePersonFolder("")
	require.NoError(t, err)
	require.Equal(t, "unknown", filepath.Base(folder))

	shot, err := a.SaveProfile(folder, "", nil, nil)
	require.NoError(t, err)
	require.Empty(t, shot)
	entries, err := os.ReadDir(folder)
	require.NoError(t, err)
	require.Empty(t, entries)
}
