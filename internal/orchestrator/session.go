package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SessionFile is the session file name inside storage.base_dir.
const SessionFile = "session.yaml"

// Session carries state between separate CLI invocations.
type Session struct {
	Name        string    `yaml:"name,omitempty"        json:"name,omitempty"`
	Bio         string    `yaml:"bio,omitempty"         json:"bio,omitempty"`
	BioSource   string    `yaml:"bio_source,omitempty"  json:"bio_source,omitempty"`
	Chat        string    `yaml:"chat,omitempty"        json:"chat,omitempty"`
	ChatSource  string    `yaml:"chat_source,omitempty" json:"chat_source,omitempty"`
	Suggestions []string  `yaml:"suggestions,omitempty" json:"suggestions,omitempty"`
	BatchID     string    `yaml:"batch_id,omitempty"    json:"batch_id,omitempty"`
	MatchID     int64     `yaml:"match_id,omitempty"    json:"match_id,omitempty"`
	Folder      string    `yaml:"folder,omitempty"      json:"folder,omitempty"`
	LastPaste   time.Time `yaml:"last_paste,omitempty"  json:"last_paste,omitempty"`
	UpdatedAt   time.Time `yaml:"updated_at,omitempty"  json:"updated_at,omitempty"`
}

// SessionStore reads and writes the session file.
type SessionStore struct {
	path string
	now  func() time.Time
}

// NewSessionStore creates a store for path.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, now: time.Now}
}

// Path returns the session file path.
func (s *SessionStore) Path() string { return s.path }

// Load reads the session. A missing file is an empty session.
func (s *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var sess Session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return &sess, nil
}

// Save writes the session atomically.
func (s *SessionStore) Save(sess *Session) error {
	sess.UpdatedAt = s.now()
	data, err := yaml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("creating temp session: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Reset removes the session file.
func (s *SessionStore) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
