package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle flips between light and dark. Anything unknown counts as light.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Preferences is what the dashboard remembers between runs.
type Preferences struct {
	Theme   Theme    `yaml:"theme"`
	Session *Session `yaml:"session,omitempty"`
}

// Store reads and writes preferences as YAML at a fixed path.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns light-theme defaults when the file does not exist yet.
func (s *Store) Load() (*Preferences, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Preferences{Theme: ThemeLight}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading preferences file: %w", err)
	}

	var prefs Preferences
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("parsing preferences file: %w", err)
	}
	if prefs.Theme != ThemeDark {
		prefs.Theme = ThemeLight
	}
	return &prefs, nil
}

func (s *Store) Save(prefs *Preferences) error {
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating preferences directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing preferences file: %w", err)
	}
	return nil
}

// ToggleTheme flips and persists the theme.
func (s *Store) ToggleTheme() (Theme, error) {
	prefs, err := s.Load()
	if err != nil {
		return "", err
	}
	prefs.Theme = prefs.Theme.Toggle()
	return prefs.Theme, s.Save(prefs)
}

// Login starts and persists a new session, replacing any previous one.
func (s *Store) Login(shopURL string, now time.Time) (*Session, error) {
	sess, err := Login(shopURL, now)
	if err != nil {
		return nil, err
	}
	prefs, err := s.Load()
	if err != nil {
		return nil, err
	}
	prefs.Session = sess
	return sess, s.Save(prefs)
}

// Logout destroys the persisted session. Logging out twice is not an error.
func (s *Store) Logout() error {
	prefs, err := s.Load()
	if err != nil {
		return err
	}
	if prefs.Session == nil {
		return nil
	}
	prefs.Session = nil
	return s.Save(prefs)
}

// Current returns the persisted session or ErrNotLoggedIn.
func (s *Store) Current() (*Session, error) {
	prefs, err := s.Load()
	if err != nil {
		return nil, err
	}
	if prefs.Session == nil {
		return nil, ErrNotLoggedIn
	}
	return prefs.Session, nil
}
