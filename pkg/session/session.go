// Package session holds the per-user state of an interactive review session:
// the loaded dataset and the chosen text/label columns.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/reviewlab/pkg/dataset"
)

// Columns is the user's choice of text and label column. The names are not
// checked against the dataset schema.
type Columns struct {
	Text  string `json:"text_column"`
	Label string `json:"label_column"`
}

// Config describes where a session finds its default dataset. MaxSessions
// and IdleTimeout bound a Manager; zero selects the defaults.
type Config struct {
	DefaultPath string
	Parse       dataset.Options
	Logger      *slog.Logger
	MaxSessions int
	IdleTimeout time.Duration
}

// Session is the state of one interactive session. The zero value is not
// usable; create sessions with New or Manager.Open.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.RWMutex
	cfg     Config
	logger  *slog.Logger
	data    *dataset.Dataset
	columns *Columns
}

// New creates an empty session.
func New(id string, cfg Config) *Session {
	if cfg.DefaultPath == "" {
		cfg.DefaultPath = dataset.DefaultPath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Parse.Logger == nil {
		cfg.Parse.Logger = logger
	}
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		cfg:       cfg,
		logger:    logger.With("session", id),
	}
}

// SetDataset replaces the stored dataset wholesale.
func (s *Session) SetDataset(ds *dataset.Dataset) {
	s.mu.Lock()
	s.data = ds
	s.mu.Unlock()
}

// Dataset returns the stored dataset, or nil if none was set.
func (s *Session) Dataset() *dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// SetColumns stores the text and label column names together.
func (s *Session) SetColumns(text, label string) {
	s.mu.Lock()
	s.columns = &Columns{Text: text, Label: label}
	s.mu.Unlock()
}

// Columns returns the selected columns; ok is false if none were set.
func (s *Session) Columns() (Columns, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.columns == nil {
		return Columns{}, false
	}
	return *s.columns, true
}

// EnsureDatasetLoaded loads the default dataset if nothing is stored yet.
// It reports whether a dataset is available afterwards. Once a dataset is
// stored, later calls do nothing.
func (s *Session) EnsureDatasetLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data != nil {
		return true
	}
	ds := dataset.LoadDefault(s.cfg.DefaultPath, s.cfg.Parse)
	if ds == nil {
		s.logger.Debug("no default dataset", "path", s.cfg.DefaultPath)
		return false
	}
	s.data = ds
	return true
}
