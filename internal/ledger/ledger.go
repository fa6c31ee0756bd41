// Package ledger persists Kakao lookup results to a JSON file so repeat
// builds skip API calls for places already resolved, including places
// that were searched and not found.
package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/neon-guide/guide-cli/internal/model"
)

// Entry is one resolved lookup. A negative result is stored with
// Found=false so the place is not searched again; positive results
// omit the field entirely.
type Entry struct {
	Found    *bool  `json:"found,omitempty"`
	ID       string `json:"id,omitempty"`
	PlaceURL string `json:"place_url,omitempty"`
	X        string `json:"x,omitempty"`
	Y        string `json:"y,omitempty"`
}

// Miss reports whether the entry records a search that found nothing.
func (e Entry) Miss() bool {
	return e.Found != nil && !*e.Found
}

// NotFound returns the sentinel entry for a failed search.
func NotFound() Entry {
	f := false
	return Entry{Found: &f}
}

// Ledger is a whole-file JSON map keyed by the place merge key.
// It is not safe for concurrent use.
type Ledger struct {
	path string
	data map[string]Entry
}

func New(path string) *Ledger {
	return &Ledger{path: path, data: make(map[string]Entry)}
}

// Load reads the ledger file. A missing file is an empty ledger; a
// corrupt file is logged and treated as empty rather than aborting
// the build.
func (l *Ledger) Load() error {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrap(err, "ledger: read file")
	}
	if err := json.Unmarshal(raw, &l.data); err != nil {
		zap.L().Warn("ledger file unreadable, starting empty",
			zap.String("path", l.path), zap.Error(err))
		l.data = make(map[string]Entry)
		return nil
	}
	zap.L().Info("ledger loaded", zap.String("path", l.path), zap.Int("entries", len(l.data)))
	return nil
}

// Save writes the full ledger back to disk, creating parent
// directories as needed.
func (l *Ledger) Save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return eris.Wrap(err, "ledger: create directory")
	}
	raw, err := json.MarshalIndent(l.data, "", "  ")
	if err != nil {
		return eris.Wrap(err, "ledger: marshal")
	}
	if err := os.WriteFile(l.path, raw, 0o644); err != nil {
		return eris.Wrap(err, "ledger: write file")
	}
	zap.L().Info("ledger saved", zap.String("path", l.path), zap.Int("entries", len(l.data)))
	return nil
}

// Get looks up the entry for a place identified by name and address.
func (l *Ledger) Get(name, address string) (Entry, bool) {
	e, ok := l.data[model.MergeKey(name, address)]
	return e, ok
}

// Update records the lookup result for a place.
func (l *Ledger) Update(name, address string, e Entry) {
	l.data[model.MergeKey(name, address)] = e
}

// Len returns the number of stored entries.
func (l *Ledger) Len() int {
	return len(l.data)
}
