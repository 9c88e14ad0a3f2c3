package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jgoulah/campusscraper/internal/errkind"
	"github.com/jgoulah/campusscraper/pkg/models"
	"github.com/sirupsen/logrus"
)

const historyKey = "history"

// History is the decoded parking history file. Entries stay as raw JSON so
// that snapshots written by other versions are rewritten unchanged.
type History struct {
	Entries []json.RawMessage
	// Migrated is set when the file held the legacy bare array
	Migrated bool

	extra map[string]json.RawMessage // other top-level keys, kept on rewrite
}

// HistoryEntry is one history element, decoded when it is a snapshot
type HistoryEntry struct {
	Index    int
	Snapshot *models.ParkingSnapshot // nil for entries that are not snapshots
	Raw      json.RawMessage
}

// NewHistory returns an empty history
func NewHistory() *History {
	return &History{Entries: make([]json.RawMessage, 0)}
}

// DecodeHistory decodes the object form first and falls back to the legacy
// top-level array. Any other shape is an error.
func DecodeHistory(data []byte) (*History, error) {
	var obj map[string]json.RawMessage
	objErr := json.Unmarshal(data, &obj)
	if objErr == nil {
		return decodeHistoryObject(obj)
	}

	var typeErr *json.UnmarshalTypeError
	if !errors.As(objErr, &typeErr) {
		return nil, fmt.Errorf("decoding history file: %w", objErr)
	}

	var legacy []json.RawMessage
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("history file is neither an object nor a legacy array: %w", err)
	}

	return &History{Entries: legacy, Migrated: true}, nil
}

func decodeHistoryObject(obj map[string]json.RawMessage) (*History, error) {
	if obj == nil {
		return nil, errors.New("history file holds null")
	}

	raw, ok := obj[historyKey]
	if !ok {
		return nil, fmt.Errorf("history file has no %q key", historyKey)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", historyKey, err)
	}
	if entries == nil {
		return nil, fmt.Errorf("%q is null", historyKey)
	}

	delete(obj, historyKey)
	return &History{Entries: entries, extra: obj}, nil
}

// Append adds snapshot to the end of the history
func (h *History) Append(snapshot models.ParkingSnapshot) error {
	raw, err := marshalJSON(snapshot, "")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	h.Entries = append(h.Entries, raw)
	return nil
}

// Encode renders the history indented by four spaces. HTML characters are
// written as-is.
func (h *History) Encode() ([]byte, error) {
	out := make(map[string]any, len(h.extra)+1)
	for k, v := range h.extra {
		out[k] = v
	}

	entries := h.Entries
	if entries == nil {
		entries = []json.RawMessage{}
	}
	out[historyKey] = entries

	return marshalJSON(out, "    ")
}

// List returns every entry, decoding the ones that have a snapshot's shape
func (h *History) List() []HistoryEntry {
	list := make([]HistoryEntry, 0, len(h.Entries))
	for i, raw := range h.Entries {
		entry := HistoryEntry{Index: i, Raw: raw}

		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err == nil {
			if _, ok := probe["timestamp"]; ok {
				var snap models.ParkingSnapshot
				if err := json.Unmarshal(raw, &snap); err == nil {
					entry.Snapshot = &snap
				}
			}
		}

		list = append(list, entry)
	}
	return list
}

// Latest returns the most recent snapshot-shaped entry, or nil
func (h *History) Latest() *models.ParkingSnapshot {
	list := h.List()
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Snapshot != nil {
			return list[i].Snapshot
		}
	}
	return nil
}

// LoadHistory reads the history file at path. A missing file yields an
// empty history.
func LoadHistory(path string) (*History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewHistory(), nil
		}
		return nil, errkind.Wrap(errkind.ErrIO, err, "reading history")
	}

	h, err := DecodeHistory(data)
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrIO, err, "loading %s", path)
	}
	return h, nil
}

// AppendSnapshot reads the history at path, appends snapshot and writes
// the whole history back
func AppendSnapshot(path string, snapshot models.ParkingSnapshot) (*History, error) {
	log := logrus.WithField("path", path)

	h, err := LoadHistory(path)
	if err != nil {
		log.WithError(err).Error("Failed to save JSON")
		return nil, err
	}

	if h.Migrated {
		log.WithField("entries", len(h.Entries)).Info("Converting legacy history array to object form")
	}

	if err := h.Append(snapshot); err != nil {
		log.WithError(err).Error("Failed to save JSON")
		return nil, errkind.Wrap(errkind.ErrIO, err, "appending snapshot")
	}

	data, err := h.Encode()
	if err != nil {
		log.WithError(err).Error("Failed to save JSON")
		return nil, errkind.Wrap(errkind.ErrIO, err, "encoding history")
	}

	if err := writeFileAtomic(path, data, 0644); err != nil {
		log.WithError(err).Error("Failed to save JSON")
		return nil, errkind.Wrap(errkind.ErrIO, err, "saving history")
	}

	log.WithFields(logrus.Fields{
		"records":   snapshot.RecordCount,
		"snapshots": len(h.Entries),
	}).Info("Saved records to history")
	return h, nil
}

// marshalJSON encodes v without HTML escaping or a trailing newline
func marshalJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
