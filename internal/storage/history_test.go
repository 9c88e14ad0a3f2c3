package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jgoulah/campusscraper/internal/errkind"
	"github.com/jgoulah/campusscraper/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(spaces string, at time.Time) models.ParkingSnapshot {
	return models.NewParkingSnapshot([]models.ParkingRecord{
		{Garage: "Parking Structure 1", Level: "Level 1", PermitType: "Gold", AvailableSpaces: spaces},
	}, at)
}

type historyFile struct {
	History []json.RawMessage `json:"history"`
}

func readHistoryFile(t *testing.T, path string) historyFile {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var f historyFile
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestAppendSnapshotCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Data", "scraped_data", "utd_parking_triple_code.json")
	at := time.Date(2025, 10, 14, 9, 30, 0, 0, time.Local)

	h, err := AppendSnapshot(path, testSnapshot("12", at))
	require.NoError(t, err)
	assert.False(t, h.Migrated)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{
    "history": [
        {
            "timestamp": "2025-10-14 09:30:00",
            "record_count": 1,
            "data": [
                {
                    "garage": "Parking Structure 1",
                    "level": "Level 1",
                    "permit_type": "Gold",
                    "available_spaces": "12"
                }
            ]
        }
    ]
}`, string(data))
}

func TestAppendSnapshotTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	first := testSnapshot("12", time.Date(2025, 10, 14, 9, 30, 0, 0, time.Local))
	second := testSnapshot("7", time.Date(2025, 10, 14, 9, 45, 0, 0, time.Local))

	_, err := AppendSnapshot(path, first)
	require.NoError(t, err)
	_, err = AppendSnapshot(path, second)
	require.NoError(t, err)

	f := readHistoryFile(t, path)
	require.Len(t, f.History, 2)

	var got []models.ParkingSnapshot
	for _, raw := range f.History {
		var s models.ParkingSnapshot
		require.NoError(t, json.Unmarshal(raw, &s))
		got = append(got, s)
	}
	assert.Equal(t, []models.ParkingSnapshot{first, second}, got)
}

func TestAppendSnapshotMigratesLegacyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"a":1}]`), 0644))

	snap := testSnapshot("3", time.Date(2025, 10, 14, 10, 0, 0, 0, time.Local))
	h, err := AppendSnapshot(path, snap)
	require.NoError(t, err)
	assert.True(t, h.Migrated)

	f := readHistoryFile(t, path)
	require.Len(t, f.History, 2)
	assert.JSONEq(t, `{"a":1}`, string(f.History[0]))

	want, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(f.History[1]))

	// second append sees the object form
	h, err = AppendSnapshot(path, snap)
	require.NoError(t, err)
	assert.False(t, h.Migrated)
	assert.Len(t, readHistoryFile(t, path).History, 3)
}

func TestAppendSnapshotKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"source":"manual import","history":[]}`), 0644))

	_, err := AppendSnapshot(path, testSnapshot("1", time.Now()))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &obj))
	assert.JSONEq(t, `"manual import"`, string(obj["source"]))
}

func TestAppendSnapshotRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{"history": [`},
		{"empty file", ``},
		{"scalar", `42`},
		{"string", `"history"`},
		{"null", `null`},
		{"missing history key", `{"snapshots": []}`},
		{"history not an array", `{"history": {"a": 1}}`},
		{"history null", `{"history": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "history.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := AppendSnapshot(path, testSnapshot("1", time.Now()))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errkind.ErrIO), "want io error, got %v", err)

			// the file is left as it was
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))
		})
	}
}

func TestAppendSnapshotEmptyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	_, err := AppendSnapshot(path, models.NewParkingSnapshot(nil, time.Now()))
	require.NoError(t, err)

	f := readHistoryFile(t, path)
	require.Len(t, f.History, 1)

	var snap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(f.History[0], &snap))
	assert.Equal(t, "0", string(snap["record_count"]))
	assert.Equal(t, "[]", string(snap["data"]))
}

func TestHistoryEncodeDoesNotEscapeHTML(t *testing.T) {
	h := NewHistory()
	require.NoError(t, h.Append(models.NewParkingSnapshot([]models.ParkingRecord{
		{Garage: "PS1 & PS2", Level: "<1>", PermitType: "Gold", AvailableSpaces: "4"},
	}, time.Now())))

	data, err := h.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"garage": "PS1 & PS2"`)
	assert.Contains(t, string(data), `"level": "<1>"`)
}

func TestHistoryListAndLatest(t *testing.T) {
	h, err := DecodeHistory([]byte(`[
		{"timestamp": "2025-10-14 09:00:00", "record_count": 0, "data": []},
		{"a": 1},
		{"timestamp": "2025-10-14 10:00:00", "record_count": 1, "data": [{"garage": "PS3", "level": "2", "permit_type": "Green", "available_spaces": "9"}]},
		"garbage"
	]`))
	require.NoError(t, err)
	assert.True(t, h.Migrated)

	list := h.List()
	require.Len(t, list, 4)
	require.NotNil(t, list[0].Snapshot)
	assert.Equal(t, "2025-10-14 09:00:00", list[0].Snapshot.Timestamp)
	assert.Nil(t, list[1].Snapshot)
	require.NotNil(t, list[2].Snapshot)
	assert.Nil(t, list[3].Snapshot)
	assert.Equal(t, 3, list[3].Index)

	latest := h.Latest()
	require.NotNil(t, latest)
	assert.Equal(t, "2025-10-14 10:00:00", latest.Timestamp)
	assert.Equal(t, "PS3", latest.Data[0].Garage)
}

func TestHistoryLatestEmpty(t *testing.T) {
	assert.Nil(t, NewHistory().Latest())
}

func TestLoadHistoryMissing(t *testing.T) {
	h, err := LoadHistory(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, h.Entries)
	assert.False(t, h.Migrated)
}

func TestLoadHistoryIsDirectory(t *testing.T) {
	_, err := LoadHistory(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, errkind.ErrIO)
}
