package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/jgoulah/campusscraper/internal/errkind"
	"github.com/jgoulah/campusscraper/pkg/models"
	"github.com/sirupsen/logrus"
)

// AppendCSV appends one row per record to the CSV file at path:
// timestamp, garage, level, permit_type, available_spaces. There is no
// header row.
func AppendCSV(path string, snapshot models.ParkingSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "creating csv directory")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "opening csv %q", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, r := range snapshot.Data {
		row := []string{snapshot.Timestamp, r.Garage, r.Level, r.PermitType, r.AvailableSpaces}
		if err := w.Write(row); err != nil {
			return errkind.Wrap(errkind.ErrIO, err, "writing csv row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "flushing csv")
	}

	if err := f.Close(); err != nil {
		return errkind.Wrap(errkind.ErrIO, err, "closing csv")
	}

	logrus.WithFields(logrus.Fields{"path": path, "records": len(snapshot.Data)}).Info("Saved records to CSV")
	return nil
}
