package storage

import (
	"github.com/jgoulah/campusscraper/internal/errkind"
	"github.com/jgoulah/campusscraper/pkg/models"
	"github.com/sirupsen/logrus"
)

// WriteDiningReport replaces the file at path with the rendered report
func WriteDiningReport(path string, report models.DiningReport) error {
	if err := writeFileAtomic(path, []byte(report.Render()), 0644); err != nil {
		logrus.WithError(err).WithField("path", path).Error("Failed to write dining report")
		return errkind.Wrap(errkind.ErrIO, err, "saving dining report")
	}

	logrus.WithFields(logrus.Fields{
		"path":    path,
		"days":    len(report.Sections),
		"records": report.RecordCount(),
	}).Info("Saved dining report")
	return nil
}
