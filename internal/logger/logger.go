// Package logger configures the diagnostic log file shared by both scrapers.
//
// Entries are appended one per line:
//
//	2025-10-14 09:30:01,512 [INFO] Found parking structures count=4
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const timestampLayout = "2006-01-02 15:04:05,000"

// LineFormatter renders entries as "<timestamp> [<LEVEL>] <message> k=v ..."
type LineFormatter struct{}

// Format implements logrus.Formatter
func (f *LineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	fmt.Fprintf(&b, "%s [%s] %s", entry.Time.Format(timestampLayout), strings.ToUpper(entry.Level.String()), entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := entry.Data[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		s := fmt.Sprint(v)
		if strings.ContainsAny(s, " \t\"=") {
			s = fmt.Sprintf("%q", s)
		}
		fmt.Fprintf(&b, " %s=%s", k, s)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Setup points the standard logrus logger at path, opened in append mode.
// The returned closer must be closed once the run finishes.
func Setup(path, level string) (io.Closer, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	Configure(logrus.StandardLogger(), f, lvl)
	return f, nil
}

// Configure applies the line format and level to l
func Configure(l *logrus.Logger, out io.Writer, level logrus.Level) {
	l.SetOutput(out)
	l.SetFormatter(&LineFormatter{})
	l.SetLevel(level)
}
