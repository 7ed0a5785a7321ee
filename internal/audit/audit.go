// Package audit persists append-only records of submission outcomes and,
// on delivery failure, the full sanitized message for manual recovery.
package audit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/textbridge/contact-backend/internal/sanitizer"
)

// Outcome status labels
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// timeLayout is the timestamp format used in all records
const timeLayout = "2006-01-02 15:04:05"

// separator fences failure store blocks
const separator = "=================================================="

// Entry is one terminal submission outcome
type Entry struct {
	Timestamp time.Time
	Status    string
	ClientIP  string
}

// FailedSubmission holds the full sanitized content of a message whose
// delivery failed, retained so an operator can resend it manually
type FailedSubmission struct {
	Timestamp time.Time
	ClientIP  string
	Name      string
	Email     string
	Subject   string
	Message   string
}

// Log appends submission outcomes to a newline-delimited audit file
type Log struct {
	path   string
	logger *slog.Logger
}

// NewLog creates an audit log writing to path
func NewLog(path string, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{path: path, logger: logger}
}

// Record appends one outcome line. Logging failures never propagate to
// the caller; a submission must not fail because its audit write did.
func (l *Log) Record(e Entry) {
	line := fmt.Sprintf("[%s] [%s] IP: %s\n",
		e.Timestamp.Format(timeLayout), e.Status, sanitizer.LogSafe(e.ClientIP))
	if err := appendLine(l.path, line); err != nil {
		l.logger.Error("failed to write audit entry", "error", err)
	}
}

// FailureStore appends full failed-submission blocks, fenced by a visual
// separator line, to a recovery file
type FailureStore struct {
	path   string
	logger *slog.Logger
}

// NewFailureStore creates a failure store writing to path
func NewFailureStore(path string, logger *slog.Logger) *FailureStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FailureStore{path: path, logger: logger}
}

// Record appends the failed submission. Best effort: errors are logged,
// never returned.
func (s *FailureStore) Record(rec FailedSubmission) {
	var b strings.Builder
	b.WriteString(separator + "\n")
	b.WriteString("Failed: " + rec.Timestamp.Format(timeLayout) + "\n")
	b.WriteString("IP: " + sanitizer.LogSafe(rec.ClientIP) + "\n")
	b.WriteString("Name: " + sanitizer.LogSafe(rec.Name) + "\n")
	b.WriteString("Email: " + sanitizer.LogSafe(rec.Email) + "\n")
	b.WriteString("Subject: " + sanitizer.LogSafe(rec.Subject) + "\n")
	b.WriteString("Message: " + sanitizer.LogSafe(rec.Message) + "\n")
	b.WriteString(separator + "\n")

	if err := appendLine(s.path, b.String()); err != nil {
		s.logger.Error("failed to persist failed submission", "error", err)
	}
}

// appendLine writes in exclusive-append mode with owner-only permissions;
// entries contain personal data. O_APPEND keeps concurrent writers from
// interleaving partial records.
func appendLine(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append to %s: %w", filepath.Base(path), err)
	}
	return nil
}
