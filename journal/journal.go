// Package journal persists validated envelopes as an append-only,
// line-delimited JSON log.
package journal

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/c360/signalbus/envelope"
	"github.com/c360/signalbus/errors"
)

// Entry is one journal record: an envelope kind plus its raw payload.
// The payload stays as raw JSON so a round trip through the journal
// preserves the bytes that were validated.
type Entry struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewEntry builds an entry from any JSON-serializable payload.
func NewEntry(kind string, payload any) (Entry, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, errors.WrapInvalid(err, "Entry", "NewEntry", "marshal payload")
	}
	return Entry{Kind: kind, Payload: raw}, nil
}

// FromEnvelope converts a parsed envelope into a journal entry.
func FromEnvelope(env *envelope.Envelope) Entry {
	return Entry{Kind: env.Kind, Payload: env.Payload}
}

// Stats reports journal activity counters.
type Stats struct {
	Appends      int64 `json:"appends"`
	Rejections   int64 `json:"rejections"`
	Errors       int64 `json:"errors"`
	BytesWritten int64 `json:"bytes_written"`
}

// Journal is an append-only log of validated envelopes, one JSON entry
// per line. The backing file is the sole source of truth: nothing is
// cached between calls, and each instance assumes it is the only
// writer of its file. Every append re-runs schema validation, so a
// journal file only ever contains envelopes that were valid at write
// time.
type Journal struct {
	path   string
	logger *slog.Logger

	// fileMu serializes file access within this instance. Cross-process
	// coordination is the caller's responsibility.
	fileMu sync.Mutex

	appends      int64
	rejections   int64
	errors       int64
	bytesWritten int64
}

// Option configures a Journal.
type Option func(*Journal)

// WithLogger sets the logger used for journal activity.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Journal) {
		if logger != nil {
			j.logger = logger
		}
	}
}

// New creates a journal backed by the file at path, creating any
// missing parent directories. The file itself appears on first append.
func New(path string, opts ...Option) (*Journal, error) {
	if path == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: journal path", errors.ErrMissingConfig),
			"Journal", "New", "validate path")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.WrapFatal(err, "Journal", "New", "create journal directory")
		}
	}

	j := &Journal{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.logger = j.logger.With("component", "journal")

	return j, nil
}

// Path returns the location of the backing file.
func (j *Journal) Path() string { return j.path }

// Append validates entry and writes it as a single JSON line. An
// invalid entry fails with the validator's error before the file is
// touched.
func (j *Journal) Append(entry Entry) error {
	if err := envelope.AssertValid(entry.Kind, entry.Payload); err != nil {
		atomic.AddInt64(&j.rejections, 1)
		j.logger.Warn("Journal append rejected",
			"path", j.path,
			"kind", entry.Kind,
			"error", err)
		return err
	}

	line, err := json.Marshal(entry)
	if err != nil {
		atomic.AddInt64(&j.errors, 1)
		return errors.WrapInvalid(err, "Journal", "Append", "marshal entry")
	}
	line = append(line, '\n')

	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		atomic.AddInt64(&j.errors, 1)
		return errors.Wrap(err, "Journal", "Append", "open journal file")
	}

	n, err := file.Write(line)
	if err != nil {
		atomic.AddInt64(&j.errors, 1)
		if closeErr := file.Close(); closeErr != nil {
			j.logger.Warn("Failed to close journal file", "path", j.path, "error", closeErr)
		}
		return errors.Wrap(err, "Journal", "Append", "write entry")
	}
	if err := file.Close(); err != nil {
		atomic.AddInt64(&j.errors, 1)
		return errors.Wrap(err, "Journal", "Append", "close journal file")
	}

	atomic.AddInt64(&j.appends, 1)
	atomic.AddInt64(&j.bytesWritten, int64(n))
	j.logger.Debug("Journal entry appended",
		"path", j.path,
		"kind", entry.Kind,
		"bytes_written", n)

	return nil
}

// ReadAll parses every entry currently in the journal. A missing file
// reads as empty. Blank lines are tolerated; any other malformed line
// fails the whole read with its line number.
func (j *Journal) ReadAll() ([]Entry, error) {
	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	data, err := os.ReadFile(j.path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		atomic.AddInt64(&j.errors, 1)
		return nil, errors.Wrap(err, "Journal", "ReadAll", "read journal file")
	}

	var entries []Entry
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			atomic.AddInt64(&j.errors, 1)
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: line %d: %v", errors.ErrParsingFailed, i+1, err),
				"Journal", "ReadAll", "parse entry")
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Clear removes the backing file. Clearing an absent journal is a
// no-op.
func (j *Journal) Clear() error {
	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	if err := os.Remove(j.path); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		atomic.AddInt64(&j.errors, 1)
		return errors.Wrap(err, "Journal", "Clear", "remove journal file")
	}

	j.logger.Info("Journal cleared", "path", j.path)
	return nil
}

// Stats returns a snapshot of the activity counters.
func (j *Journal) Stats() Stats {
	return Stats{
		Appends:      atomic.LoadInt64(&j.appends),
		Rejections:   atomic.LoadInt64(&j.rejections),
		Errors:       atomic.LoadInt64(&j.errors),
		BytesWritten: atomic.LoadInt64(&j.bytesWritten),
	}
}
