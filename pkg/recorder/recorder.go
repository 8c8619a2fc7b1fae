// Package recorder writes GSR readings to time-stamped CSV session files.
package recorder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itohio/goeda/pkg/config"
	"github.com/itohio/goeda/pkg/logging"
	"github.com/itohio/goeda/pkg/sample"
	"go.uber.org/zap"
)

const (
	filePrefix      = "GSR_data_"
	fileExt         = ".csv"
	fileTimeLayout  = "20060102_150405"
	humanTimeLayout = "2006-01-02 15:04:05.000"

	// maxNameAttempts bounds the suffix search when sessions start within the same second.
	maxNameAttempts = 100
)

// Header is the first row of every session file.
var Header = []string{"timestamp", "datetime", "ADC", "microsiemens", "impulse"}

// ErrClosed is returned when appending to a closed session.
var ErrClosed = errors.New("session closed")

// Record is one data row.
type Record struct {
	Timestamp    time.Time
	ADC          uint16
	Microsiemens float64
	Impulse      bool
}

// RecordFromSample builds the row for a sample.
func RecordFromSample(s sample.Sample) Record {
	return Record{
		Timestamp:    s.CapturedAt,
		ADC:          s.RawADC,
		Microsiemens: s.Conductance,
		Impulse:      s.IsImpulse,
	}
}

// fields renders the record in Header order.
func (r Record) fields() []string {
	return []string{
		strconv.FormatFloat(float64(r.Timestamp.UnixMicro())/1e6, 'f', 6, 64),
		r.Timestamp.Format(humanTimeLayout),
		strconv.Itoa(int(r.ADC)),
		strconv.FormatFloat(r.Microsiemens, 'f', -1, 64),
		strconv.FormatBool(r.Impulse),
	}
}

// Session is one open CSV file. It is used from a single goroutine.
type Session struct {
	ID        uuid.UUID
	Path      string
	StartedAt time.Time

	file   *os.File
	w      *csv.Writer
	sync   bool
	rows   int
	closed bool
}

// Append writes one row and flushes it to the operating system, so an
// interrupted process loses at most the row being written.
func (s *Session) Append(r Record) error {
	if s.closed {
		return ErrClosed
	}

	if err := s.w.Write(r.fields()); err != nil {
		return fmt.Errorf("failed to write row to %s: %w", s.Path, err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("failed to write row to %s: %w", s.Path, err)
	}
	if s.sync {
		if err := s.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync %s: %w", s.Path, err)
		}
	}

	s.rows++
	return nil
}

// Rows returns the number of data rows written so far.
func (s *Session) Rows() int {
	return s.rows
}

// Close flushes and closes the file. Closing twice is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.w.Flush()
	flushErr := s.w.Error()
	closeErr := s.file.Close()

	if err := errors.Join(flushErr, closeErr); err != nil {
		return fmt.Errorf("failed to close %s: %w", s.Path, err)
	}
	return nil
}

// Recorder creates session files and keeps at most one of them open.
type Recorder struct {
	dir  string
	sync bool
	now  func() time.Time
	log  *zap.SugaredLogger

	mu     sync.Mutex
	active *Session
}

// New creates a recorder writing into cfg.Dir.
func New(cfg config.RecordingConfig, log *zap.SugaredLogger) *Recorder {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	return &Recorder{
		dir:  dir,
		sync: cfg.Sync,
		now:  time.Now,
		log:  logging.OrNop(log),
	}
}

// Begin closes the active session, if any, and starts a new one named
// GSR_data_<YYYYMMDD>_<HHMMSS>.csv with the header row already written.
func (r *Recorder) Begin() (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.endLocked(); err != nil {
		r.log.Warnw("Error closing previous session", "error", err)
	}

	startedAt := r.now()
	file, path, err := r.create(startedAt)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.New(),
		Path:      path,
		StartedAt: startedAt,
		file:      file,
		w:         csv.NewWriter(file),
		sync:      r.sync,
	}

	if err := s.w.Write(Header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write header to %s: %w", path, err)
	}

	r.active = s
	r.log.Infow("Recording started", "session", s.ID, "path", path)

	return s, nil
}

// create opens a new file exclusively, adding a numeric suffix when a
// session already started in the same second.
func (r *Recorder) create(at time.Time) (*os.File, string, error) {
	base := filePrefix + at.Format(fileTimeLayout)

	for i := range maxNameAttempts {
		name := base + fileExt
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, fileExt)
		}
		path := filepath.Join(r.dir, name)

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("failed to create session file: %w", err)
		}
	}

	return nil, "", fmt.Errorf("failed to create session file: %s%s exists %d times", base, fileExt, maxNameAttempts)
}

// Active returns the open session or nil.
func (r *Recorder) Active() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// End closes the active session. It is a no-op when nothing is recording.
func (r *Recorder) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endLocked()
}

func (r *Recorder) endLocked() error {
	if r.active == nil {
		return nil
	}

	s := r.active
	r.active = nil
	err := s.Close()
	r.log.Infow("Recording stopped", "session", s.ID, "path", s.Path, "rows", s.Rows())

	return err
}
