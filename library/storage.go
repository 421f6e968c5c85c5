package library

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Counter names a persisted identifier sequence.
type Counter string

const (
	CounterBook     Counter = "next_book_id"
	CounterCard     Counter = "next_card_no"
	CounterBorrower Counter = "next_borrower_id"
)

// FileStorage holds the whole library document in memory and persists it as
// a single JSON file. It is not safe for concurrent use, except for
// LastWritten which the file watcher reads from its own goroutine.
type FileStorage struct {
	path string
	data *Data

	mu          sync.Mutex
	lastWritten []byte
}

// NewFileStorage loads the document at path, or starts from DefaultData when
// the file is missing or unreadable.
func NewFileStorage(path string) *FileStorage {
	s := &FileStorage{path: path}
	s.Load()
	return s
}

// Path returns the backing file path.
func (s *FileStorage) Path() string { return s.path }

// Data returns the in-memory document. Callers mutate it in place and then
// call Save.
func (s *FileStorage) Data() *Data { return s.data }

// LastWritten returns the bytes of the last successful Save or Load.
func (s *FileStorage) LastWritten() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWritten
}

func (s *FileStorage) setLastWritten(b []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.lastWritten
	s.lastWritten = b
	return prev
}

// Load reads the backing file. A missing or malformed file resets the
// document to DefaultData; that is logged but never returned as an error.
func (s *FileStorage) Load() {
	raw, err := os.ReadFile(filepath.Clean(s.path))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Cannot read data file, starting empty", "path", s.path, "err", err)
		}
		s.data = DefaultData()
		s.setLastWritten(nil)
		return
	}

	data, err := decodeData(raw)
	if err != nil {
		slog.Warn("Data file is corrupt, starting empty", "path", s.path, "err", err)
		s.data = DefaultData()
		s.setLastWritten(nil)
		return
	}
	normalize(data)
	s.data = data
	s.setLastWritten(raw)
	slog.Debug("Loaded data file", "path", s.path, "books", len(data.Books), "cards", len(data.LibraryCards), "borrowers", len(data.Borrowers))
}

// decodeData parses raw on top of DefaultData. A document whose only
// problem is integral floats such as "copies": 2.0 is accepted after those
// numbers are rewritten as integers.
func decodeData(raw []byte) (*Data, error) {
	data := DefaultData()
	err := json.Unmarshal(raw, data)
	var typeErr *json.UnmarshalTypeError
	if err == nil || !errors.As(err, &typeErr) {
		return data, err
	}
	fixed, ferr := wholeNumbers(raw)
	if ferr != nil {
		return nil, err
	}
	data = DefaultData()
	if err := json.Unmarshal(fixed, data); err != nil {
		return nil, err
	}
	slog.Debug("Converted whole-number floats in data file")
	return data, nil
}

func wholeNumbers(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after document")
	}
	return json.Marshal(integralize(v))
}

func integralize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = integralize(e)
		}
	case []any:
		for i, e := range v {
			v[i] = integralize(e)
		}
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return v
		}
		f, err := v.Float64()
		if err == nil && f == math.Trunc(f) && math.Abs(f) <= 1<<53 {
			return json.Number(strconv.FormatInt(int64(f), 10))
		}
	}
	return v
}

// normalize replaces null collections and drops null entries so that the
// rest of the package never sees a nil record.
func normalize(d *Data) {
	d.Books = compact(d.Books)
	d.LibraryCards = compact(d.LibraryCards)
	d.Borrowers = compact(d.Borrowers)
}

func compact[T any](rows []*T) []*T {
	out := make([]*T, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Save overwrites the backing file with the full document. The content is
// written to a temporary file in the same directory and renamed over the
// target. Failures are logged and returned wrapped in ErrPersistence.
func (s *FileStorage) Save() error {
	if err := s.save(); err != nil {
		slog.Error("Error saving data", "path", s.path, "err", err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (s *FileStorage) save() error {
	raw, err := Marshal(s.data)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	// Recorded before the rename so the watcher never sees our own write as foreign.
	prev := s.setLastWritten(raw)
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		s.setLastWritten(prev)
		return fmt.Errorf("replace data file: %w", err)
	}
	slog.Debug("Saved data file", "path", s.path, "bytes", len(raw))
	return nil
}

// Marshal encodes a document the way the data file stores it: four-space
// indentation and no HTML escaping.
func Marshal(d *Data) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// NextID returns the current value of counter and advances it by one.
func (s *FileStorage) NextID(counter Counter) (int, error) {
	var p *int
	switch counter {
	case CounterBook:
		p = &s.data.NextBookID
	case CounterCard:
		p = &s.data.NextCardNo
	case CounterBorrower:
		p = &s.data.NextBorrowerID
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCounter, counter)
	}
	id := *p
	*p++
	return id, nil
}
