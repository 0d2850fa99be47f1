package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/IshaanNene/briefbot/internal/types"
)

// --- JSON Storage ---

// JSONStorage writes records as a JSON array to a file.
type JSONStorage struct {
	path    string
	records []recordDoc
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputPath string, logger *slog.Logger) (*JSONStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &JSONStorage{
		path:    outputPath,
		records: make([]recordDoc, 0),
		logger:  logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(runID string, records []*types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.records = append(s.records, toDoc(runID, rec))
	}
	s.logger.Debug("records buffered", "count", len(records), "total", len(s.records))
	return nil
}

func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.records); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode JSON: %w", err)}
	}

	s.logger.Info("JSON written", "path", s.path, "records", len(s.records))
	return nil
}

// --- JSONL Storage ---

// JSONLStorage writes records as newline-delimited JSON (one object per line).
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates a new JSONL file storage (streaming writes).
func NewJSONLStorage(outputPath string, logger *slog.Logger) (*JSONLStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	return &JSONLStorage{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(runID string, records []*types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if err := s.enc.Encode(toDoc(runID, rec)); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("encode JSONL: %w", err)}
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "records", s.count)
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// --- CSV Storage ---

// csvColumns are the fixed leading columns; extra fields follow sorted.
var csvColumns = []string{"source", "title", "author", "url", "excerpt"}

// CSVStorage writes records as CSV rows. The extra columns are fixed by the
// first batch.
type CSVStorage struct {
	path   string
	file   *os.File
	writer *csv.Writer
	extras []string
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputPath string, logger *slog.Logger) (*CSVStorage, error) {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	return &CSVStorage{
		path:   outputPath,
		file:   f,
		writer: csv.NewWriter(f),
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(_ string, records []*types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.extras == nil && len(records) > 0 {
		seen := make(map[string]bool)
		for _, rec := range records {
			for k := range rec.Extra {
				if !seen[k] {
					seen[k] = true
					s.extras = append(s.extras, k)
				}
			}
		}
		slices.Sort(s.extras)
		if s.extras == nil {
			s.extras = []string{}
		}

		if err := s.writer.Write(append(slices.Clone(csvColumns), s.extras...)); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("write CSV header: %w", err)}
		}
	}

	for _, rec := range records {
		row := []string{rec.Source, rec.Title, rec.Author, rec.URL, rec.Excerpt}
		for _, k := range s.extras {
			row = append(row, rec.Get(k))
		}
		if err := s.writer.Write(row); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("write CSV row: %w", err)}
		}
		s.count++
	}

	s.writer.Flush()
	return s.writer.Error()
}

func (s *CSVStorage) Close() error {
	s.logger.Info("CSV written", "path", s.path, "records", s.count)
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// NewFileStorage creates the file-based storage for format at path.
func NewFileStorage(format, path string, logger *slog.Logger) (Storage, error) {
	switch format {
	case "json":
		return NewJSONStorage(path, logger)
	case "jsonl":
		return NewJSONLStorage(path, logger)
	case "csv":
		return NewCSVStorage(path, logger)
	default:
		return nil, fmt.Errorf("unsupported storage format: %s", format)
	}
}
